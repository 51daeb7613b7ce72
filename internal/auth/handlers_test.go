package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *Service, *fakeTokenRepo, *fakeUserRepo) {
	t.Helper()
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo()
	mailer := &fakeMailer{}
	issuer := NewTokenIssuer("test-secret", time.Hour)
	svc := NewService(users, tokens, mailer, issuer, "http://localhost:3000")

	router := mux.NewRouter()
	NewHandler(svc, issuer).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, svc, tokens, users
}

func doJSON(t *testing.T, method, url, bearer string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var fields map[string]json.RawMessage
	// Some endpoints return a bare string or an array; fields stays nil then.
	json.NewDecoder(resp.Body).Decode(&fields)
	return resp, fields
}

func registerViaHTTP(t *testing.T, srv *httptest.Server, email, password, name string) (id, token string) {
	t.Helper()
	resp, fields := doJSON(t, "POST", srv.URL+"/register", "", map[string]string{
		"email": email, "password": password, "name": name,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(fields["token"], &token))
	var u struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(fields["user"], &u))
	return u.ID, token
}

func TestRegisterAndLoginScenario(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	_, token := registerViaHTTP(t, srv, "a@x.com", "pw1", "A")
	assert.NotEmpty(t, token)

	resp, fields := doJSON(t, "POST", srv.URL+"/login", "", map[string]string{
		"email": "a@x.com", "password": "pw1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var u struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(fields["user"], &u))
	assert.Equal(t, "a@x.com", u.Email)

	resp, fields = doJSON(t, "POST", srv.URL+"/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(fields["msg"]), "invalid")
}

func TestLoginBodyNeverCarriesHash(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	registerViaHTTP(t, srv, "a@x.com", "pw1", "A")

	req, err := http.NewRequest("POST", srv.URL+"/login", bytes.NewBufferString(`{"email":"a@x.com","password":"pw1"}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw bytes.Buffer
	_, err = raw.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, raw.String(), "password")
	assert.NotContains(t, raw.String(), "$2a$")
}

func TestRegisterDuplicateConflict(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	registerViaHTTP(t, srv, "a@x.com", "pw1", "A")

	resp, _ := doJSON(t, "POST", srv.URL+"/register", "", map[string]string{
		"email": "a@x.com", "password": "other", "name": "B",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegisterMissingFieldsBadRequest(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	resp, _ := doJSON(t, "POST", srv.URL+"/register", "", map[string]string{
		"email": "a@x.com",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetProfileAuthorization(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	idA, tokenA := registerViaHTTP(t, srv, "a@x.com", "pw1", "A")
	idB, _ := registerViaHTTP(t, srv, "b@x.com", "pw2", "B")

	// No token.
	resp, _ := doJSON(t, "GET", srv.URL+"/"+idA, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Own profile.
	resp, fields := doJSON(t, "GET", srv.URL+"/"+idA, tokenA, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(fields["email"]), "a@x.com")
	_, hasHash := fields["password"]
	assert.False(t, hasHash)

	// Another user's profile is forbidden for non-admins.
	resp, _ = doJSON(t, "GET", srv.URL+"/"+idB, tokenA, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetProfileUnknownID(t *testing.T) {
	srv, _, _, users := newTestServer(t)
	idA, tokenA := registerViaHTTP(t, srv, "a@x.com", "pw1", "A")

	// Delete the user behind the session's back.
	require.NoError(t, users.Delete(context.Background(), idA))

	resp, _ := doJSON(t, "GET", srv.URL+"/"+idA, tokenA, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminCanReadAnyProfile(t *testing.T) {
	srv, _, _, users := newTestServer(t)
	idA, _ := registerViaHTTP(t, srv, "a@x.com", "pw1", "A")
	idB, _ := registerViaHTTP(t, srv, "b@x.com", "pw2", "B")

	promoteToAdmin(t, users, idA)
	// Re-login so the token carries the admin flag.
	resp, fields := doJSON(t, "POST", srv.URL+"/login", "", map[string]string{
		"email": "a@x.com", "password": "pw1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var adminToken string
	require.NoError(t, json.Unmarshal(fields["token"], &adminToken))

	resp, _ = doJSON(t, "GET", srv.URL+"/"+idB, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func promoteToAdmin(t *testing.T, users *fakeUserRepo, id string) {
	t.Helper()
	users.mu.Lock()
	defer users.mu.Unlock()
	u, ok := users.users[id]
	require.True(t, ok)
	u.IsAdmin = true
}

func TestUpdateProfileEndpoint(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	idA, tokenA := registerViaHTTP(t, srv, "a@x.com", "pw1", "A")

	resp, fields := doJSON(t, "PATCH", srv.URL+"/"+idA, tokenA, map[string]string{
		"name": "A2", "email": "a@x.com", "street": "Main St", "city": "Springfield", "phone": "555",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(fields["name"]), "A2")
	assert.Contains(t, string(fields["street"]), "Main St")

	// Omitting the password must not lock the user out.
	resp, _ = doJSON(t, "POST", srv.URL+"/login", "", map[string]string{
		"email": "a@x.com", "password": "pw1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPasswordResetScenario(t *testing.T) {
	srv, _, tokens, _ := newTestServer(t)
	registerViaHTTP(t, srv, "a@x.com", "pw1", "A")

	resp, _ := doJSON(t, "POST", srv.URL+"/forget-password", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	value := issuedToken(t, tokens)

	resp, _ = doJSON(t, "POST", srv.URL+"/reset-password/"+value, "", map[string]string{"password": "pw2"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Redeeming the same token again fails.
	resp, _ = doJSON(t, "POST", srv.URL+"/reset-password/"+value, "", map[string]string{"password": "pw3"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Only the new password logs in.
	resp, _ = doJSON(t, "POST", srv.URL+"/login", "", map[string]string{"email": "a@x.com", "password": "pw2"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, "POST", srv.URL+"/login", "", map[string]string{"email": "a@x.com", "password": "pw1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestForgetPasswordUnknownEmail(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	resp, _ := doJSON(t, "POST", srv.URL+"/forget-password", "", map[string]string{"email": "nobody@x.com"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUsersAdminEndpoints(t *testing.T) {
	srv, _, _, users := newTestServer(t)
	idA, tokenA := registerViaHTTP(t, srv, "a@x.com", "pw1", "A")
	idB, _ := registerViaHTTP(t, srv, "b@x.com", "pw2", "B")

	// Non-admins cannot list users.
	resp, _ := doJSON(t, "GET", srv.URL+"/users", tokenA, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	promoteToAdmin(t, users, idA)
	resp, fields := doJSON(t, "POST", srv.URL+"/login", "", map[string]string{
		"email": "a@x.com", "password": "pw1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var adminToken string
	require.NoError(t, json.Unmarshal(fields["token"], &adminToken))

	req, err := http.NewRequest("GET", srv.URL+"/users", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	listResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer listResp.Body.Close()
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
	var profiles []map[string]interface{}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&profiles))
	assert.Len(t, profiles, 2)
	for _, p := range profiles {
		_, hasHash := p["password"]
		assert.False(t, hasHash)
	}

	resp, _ = doJSON(t, "DELETE", srv.URL+"/users/"+idB, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, "DELETE", srv.URL+"/users/"+idB, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
