package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"shopcart/internal/token"
	"shopcart/internal/user"

	"github.com/gorilla/mux"
)

// Handler exposes the auth flow over HTTP.
type Handler struct {
	svc    *Service
	issuer *TokenIssuer
}

// NewHandler creates the HTTP handler for the auth routes.
func NewHandler(svc *Service, issuer *TokenIssuer) *Handler {
	return &Handler{svc: svc, issuer: issuer}
}

// RegisterRoutes mounts all auth routes on r. The fixed paths are
// registered before the /{id} catch-alls so they take precedence.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/login", h.login).Methods("POST")
	r.HandleFunc("/register", h.register).Methods("POST")
	r.HandleFunc("/forget-password", h.forgetPassword).Methods("POST")
	r.HandleFunc("/reset-password/{token}", h.resetPassword).Methods("POST")
	r.HandleFunc("/users", h.requireAdmin(h.listUsers)).Methods("GET")
	r.HandleFunc("/users/{id}", h.requireAdmin(h.deleteUser)).Methods("DELETE")
	r.HandleFunc("/{id}", h.requireAuth(h.getProfile)).Methods("GET")
	r.HandleFunc("/{id}", h.requireAuth(h.updateProfile)).Methods("PATCH")
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrMissingFields)
		return
	}
	session, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrMissingFields)
		return
	}
	session, err := h.svc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.authorizeTarget(r, id); err != nil {
		writeError(w, err)
		return
	}
	profile, err := h.svc.GetProfile(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.authorizeTarget(r, id); err != nil {
		writeError(w, err)
		return
	}
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrMissingFields)
		return
	}
	profile, err := h.svc.UpdateProfile(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) forgetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, ErrMissingFields)
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Sent")
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrMissingFields)
		return
	}
	if err := h.svc.RedeemPasswordReset(r.Context(), mux.Vars(r)["token"], req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "password updated!")
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "user deleted"})
}

// authorizeTarget allows a caller to act on their own record, and
// administrators to act on any record.
func (h *Handler) authorizeTarget(r *http.Request, targetID string) error {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		return ErrNoToken
	}
	if claims.UserID != targetID && !claims.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps an operation error to a status code and a {"msg": ...}
// body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrMissingFields), errors.Is(err, token.ErrNotRedeemable):
		status = http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrNoToken):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, user.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, user.ErrDuplicateEmail):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"msg": err.Error()})
}
