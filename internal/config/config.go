package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings. Values come from the environment;
// main loads a .env file first so local development works without exports.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	MongoURI string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDB  string `envconfig:"MONGO_DB" default:"shopcart"`

	JWTSecret  string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpires int    `envconfig:"JWT_EXPIRES_SEC" default:"3600"`

	SMTPServer   string `envconfig:"SMTP_SERVER"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	EmailFrom    string `envconfig:"EMAIL_FROM"`

	// Base URL of the front end; reset links point here.
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	return c, err
}
