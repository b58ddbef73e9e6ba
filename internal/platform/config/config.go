package config

import (
	"fmt"
	"os"
	"strconv"
)

// Server captures the broker's environment-provided configuration.
type Server struct {
	Addr string

	// Identity provider (Kenni) settings.
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURI  string

	MinimumAge int

	// StorefrontURL is where users land after verification and where
	// failure redirects point. CookieDomain scopes the verification cookie
	// across the storefront's subdomains.
	StorefrontURL string
	CookieDomain  string

	// TokenSigningKey signs the client-held verification token.
	TokenSigningKey string

	// RedisURL selects the Redis-backed verification store when set. Empty
	// means the in-process store, which is fine for a single instance.
	RedisURL string

	SecureCookies bool
}

// FromEnv builds a Server config from environment variables so main stays
// lean. Provider credentials have no defaults; Validate catches their
// absence at startup.
func FromEnv() Server {
	return Server{
		Addr:            envOr("AGEGATE_ADDR", ":8080"),
		Issuer:          os.Getenv("KENNI_ISSUER"),
		ClientID:        os.Getenv("KENNI_CLIENT_ID"),
		ClientSecret:    os.Getenv("KENNI_CLIENT_SECRET"),
		RedirectURI:     os.Getenv("KENNI_REDIRECT_URI"),
		MinimumAge:      envIntOr("MINIMUM_AGE", 20),
		StorefrontURL:   os.Getenv("STOREFRONT_URL"),
		CookieDomain:    os.Getenv("COOKIE_DOMAIN"),
		TokenSigningKey: envOr("TOKEN_SIGNING_KEY", "dev-secret-key-change-in-production"),
		RedisURL:        os.Getenv("REDIS_URL"),
		SecureCookies:   os.Getenv("ENV") == "production",
	}
}

// Validate rejects configurations the broker cannot run with.
func (s Server) Validate() error {
	switch {
	case s.Issuer == "":
		return fmt.Errorf("KENNI_ISSUER is required")
	case s.ClientID == "":
		return fmt.Errorf("KENNI_CLIENT_ID is required")
	case s.ClientSecret == "":
		return fmt.Errorf("KENNI_CLIENT_SECRET is required")
	case s.RedirectURI == "":
		return fmt.Errorf("KENNI_REDIRECT_URI is required")
	case s.StorefrontURL == "":
		return fmt.Errorf("STOREFRONT_URL is required")
	case s.MinimumAge <= 0:
		return fmt.Errorf("MINIMUM_AGE must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
