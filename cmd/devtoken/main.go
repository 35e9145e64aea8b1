// devtoken mints a bearer token for an existing account so the protected
// company routes can be exercised without going through login.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gartstein/jobboard/internal/jobboard/auth"
	"github.com/gartstein/jobboard/internal/jobboard/config"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// TokenResponse is printed to stdout.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func main() {
	configPath := flag.String("config", filepath.Join("internal", "jobboard", "config", "config.yaml"), "Path to the service config file")
	accountID := flag.String("id", "", "Account id the token is issued for")
	email := flag.String("email", "", "Account email carried in the token")
	ttl := flag.Duration("ttl", 0, "Token lifetime; defaults to TOKEN_TTL from config")
	flag.Parse()

	// Values already in the environment win over .env.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	id, err := uuid.Parse(*accountID)
	if err != nil || *email == "" {
		fmt.Fprintln(os.Stderr, "usage: devtoken -id <account uuid> -email <address>")
		os.Exit(2)
	}

	lifetime := cfg.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, lifetime)
	if err != nil {
		fmt.Fprintln(os.Stderr, "token issuer:", err)
		os.Exit(1)
	}

	token, expiresAt, err := issuer.Issue(id, *email)
	if err != nil {
		fmt.Fprintln(os.Stderr, "issue:", err)
		os.Exit(1)
	}

	if err := json.NewEncoder(os.Stdout).Encode(TokenResponse{Token: token, ExpiresAt: expiresAt}); err != nil {
		fmt.Fprintln(os.Stderr, "encode:", err)
		os.Exit(1)
	}
}
