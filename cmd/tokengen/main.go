// Package main provides a CLI tool for generating bearer tokens for the
// avalia API. Tokens signed with the dev key will NOT work against a server
// configured with a production JWT_SIGNING_KEY.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"avalia/internal/platform/token"
)

// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set.
const devSigningKey = "dev-secret-key-change-in-production"

type tokenOutput struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	ExpiresIn string `json:"expires_in"`
	Usage     string `json:"usage"`
}

func main() {
	userIDFlag := flag.String("user-id", "", "User ID (UUID). Generated if empty.")
	name := flag.String("name", "Test User", "Display name embedded in the token")
	email := flag.String("email", "test@example.org", "Email embedded in the token")
	ttl := flag.Duration("ttl", 12*time.Hour, "Token time-to-live")
	signingKey := flag.String("signing-key", "", "Signing key (defaults to the dev key)")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	userID := uuid.New()
	if *userIDFlag != "" {
		parsed, err := uuid.Parse(*userIDFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -user-id: %v\n", err)
			os.Exit(1)
		}
		userID = parsed
	}

	key := devSigningKey
	if *signingKey != "" {
		key = *signingKey
	}

	signed, err := token.New(key, *ttl).Issue(userID, *name, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		out := tokenOutput{
			Token:     signed,
			UserID:    userID.String(),
			ExpiresIn: ttl.String(),
			Usage:     "Authorization: Bearer <token>",
		}
		if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("user id: %s\n", userID)
	fmt.Printf("token:   %s\n", signed)
	fmt.Printf("usage:   curl -H 'Authorization: Bearer %s' http://localhost:8080/certificates\n", signed)
}
