// Command devtoken prints an HS256 bearer token signed with JWT_SECRET_KEY,
// for calling a local server without the mobile app.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/arabadanismani/backend/internal/auth"
	"github.com/arabadanismani/backend/internal/config"
)

func main() {
	userID := flag.String("user", "dev-user", "subject of the token")
	email := flag.String("email", "", "optional email claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY is not set")
	}

	token, err := auth.IssueHMACToken(cfg.Auth.JWTSecret, *userID, *email, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
