// Command token mints a bearer token for local testing with AUTH_MODE=jwt.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/rpc"
)

func main() {
	userID := flag.String("user", "", "User id to place in the sub claim")
	role := flag.String("role", string(models.RoleUser), "Role claim (USER or ADMIN)")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *userID == "" {
		log.Fatal("usage: go run ./cmd/token -user <id> [-role ADMIN] [-ttl 1h]")
	}
	r := models.Role(strings.ToUpper(*role))
	if !r.Valid() {
		log.Fatalf("unknown role %q", *role)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	token, err := rpc.NewJWTAuthenticator(cfg.JWTSecret).Mint(*userID, r, *ttl)
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}
	fmt.Println(token)
}
