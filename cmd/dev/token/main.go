package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"amenitybook/internal/auth"
	"amenitybook/pkg/config"
)

func main() {
	var (
		role      = flag.String("role", "resident", "resident, janitorial or admin")
		user      = flag.String("user", "", "subject (defaults to a random uuid)")
		community = flag.String("community", "", "community id the caller belongs to")
		ttl       = flag.Duration("ttl", 12*time.Hour, "token lifetime")
	)
	flag.Parse()

	r, err := auth.ParseRole(*role)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *community == "" {
		fmt.Fprintln(os.Stderr, "missing -community")
		os.Exit(2)
	}
	if *user == "" {
		*user = uuid.NewString()
	}

	cfg := config.Load()
	if cfg.Auth.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "missing AUTH_JWT_SECRET in env/.env")
		os.Exit(2)
	}

	tok, err := auth.Issue(auth.Verifier{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	}, auth.Principal{UserID: *user, Role: r, CommunityID: *community}, *ttl, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
