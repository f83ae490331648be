package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/your-org/grocery-storefront/internal/config"
	"github.com/your-org/grocery-storefront/internal/pkg/auth"
)

func main() {
	userID := flag.Uint("user", 1, "user id carried by the token")
	email := flag.String("email", "shopper@example.com", "email carried by the token")
	admin := flag.Bool("admin", false, "grant admin access")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading configuration:", err)
	}

	token, err := auth.NewJWTManager(cfg).GenerateAccessToken(*userID, *email, *admin)
	if err != nil {
		log.Fatal("Error generating token:", err)
	}

	fmt.Printf("User: %d (%s), admin: %t\n", *userID, *email, *admin)
	fmt.Printf("Token: %s\n", token)
	fmt.Printf("Expires in: %s\n", cfg.JWT.AccessTokenExpiry)
}
