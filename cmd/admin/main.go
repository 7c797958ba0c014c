// Package main provides admin management utilities for Inkwell.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <email>            - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <email>             - Demote user from admin")
	fmt.Println("  go run ./cmd/admin list-admins                - List all admins")
	fmt.Println("  go run ./cmd/admin token [-ttl 1h] <email>    - Mint a development bearer token")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	switch os.Args[1] {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
		}
		setAdmin(db, os.Args[2], os.Args[1] == "promote")
	case "list-admins":
		listAdmins(db)
	case "token":
		fs := flag.NewFlagSet("token", flag.ExitOnError)
		ttl := fs.Duration("ttl", time.Hour, "Token lifetime")
		_ = fs.Parse(os.Args[2:])
		if fs.NArg() < 1 {
			usage()
		}
		if cfg.IsProduction() {
			log.Fatal("Refusing to mint tokens in production; use the identity provider")
		}
		mintToken(db, cfg, fs.Arg(0), *ttl)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func findUser(db *gorm.DB, email string) models.User {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		log.Fatalf("Invalid email %q: %v", email, err)
	}
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fmt.Printf("User with email %s not found\n", email)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	return user
}

func setAdmin(db *gorm.DB, email string, admin bool) {
	user := findUser(db, email)
	if user.IsAdmin == admin {
		fmt.Printf("User %s (ID: %d) already has admin=%t\n", user.Username, user.ID, admin)
		return
	}
	if err := db.Model(&user).Update("is_admin", admin).Error; err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}
	fmt.Printf("User %s (ID: %d) admin=%t\n", user.Username, user.ID, admin)
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	if err := db.Where("is_admin = ?", true).Order("id").Find(&admins).Error; err != nil {
		log.Fatalf("Database error: %v", err)
	}
	if len(admins) == 0 {
		fmt.Println("No admins found")
		return
	}
	for _, u := range admins {
		fmt.Printf("  ID: %d, Username: %s, Email: %s\n", u.ID, u.Username, u.Email)
	}
}

func mintToken(db *gorm.DB, cfg *config.Config, email string, ttl time.Duration) {
	user := findUser(db, email)
	role := "user"
	if user.IsAdmin {
		role = middleware.RoleAdmin
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"iss":  cfg.JWTIssuer,
		"aud":  cfg.JWTAudience,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(signed)
}
