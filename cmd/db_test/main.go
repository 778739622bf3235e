package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go-goodhr-automation/internal/database"
	"go-goodhr-automation/internal/models"

	"github.com/joho/godotenv"
)

func main() {
	reset := flag.Bool("reset", false, "delete the quota rows of GOODHR_PHONE")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		godotenv.Load("../../.env") // Fallback
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set. Please check your .env file.")
	}

	fmt.Println("Attempting to connect to PostgreSQL...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := database.ConnectDB(ctx, dbURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to the database. Error: %v", err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Println("✅ Connected, user_quotas is ready")

	phone := os.Getenv("GOODHR_PHONE")
	if phone == "" {
		return
	}
	if *reset {
		if err := repo.DeleteUser(ctx, phone); err != nil {
			log.Fatalf("❌ %v", err)
		}
		fmt.Printf("🗑️ Deleted quota rows for %s\n", phone)
		return
	}

	state, err := repo.QuotaState(ctx, phone)
	if errors.Is(err, models.ErrUserNotFound) {
		fmt.Printf("ℹ️ No quota rows for %s yet\n", phone)
		return
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	vq := state.Active()
	fmt.Printf("🎫 %s: %s, greeted %d, remaining %d, last reset %s\n",
		phone, state.Version, vq.GreetCount, vq.RemainingQuota, vq.LastResetDate)
}
