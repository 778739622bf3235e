package main

import (
	"fmt"
	"log"

	"go-goodhr-automation/internal/config"
)

func main() {
	fmt.Println("🔧 Testing config loading...")
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		log.Fatalf("Config is invalid: %v", err)
	}
	fmt.Printf("✅ Config loaded successfully!\n")
	fmt.Printf("   Phone: %s\n", cfg.Phone)
	fmt.Printf("   Position: %q\n", cfg.Position)
	fmt.Printf("   Data Dir: %s\n", cfg.DataDir)
	fmt.Printf("   Feed: %s\n", cfg.FeedPath)
	fmt.Printf("   Actuator: %s (%s, every %v)\n", cfg.ActuatorMode, cfg.ActuatorURL, cfg.ClickInterval)
	fmt.Printf("   Telegram: %t\n", cfg.TelegramEnabled())
	fmt.Printf("   Postgres: %t\n", cfg.DatabaseURL != "")
	fmt.Printf("   Panel: %q\n", cfg.PanelAddr)
	fmt.Printf("   Schedule: %q\n", cfg.Schedule)
}
