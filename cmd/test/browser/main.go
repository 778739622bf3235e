package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"go-goodhr-automation/internal/actuator"
	"go-goodhr-automation/internal/browser"
	"go-goodhr-automation/internal/sampling"
)

// Opens a page and performs one click through the page actuator.
func main() {
	url := flag.String("url", "https://www.zhipin.com/web/chat/recommend", "page to open")
	cookiesPath := flag.String("cookies", "./.cookies/cookies-zhipin.json", "cookie export")
	x := flag.Int("x", 400, "click x")
	y := flag.Int("y", 300, "click y")
	flag.Parse()

	fmt.Println("🌐 Testing Browser Manager...")
	ctx := context.Background()

	pm, err := browser.NewPlaywright(ctx, browser.Options{Headless: false})
	if err != nil {
		log.Fatalf("Failed to create Playwright: %v", err)
	}
	defer pm.Close()
	fmt.Println("✅ Playwright started")

	cookies, err := browser.LoadCookies(*cookiesPath)
	if err != nil {
		log.Printf("⚠️ No cookies loaded: %v", err)
	}

	page, err := pm.NewPage(cookies, *url)
	if err != nil {
		log.Fatalf("Failed to open page: %v", err)
	}
	title, _ := page.Title()
	fmt.Printf("✅ Opened: %s\n", title)

	shots := browser.NewScreenshotDebugger("")
	act := actuator.NewPageActuator(page, shots, sampling.New(nil))
	if err := act.MoveAndClick(ctx, *x, *y); err != nil {
		log.Fatalf("Click failed: %v", err)
	}
	fmt.Printf("✅ Clicked at (%d, %d)\n", *x, *y)
	_ = shots.CaptureAndLog(page, "browser_test", "Page after click")
}
