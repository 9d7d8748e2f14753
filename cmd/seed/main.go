package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/config"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/database"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/recommendations"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/seed"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/telemetry"
)

func main() {
	flags := flag.NewFlagSet("seed", flag.ExitOnError)
	creators := flags.Int("creators", 12, "number of creators to create")
	perCreator := flags.Int("items", 20, "gallery items per creator")
	seedValue := flags.Int64("seed", time.Now().UnixNano(), "random seed")
	asJSON := flags.Bool("json", false, "print the verify report as JSON")

	command := "dev"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command = args[0]
		args = args[1:]
	}
	_ = flags.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := database.Initialize(cfg); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(database.DB); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	seeder := seed.NewSeeder(database.DB, *seedValue)
	seeder.SetCDNBase(cfg.CDNBaseURL)
	ctx := context.Background()

	switch command {
	case "dev":
		log.Println("🌱 Seeding development database...")
		if cfg.GorseURL != "" {
			client := telemetry.NewInstrumentedHTTPClient(telemetry.HTTPClientConfig{ServiceName: "gorse"})
			seeder.SetGorseClient(recommendations.NewGorseRESTClient(cfg.GorseURL, cfg.GorseAPIKey, client))
			log.Println("✅ Gorse client configured")
		} else {
			log.Println("⚠️  GORSE_URL not set - skipping Gorse sync")
		}

		result, err := seeder.SeedDev(ctx, *creators, *perCreator)
		if err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
		log.Printf("✅ Seeded %d creators, %d fans, %d gallery items", result.Creators, result.Fans, result.Items)

	case "test":
		log.Println("🧪 Seeding test database...")
		result, err := seeder.SeedTest(ctx)
		if err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
		log.Printf("✅ Test dataset ready (%d gallery items)", result.Items)

	case "clean":
		log.Println("🧹 Cleaning seed data...")
		if err := seeder.Clean(ctx); err != nil {
			log.Fatalf("❌ Clean failed: %v", err)
		}
		log.Println("✅ Seed data cleaned successfully!")

	case "verify":
		report, err := seeder.Verify(ctx)
		if err != nil {
			log.Fatalf("❌ Verification failed: %v", err)
		}
		if *asJSON {
			out, _ := json.MarshalIndent(report, "", "  ")
			fmt.Println(string(out))
		} else {
			printReport(report)
		}
		if !report.OK() {
			os.Exit(1)
		}

	default:
		fmt.Println("Usage: seed [dev|test|clean|verify] [-creators N] [-items N] [-seed N] [-json]")
		fmt.Println("  dev   - Seed development database with fake creators and gallery items")
		fmt.Println("  test  - Seed a small fixed dataset")
		fmt.Println("  clean - Remove all gallery data (use with caution)")
		fmt.Println("  verify - Count seeded rows and check relationships")
		os.Exit(1)
	}
}

func printReport(r *seed.Report) {
	fmt.Println("📊 Record Counts:")
	fmt.Printf("  Users:        %d\n", r.Users)
	for tier, n := range r.UsersByTier {
		fmt.Printf("    %-10s  %d\n", tier, n)
	}
	fmt.Printf("  Items:        %d (%d locked)\n", r.Items, r.LockedItems)
	fmt.Printf("  Impressions:  %d\n", r.Impressions)
	fmt.Printf("  Clicks:       %d\n", r.Clicks)
	fmt.Println()

	if r.SampleItemID != "" {
		fmt.Println("📋 Sample IDs for API testing:")
		fmt.Printf("  user_id: %s\n", r.SampleUserID)
		fmt.Printf("  item_id: %s\n", r.SampleItemID)
		fmt.Println()
	}

	if r.OK() {
		fmt.Println("✅ Seed data verification complete!")
		return
	}
	for _, p := range r.Problems {
		fmt.Printf("  ❌ %s\n", p)
	}
}
