package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"tableside/config"
	"tableside/pkg/database"
)

const usage = `
Tableside - Database CLI Tool

Usage:
  migrate [flags] [command]

Commands:
  up          Create or update every table
  status      Show database connection and table status
  seed        Seed staff, menu and tables
  truncate    Truncate all tables (DANGEROUS, needs -yes)

Flags:
  -admin-user string   Admin username for seeding (default "admin")
  -admin-pass string   Admin password for seeding (default "Admin@123!")
  -staff-pass string   Password of seeded waiter and chef (default "Staff@123!")
  -tables int          Number of dining tables to seed (default 8)
  -yes                 Confirm destructive commands

Examples:
  go run ./cmd/migrate up
  go run ./cmd/migrate -tables 12 seed
  go run ./cmd/migrate -yes truncate
`

func main() {
	defaults := database.DefaultSeedConfig()
	adminUser := flag.String("admin-user", defaults.AdminUsername, "Admin username for seeding")
	adminPass := flag.String("admin-pass", defaults.AdminPassword, "Admin password for seeding")
	staffPass := flag.String("staff-pass", defaults.StaffPassword, "Password of seeded waiter and chef")
	tables := flag.Int("tables", defaults.TableCount, "Number of dining tables to seed")
	confirm := flag.Bool("yes", false, "Confirm destructive commands")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	database.Connect(cfg)
	defer database.Close()

	switch command {
	case "up":
		runMigrationsUp()
	case "status":
		showStatus()
	case "seed":
		runSeed(&database.SeedConfig{
			AdminUsername: *adminUser,
			AdminPassword: *adminPass,
			StaffPassword: *staffPass,
			TableCount:    *tables,
		})
	case "truncate":
		runTruncate(*confirm)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp() {
	log.Println("Running migrations...")

	if err := database.RunMigrations(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed successfully")
}

func showStatus() {
	log.Println("Checking database status...")

	if err := database.Ping(); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Database connection: OK")

	for _, table := range database.TableNames() {
		exists, err := database.TableExists(table)
		if err != nil {
			log.Printf("Error checking table %s: %v", table, err)
			continue
		}
		if exists {
			count, _ := database.GetTableCount(table)
			log.Printf("Table %-16s exists (%d rows)", table, count)
		} else {
			log.Printf("Table %-16s does not exist", table)
		}
	}

	if err := database.HealthCheck(); err != nil {
		log.Printf("Health check warning: %v", err)
	} else {
		log.Println("Health check: PASSED")
	}
}

func runSeed(cfg *database.SeedConfig) {
	log.Println("Seeding database...")

	result, err := database.Seed(cfg)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seed summary:")
	log.Printf("   - Staff: %d", len(result.Staff))
	log.Printf("   - Menu items: %d", len(result.Menu))
	log.Printf("   - Tables: %d", len(result.Tables))
	log.Println("Seeding completed")
}

func runTruncate(confirmed bool) {
	if !confirmed {
		log.Fatal("Refusing to truncate without -yes")
	}
	log.Println("WARNING: truncating all tables")

	if err := database.TruncateAllTables(); err != nil {
		log.Fatalf("Truncate failed: %v", err)
	}

	log.Println("All tables truncated")
}
