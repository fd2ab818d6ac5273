package db

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

// RunMigrateCommand handles the 'migrate' subcommand dispatching.
func RunMigrateCommand(args []string, dbPath string) {
	if len(args) < 1 {
		PrintMigrateHelp()
		os.Exit(1)
	}

	action := args[0]
	if action == "help" {
		PrintMigrateHelp()
		return
	}

	// Open database connection without running schema initialization
	// (migrations will manage the schema)
	database, err := OpenDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	switch action {
	case "up":
		log.Printf("Running migrations...")
		if err := database.MigrateUp(); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		log.Println("✓ All migrations applied successfully")
		printMigrateVersion(database)

	case "down":
		log.Printf("Rolling back one migration...")
		if err := database.MigrateDown(); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		log.Println("✓ Migration rolled back successfully")
		printMigrateVersion(database)

	case "status":
		version, dirty, err := database.MigrateVersion()
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		fmt.Printf("Current version: %d\n", version)
		fmt.Printf("Dirty: %v\n", dirty)
		if dirty {
			fmt.Println("⚠️  Database is in a dirty state. Run 'synapse migrate force <version>' after repairing it.")
		}

	case "force":
		if len(args) < 2 {
			log.Fatal("Usage: synapse migrate force <version_number>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid version number: %s", args[1])
		}
		if err := database.MigrateForce(version); err != nil {
			log.Fatalf("Force migration failed: %v", err)
		}
		log.Printf("✓ Migration version forced to %d", version)

	default:
		fmt.Printf("Unknown migrate action: %s\n\n", action)
		PrintMigrateHelp()
		os.Exit(1)
	}
}

func printMigrateVersion(database *DB) {
	version, dirty, err := database.MigrateVersion()
	if err != nil {
		log.Printf("Failed to read migration version: %v", err)
		return
	}
	log.Printf("Current version: %d (dirty: %v)", version, dirty)
}

// PrintMigrateHelp displays the help message for the migrate command.
func PrintMigrateHelp() {
	fmt.Println("Database Migration Commands")
	fmt.Println()
	fmt.Println("Usage: synapse [flags] migrate <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up              Apply all pending migrations")
	fmt.Println("  down            Rollback one migration")
	fmt.Println("  status          Show current migration status and version")
	fmt.Println("  force <N>       Force migration version to N (recovery only)")
	fmt.Println("  help            Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  synapse migrate up")
	fmt.Println("  synapse -db synapse.db migrate status")
	fmt.Println("  synapse migrate force 1")
}
