package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/kdimtricp/vidagent/internal/config"
	"github.com/kdimtricp/vidagent/internal/database"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}
	dbConfig := cfg.Database

	var (
		dbType         = flag.String("db", dbConfig.Type, "Database type (postgres or sqlite)")
		path           = flag.String("path", dbConfig.SQLitePath, "SQLite database file")
		host           = flag.String("host", dbConfig.Host, "Database host")
		port           = flag.Int("port", dbConfig.Port, "Database port")
		user           = flag.String("user", dbConfig.User, "Database user")
		password       = flag.String("password", dbConfig.Password, "Database password")
		dbName         = flag.String("name", dbConfig.Name, "Database name")
		migrationsPath = flag.String("migrations", "", "Directory of migrations (default: built-in)")
		status         = flag.Bool("status", false, "Show migration status only")
	)
	flag.Parse()

	dbConfig = database.Config{
		Type:       *dbType,
		SQLitePath: *path,
		Host:       *host,
		Port:       *port,
		User:       *user,
		Password:   *password,
		Name:       *dbName,
	}
	if dbConfig.Type == "postgres" && dbConfig.Port == 0 {
		dbConfig.Port = 5432
	}
	if !dbConfig.Enabled() {
		log.Fatal("Nothing to migrate: session ledger is disabled (DB_TYPE=none)")
	}

	var migrations fs.FS = database.EmbeddedMigrations()
	source := "built-in migrations"
	if *migrationsPath != "" {
		migrations = os.DirFS(*migrationsPath)
		source = *migrationsPath
	}

	db, err := database.NewDB(dbConfig)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	migrator := database.NewMigrator(db.Conn(), dbConfig.Type)

	if *status {
		if err := migrator.Initialize(); err != nil {
			log.Fatal("Failed to initialize migrator:", err)
		}

		applied, err := migrator.GetAppliedMigrations()
		if err != nil {
			log.Fatal("Failed to get applied migrations:", err)
		}

		all, err := migrator.LoadMigrations(migrations)
		if err != nil {
			log.Fatal("Failed to load migrations:", err)
		}

		fmt.Printf("Migration Status (%s):\n", dbConfig)
		fmt.Println("=================")
		for _, m := range all {
			state := "pending"
			if applied[m.Version] {
				state = "applied"
			}
			fmt.Printf("%s - %s [%s]\n", m.Version, m.Name, state)
		}
		return
	}

	fmt.Printf("Running %s against %s...\n", source, dbConfig)
	if err := migrator.Run(migrations); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	fmt.Println("Migrations completed successfully!")
}
