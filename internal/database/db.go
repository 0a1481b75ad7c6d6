package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn   *sql.DB
	dbType string
}

type Config struct {
	Type       string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SQLitePath string
}

// Enabled is false when the ledger has been switched off with DB_TYPE=none.
func (c Config) Enabled() bool {
	return c.Type != "" && c.Type != "none"
}

func (c Config) String() string {
	if c.Type == "postgres" {
		return fmt.Sprintf("postgres %s@%s:%d/%s", c.User, c.Host, c.Port, c.Name)
	}
	return fmt.Sprintf("%s %s", c.Type, c.SQLitePath)
}

func NewDB(config Config) (*DB, error) {
	var conn *sql.DB
	var err error

	switch config.Type {
	case "sqlite":
		conn, err = sql.Open("sqlite3", config.SQLitePath)
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			config.Host, config.Port, config.User, config.Password, config.Name)
		conn, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY.
	if config.Type == "sqlite" {
		conn.SetMaxOpenConns(1)
	}

	return &DB{conn: conn, dbType: config.Type}, nil
}

// RunMigrations applies the embedded schema.
func (db *DB) RunMigrations() error {
	return NewMigrator(db.conn, db.dbType).Run(EmbeddedMigrations())
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Type() string {
	return db.dbType
}

func (db *DB) rebind(query string) string {
	return rebind(db.dbType, query)
}

// rebind rewrites ? placeholders to $n for postgres.
func rebind(dbType, query string) string {
	if dbType != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
