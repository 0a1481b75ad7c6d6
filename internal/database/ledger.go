package database

import (
	"fmt"
	"log"
)

// OpenLedger connects, migrates and returns the session ledger. It returns
// (nil, nil, nil) when the ledger is disabled.
func OpenLedger(config Config) (*SessionLedger, *DB, error) {
	if !config.Enabled() {
		log.Printf("[LEDGER] Disabled (DB_TYPE=%s)", config.Type)
		return nil, nil, nil
	}

	db, err := NewDB(config)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Printf("[LEDGER] Using %s", config)
	return NewSessionLedger(db), db, nil
}
