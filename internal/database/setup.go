package database

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"chatapp-client/internal/config"
)

func setPragmaValues(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}

	// these next 2 extremely speed up performance of sqlite
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return err
	}

	if _, err := db.Exec("PRAGMA synchronous = normal"); err != nil {
		return err
	}

	return nil
}

func readPragmaValues(db *sql.DB, sugar *zap.SugaredLogger) error {
	var journalModeValue string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&journalModeValue)
	if err != nil {
		return err
	}

	var synchronousValue int
	err = db.QueryRow("PRAGMA synchronous").Scan(&synchronousValue)
	if err != nil {
		return err
	}

	var synchronousValueStr string
	switch synchronousValue {
	case 0:
		synchronousValueStr = "off"
	case 1:
		synchronousValueStr = "normal"
	case 2:
		synchronousValueStr = "full"
	case 3:
		synchronousValueStr = "extra"
	default:
		return fmt.Errorf("synchronous value is unsupported")
	}

	sugar.Debugf("sqlite PRAGMA journal_mode: %s, synchronous: %s", journalModeValue, synchronousValueStr)
	return nil
}

// Setup opens the database backing the sql cache: sqlite when the client is
// self-contained, mysql/mariadb otherwise.
func Setup(cfg config.Cache, sugar *zap.SugaredLogger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	if cfg.SelfContained {
		sugar.Infof("Opening sqlite cache database %s", cfg.SqlitePath)

		db, err = sql.Open("sqlite", cfg.SqlitePath)
		if err != nil {
			return db, err
		}

		// there can be sqlite busy errors if this is not set to 1
		db.SetMaxOpenConns(1)

		err = setPragmaValues(db)
		if err != nil {
			return db, err
		}

		err = readPragmaValues(db, sugar)
		if err != nil {
			return db, err
		}
	} else {
		sugar.Infof("Connecting to cache database mysql/mariadb at %s:%s", cfg.DbAddress, cfg.DbPort)

		db, err = sql.Open("mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&timeout=10s", cfg.DbUser, cfg.DbPassword, cfg.DbAddress, cfg.DbPort, cfg.DbDatabase))
		if err != nil {
			return db, err
		}

		db.SetMaxOpenConns(10)
	}

	err = SetupTables(db)
	if err != nil {
		return db, err
	}

	return db, nil
}

func SetupTables(db *sql.DB) error {
	_, err := db.Exec(`
			CREATE TABLE IF NOT EXISTS entity_cache (
				kind VARCHAR(16) NOT NULL,
				id BIGINT NOT NULL,
				data MEDIUMBLOB NOT NULL,
				expires_at BIGINT NOT NULL DEFAULT 0,
				PRIMARY KEY (kind, id)
			);
		`)
	return err
}
