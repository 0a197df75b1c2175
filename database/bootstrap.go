package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	sqlite "github.com/glebarez/sqlite" // CGO-free driver
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pvc/entities"
)

// OpenSQLite is Open for binaries: any failure is fatal.
func OpenSQLite(path string) *gorm.DB {
	db, err := Open(path)
	if err != nil {
		log.Fatalf("[db] %v", err)
	}
	return db
}

func Open(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	// pragmas go in the DSN so every pooled connection gets them
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	// single writer; status transitions rely on conditional updates, not on pool isolation
	sqlDB.SetMaxOpenConns(1)

	// must run before AutoMigrate, which would otherwise add type_id next to the old key
	if err := migrateLegacyCompetencies(db); err != nil {
		return nil, fmt.Errorf("migrate competencies: %w", err)
	}

	if err := db.AutoMigrate(
		&entities.ConstructType{},
		&entities.Team{},
		&entities.TeamType{},
		&entities.User{},
		&entities.UserCompetency{},
		&entities.Task{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return db, nil
}

type colInfo struct {
	Cid     int
	Name    string
	Type    string
	NotNull int
	Pk      int
}

func tableColumns(db *gorm.DB, table string) (map[string]bool, error) {
	var cols []colInfo
	if err := db.Raw(fmt.Sprintf("PRAGMA table_info(%s)", table)).Scan(&cols).Error; err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	out := make(map[string]bool, len(cols))
	for _, c := range cols {
		out[strings.ToLower(c.Name)] = true
	}
	return out, nil
}

// migrateLegacyCompetencies rebuilds user_competencies when it is still keyed
// by competency_id. Old rows are mapped to types through
// construct_types.competency_id; rows with no matching type are dropped.
func migrateLegacyCompetencies(db *gorm.DB) error {
	var tbl string
	if err := db.Raw(`SELECT name FROM sqlite_master WHERE type='table' AND name='user_competencies'`).Scan(&tbl).Error; err != nil {
		return fmt.Errorf("check table exist: %w", err)
	}
	if tbl == "" {
		return nil
	}

	cols, err := tableColumns(db, "user_competencies")
	if err != nil {
		return err
	}
	if cols["type_id"] || !cols["competency_id"] {
		return nil
	}

	typeCols, err := tableColumns(db, "construct_types")
	if err != nil {
		return err
	}

	copySQL := ""
	if typeCols["competency_id"] {
		copySQL = `
INSERT OR IGNORE INTO user_competencies_new (user_id, type_id)
SELECT uc.user_id, ct.id
FROM user_competencies uc
JOIN construct_types ct ON ct.competency_id = uc.competency_id;
`
	}

	log.Printf("[db] rebuilding user_competencies keyed by type_id")
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
CREATE TABLE user_competencies_new (
    user_id INTEGER NOT NULL,
    type_id INTEGER NOT NULL,
    PRIMARY KEY (user_id, type_id)
);`).Error; err != nil {
			return err
		}
		if copySQL != "" {
			if err := tx.Exec(copySQL).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec(`DROP TABLE user_competencies`).Error; err != nil {
			return err
		}
		return tx.Exec(`ALTER TABLE user_competencies_new RENAME TO user_competencies`).Error
	})
}
