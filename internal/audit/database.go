package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openlock/agent/internal/logger"
)

var (
	db       *gorm.DB
	dbOnce   sync.Once
	dbSetErr error
)

// Options configures the local SQLite spillover database backing the
// audit trail once its in-memory ring fills.
type Options struct {
	DataDir         string
	FileName        string
	LogLevel        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func setupDB(opts Options) error {
	dbOnce.Do(func() {
		if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
			dbSetErr = fmt.Errorf("audit: create data dir %s: %w", opts.DataDir, err)
			return
		}

		dbPath := filepath.Join(opts.DataDir, opts.FileName)

		var level gormlogger.LogLevel
		switch strings.ToLower(opts.LogLevel) {
		case "silent":
			level = gormlogger.Silent
		case "error":
			level = gormlogger.Error
		case "info":
			level = gormlogger.Info
		default:
			level = gormlogger.Warn
		}

		conn, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger:                 gormlogger.Default.LogMode(level),
			PrepareStmt:            true,
			SkipDefaultTransaction: true,
		})
		if err != nil {
			dbSetErr = fmt.Errorf("audit: open sqlite %s: %w", dbPath, err)
			return
		}

		sqlDB, err := conn.DB()
		if err != nil {
			dbSetErr = fmt.Errorf("audit: get sql.DB: %w", err)
			return
		}
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

		for _, pragma := range []string{
			"PRAGMA journal_mode = WAL;",
			"PRAGMA synchronous = NORMAL;",
			"PRAGMA temp_store = MEMORY;",
		} {
			if execErr := conn.Exec(pragma).Error; execErr != nil {
				dbSetErr = fmt.Errorf("audit: exec pragma %s: %w", pragma, execErr)
				return
			}
		}

		db = conn
		logger.Info("audit database initialized", "path", dbPath)
	})
	return dbSetErr
}
