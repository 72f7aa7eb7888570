package sqlconnect

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/config"
	"fintrack/pkg/utils"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL flavour behind a *sql.DB.
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

var DB *sql.DB

// ConnectDb opens the configured database, pings it and applies migrations.
func ConnectDb(ctx context.Context, cfg config.Config) (*sql.DB, Dialect, error) {
	if DB != nil {
		return DB, Dialect(cfg.DBDriver), nil
	}

	dialect := DialectMySQL
	if cfg.DBDriver == config.DriverSQLite {
		dialect = DialectSQLite
	}

	utils.Logger.WithField("dialect", dialect).Info("Connecting to database...")
	db, err := open(cfg)
	if err != nil {
		return nil, "", err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping DB: %w", err)
	}

	if err = RunMigrations(dialect, func() (*sql.DB, error) { return open(cfg) }); err != nil {
		db.Close()
		return nil, "", err
	}

	DB = db
	utils.Logger.WithField("dialect", dialect).Info("Connected to database")
	return db, dialect, nil
}

func open(cfg config.Config) (*sql.DB, error) {
	if cfg.DBDriver == config.DriverSQLite {
		return OpenSQLite(cfg.SQLitePath)
	}
	return openMySQL(cfg)
}

func mysqlDSN(cfg config.Config) string {
	c := mysql.NewConfig()
	c.User = cfg.DBUser
	c.Passwd = cfg.DBPassword
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%s", cfg.DBHost, cfg.DBPort)
	c.DBName = cfg.DBName
	c.MultiStatements = true
	return c.FormatDSN()
}

func openMySQL(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", mysqlDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open DB connection: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	return db, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file. A single
// connection serializes writers; busy_timeout covers migration handoff.
func OpenSQLite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
