package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cmdhub/config"
	"cmdhub/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when no command has the requested id.
	ErrNotFound = errors.New("command not found")
	// ErrConstraint is returned when the database rejects a write.
	ErrConstraint = errors.New("constraint violation")
)

// Store persists commands through gorm. It is safe for concurrent use.
type Store struct {
	conn *gorm.DB
}

// Open connects to the database selected by cfg.DBDriver.
func Open(cfg config.Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
		// WAL lets readers run alongside a writer
		dialector = sqlite.Open(cfg.DBPath + "?_journal_mode=WAL&_busy_timeout=5000")
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.DBDriver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.DBLogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	return &Store{conn: conn}, nil
}

func logLevel(s string) logger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Migrate creates or updates the commands table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.conn.WithContext(ctx).AutoMigrate(&model.Command{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// List returns every command in ascending id order, never nil.
func (s *Store) List(ctx context.Context) ([]model.Command, error) {
	commands := []model.Command{}
	if err := s.conn.WithContext(ctx).Order("id").Find(&commands).Error; err != nil {
		return nil, err
	}
	return commands, nil
}

// Get returns the command with the given id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (model.Command, error) {
	var c model.Command
	if err := s.conn.WithContext(ctx).First(&c, id).Error; err != nil {
		return model.Command{}, translate(err)
	}
	return c, nil
}

// Create inserts c and returns it with the id the database assigned. Any id
// already set on c is discarded.
func (s *Store) Create(ctx context.Context, c model.Command) (model.Command, error) {
	c.ID = 0
	if err := s.conn.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Command{}, translate(err)
	}
	return c, nil
}

// Update replaces every field of the command with id c.ID.
func (s *Store) Update(ctx context.Context, c model.Command) error {
	if c.ID <= 0 {
		return ErrNotFound
	}
	res := s.conn.WithContext(ctx).
		Model(&model.Command{ID: c.ID}).
		Updates(map[string]any{
			"how_to":       c.HowTo,
			"platform":     c.Platform,
			"command_line": c.CommandLine,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the command with the given id and returns it as it was.
func (s *Store) Delete(ctx context.Context, id int64) (model.Command, error) {
	var c model.Command
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
	if err != nil {
		return model.Command{}, translate(err)
	}
	return c, nil
}

// translate maps driver errors onto ErrNotFound and ErrConstraint.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}

	// class 23 is integrity violations, 22001 a value too long for varchar(n)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (strings.HasPrefix(pgErr.Code, "23") || pgErr.Code == "22001") {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}

	return err
}
