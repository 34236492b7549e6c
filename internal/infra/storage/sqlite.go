package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"ticker_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage persists the ticker state blob and source icon metadata.
type Storage struct {
	db   *gorm.DB
	path string
}

// NewStorage opens (or creates) the SQLite database at path. An empty path
// resolves to the per-user config directory.
func NewStorage(path string) (*Storage, error) {
	dbPath := path
	if dbPath == "" {
		var err error
		dbPath, err = DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &Storage{db: db, path: dbPath}, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.SourceIcon{}, &domain.AppConfig{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// DefaultDBPath resolves the database file path based on OS
func DefaultDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "TickerGo", "data", "ticker.db"), nil
}

// Path returns the database file path.
func (s *Storage) Path() string {
	return s.path
}

// Close closes the underlying connection.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Blob Operations
// ======================================================================================

// LoadBlob returns the stored blob for key, or nil when nothing was saved.
func (s *Storage) LoadBlob(key string) ([]byte, error) {
	var row domain.AppConfig
	err := s.db.Where(&domain.AppConfig{Key: key}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return []byte(row.Value), nil
}

// SaveBlob replaces the blob stored under key.
func (s *Storage) SaveBlob(key string, data []byte) error {
	return s.SaveConfig(key, string(data))
}

// SaveConfig saves a single key/value row
func (s *Storage) SaveConfig(key, value string) error {
	config := domain.AppConfig{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return s.db.Save(&config).Error
}

// ======================================================================================
// Icon Operations
// ======================================================================================

// UpsertIcon creates or updates a source icon record
func (s *Storage) UpsertIcon(icon *domain.SourceIcon) error {
	return s.db.Save(icon).Error
}

// GetIcon retrieves the icon record for a domain
func (s *Storage) GetIcon(sourceDomain string) (*domain.SourceIcon, error) {
	var icon domain.SourceIcon
	err := s.db.First(&icon, "domain = ?", sourceDomain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &icon, nil
}
