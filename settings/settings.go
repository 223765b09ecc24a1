// Package settings persists simulator settings that outlive a run, such as
// whether the virtual SIM card of a slot is inserted.
package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Setting is one key/value row.
type Setting struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

// Store reads and writes settings in a SQLite database.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create settings directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open settings database: %w", err)
	}

	if err := db.AutoMigrate(&Setting{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get returns the value stored under key. ok is false when the key has
// never been set.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	var setting Setting
	err = s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return setting.Value, true, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	setting := Setting{Key: key, Value: value}
	err := s.db.WithContext(ctx).
		Where(Setting{Key: key}).
		Assign(Setting{Value: value}).
		FirstOrCreate(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// All returns every stored setting.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	var settings []Setting
	if err := s.db.WithContext(ctx).Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	result := make(map[string]string, len(settings))
	for _, setting := range settings {
		result[setting.Key] = setting.Value
	}
	return result, nil
}

// CardKey is the key holding the card presence of slot.
func CardKey(slot int) string {
	return "sim." + strconv.Itoa(slot) + ".inserted"
}

// CardInserted reports whether the SIM card of slot is inserted. A slot
// that was never configured has its card inserted.
func (s *Store) CardInserted(ctx context.Context, slot int) (bool, error) {
	value, ok, err := s.Get(ctx, CardKey(slot))
	if err != nil || !ok {
		return true, err
	}
	inserted, err := strconv.ParseBool(value)
	if err != nil {
		return true, fmt.Errorf("parse %s: %w", CardKey(slot), err)
	}
	return inserted, nil
}

// SetCardInserted records the card presence of slot.
func (s *Store) SetCardInserted(ctx context.Context, slot int, inserted bool) error {
	return s.Set(ctx, CardKey(slot), strconv.FormatBool(inserted))
}
