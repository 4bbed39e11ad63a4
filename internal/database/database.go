package database

import (
	"context"
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/clippings/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (creating if needed) the sqlite database at dbPath and
// migrates the schema.
func NewDatabase(dbPath string) (*Database, error) {
	return Open(dbPath, logger.Warn)
}

// Open is NewDatabase with an explicit gorm log level.
func Open(dbPath string, logLevel logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: imports are sequential and sqlite allows a single writer.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Highlight{},
		&entities.Setting{},
		&entities.ImportRun{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats holds library totals.
type Stats struct {
	Books      int64 `json:"books"`
	Highlights int64 `json:"highlights"`
}

func (d *Database) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	db := d.DB.WithContext(ctx)
	if err := db.Model(&entities.Book{}).Count(&stats.Books).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&entities.Highlight{}).Count(&stats.Highlights).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

// BookSummary is a book with its highlight count.
type BookSummary struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Highlights int64  `json:"highlights"`
}

// ListBooks returns every book ordered by title and author, with the number
// of highlights stored under it.
func (d *Database) ListBooks(ctx context.Context) ([]BookSummary, error) {
	var books []BookSummary
	err := d.DB.WithContext(ctx).
		Model(&entities.Book{}).
		Select("books.id, books.title, books.author, COUNT(highlights.id) AS highlights").
		Joins("LEFT JOIN highlights ON highlights.book_id = books.id").
		Group("books.id").
		Order("books.title ASC, books.author ASC").
		Scan(&books).Error
	return books, err
}
