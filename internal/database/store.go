package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/clippings/internal/clippings"
	"github.com/mrlokans/clippings/internal/database/settings"
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/importers"
)

var _ importers.Store = (*Database)(nil)

// GetWatermark returns the completion time of the last successful import.
func (d *Database) GetWatermark(ctx context.Context) (string, bool, error) {
	setting, err := settings.NewRepository(d.DB.WithContext(ctx)).GetSetting(entities.SettingKeyLastImportDate)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if setting.Value == "" {
		return "", false, nil
	}
	return setting.Value, true, nil
}

func (d *Database) SetWatermark(ctx context.Context, watermark string) error {
	return settings.NewRepository(d.DB.WithContext(ctx)).SetSetting(entities.SettingKeyLastImportDate, watermark)
}

// ResetWatermark removes the watermark so the next run reprocesses the whole
// export.
func (d *Database) ResetWatermark(ctx context.Context) error {
	return settings.NewRepository(d.DB.WithContext(ctx)).DeleteSetting(entities.SettingKeyLastImportDate)
}

// UpsertBook inserts the book unless (title, author) already exists and
// returns its ID either way.
func (d *Database) UpsertBook(ctx context.Context, title, author string) (uint, error) {
	db := d.DB.WithContext(ctx)

	book := entities.Book{Title: title, Author: author}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title"}, {Name: "author"}},
		DoNothing: true,
	}).Omit(clause.Associations).Create(&book)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to insert book: %w", result.Error)
	}
	if result.RowsAffected > 0 && book.ID != 0 {
		return book.ID, nil
	}

	var existing entities.Book
	if err := db.Select("id").Where("title = ? AND author = ?", title, author).First(&existing).Error; err != nil {
		return 0, fmt.Errorf("failed to look up book: %w", err)
	}
	return existing.ID, nil
}

// UpsertHighlight inserts the highlight unless one already exists at
// (bookID, entry.Location). An existing row is left untouched.
func (d *Database) UpsertHighlight(ctx context.Context, bookID uint, entry clippings.Entry) (uint, bool, error) {
	db := d.DB.WithContext(ctx)

	highlight := entities.Highlight{
		BookID:   bookID,
		Location: entry.Location,
		Kind:     entry.Kind,
		Page:     entry.Page,
		AddedAt:  entry.AddedAt,
		Quote:    entry.Quote,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_id"}, {Name: "location"}},
		DoNothing: true,
	}).Omit(clause.Associations).Create(&highlight)
	if result.Error != nil {
		return 0, false, fmt.Errorf("failed to insert highlight: %w", result.Error)
	}
	if result.RowsAffected > 0 && highlight.ID != 0 {
		return highlight.ID, true, nil
	}

	var existing entities.Highlight
	if err := db.Select("id").Where("book_id = ? AND location = ?", bookID, entry.Location).First(&existing).Error; err != nil {
		return 0, false, fmt.Errorf("failed to look up highlight: %w", err)
	}
	return existing.ID, false, nil
}
