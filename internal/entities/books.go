package entities

import (
	"time"
)

// Book is identified by its natural key (title, author). Author is empty when
// the export did not name one.
type Book struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	Title      string      `gorm:"not null;uniqueIndex:idx_books_title_author;size:512" json:"title"`
	Author     string      `gorm:"not null;default:'';uniqueIndex:idx_books_title_author;size:256" json:"author"`
	Highlights []Highlight `gorm:"foreignKey:BookID" json:"highlights,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Highlight is identified by (BookID, Location). A second highlight at the same
// location of the same book is never stored, whatever its quote.
type Highlight struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	BookID   uint    `gorm:"not null;uniqueIndex:idx_highlights_book_location" json:"book_id"`
	Location string  `gorm:"not null;uniqueIndex:idx_highlights_book_location;size:64" json:"location"`
	Kind     string  `gorm:"size:50" json:"kind"`
	Page     *int    `json:"page,omitempty"`
	AddedAt  *string `gorm:"index;size:32" json:"added_at,omitempty"` // ISO-8601 as exported
	Quote    string  `gorm:"type:text;not null" json:"quote"`

	Book Book `gorm:"foreignKey:BookID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (Book) TableName() string {
	return "books"
}

func (Highlight) TableName() string {
	return "highlights"
}
