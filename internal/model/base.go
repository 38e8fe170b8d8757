package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains the audit, soft-delete and optimistic-lock fields shared by every record.
type Base struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	CreatedBy string     `json:"created_by" db:"created_by"`
	UpdatedBy string     `json:"updated_by" db:"updated_by"`
	Deleted   bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	Version   int64      `json:"version" db:"version"`
}

// Record is implemented by every persisted entity through its embedded Base.
type Record interface {
	Meta() *Base
}

func (b *Base) Meta() *Base { return b }

// Stamp fills the creation fields of a new record.
func (b *Base) Stamp(actor string, now time.Time) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	b.CreatedBy = actor
	b.UpdatedBy = actor
	b.Deleted = false
	b.DeletedAt = nil
	b.Version = 1
}

// Touch records a modification. The version is bumped by the store on a successful write.
func (b *Base) Touch(actor string, now time.Time) {
	b.UpdatedAt = now
	b.UpdatedBy = actor
}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps the page to 1.. and the size to 1..MaxPageSize.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// SortOrder represents sorting parameters
type SortOrder struct {
	Field string `json:"field" form:"sort_field"`
	Dir   string `json:"direction" form:"sort_dir"`
}

func (s SortOrder) Descending() bool {
	return s.Dir == "desc" || s.Dir == "DESC"
}

// Page is one page of a listing.
type Page[T any] struct {
	Items    []*T `json:"items"`
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
}

// DateOf truncates t to a calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
