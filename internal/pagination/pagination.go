// Package pagination implements the cursor and offset paging used by list procedures.
//
// Cursor pages are ordered newest first with the id as tie-break. A page is
// fetched with one extra row; when the extra row exists its id becomes the
// next cursor, and the following page starts at that record.
package pagination

import (
	"fmt"
	"math"

	"gorm.io/gorm"
)

const (
	DefaultPostLimit    = 10
	MaxPostLimit        = 100
	DefaultCommentLimit = 20
	MaxCommentLimit     = 50
	DefaultPage         = 1
	DefaultPageLimit    = 10
	MaxPageLimit        = 100
)

// Cursor selects one cursor page.
type Cursor struct {
	Limit  int
	Cursor string
}

// OrderScope orders rows of table newest first, ties broken by ascending id.
func OrderScope(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(fmt.Sprintf("%s.created_at DESC", table)).Order(fmt.Sprintf("%s.id ASC", table))
	}
}

// CursorScope positions a query on table at the cursor record and fetches
// Limit+1 rows. An unknown cursor id matches nothing. A soft-deleted cursor
// record still anchors the page, so paging resumes after it.
func CursorScope(table string, c Cursor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(OrderScope(table))
		if c.Cursor != "" {
			anchor := fmt.Sprintf("(SELECT c.created_at FROM %s c WHERE c.id = ?)", table)
			db = db.Where(
				fmt.Sprintf("(%[1]s.created_at < %[2]s OR (%[1]s.created_at = %[2]s AND %[1]s.id >= ?))", table, anchor),
				c.Cursor, c.Cursor, c.Cursor,
			)
		}
		return db.Limit(c.Limit + 1)
	}
}

// Trim cuts rows fetched by CursorScope down to limit and reports the id of
// the first record left out.
func Trim[T any](rows []T, limit int, id func(T) string) ([]T, *string) {
	if len(rows) <= limit {
		return rows, nil
	}
	next := id(rows[limit])
	return rows[:limit], &next
}

// Offset selects one numbered page.
type Offset struct {
	Page  int
	Limit int
}

// Skip is the number of rows before the page. It saturates at math.MaxInt
// rather than wrapping, so a page past the end stays past the end.
func (o Offset) Skip() int {
	if o.Page < 1 || o.Limit < 1 {
		return 0
	}
	if o.Page-1 > math.MaxInt/o.Limit {
		return math.MaxInt
	}
	return (o.Page - 1) * o.Limit
}

// Scope applies the offset and limit.
func (o Offset) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(o.Skip()).Limit(o.Limit)
}

// TotalPages returns ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	l := int64(limit)
	return int((total + l - 1) / l)
}

// Page is one offset page with its totals.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewPage assembles an offset page, never returning a nil item slice.
func NewPage[T any](items []T, total int64, o Offset) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       o.Page,
		Limit:      o.Limit,
		TotalPages: TotalPages(total, o.Limit),
	}
}
