package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/assetdesk/asset-service/internal/persistence"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) sql() string {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// where accumulates positional predicates for dynamic list queries.
type where struct {
	clauses []string
	args    []any
}

func newWhere(clauses ...string) *where {
	return &where{clauses: clauses}
}

// add appends value and a predicate; format receives the placeholder index as %[1]d.
func (w *where) add(format string, value any) {
	w.args = append(w.args, value)
	w.clauses = append(w.clauses, fmt.Sprintf(format, len(w.args)))
}

func (w *where) sql() string {
	if len(w.clauses) == 0 {
		return "TRUE"
	}
	return strings.Join(w.clauses, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a contains-match for LIKE, treating the term's wildcards literally.
// Postgres uses backslash as the default LIKE escape.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// base holds the connection shared by all repositories.
type base struct {
	db persistence.DB
}

func (b base) conn(ctx context.Context) persistence.Querier {
	return persistence.Conn(ctx, b.db)
}
