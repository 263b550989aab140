package service

import (
	"context"
	"strings"
	"time"

	"github.com/assetdesk/asset-service/internal/events"
	"github.com/assetdesk/asset-service/internal/repository"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Transactor runs fn inside a single database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// directTx runs fn without a transaction.
type directTx struct{}

func (directTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func transactorOrDirect(tx Transactor) Transactor {
	if tx == nil {
		return directTx{}
	}
	return tx
}

// Pagination is the 1-based page requested by a caller.
type Pagination struct {
	Page     int
	PageSize int
}

// Normalize clamps the page into the supported range.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

func (p Pagination) repo() repository.Page {
	p = p.Normalize()
	return repository.Page{Limit: p.PageSize, Offset: (p.Page - 1) * p.PageSize}
}

// ListResult carries one page of items and the total number of matches.
type ListResult[T any] struct {
	Items []T
	Total int64
	Page  Pagination
}

func newListResult[T any](items []T, total int64, page Pagination) ListResult[T] {
	if items == nil {
		items = []T{}
	}
	return ListResult[T]{Items: items, Total: total, Page: page.Normalize()}
}

// BulkResult reports the outcome for one asset of a bulk operation.
type BulkResult struct {
	AssetID  string `json:"asset_id"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	RecordID string `json:"record_id,omitempty"`
}

func bulkFailure(assetID string, err error) BulkResult {
	return BulkResult{AssetID: assetID, Success: false, Message: apperrors.ToDomainError(err).Message}
}

// publisher delivers events once the surrounding transaction committed.
type publisher struct {
	dispatcher events.Dispatcher
}

func (p publisher) publish(ctx context.Context, evts ...events.Event) {
	if p.dispatcher == nil {
		return
	}
	for _, e := range evts {
		_ = p.dispatcher.Publish(ctx, e)
	}
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewValidationError(field+" is required", map[string]any{"field": field})
	}
	return nil
}

// optionalID trims an id reference and treats blanks as absent.
func optionalID(id *string) *string {
	if id == nil {
		return nil
	}
	v := strings.TrimSpace(*id)
	if v == "" {
		return nil
	}
	return &v
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func derefString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// WorkflowRecorder counts workflow outcomes.
type WorkflowRecorder interface {
	RecordWorkflow(operation string, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordWorkflow(string, error) {}

func recorderOrNop(r WorkflowRecorder) WorkflowRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

// today truncates t to a UTC calendar date.
func today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
