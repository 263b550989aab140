package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/assetdesk/asset-service/internal/depreciation"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/events"
	"github.com/assetdesk/asset-service/internal/repository"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

const (
	// maxCatchUpPeriods bounds one posting run; a century of monthly periods.
	maxCatchUpPeriods = 1200
	dueBatchSize      = 100
)

// BatchRecorder counts depreciation batch outcomes.
type BatchRecorder interface {
	WorkflowRecorder
	RecordDepreciationBatch(processed, skipped, failed int)
}

type nopBatchRecorder struct{ nopRecorder }

func (nopBatchRecorder) RecordDepreciationBatch(int, int, int) {}

// DepreciationService posts depreciation periods and projects schedules.
type DepreciationService struct {
	assets  repository.AssetRepository
	entries repository.DepreciationEntryRepository
	tx      Transactor
	audit   *AuditService
	events  publisher
	metrics BatchRecorder
	logger  *zap.Logger
	now     func() time.Time
}

// DepreciationDependencies bundles collaborators for DepreciationService.
type DepreciationDependencies struct {
	AssetRepo  repository.AssetRepository
	EntryRepo  repository.DepreciationEntryRepository
	Tx         Transactor
	Audit      *AuditService
	Dispatcher events.Dispatcher
	Metrics    BatchRecorder
	Logger     *zap.Logger
}

// NewDepreciationService constructs the service.
func NewDepreciationService(deps DepreciationDependencies) *DepreciationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var metrics BatchRecorder = nopBatchRecorder{}
	if deps.Metrics != nil {
		metrics = deps.Metrics
	}
	return &DepreciationService{
		assets:  deps.AssetRepo,
		entries: deps.EntryRepo,
		tx:      transactorOrDirect(deps.Tx),
		audit:   deps.Audit,
		events:  publisher{dispatcher: deps.Dispatcher},
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// PostingResult summarizes the periods posted for one asset.
type PostingResult struct {
	AssetID          string
	Periods          int
	Amount           decimal.Decimal
	BookValue        decimal.Decimal
	FullyDepreciated bool
	Entries          []domain.DepreciationEntry
}

// BatchItem is the outcome of one asset inside a batch run.
type BatchItem struct {
	AssetID string          `json:"asset_id"`
	Status  string          `json:"status"`
	Periods int             `json:"periods"`
	Amount  decimal.Decimal `json:"amount"`
	Message string          `json:"message,omitempty"`
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	AsOf      time.Time   `json:"as_of"`
	Processed int         `json:"processed"`
	Skipped   int         `json:"skipped"`
	Failed    int         `json:"failed"`
	Results   []BatchItem `json:"results"`
}

const (
	batchProcessed = "processed"
	batchSkipped   = "skipped"
	batchFailed    = "failed"
)

// Calculate projects a schedule without touching storage.
func (s *DepreciationService) Calculate(params depreciation.Params, usage []int64) ([]depreciation.Entry, error) {
	for _, u := range usage {
		if u < 0 {
			return nil, depreciationValidation(depreciation.ErrNegativeUnits)
		}
	}
	entries, err := depreciation.Schedule(params, usage)
	if err != nil {
		return nil, depreciationValidation(err)
	}
	return entries, nil
}

// Schedule projects the full schedule of an asset from its stored parameters.
func (s *DepreciationService) Schedule(ctx context.Context, scope domain.Scope, assetID string) ([]depreciation.Entry, error) {
	asset, err := s.assets.GetByID(ctx, scope.BusinessUnitID, assetID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "asset", map[string]any{"id": assetID})
	}
	if !asset.Depreciable() {
		return nil, notDepreciable(asset)
	}
	return s.Calculate(asset.DepreciationParams(), nil)
}

// Valuation compares what has been posted for an asset with where its schedule puts it on a date.
type Valuation struct {
	AssetID            string          `json:"asset_id"`
	AsOf               time.Time       `json:"as_of"`
	BookValue          decimal.Decimal `json:"book_value"`
	ProjectedBookValue decimal.Decimal `json:"projected_book_value"`
	PostedPeriods      int             `json:"posted_periods"`
	ElapsedPeriods     int             `json:"elapsed_periods"`
	// Unposted is the projected depreciation not yet on the books; negative when ahead of schedule.
	Unposted decimal.Decimal `json:"unposted"`
}

// Valuation projects the asset's book value on asOf. Units of production assets are projected on an even
// usage plan.
func (s *DepreciationService) Valuation(ctx context.Context, scope domain.Scope, assetID string, asOf time.Time) (*Valuation, error) {
	asset, err := s.assets.GetByID(ctx, scope.BusinessUnitID, assetID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "asset", map[string]any{"id": assetID})
	}
	if !asset.Depreciable() {
		return nil, notDepreciable(asset)
	}
	params := asset.DepreciationParams()
	projected, err := depreciation.BookValueAt(params, asOf)
	if err != nil {
		return nil, depreciationValidation(err)
	}
	elapsed := depreciation.ElapsedPeriods(params.StartDate, asOf)
	if elapsed > params.UsefulLifeMonths {
		elapsed = params.UsefulLifeMonths
	}
	return &Valuation{
		AssetID:            asset.ID,
		AsOf:               asOf,
		BookValue:          asset.CurrentBookValue,
		ProjectedBookValue: projected,
		PostedPeriods:      asset.DepreciationPeriods,
		ElapsedPeriods:     elapsed,
		Unposted:           asset.CurrentBookValue.Sub(projected),
	}, nil
}

// RecordUsage adds consumed units to a units-of-production asset.
func (s *DepreciationService) RecordUsage(ctx context.Context, scope domain.Scope, assetID string, units int64) (*domain.Asset, error) {
	if units <= 0 {
		return nil, apperrors.NewValidationError("units must be positive", map[string]any{"units": units})
	}
	var asset *domain.Asset
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := lockAsset(ctx, s.assets, scope, assetID)
		if err != nil {
			return err
		}
		if current.DepreciationMethod != depreciation.MethodUnitsOfProduction {
			return apperrors.NewConflict("usage applies to units of production assets only", map[string]any{
				"asset_id": assetID,
				"method":   current.DepreciationMethod,
			})
		}
		if current.Status == domain.AssetStatusDisposed {
			return apperrors.NewConflict("asset is disposed", map[string]any{"asset_id": assetID})
		}
		before := current.UnitsUsed
		current.UnitsUsed += units
		if err := s.assets.Update(ctx, current); err != nil {
			return err
		}
		asset = current
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityAsset,
			EntityID:  assetID,
			Action:    domain.ActionUsage,
			OldValues: map[string]any{"units_used": before},
			NewValues: map[string]any{"units_used": current.UnitsUsed},
		})
	})
	s.metrics.RecordWorkflow("usage", err)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return asset, nil
}

// DepreciateAsset posts every period of the asset that is due on or before asOf.
func (s *DepreciationService) DepreciateAsset(ctx context.Context, scope domain.Scope, assetID string, asOf time.Time) (*PostingResult, error) {
	var result *PostingResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		asset, err := lockAsset(ctx, s.assets, scope, assetID)
		if err != nil {
			return err
		}
		result, err = s.post(ctx, scope, asset, asOf)
		return err
	})
	s.metrics.RecordWorkflow("depreciate", err)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if result.Periods > 0 {
		s.events.publish(ctx, events.New(events.EventAssetDepreciated, scope, assetID, events.AssetDepreciatedPayload{
			Periods:          result.Periods,
			Amount:           result.Amount,
			BookValue:        result.BookValue,
			FullyDepreciated: result.FullyDepreciated,
		}))
	}
	return result, nil
}

// RunDue depreciates every due asset, each in its own transaction. A nil businessUnitID covers all units.
func (s *DepreciationService) RunDue(ctx context.Context, actor domain.Scope, businessUnitID *string, asOf time.Time) (*BatchResult, error) {
	result := &BatchResult{AsOf: asOf, Results: []BatchItem{}}
	var cursor *repository.DueCursor
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		due, err := s.assets.ListDue(ctx, businessUnitID, asOf, cursor, dueBatchSize)
		if err != nil {
			return result, apperrors.MapError(err)
		}
		for _, asset := range due {
			result.add(s.runOne(ctx, actor, asset, asOf))
		}
		if len(due) < dueBatchSize {
			break
		}
		last := due[len(due)-1]
		cursor = &repository.DueCursor{NextDate: *last.NextDepreciationDate, ID: last.ID}
	}
	s.metrics.RecordDepreciationBatch(result.Processed, result.Skipped, result.Failed)
	s.logger.Info("depreciation batch finished",
		zap.Time("as_of", asOf),
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}

// History lists the periods posted for an asset.
func (s *DepreciationService) History(ctx context.Context, scope domain.Scope, assetID string) ([]domain.DepreciationEntry, error) {
	if _, err := s.assets.GetByID(ctx, scope.BusinessUnitID, assetID); err != nil {
		return nil, apperrors.NotFoundOr(err, "asset", map[string]any{"id": assetID})
	}
	entries, err := s.entries.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if entries == nil {
		entries = []domain.DepreciationEntry{}
	}
	return entries, nil
}

func (s *DepreciationService) runOne(ctx context.Context, actor domain.Scope, asset domain.Asset, asOf time.Time) BatchItem {
	scope := domain.Scope{BusinessUnitID: asset.BusinessUnitID, UserID: actor.UserID, IPAddress: actor.IPAddress}
	item := BatchItem{AssetID: asset.ID, Amount: decimal.Zero}
	posted, err := s.DepreciateAsset(ctx, scope, asset.ID, asOf)
	switch {
	case err != nil && apperrors.ToDomainError(err).Code == apperrors.CodeConflict:
		item.Status = batchSkipped
		item.Message = apperrors.ToDomainError(err).Message
	case err != nil:
		item.Status = batchFailed
		item.Message = apperrors.ToDomainError(err).Message
		s.logger.Error("depreciation failed", zap.String("asset_id", asset.ID), zap.Error(err))
	case posted.Periods == 0:
		item.Status = batchSkipped
		item.Message = "nothing due"
	default:
		item.Status = batchProcessed
		item.Periods = posted.Periods
		item.Amount = posted.Amount
	}
	return item
}

func (r *BatchResult) add(item BatchItem) {
	switch item.Status {
	case batchProcessed:
		r.Processed++
	case batchSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
	r.Results = append(r.Results, item)
}

// post runs the catch-up loop on a locked asset.
func (s *DepreciationService) post(ctx context.Context, scope domain.Scope, asset *domain.Asset, asOf time.Time) (*PostingResult, error) {
	if asset.Status == domain.AssetStatusDisposed {
		return nil, apperrors.NewConflict("asset is disposed", map[string]any{"asset_id": asset.ID})
	}
	if !asset.Depreciable() {
		return nil, notDepreciable(asset)
	}

	params := asset.DepreciationParams()
	state := asset.DepreciationState()
	result := &PostingResult{AssetID: asset.ID, Amount: decimal.Zero, BookValue: state.BookValue, FullyDepreciated: asset.IsFullyDepreciated}
	if asset.IsFullyDepreciated {
		return result, nil
	}

	if params.Method == depreciation.MethodUnitsOfProduction {
		return s.postUsage(ctx, scope, asset, asOf, result)
	}
	var lastDate time.Time
	for i := 0; i < maxCatchUpPeriods; i++ {
		if state.FullyDepreciated(params) || state.Periods >= params.UsefulLifeMonths {
			break
		}
		due := depreciation.PeriodDate(params.StartDate, state.Periods+1)
		if due.After(asOf) {
			break
		}
		amount, err := depreciation.Period(params, state, 0)
		if err != nil {
			return nil, depreciationValidation(err)
		}
		state = depreciation.Apply(state, amount, 0)
		if err := s.appendEntry(ctx, asset, params, state, due, amount, 0, result); err != nil {
			return nil, err
		}
		lastDate = due
	}
	if len(result.Entries) == 0 {
		return result, nil
	}
	return s.commit(ctx, scope, asset, state, lastDate, depreciation.NextDate(params.StartDate, state.Periods), result)
}

// postUsage posts at most one period per elapsed month for units of production, carrying all usage
// recorded since the last posting. A month without usage only moves the next due date.
func (s *DepreciationService) postUsage(ctx context.Context, scope domain.Scope, asset *domain.Asset, asOf time.Time, result *PostingResult) (*PostingResult, error) {
	params := asset.DepreciationParams()
	state := asset.DepreciationState()
	elapsed := depreciation.ElapsedPeriods(params.StartDate, asOf)
	if elapsed == 0 {
		return result, nil
	}
	due := depreciation.PeriodDate(params.StartDate, elapsed)
	next := depreciation.NextDate(params.StartDate, elapsed)
	if asset.LastDepreciationDate != nil && !due.After(*asset.LastDepreciationDate) {
		return result, nil
	}

	pending := asset.UnitsUsed - asset.UnitsDepreciated
	if pending <= 0 {
		if asset.NextDepreciationDate == nil || !asset.NextDepreciationDate.Equal(next) {
			asset.NextDepreciationDate = &next
			if err := s.assets.Update(ctx, asset); err != nil {
				return nil, err
			}
		}
		return result, nil
	}

	amount, err := depreciation.Period(params, state, pending)
	if err != nil {
		return nil, depreciationValidation(err)
	}
	state = depreciation.Apply(state, amount, pending)
	if err := s.appendEntry(ctx, asset, params, state, due, amount, pending, result); err != nil {
		return nil, err
	}
	return s.commit(ctx, scope, asset, state, due, next, result)
}

func (s *DepreciationService) appendEntry(ctx context.Context, asset *domain.Asset, params depreciation.Params, state depreciation.State, due time.Time, amount decimal.Decimal, units int64, result *PostingResult) error {
	entry := domain.DepreciationEntry{
		BusinessUnitID: asset.BusinessUnitID,
		AssetID:        asset.ID,
		PeriodNumber:   state.Periods,
		PeriodDate:     due,
		Method:         string(params.Method),
		Amount:         amount,
		Accumulated:    state.Accumulated,
		BookValue:      state.BookValue,
		Units:          units,
	}
	if err := s.entries.Create(ctx, &entry); err != nil {
		return err
	}
	result.Entries = append(result.Entries, entry)
	result.Amount = result.Amount.Add(amount)
	return nil
}

// commit stores the new running totals on the asset and audits the posting.
func (s *DepreciationService) commit(ctx context.Context, scope domain.Scope, asset *domain.Asset, state depreciation.State, lastDate, next time.Time, result *PostingResult) (*PostingResult, error) {
	params := asset.DepreciationParams()
	unitsBased := params.Method == depreciation.MethodUnitsOfProduction
	before := map[string]any{
		"current_book_value":       asset.CurrentBookValue.StringFixed(2),
		"accumulated_depreciation": asset.AccumulatedDepreciation.StringFixed(2),
		"depreciation_periods":     asset.DepreciationPeriods,
	}
	asset.CurrentBookValue = state.BookValue
	asset.AccumulatedDepreciation = state.Accumulated
	asset.DepreciationPeriods = state.Periods
	asset.UnitsDepreciated = state.UnitsDepreciated
	asset.LastDepreciationDate = &lastDate
	asset.IsFullyDepreciated = state.FullyDepreciated(params) || (!unitsBased && state.Periods >= params.UsefulLifeMonths)
	if asset.IsFullyDepreciated {
		asset.NextDepreciationDate = nil
	} else {
		asset.NextDepreciationDate = &next
	}
	if err := s.assets.Update(ctx, asset); err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, scope, AuditChange{
		Entity:    domain.EntityAsset,
		EntityID:  asset.ID,
		Action:    domain.ActionDepreciate,
		OldValues: before,
		NewValues: map[string]any{
			"current_book_value":       asset.CurrentBookValue.StringFixed(2),
			"accumulated_depreciation": asset.AccumulatedDepreciation.StringFixed(2),
			"depreciation_periods":     asset.DepreciationPeriods,
			"amount":                   result.Amount.StringFixed(2),
		},
	}); err != nil {
		return nil, err
	}

	result.Periods = len(result.Entries)
	result.BookValue = state.BookValue
	result.FullyDepreciated = asset.IsFullyDepreciated
	return result, nil
}

func notDepreciable(asset *domain.Asset) error {
	return apperrors.NewConflict("asset has no depreciation setup", map[string]any{"asset_id": asset.ID})
}
