package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/stocktransfer/internal/domain/inventory"
	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/erp/stocktransfer/internal/domain/shared/valueobject"
	"github.com/erp/stocktransfer/internal/domain/transfer"
	"github.com/erp/stocktransfer/internal/infrastructure/logger"
	"github.com/erp/stocktransfer/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const spanService = "transfer"

// Options configures workflow behavior that is left to deployment
type Options struct {
	ReversalPolicy  transfer.ReversalPolicy
	ReceivePolicy   transfer.ReceivePolicy
	DefaultCurrency string
}

// TransferService runs the inter-store transfer workflow
type TransferService struct {
	scope      TransactionScope
	requests   transfer.RequestRepository
	changeLog  transfer.QuantityChangeLogRepository
	movements  inventory.MovementLedgerRepository
	periods    AccountingPeriodService
	currencies CurrencyService
	products   ProductCatalog
	registry   *inventory.MovementTypeRegistry
	locker     RequestLocker
	publisher  shared.EventPublisher
	metrics    *telemetry.TransferMetrics
	logger     *zap.Logger
	opts       Options
}

// NewTransferService creates a new TransferService
func NewTransferService(
	scope TransactionScope,
	requests transfer.RequestRepository,
	changeLog transfer.QuantityChangeLogRepository,
	movements inventory.MovementLedgerRepository,
	periods AccountingPeriodService,
	currencies CurrencyService,
	products ProductCatalog,
	registry *inventory.MovementTypeRegistry,
	logger *zap.Logger,
	opts Options,
) *TransferService {
	if opts.ReversalPolicy == "" {
		opts.ReversalPolicy = transfer.ReversalPolicyClose
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferService{
		scope:      scope,
		requests:   requests,
		changeLog:  changeLog,
		movements:  movements,
		periods:    periods,
		currencies: currencies,
		products:   products,
		registry:   registry,
		logger:     logger.Named("transfer"),
		opts:       opts,
	}
}

// SetEventPublisher sets the publisher that receives domain events after commit
func (s *TransferService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetMetrics sets the instruments that record operation latency and failures
func (s *TransferService) SetMetrics(metrics *telemetry.TransferMetrics) {
	s.metrics = metrics
}

// SetRequestLocker sets the per-request guard
func (s *TransferService) SetRequestLocker(locker RequestLocker) {
	s.locker = locker
}

// CreateRequest creates a draft request with its items
func (s *TransferService) CreateRequest(ctx context.Context, tenantID, userID uuid.UUID, in CreateRequestInput) (*RequestResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "create")
	defer span.End()

	if err := requireTenant(tenantID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	header, err := s.buildHeader(ctx, tenantID, in)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	items, err := s.buildItems(ctx, tenantID, in.Items)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	actor := transfer.Actor{UserID: userID, Note: in.Note}
	var req *transfer.TransferRequest
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		ref, err := repos.Requests().NextReferenceNumber(ctx, tenantID, time.Now())
		if err != nil {
			return err
		}
		created, err := transfer.NewTransferRequest(tenantID, userID, ref, header)
		if err != nil {
			return err
		}
		var entries []*transfer.QuantityChangeLogEntry
		if len(items) > 0 {
			if entries, err = created.ReplaceItems(items, actor); err != nil {
				return err
			}
		}
		if err := repos.Requests().Save(ctx, created); err != nil {
			return err
		}
		if err := record(ctx, repos, entries, nil); err != nil {
			return err
		}
		req = created
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logFailure("create", tenantID, uuid.Nil, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrRequestID, req.ID.String(),
		telemetry.SpanAttrReferenceNumber, req.ReferenceNumber,
		telemetry.SpanAttrItemCount, len(req.Items),
	)
	s.logger.Info("Transfer request created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("reference", req.ReferenceNumber),
		zap.Int("items", len(req.Items)))

	resp := ToRequestResponse(req)
	return &resp, nil
}

// UpdateRequest replaces header and items of a draft
func (s *TransferService) UpdateRequest(ctx context.Context, tenantID, userID, requestID uuid.UUID, in UpdateRequestInput) (*RequestResponse, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	header, err := s.buildHeader(ctx, tenantID, in)
	if err != nil {
		return nil, err
	}
	items, err := s.buildItems(ctx, tenantID, in.Items)
	if err != nil {
		return nil, err
	}

	actor := transfer.Actor{UserID: userID, Note: in.Note}
	return s.respond(s.mutate(ctx, "update", tenantID, requestID, func(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest) error {
		if err := req.UpdateHeader(header); err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		entries, err := req.ReplaceItems(items, actor)
		if err != nil {
			return err
		}
		return record(ctx, repos, entries, nil)
	}))
}

// DeleteRequest removes a draft
func (s *TransferService) DeleteRequest(ctx context.Context, tenantID, requestID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "delete")
	defer span.End()

	if err := requireTenant(tenantID); err != nil {
		return err
	}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		req, err := repos.Requests().FindByIDForUpdate(ctx, tenantID, requestID)
		if err != nil {
			return err
		}
		if !req.CanDelete() {
			return shared.NewStateError("cannot delete request %s in %s status", req.ReferenceNumber, req.Status)
		}
		return repos.Requests().Delete(ctx, tenantID, requestID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logFailure("delete", tenantID, requestID, err)
		return err
	}
	s.logger.Info("Transfer request deleted", zap.String("request_id", requestID.String()))
	return nil
}

// Submit sends a draft for approval
func (s *TransferService) Submit(ctx context.Context, tenantID, userID, requestID uuid.UUID) (*RequestResponse, error) {
	actor := transfer.Actor{UserID: userID}
	return s.respond(s.mutate(ctx, "submit", tenantID, requestID, func(_ context.Context, _ TransactionalRepositories, req *transfer.TransferRequest) error {
		return req.Submit(actor)
	}))
}

// Approve sets approved quantities in one atomic unit
func (s *TransferService) Approve(ctx context.Context, tenantID, userID, requestID uuid.UUID, in ApproveInput) (*RequestResponse, error) {
	approvals, err := approvalMap(in.Lines)
	if err != nil {
		return nil, err
	}
	actor := transfer.Actor{UserID: userID, Note: in.Note}
	return s.respond(s.mutate(ctx, "approve", tenantID, requestID, func(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest) error {
		entries, err := req.Approve(approvals, actor)
		if err != nil {
			return err
		}
		return record(ctx, repos, entries, nil)
	}))
}

// Reject closes a submitted request
func (s *TransferService) Reject(ctx context.Context, tenantID, userID, requestID uuid.UUID, reason string) (*RequestResponse, error) {
	actor := transfer.Actor{UserID: userID, Note: reason}
	return s.respond(s.mutate(ctx, "reject", tenantID, requestID, func(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest) error {
		entries, err := req.Reject(reason, actor)
		if err != nil {
			return err
		}
		return record(ctx, repos, entries, nil)
	}))
}

// Cancel is the requesting side's cancel; issued stock is not moved
func (s *TransferService) Cancel(ctx context.Context, tenantID, userID, requestID uuid.UUID, note string) (*RequestResponse, error) {
	actor := transfer.Actor{UserID: userID, Note: note}
	return s.respond(s.mutate(ctx, "cancel", tenantID, requestID, func(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest) error {
		entries, err := req.Cancel(actor)
		if err != nil {
			return err
		}
		return record(ctx, repos, entries, nil)
	}))
}

// GetRequest returns a request with its items
func (s *TransferService) GetRequest(ctx context.Context, tenantID, requestID uuid.UUID) (*RequestResponse, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	req, err := s.requests.FindByID(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	resp := ToRequestResponse(req)
	return &resp, nil
}

// ListRequests lists requests with filtering and pagination
func (s *TransferService) ListRequests(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]RequestResponse, int64, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, 0, err
	}

	domainFilter := transfer.RequestFilter{Filter: shared.DefaultFilter().Paged(filter.Page, filter.PageSize)}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		status, err := transfer.ParseRequestStatus(filter.Status)
		if err != nil {
			return nil, 0, shared.NewValidationError("%s", err.Error())
		}
		domainFilter.Status = status
	}
	if filter.Direction != "" {
		direction := transfer.Direction(filter.Direction)
		if !direction.IsValid() {
			return nil, 0, shared.NewValidationError("unknown direction %q", filter.Direction)
		}
		domainFilter.Direction = direction
	}
	if filter.StoreID != nil {
		domainFilter.StoreID = *filter.StoreID
	}

	requests, total, err := s.requests.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToRequestListResponses(requests), total, nil
}

// ListItemLog returns the quantity change log of a request, or of one item when itemID is set
func (s *TransferService) ListItemLog(ctx context.Context, tenantID, requestID uuid.UUID, itemID *uuid.UUID) ([]ChangeLogResponse, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	req, err := s.requests.FindByID(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}

	var entries []transfer.QuantityChangeLogEntry
	if itemID != nil {
		if _, err := req.MustFindItem(*itemID); err != nil {
			return nil, err
		}
		entries, err = s.changeLog.ListByItem(ctx, tenantID, *itemID)
	} else {
		entries, err = s.changeLog.ListByRequest(ctx, tenantID, requestID)
	}
	if err != nil {
		return nil, err
	}
	return ToChangeLogResponses(entries), nil
}

// ListMovements returns the ledger entries written for a request
func (s *TransferService) ListMovements(ctx context.Context, tenantID, requestID uuid.UUID) ([]MovementResponse, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if _, err := s.requests.FindByID(ctx, tenantID, requestID); err != nil {
		return nil, err
	}
	entries, err := s.movements.ListBySource(ctx, tenantID, inventory.SourceTypeTransferRequest, requestID)
	if err != nil {
		return nil, err
	}
	return ToMovementResponses(entries), nil
}

type mutation func(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest) error

// mutate runs fn against the locked request inside one atomic unit, saves the
// request and publishes its events once the unit has committed.
func (s *TransferService) mutate(ctx context.Context, op string, tenantID, requestID uuid.UUID, fn mutation) (req *transfer.TransferRequest, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, op)
	defer span.End()
	defer s.observe(ctx, op, time.Now(), &err)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrRequestID, requestID.String(),
	)

	if err := requireTenant(tenantID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	release, err := s.guard(ctx, tenantID, requestID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer release()

	var from transfer.RequestStatus
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		loaded, err := repos.Requests().FindByIDForUpdate(ctx, tenantID, requestID)
		if err != nil {
			return err
		}
		from = loaded.Status
		if err := fn(ctx, repos, loaded); err != nil {
			return err
		}
		if err := repos.Requests().Save(ctx, loaded); err != nil {
			return err
		}
		req = loaded
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logFailure(op, tenantID, requestID, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrReferenceNumber, req.ReferenceNumber,
		telemetry.SpanAttrStatus, string(req.Status),
	)
	logger.WithTraceContext(ctx, s.logger).Info("Transfer request updated",
		zap.String("operation", op),
		zap.String("tenant_id", tenantID.String()),
		zap.String("reference", req.ReferenceNumber),
		zap.String("from", string(from)),
		zap.String("to", string(req.Status)))

	s.publishEvents(ctx, req)
	return req, nil
}

func (s *TransferService) respond(req *transfer.TransferRequest, err error) (*RequestResponse, error) {
	if err != nil {
		return nil, err
	}
	resp := ToRequestResponse(req)
	return &resp, nil
}

// guard takes the per-request lock; the returned func never fails the operation
func (s *TransferService) guard(ctx context.Context, tenantID, requestID uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	key := fmt.Sprintf("transfer:%s:%s", tenantID, requestID)
	release, err := s.locker.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release request guard", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// publishEvents hands the aggregate's events to the bus; failures are logged by the bus
func (s *TransferService) publishEvents(ctx context.Context, req *transfer.TransferRequest) {
	events := req.PendingEvents()
	if s.publisher == nil || len(events) == 0 {
		req.ClearEvents()
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish transfer events",
			zap.String("reference", req.ReferenceNumber),
			zap.Error(err))
	}
	req.ClearEvents()
}

// observe records the latency of op and, on failure, the error code
func (s *TransferService) observe(ctx context.Context, op string, start time.Time, errp *error) {
	if s.metrics == nil {
		return
	}
	code := ""
	if *errp != nil {
		code = "INTERNAL"
		var de *shared.DomainError
		if errors.As(*errp, &de) {
			code = de.Code
		}
	}
	s.metrics.RecordOperation(ctx, op, time.Since(start), code)
}

func (s *TransferService) logFailure(op string, tenantID, requestID uuid.UUID, err error) {
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("tenant_id", tenantID.String()),
		zap.String("request_id", requestID.String()),
		zap.Error(err),
	}
	switch shared.KindOf(err) {
	case shared.KindPersistence, "":
		s.logger.Error("Transfer operation failed", fields...)
	default:
		s.logger.Warn("Transfer operation rejected", fields...)
	}
}

func (s *TransferService) openPeriod(ctx context.Context, tenantID uuid.UUID) (uuid.UUID, error) {
	if s.periods == nil {
		return uuid.Nil, shared.NewReferenceError("no accounting period service configured")
	}
	return s.periods.CurrentOpenPeriod(ctx, tenantID)
}

func (s *TransferService) buildHeader(ctx context.Context, tenantID uuid.UUID, in CreateRequestInput) (transfer.Header, error) {
	currency, err := s.resolveCurrency(ctx, tenantID, in.Currency)
	if err != nil {
		return transfer.Header{}, err
	}
	if in.ExchangeRate.IsNegative() {
		return transfer.Header{}, shared.NewValidationError("exchange rate cannot be negative")
	}
	return transfer.Header{
		RequestingStoreID: in.RequestingStoreID,
		IssuingStoreID:    in.IssuingStoreID,
		Direction:         transfer.Direction(in.Direction),
		Priority:          transfer.Priority(in.Priority),
		Currency:          currency,
		ExchangeRate:      in.ExchangeRate,
		Note:              in.Note,
	}, nil
}

func (s *TransferService) resolveCurrency(ctx context.Context, tenantID uuid.UUID, raw string) (string, error) {
	if raw == "" && s.currencies != nil {
		tenantCurrency, err := s.currencies.DefaultCurrency(ctx, tenantID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return "", err
		}
		raw = tenantCurrency
	}
	if raw == "" {
		raw = s.opts.DefaultCurrency
	}
	if raw == "" {
		return "", nil
	}
	currency, err := valueobject.ParseCurrency(raw)
	if err != nil {
		return "", shared.NewValidationError("%s", err.Error())
	}
	return currency.String(), nil
}

func (s *TransferService) buildItems(ctx context.Context, tenantID uuid.UUID, inputs []ItemInput) ([]transfer.ItemInput, error) {
	out := make([]transfer.ItemInput, 0, len(inputs))
	for _, in := range inputs {
		if err := s.checkProduct(ctx, tenantID, in); err != nil {
			return nil, err
		}
		out = append(out, transfer.ItemInput{
			ProductID:    in.ProductID,
			Requested:    in.Quantity,
			UnitCost:     in.UnitCost,
			BatchNumber:  in.BatchNumber,
			ExpiryDate:   in.ExpiryDate,
			SerialNumber: in.SerialNumber,
		})
	}
	return out, nil
}

func (s *TransferService) checkProduct(ctx context.Context, tenantID uuid.UUID, in ItemInput) error {
	if s.products == nil || in.ProductID == uuid.Nil {
		return nil
	}
	product, err := s.products.GetProduct(ctx, tenantID, in.ProductID)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewReferenceError("product %s does not exist", in.ProductID)
	}
	if err != nil {
		return err
	}
	if !product.Active {
		return shared.NewValidationError("product %s is inactive", product.Code)
	}
	if product.TracksExpiry && in.BatchNumber != "" && in.ExpiryDate == nil {
		return shared.NewValidationError("product %s requires an expiry date for batch %s", product.Code, in.BatchNumber)
	}
	if product.TracksSerial && in.SerialNumber == "" {
		return shared.NewValidationError("product %s requires a serial number", product.Code)
	}
	return nil
}

func requireTenant(tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return shared.NewValidationError("tenant id is required")
	}
	return nil
}

func approvalMap(lines []LineQuantity) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(lines))
	for _, l := range lines {
		if _, dup := out[l.ItemID]; dup {
			return nil, shared.NewValidationError("item %s is listed twice", l.ItemID)
		}
		out[l.ItemID] = l.Quantity
	}
	return out, nil
}

// record appends log entries and ledger rows written by one operation
func record(ctx context.Context, repos TransactionalRepositories, entries []*transfer.QuantityChangeLogEntry, movements []*inventory.MovementLedgerEntry) error {
	if len(entries) > 0 {
		if err := repos.ChangeLog().Append(ctx, entries...); err != nil {
			return err
		}
	}
	if len(movements) > 0 {
		if err := repos.Movements().Append(ctx, movements...); err != nil {
			return err
		}
	}
	return nil
}
