package transfer

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"github.com/erp/stocktransfer/internal/domain/inventory"
	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/erp/stocktransfer/internal/domain/transfer"
	"github.com/erp/stocktransfer/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// lineTarget is a validated (item, quantity) pair of one operation
type lineTarget struct {
	item *transfer.TransferItem
	qty  decimal.Decimal
}

// Issue takes stock out of the issuing store for the listed items.
// The whole call is one atomic unit: any failing line rolls every line back.
func (s *TransferService) Issue(ctx context.Context, tenantID, userID, requestID uuid.UUID, in IssueInput) (*RequestResponse, error) {
	if err := checkLines(in.Lines); err != nil {
		return nil, err
	}
	var periodID uuid.UUID
	if anyPositive(in.Lines) {
		id, err := s.openPeriod(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		periodID = id
	}

	actor := transfer.Actor{UserID: userID, Note: in.Note}
	return s.respond(s.mutate(ctx, "issue", tenantID, requestID, func(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest) error {
		if err := req.CheckCanIssue(); err != nil {
			return err
		}
		targets, err := resolveTargets(req, in.Lines)
		if err != nil {
			return err
		}
		return s.issueTargets(ctx, repos, req, targets, periodID, actor)
	}))
}

// IssueAll issues the remaining quantity of every issuable item in one atomic unit
func (s *TransferService) IssueAll(ctx context.Context, tenantID, userID, requestID uuid.UUID, note string) (*RequestResponse, error) {
	periodID, err := s.openPeriod(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	actor := transfer.Actor{UserID: userID, Note: note}
	return s.respond(s.mutate(ctx, "issue_all", tenantID, requestID, func(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest) error {
		if err := req.CheckCanIssue(); err != nil {
			return err
		}
		targets := make([]lineTarget, 0, len(req.Items))
		for i := range req.Items {
			item := &req.Items[i]
			if item.Status.CanIssue() && item.Remaining.IsPositive() {
				targets = append(targets, lineTarget{item: item, qty: item.Remaining})
			}
		}
		if len(targets) == 0 {
			return shared.NewStateError("request %s has nothing left to issue", req.ReferenceNumber)
		}
		return s.issueTargets(ctx, repos, req, targets, periodID, actor)
	}))
}

// Receive adds stock to the requesting store for the listed items in one atomic unit
func (s *TransferService) Receive(ctx context.Context, tenantID, userID, requestID uuid.UUID, in ReceiveInput) (*RequestResponse, error) {
	if err := checkLines(in.Lines); err != nil {
		return nil, err
	}
	periodID, err := s.openPeriod(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	actor := transfer.Actor{UserID: userID, Note: in.Note}
	return s.respond(s.mutate(ctx, "receive", tenantID, requestID, func(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest) error {
		if err := req.CheckCanReceive(); err != nil {
			return err
		}
		targets, err := resolveTargets(req, in.Lines)
		if err != nil {
			return err
		}
		return s.receiveTargets(ctx, repos, req, targets, periodID, actor)
	}))
}

// ReceiveAll receives everything receivable on every item in one atomic unit
func (s *TransferService) ReceiveAll(ctx context.Context, tenantID, userID, requestID uuid.UUID, note string) (*RequestResponse, error) {
	periodID, err := s.openPeriod(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	actor := transfer.Actor{UserID: userID, Note: note}
	return s.respond(s.mutate(ctx, "receive_all", tenantID, requestID, func(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest) error {
		if err := req.CheckCanReceive(); err != nil {
			return err
		}
		targets := make([]lineTarget, 0, len(req.Items))
		for i := range req.Items {
			item := &req.Items[i]
			if !item.Status.CanReceive() {
				continue
			}
			if max, _ := item.MaxReceivable(s.opts.ReceivePolicy); max.IsPositive() {
				targets = append(targets, lineTarget{item: item, qty: max})
			}
		}
		if len(targets) == 0 {
			return shared.NewStateError("request %s has nothing left to receive", req.ReferenceNumber)
		}
		return s.receiveTargets(ctx, repos, req, targets, periodID, actor)
	}))
}

// ApproveAll approves every item at its requested quantity
func (s *TransferService) ApproveAll(ctx context.Context, tenantID, userID, requestID uuid.UUID, note string) (*RequestResponse, error) {
	return s.Approve(ctx, tenantID, userID, requestID, ApproveInput{Note: note})
}

func (s *TransferService) issueTargets(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest, targets []lineTarget, periodID uuid.UUID, actor transfer.Actor) error {
	for _, t := range targets {
		if err := t.item.ValidateIssue(t.qty); err != nil {
			return err
		}
	}
	sortTargets(targets)

	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationIssue, nil), func(ctx context.Context) {
		entries := make([]*transfer.QuantityChangeLogEntry, 0, len(targets))
		movements := make([]*inventory.MovementLedgerEntry, 0, len(targets))
		issued := make([]transfer.IssuedLine, 0, len(targets))

		for _, t := range targets {
			if t.qty.IsPositive() {
				movement, err := s.takeFromIssuingStore(ctx, repos, req, t.item, t.qty, periodID, actor)
				if err != nil {
					opErr = err
					return
				}
				movements = append(movements, movement)
			}
			entry, err := t.item.ApplyIssue(t.qty, actor)
			if err != nil {
				opErr = err
				return
			}
			entries = append(entries, entry)
			issued = append(issued, transfer.IssuedLine{ItemID: t.item.ID, ProductID: t.item.ProductID, Quantity: t.qty})
		}

		req.CompleteIssue(issued, actor)
		opErr = record(ctx, repos, entries, movements)
	})
	return opErr
}

func (s *TransferService) receiveTargets(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest, targets []lineTarget, periodID uuid.UUID, actor transfer.Actor) error {
	policy := s.opts.ReceivePolicy
	for _, t := range targets {
		if err := t.item.ValidateReceive(t.qty, policy); err != nil {
			return err
		}
	}
	sortTargets(targets)

	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationReceive, nil), func(ctx context.Context) {
		entries := make([]*transfer.QuantityChangeLogEntry, 0, len(targets))
		movements := make([]*inventory.MovementLedgerEntry, 0, len(targets))
		received := make([]transfer.ReceivedLine, 0, len(targets))

		for _, t := range targets {
			if _, exception := t.item.MaxReceivable(policy); exception {
				s.logger.Warn("Receiving against a fulfilled item with nothing issued",
					zap.String("reference", req.ReferenceNumber),
					zap.String("item_id", t.item.ID.String()),
					zap.String("requested", t.item.Requested.String()),
					zap.String("quantity", t.qty.String()))
			}
			movement, err := s.putIntoReceivingStore(ctx, repos, req, t.item, t.qty, periodID, actor)
			if err != nil {
				opErr = err
				return
			}
			movements = append(movements, movement)

			entry, err := t.item.ApplyReceive(t.qty, policy, actor)
			if err != nil {
				opErr = err
				return
			}
			entries = append(entries, entry)
			received = append(received, transfer.ReceivedLine{ItemID: t.item.ID, ProductID: t.item.ProductID, Quantity: t.qty})
		}

		req.CompleteReceive(received, actor)
		opErr = record(ctx, repos, entries, movements)
	})
	return opErr
}

// takeFromIssuingStore locks the issuing balance, decrements it and returns the out movement
func (s *TransferService) takeFromIssuingStore(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest, item *transfer.TransferItem, qty decimal.Decimal, periodID uuid.UUID, actor transfer.Actor) (*inventory.MovementLedgerEntry, error) {
	key := inventory.BalanceKey{TenantID: req.TenantID, StoreID: req.IssuingStoreID, ProductID: item.ProductID}
	balance, err := repos.Balances().FindForUpdate(ctx, key)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewInsufficientStockError(decimal.Zero, qty).
			WithDetail("store_id", key.StoreID.String()).
			WithDetail("product_id", key.ProductID.String())
	}
	if err != nil {
		return nil, err
	}

	before := balance.Quantity
	if err := balance.Decrease(qty); err != nil {
		return nil, err
	}
	if err := repos.Balances().Save(ctx, balance); err != nil {
		return nil, err
	}

	if item.BatchNumber != "" {
		batch, err := repos.Batches().FindForUpdate(ctx, req.TenantID, req.IssuingStoreID, item.ProductID, item.BatchNumber)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			s.logger.Debug("Issuing store has no batch record",
				zap.String("reference", req.ReferenceNumber),
				zap.String("batch", item.BatchNumber))
		case err != nil:
			return nil, err
		default:
			if err := batch.Deduct(qty); err != nil {
				return nil, err
			}
			if err := repos.Batches().Save(ctx, batch); err != nil {
				return nil, err
			}
		}
	}

	return s.newMovement(inventory.MovementTypeStoreIssue, req, item, balance, qty, before, periodID, actor)
}

// putIntoReceivingStore locks (creating at zero) the receiving balance and increments it
func (s *TransferService) putIntoReceivingStore(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest, item *transfer.TransferItem, qty decimal.Decimal, periodID uuid.UUID, actor transfer.Actor) (*inventory.MovementLedgerEntry, error) {
	key := inventory.BalanceKey{TenantID: req.TenantID, StoreID: req.RequestingStoreID, ProductID: item.ProductID}
	balance, err := repos.Balances().GetOrCreateForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}

	before := balance.Quantity
	if err := balance.Increase(qty, item.UnitCost); err != nil {
		return nil, err
	}
	if err := repos.Balances().Save(ctx, balance); err != nil {
		return nil, err
	}

	if item.BatchNumber != "" {
		if err := s.addToBatch(ctx, repos, req.TenantID, req.RequestingStoreID, req.IssuingStoreID, item, qty); err != nil {
			return nil, err
		}
	}

	return s.newMovement(inventory.MovementTypeStoreReceipt, req, item, balance, qty, before, periodID, actor)
}

// addToBatch increments the item's batch at store, creating it from the
// metadata held by the counterpart store when missing.
func (s *TransferService) addToBatch(ctx context.Context, repos TransactionalRepositories, tenantID, storeID, counterpartID uuid.UUID, item *transfer.TransferItem, qty decimal.Decimal) error {
	batch, err := repos.Batches().FindForUpdate(ctx, tenantID, storeID, item.ProductID, item.BatchNumber)
	if errors.Is(err, shared.ErrNotFound) {
		batch, err = inventory.NewStockBatch(tenantID, storeID, item.ProductID, item.BatchNumber, item.ExpiryDate, item.SerialNumber)
	}
	if err != nil {
		return err
	}

	source, err := repos.Batches().Find(ctx, tenantID, counterpartID, item.ProductID, item.BatchNumber)
	switch {
	case errors.Is(err, shared.ErrNotFound):
	case err != nil:
		return err
	default:
		batch.CopyMetadataFrom(source)
	}

	batch.Add(qty)
	return repos.Batches().Save(ctx, batch)
}

func (s *TransferService) newMovement(kind inventory.MovementType, req *transfer.TransferRequest, item *transfer.TransferItem, balance *inventory.InventoryBalance, qty, before decimal.Decimal, periodID uuid.UUID, actor transfer.Actor) (*inventory.MovementLedgerEntry, error) {
	operator := actor.UserID
	return inventory.NewMovementLedgerEntry(inventory.MovementParams{
		TenantID:        req.TenantID,
		Type:            kind,
		Registry:        s.registry,
		Balance:         balance,
		Quantity:        qty,
		BalanceBefore:   before,
		UnitCost:        item.UnitCost,
		Currency:        item.Currency,
		SourceID:        req.ID,
		SourceLineID:    item.ID,
		ReferenceNumber: req.ReferenceNumber,
		PeriodID:        periodID,
		BatchNumber:     item.BatchNumber,
		Note:            actor.Note,
		OperatorID:      &operator,
	})
}

// resolveTargets maps input lines onto the request's items
func resolveTargets(req *transfer.TransferRequest, lines []LineQuantity) ([]lineTarget, error) {
	if len(lines) == 0 {
		return nil, shared.NewValidationError("at least one item is required")
	}
	targets := make([]lineTarget, 0, len(lines))
	for _, l := range lines {
		item, err := req.MustFindItem(l.ItemID)
		if err != nil {
			return nil, err
		}
		targets = append(targets, lineTarget{item: item, qty: l.Quantity})
	}
	return targets, nil
}

// sortTargets orders lines by product so balance rows are always locked in the same order
func sortTargets(targets []lineTarget) {
	sort.SliceStable(targets, func(i, j int) bool {
		return bytes.Compare(targets[i].item.ProductID[:], targets[j].item.ProductID[:]) < 0
	})
}

func checkLines(lines []LineQuantity) error {
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, l := range lines {
		if seen[l.ItemID] {
			return shared.NewValidationError("item %s is listed twice", l.ItemID)
		}
		seen[l.ItemID] = true
		if l.Quantity.IsNegative() {
			return shared.NewValidationError("quantity for item %s cannot be negative", l.ItemID)
		}
	}
	return nil
}

func anyPositive(lines []LineQuantity) bool {
	for _, l := range lines {
		if l.Quantity.IsPositive() {
			return true
		}
	}
	return false
}
