package transfer

import (
	"bytes"
	"context"
	"sort"

	"github.com/erp/stocktransfer/internal/domain/inventory"
	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/erp/stocktransfer/internal/domain/transfer"
	"github.com/erp/stocktransfer/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CancelReceipt is the receiving side's cancel. Items that were partly received
// hand their unreceived issued stock back to the issuing store; what the
// receiver already holds stays there.
func (s *TransferService) CancelReceipt(ctx context.Context, tenantID, userID, requestID uuid.UUID, note string) (*RequestResponse, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}

	current, err := s.requests.FindByID(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	var periodID uuid.UUID
	if needsReversal(current) {
		if periodID, err = s.openPeriod(ctx, tenantID); err != nil {
			return nil, err
		}
	}

	actor := transfer.Actor{UserID: userID, Note: note}
	return s.respond(s.mutate(ctx, "cancel_receipt", tenantID, requestID, func(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest) error {
		return s.reverse(ctx, repos, req, periodID, actor)
	}))
}

func (s *TransferService) reverse(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest, periodID uuid.UUID, actor transfer.Actor) error {
	lines, target, err := req.PlanReversal()
	if err != nil {
		return err
	}
	if len(lines) > 0 && periodID == uuid.Nil {
		// received quantities changed between the preload and the row lock
		return shared.ErrConcurrencyConflict
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return bytes.Compare(lines[i].ProductID[:], lines[j].ProductID[:]) < 0
	})

	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationReverse, nil), func(ctx context.Context) {
		movements := make([]*inventory.MovementLedgerEntry, 0, len(lines))
		returned := make([]transfer.ReturnedLine, 0, len(lines))

		for _, item := range lines {
			qty := item.Returnable()
			movement, err := s.returnToIssuingStore(ctx, repos, req, item, qty, periodID, actor)
			if err != nil {
				opErr = err
				return
			}
			movements = append(movements, movement)
			returned = append(returned, transfer.ReturnedLine{ItemID: item.ID, ProductID: item.ProductID, Quantity: qty})
		}

		entries := req.CompleteReversal(lines, target, s.opts.ReversalPolicy, returned, actor)
		if len(returned) > 0 {
			s.logger.Info("Returned unreceived stock to issuing store",
				zap.String("reference", req.ReferenceNumber),
				zap.Int("lines", len(returned)),
				zap.String("policy", string(s.opts.ReversalPolicy)))
		}
		opErr = record(ctx, repos, entries, movements)
	})
	return opErr
}

// returnToIssuingStore locks (creating at zero) the issuing balance and adds qty back
func (s *TransferService) returnToIssuingStore(ctx context.Context, repos TransactionalRepositories, req *transfer.TransferRequest, item *transfer.TransferItem, qty decimal.Decimal, periodID uuid.UUID, actor transfer.Actor) (*inventory.MovementLedgerEntry, error) {
	key := inventory.BalanceKey{TenantID: req.TenantID, StoreID: req.IssuingStoreID, ProductID: item.ProductID}
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
		if err := s.addToBatch(ctx, repos, req.TenantID, req.IssuingStoreID, req.RequestingStoreID, item, qty); err != nil {
			return nil, err
		}
	}

	return s.newMovement(inventory.MovementTypeStoreReturn, req, item, balance, qty, before, periodID, actor)
}

func needsReversal(req *transfer.TransferRequest) bool {
	for i := range req.Items {
		item := &req.Items[i]
		if !item.Status.IsExcluded() && transfer.NeedsReversal(item.Snapshot()) {
			return true
		}
	}
	return false
}
