package transfer

import (
	"testing"
	"time"

	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func testActor() Actor { return Actor{UserID: uuid.New()} }

func newDraft(t *testing.T, quantities ...int64) *TransferRequest {
	t.Helper()
	req, err := NewTransferRequest(uuid.New(), uuid.New(), "TR-20240101-0001", Header{
		RequestingStoreID: uuid.New(),
		IssuingStoreID:    uuid.New(),
		Currency:          "USD",
	})
	require.NoError(t, err)
	for _, q := range quantities {
		_, _, err := req.AddItem(ItemInput{ProductID: uuid.New(), Requested: dec(q), UnitCost: dec(2)}, testActor())
		require.NoError(t, err)
	}
	return req
}

func newApproved(t *testing.T, quantities ...int64) *TransferRequest {
	t.Helper()
	req := newDraft(t, quantities...)
	require.NoError(t, req.Submit(testActor()))
	_, err := req.Approve(nil, testActor())
	require.NoError(t, err)
	return req
}

// issue applies qty to every line and completes the round the way the service does
func issue(t *testing.T, req *TransferRequest, qty ...int64) {
	t.Helper()
	require.NoError(t, req.CheckCanIssue())
	lines := make([]IssuedLine, 0, len(qty))
	for i, q := range qty {
		item := &req.Items[i]
		_, err := item.ApplyIssue(dec(q), testActor())
		require.NoError(t, err)
		lines = append(lines, IssuedLine{ItemID: item.ID, ProductID: item.ProductID, Quantity: dec(q)})
	}
	req.CompleteIssue(lines, testActor())
}

func receive(t *testing.T, req *TransferRequest, qty ...int64) {
	t.Helper()
	require.NoError(t, req.CheckCanReceive())
	lines := make([]ReceivedLine, 0, len(qty))
	for i, q := range qty {
		if q == 0 {
			continue
		}
		item := &req.Items[i]
		_, err := item.ApplyReceive(dec(q), ReceivePolicy{}, testActor())
		require.NoError(t, err)
		lines = append(lines, ReceivedLine{ItemID: item.ID, ProductID: item.ProductID, Quantity: dec(q)})
	}
	req.CompleteReceive(lines, testActor())
}

func TestNewTransferRequest(t *testing.T) {
	t.Run("defaults direction priority and rate", func(t *testing.T) {
		req := newDraft(t)
		assert.Equal(t, RequestStatusDraft, req.Status)
		assert.Equal(t, DirectionRequest, req.Direction)
		assert.Equal(t, PriorityNormal, req.Priority)
		assert.True(t, req.ExchangeRate.Equal(dec(1)))
	})

	t.Run("rejects same store on both sides", func(t *testing.T) {
		store := uuid.New()
		_, err := NewTransferRequest(uuid.New(), uuid.New(), "TR-20240101-0001", Header{RequestingStoreID: store, IssuingStoreID: store})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("requires tenant", func(t *testing.T) {
		_, err := NewTransferRequest(uuid.Nil, uuid.New(), "TR-20240101-0001", Header{RequestingStoreID: uuid.New(), IssuingStoreID: uuid.New()})
		assert.ErrorIs(t, err, shared.ErrMissingTenant)
	})
}

func TestTransferRequest_DraftEditing(t *testing.T) {
	t.Run("add item logs requested quantity and totals", func(t *testing.T) {
		req := newDraft(t)
		item, entry, err := req.AddItem(ItemInput{ProductID: uuid.New(), Requested: dec(5), UnitCost: dec(3)}, testActor())
		require.NoError(t, err)
		assert.Equal(t, ItemStatusPending, item.Status)
		assert.Equal(t, ChangeKindRequested, entry.Kind)
		assert.True(t, entry.ResultingValue.Equal(dec(5)))
		assert.Equal(t, 1, req.TotalItems)
		assert.True(t, req.TotalValue.Equal(dec(15)))
	})

	t.Run("duplicate product is rejected", func(t *testing.T) {
		req := newDraft(t)
		product := uuid.New()
		_, _, err := req.AddItem(ItemInput{ProductID: product, Requested: dec(1)}, testActor())
		require.NoError(t, err)
		_, _, err = req.AddItem(ItemInput{ProductID: product, Requested: dec(2)}, testActor())
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("replace keeps ids of matching lines", func(t *testing.T) {
		req := newDraft(t, 10)
		original := req.Items[0]
		entries, err := req.ReplaceItems([]ItemInput{
			{ProductID: original.ProductID, Requested: dec(12)},
			{ProductID: uuid.New(), Requested: dec(3)},
		}, testActor())
		require.NoError(t, err)
		require.Len(t, req.Items, 2)
		assert.Equal(t, original.ID, req.Items[0].ID)
		require.Len(t, entries, 2)
		assert.True(t, entries[0].Quantity.Equal(dec(2)))
	})

	t.Run("cannot edit after submit", func(t *testing.T) {
		req := newDraft(t, 1)
		require.NoError(t, req.Submit(testActor()))
		_, _, err := req.AddItem(ItemInput{ProductID: uuid.New(), Requested: dec(1)}, testActor())
		assert.True(t, shared.IsKind(err, shared.KindState))
		assert.False(t, req.CanDelete())
	})

	t.Run("submit needs items", func(t *testing.T) {
		req := newDraft(t)
		err := req.Submit(testActor())
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})
}

func TestTransferRequest_Approve(t *testing.T) {
	t.Run("partial approval sets ceiling and logs every line", func(t *testing.T) {
		req := newDraft(t, 10, 5)
		require.NoError(t, req.Submit(testActor()))
		entries, err := req.Approve(map[uuid.UUID]decimal.Decimal{req.Items[0].ID: dec(6)}, Actor{UserID: uuid.New(), Note: "ok"})
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, RequestStatusApproved, req.Status)
		assert.Equal(t, "ok", req.ApprovalNote)
		assert.True(t, req.Items[0].Approved.Equal(dec(6)))
		assert.True(t, req.Items[0].Remaining.Equal(dec(6)))
		assert.True(t, req.Items[1].Approved.Equal(dec(5)))
		assert.True(t, req.TotalValue.Equal(dec(22)))
		assert.NotNil(t, req.ApprovedAt)
	})

	t.Run("zero approval rejects that line", func(t *testing.T) {
		req := newDraft(t, 10, 5)
		require.NoError(t, req.Submit(testActor()))
		_, err := req.Approve(map[uuid.UUID]decimal.Decimal{req.Items[1].ID: decimal.Zero}, testActor())
		require.NoError(t, err)
		assert.Equal(t, ItemStatusRejected, req.Items[1].Status)
		assert.Equal(t, RequestStatusApproved, req.Status)
	})

	t.Run("all zero rejects the request", func(t *testing.T) {
		req := newDraft(t, 10)
		require.NoError(t, req.Submit(testActor()))
		_, err := req.Approve(map[uuid.UUID]decimal.Decimal{req.Items[0].ID: decimal.Zero}, testActor())
		require.NoError(t, err)
		assert.Equal(t, RequestStatusRejected, req.Status)
	})

	t.Run("over approval leaves every line untouched", func(t *testing.T) {
		req := newDraft(t, 10, 5)
		require.NoError(t, req.Submit(testActor()))
		_, err := req.Approve(map[uuid.UUID]decimal.Decimal{
			req.Items[0].ID: dec(4),
			req.Items[1].ID: dec(6),
		}, testActor())
		assert.True(t, shared.IsKind(err, shared.KindValidation))
		for _, it := range req.Items {
			assert.Equal(t, ItemStatusPending, it.Status)
			assert.True(t, it.Approved.IsZero())
		}
		assert.Equal(t, RequestStatusSubmitted, req.Status)
	})

	t.Run("unknown item is rejected", func(t *testing.T) {
		req := newDraft(t, 10)
		require.NoError(t, req.Submit(testActor()))
		_, err := req.Approve(map[uuid.UUID]decimal.Decimal{uuid.New(): dec(1)}, testActor())
		assert.Error(t, err)
	})
}

func TestTransferRequest_Reject(t *testing.T) {
	req := newDraft(t, 10, 5)
	require.NoError(t, req.Submit(testActor()))

	_, err := req.Reject("", testActor())
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	entries, err := req.Reject("not needed", testActor())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, RequestStatusRejected, req.Status)
	for _, it := range req.Items {
		assert.Equal(t, ItemStatusRejected, it.Status)
		assert.Equal(t, "not needed", it.RejectionReason)
	}
}

func TestTransferRequest_IssueAndReceive(t *testing.T) {
	t.Run("scenario A: full issue then partial receipts", func(t *testing.T) {
		req := newApproved(t, 10)
		issue(t, req, 10)
		assert.Equal(t, RequestStatusFulfilled, req.Status)
		assert.Equal(t, ItemStatusFulfilled, req.Items[0].Status)
		assert.True(t, req.Items[0].RemainingReceiving.Equal(dec(10)))

		receive(t, req, 4)
		assert.Equal(t, RequestStatusPartiallyReceived, req.Status)
		receive(t, req, 6)
		assert.Equal(t, RequestStatusFullyReceived, req.Status)
		assert.True(t, req.Items[0].RemainingReceiving.IsZero())
		assert.NoError(t, req.Items[0].CheckInvariant(false))
	})

	t.Run("zero issue keeps partial_issued", func(t *testing.T) {
		req := newApproved(t, 10)
		issue(t, req, 0)
		assert.Equal(t, RequestStatusPartialIssued, req.Status)
		assert.Equal(t, ItemStatusPartialIssued, req.Items[0].Status)
		assert.True(t, req.Items[0].Remaining.Equal(dec(10)))
	})

	t.Run("cumulative issue reaches fulfilled", func(t *testing.T) {
		req := newApproved(t, 10)
		issue(t, req, 4)
		assert.Equal(t, RequestStatusPartialIssued, req.Status)
		issue(t, req, 6)
		assert.Equal(t, RequestStatusFulfilled, req.Status)
	})

	t.Run("issue above remaining fails", func(t *testing.T) {
		req := newApproved(t, 10)
		issue(t, req, 7)
		err := req.Items[0].ValidateIssue(dec(4))
		require.Error(t, err)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "3", de.Details["remaining"])
	})

	t.Run("receive above issued fails", func(t *testing.T) {
		req := newApproved(t, 10)
		issue(t, req, 5)
		err := req.Items[0].ValidateReceive(dec(6), ReceivePolicy{})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("issue needs approval", func(t *testing.T) {
		req := newDraft(t, 10)
		assert.True(t, shared.IsKind(req.CheckCanIssue(), shared.KindState))
		assert.True(t, shared.IsKind(req.CheckCanReceive(), shared.KindState))
	})
}

func TestTransferItem_UnissuedReceiptException(t *testing.T) {
	req := newApproved(t, 10)
	item := &req.Items[0]
	item.Status = ItemStatusFulfilled

	max, exception := item.MaxReceivable(ReceivePolicy{AllowUnissuedReceipt: true})
	assert.True(t, exception)
	assert.True(t, max.Equal(dec(10)))

	max, exception = item.MaxReceivable(ReceivePolicy{})
	assert.False(t, exception)
	assert.True(t, max.IsZero())

	_, err := item.ApplyReceive(dec(8), ReceivePolicy{AllowUnissuedReceipt: true}, testActor())
	require.NoError(t, err)
	assert.NoError(t, item.CheckInvariant(true))
	assert.Error(t, item.CheckInvariant(false))
}

func TestTransferRequest_RequesterCancel(t *testing.T) {
	t.Run("nothing issued", func(t *testing.T) {
		req := newApproved(t, 10)
		entries, err := req.Cancel(testActor())
		require.NoError(t, err)
		assert.Len(t, entries, 1)
		assert.Equal(t, RequestStatusCancelled, req.Status)
		assert.Equal(t, ItemStatusCancelled, req.Items[0].Status)
	})

	t.Run("after partial issue", func(t *testing.T) {
		req := newApproved(t, 10)
		issue(t, req, 3)
		_, err := req.Cancel(testActor())
		require.NoError(t, err)
		assert.Equal(t, RequestStatusPartialIssuedCancelled, req.Status)
		assert.True(t, req.Items[0].Issued.Equal(dec(3)))
	})

	t.Run("not after fulfilment", func(t *testing.T) {
		req := newApproved(t, 10)
		issue(t, req, 10)
		_, err := req.Cancel(testActor())
		assert.True(t, shared.IsKind(err, shared.KindState))
	})
}

func TestTransferRequest_ReceiverCancel(t *testing.T) {
	t.Run("scenario C close policy", func(t *testing.T) {
		req := newApproved(t, 10)
		issue(t, req, 10)
		receive(t, req, 4)

		lines, target, err := req.PlanReversal()
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, RequestStatusPartiallyReceivedCancelled, target)
		assert.True(t, lines[0].Returnable().Equal(dec(6)))

		returned := []ReturnedLine{{ItemID: lines[0].ID, ProductID: lines[0].ProductID, Quantity: lines[0].Returnable()}}
		entries := req.CompleteReversal(lines, target, ReversalPolicyClose, returned, testActor())
		require.Len(t, entries, 1)
		assert.Equal(t, ChangeKindReturned, entries[0].Kind)
		assert.True(t, entries[0].Quantity.Equal(dec(6)))

		item := req.Items[0]
		assert.Equal(t, RequestStatusPartiallyReceivedCancelled, req.Status)
		assert.Equal(t, ItemStatusCancelled, item.Status)
		assert.True(t, item.Received.Equal(dec(4)))
		assert.True(t, item.RemainingReceiving.IsZero())
		assert.Len(t, req.PendingEvents(), 6)
	})

	t.Run("reopen policy", func(t *testing.T) {
		req := newApproved(t, 10)
		issue(t, req, 10)
		receive(t, req, 4)

		lines, target, err := req.PlanReversal()
		require.NoError(t, err)
		req.CompleteReversal(lines, target, ReversalPolicyReopen, nil, testActor())

		item := req.Items[0]
		assert.Equal(t, ItemStatusFulfilled, item.Status)
		assert.True(t, item.Received.IsZero())
		assert.True(t, item.RemainingReceiving.Equal(dec(10)))
		assert.Equal(t, RequestStatusPartiallyReceivedCancelled, req.Status)
	})

	t.Run("fully received round trip has nothing to reverse", func(t *testing.T) {
		req := newApproved(t, 10)
		issue(t, req, 10)
		receive(t, req, 10)

		lines, target, err := req.PlanReversal()
		require.NoError(t, err)
		assert.Empty(t, lines)
		assert.Equal(t, RequestStatusCancelled, target)
	})

	t.Run("terminal request", func(t *testing.T) {
		req := newApproved(t, 10)
		_, err := req.Cancel(testActor())
		require.NoError(t, err)
		_, _, err = req.PlanReversal()
		assert.True(t, shared.IsKind(err, shared.KindState))
	})
}

func TestFormatReferenceNumber(t *testing.T) {
	day := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "TR-20240309-0042", FormatReferenceNumber(day, 42))
	assert.Equal(t, "TR-20240309-", ReferencePrefix(day))
}
