package transfer

import "github.com/shopspring/decimal"

// ItemSnapshot is the read-only view of an item used to derive request status.
// The functions below depend on nothing else, so their result does not depend
// on item order or on where the snapshots came from.
type ItemSnapshot struct {
	Status    ItemStatus
	Requested decimal.Decimal
	Approved  decimal.Decimal
	Issued    decimal.Decimal
	Received  decimal.Decimal
}

// DeriveApprovalStatus is approved when any line kept a positive approved quantity
func DeriveApprovalStatus(items []ItemSnapshot) RequestStatus {
	for _, it := range items {
		if !it.Status.IsExcluded() && it.Approved.IsPositive() {
			return RequestStatusApproved
		}
	}
	return RequestStatusRejected
}

// DeriveIssueStatus is fulfilled iff every active line has issued >= approved
func DeriveIssueStatus(items []ItemSnapshot) RequestStatus {
	active := 0
	for _, it := range items {
		if it.Status.IsExcluded() {
			continue
		}
		active++
		if it.Issued.LessThan(it.Approved) {
			return RequestStatusPartialIssued
		}
	}
	if active == 0 {
		return RequestStatusPartialIssued
	}
	return RequestStatusFulfilled
}

// DeriveReceiveStatus is fully_received iff every active line has received = approved
func DeriveReceiveStatus(items []ItemSnapshot) RequestStatus {
	active := 0
	for _, it := range items {
		if it.Status.IsExcluded() {
			continue
		}
		active++
		if !it.Received.Equal(it.Approved) {
			return RequestStatusPartiallyReceived
		}
	}
	if active == 0 {
		return RequestStatusPartiallyReceived
	}
	return RequestStatusFullyReceived
}

// DeriveRequesterCancelStatus is partial_issued_cancelled iff anything was issued
func DeriveRequesterCancelStatus(items []ItemSnapshot) RequestStatus {
	for _, it := range items {
		if it.Issued.IsPositive() {
			return RequestStatusPartialIssuedCancelled
		}
	}
	return RequestStatusCancelled
}

// DeriveReceiverCancelStatus is partially_received_cancelled iff some line that
// has received stock still has issued stock to hand back. A line received in
// full has nothing to reverse and leaves the request plain cancelled.
func DeriveReceiverCancelStatus(items []ItemSnapshot) RequestStatus {
	for _, it := range items {
		if NeedsReversal(it) {
			return RequestStatusPartiallyReceivedCancelled
		}
	}
	return RequestStatusCancelled
}

// NeedsReversal reports whether a receiver-side cancel returns stock for this line
func NeedsReversal(it ItemSnapshot) bool {
	return it.Received.IsPositive() && it.Issued.GreaterThan(it.Received)
}

// Snapshots converts items into reconciliation input
func Snapshots(items []TransferItem) []ItemSnapshot {
	out := make([]ItemSnapshot, 0, len(items))
	for i := range items {
		out = append(out, items[i].Snapshot())
	}
	return out
}
