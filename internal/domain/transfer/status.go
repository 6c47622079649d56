package transfer

import "fmt"

// RequestStatus is the lifecycle status of a transfer request
type RequestStatus string

const (
	RequestStatusDraft                      RequestStatus = "draft"
	RequestStatusSubmitted                  RequestStatus = "submitted"
	RequestStatusApproved                   RequestStatus = "approved"
	RequestStatusRejected                   RequestStatus = "rejected"
	RequestStatusPartialIssued              RequestStatus = "partial_issued"
	RequestStatusFulfilled                  RequestStatus = "fulfilled"
	RequestStatusPartiallyReceived          RequestStatus = "partially_received"
	RequestStatusFullyReceived              RequestStatus = "fully_received"
	RequestStatusCancelled                  RequestStatus = "cancelled"
	RequestStatusPartialIssuedCancelled     RequestStatus = "partial_issued_cancelled"
	RequestStatusPartiallyReceivedCancelled RequestStatus = "partially_received_cancelled"
)

// AllRequestStatuses lists every request status
func AllRequestStatuses() []RequestStatus {
	return []RequestStatus{
		RequestStatusDraft, RequestStatusSubmitted, RequestStatusApproved, RequestStatusRejected,
		RequestStatusPartialIssued, RequestStatusFulfilled, RequestStatusPartiallyReceived,
		RequestStatusFullyReceived, RequestStatusCancelled, RequestStatusPartialIssuedCancelled,
		RequestStatusPartiallyReceivedCancelled,
	}
}

// IsValid checks if the status is a valid RequestStatus
func (s RequestStatus) IsValid() bool {
	for _, v := range AllRequestStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

// String returns the string representation of RequestStatus
func (s RequestStatus) String() string {
	return string(s)
}

// ParseRequestStatus validates a status string
func ParseRequestStatus(s string) (RequestStatus, error) {
	st := RequestStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("unknown request status %q", s)
	}
	return st, nil
}

// IsTerminal reports whether no workflow operation leaves the status.
// fully_received and partial_issued_cancelled still accept a receiver-side cancel.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestStatusRejected, RequestStatusCancelled, RequestStatusPartiallyReceivedCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	switch s {
	case RequestStatusDraft:
		return target == RequestStatusSubmitted || target == RequestStatusCancelled
	case RequestStatusSubmitted:
		return target == RequestStatusApproved || target == RequestStatusRejected || target == RequestStatusCancelled
	case RequestStatusApproved:
		return target == RequestStatusPartialIssued || target == RequestStatusFulfilled || target == RequestStatusCancelled
	case RequestStatusPartialIssued:
		switch target {
		case RequestStatusPartialIssued, RequestStatusFulfilled,
			RequestStatusPartiallyReceived, RequestStatusFullyReceived,
			RequestStatusCancelled, RequestStatusPartialIssuedCancelled, RequestStatusPartiallyReceivedCancelled:
			return true
		}
	case RequestStatusFulfilled, RequestStatusPartiallyReceived:
		switch target {
		case RequestStatusPartiallyReceived, RequestStatusFullyReceived,
			RequestStatusCancelled, RequestStatusPartiallyReceivedCancelled:
			return true
		}
	case RequestStatusPartialIssuedCancelled:
		return target == RequestStatusCancelled || target == RequestStatusPartiallyReceivedCancelled
	case RequestStatusFullyReceived:
		return target == RequestStatusCancelled
	}
	return false
}

// CanEdit returns true while header and items may still be changed
func (s RequestStatus) CanEdit() bool {
	return s == RequestStatusDraft
}

// CanIssue returns true if stock may be issued in this status
func (s RequestStatus) CanIssue() bool {
	return s == RequestStatusApproved || s == RequestStatusPartialIssued
}

// CanReceive returns true if stock may be received in this status
func (s RequestStatus) CanReceive() bool {
	switch s {
	case RequestStatusFulfilled, RequestStatusPartialIssued, RequestStatusPartiallyReceived:
		return true
	}
	return false
}

// CanRequesterCancel returns true if the requesting side may cancel
func (s RequestStatus) CanRequesterCancel() bool {
	switch s {
	case RequestStatusDraft, RequestStatusSubmitted, RequestStatusApproved, RequestStatusPartialIssued:
		return true
	}
	return false
}

// CanReceiverCancel returns true if the receiving side may cancel
func (s RequestStatus) CanReceiverCancel() bool {
	switch s {
	case RequestStatusDraft, RequestStatusSubmitted, RequestStatusApproved, RequestStatusPartialIssued,
		RequestStatusPartiallyReceived, RequestStatusFulfilled, RequestStatusPartialIssuedCancelled,
		RequestStatusFullyReceived:
		return true
	}
	return false
}

// ItemStatus mirrors the request lifecycle at line granularity
type ItemStatus string

const (
	ItemStatusPending           ItemStatus = "pending"
	ItemStatusApproved          ItemStatus = "approved"
	ItemStatusRejected          ItemStatus = "rejected"
	ItemStatusPartialIssued     ItemStatus = "partial_issued"
	ItemStatusFulfilled         ItemStatus = "fulfilled"
	ItemStatusPartiallyReceived ItemStatus = "partially_received"
	ItemStatusFullyReceived     ItemStatus = "fully_received"
	ItemStatusCancelled         ItemStatus = "cancelled"
)

// IsValid checks if the status is a valid ItemStatus
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusPending, ItemStatusApproved, ItemStatusRejected, ItemStatusPartialIssued,
		ItemStatusFulfilled, ItemStatusPartiallyReceived, ItemStatusFullyReceived, ItemStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ItemStatus
func (s ItemStatus) String() string {
	return string(s)
}

// IsExcluded reports whether the item no longer takes part in status derivation
func (s ItemStatus) IsExcluded() bool {
	return s == ItemStatusRejected || s == ItemStatusCancelled
}

// CanIssue returns true if stock may be issued against the item
func (s ItemStatus) CanIssue() bool {
	return s == ItemStatusApproved || s == ItemStatusPartialIssued
}

// CanReceive returns true if stock may be received against the item
func (s ItemStatus) CanReceive() bool {
	switch s {
	case ItemStatusPartialIssued, ItemStatusFulfilled, ItemStatusPartiallyReceived:
		return true
	}
	return false
}

// Direction tells whether the request pulls stock or pushes it
type Direction string

const (
	// DirectionRequest is raised by the requesting store (pull)
	DirectionRequest Direction = "request"
	// DirectionIssue is raised by the issuing store (push)
	DirectionIssue Direction = "issue"
)

// IsValid checks if the direction is known
func (d Direction) IsValid() bool {
	return d == DirectionRequest || d == DirectionIssue
}

// Priority of a transfer request
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid checks if the priority is known
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
