package transfer

import "fmt"

// ReversalPolicy decides what happens to an item after its unreceived stock
// has been returned to the issuing store.
type ReversalPolicy string

const (
	// ReversalPolicyClose marks reversed items cancelled. The receiver keeps
	// what it received and nothing is left outstanding.
	ReversalPolicyClose ReversalPolicy = "close"
	// ReversalPolicyReopen resets received to 0 and remaining_receiving to
	// issued, putting the item back into its issue-side status.
	ReversalPolicyReopen ReversalPolicy = "reopen"
)

// ParseReversalPolicy validates a policy name; empty means close
func ParseReversalPolicy(s string) (ReversalPolicy, error) {
	switch ReversalPolicy(s) {
	case "", ReversalPolicyClose:
		return ReversalPolicyClose, nil
	case ReversalPolicyReopen:
		return ReversalPolicyReopen, nil
	}
	return "", fmt.Errorf("unknown reversal policy %q", s)
}

// ReceivePolicy configures the receive ceiling
type ReceivePolicy struct {
	// AllowUnissuedReceipt lets a fulfilled item with nothing issued be received
	// up to its requested quantity.
	// TODO: remove once product confirms whether zero-issue fulfilled items can exist outside imported data.
	AllowUnissuedReceipt bool
}
