package enums

import "fmt"

// PointTransactionReason records the business event behind a ledger entry.
type PointTransactionReason string

const (
	PointTransactionReasonOrderComplete PointTransactionReason = "order_complete"
	PointTransactionReasonOrderRefund   PointTransactionReason = "order_refund"
	PointTransactionReasonAdminAdjust   PointTransactionReason = "admin_adjust"
	PointTransactionReasonBenefitReward PointTransactionReason = "benefit_reward"
)

var validPointTransactionReasons = []PointTransactionReason{
	PointTransactionReasonOrderComplete,
	PointTransactionReasonOrderRefund,
	PointTransactionReasonAdminAdjust,
	PointTransactionReasonBenefitReward,
}

// String implements fmt.Stringer.
func (r PointTransactionReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known PointTransactionReason.
func (r PointTransactionReason) IsValid() bool {
	for _, candidate := range validPointTransactionReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParsePointTransactionReason converts raw input into a PointTransactionReason.
func ParsePointTransactionReason(value string) (PointTransactionReason, error) {
	for _, candidate := range validPointTransactionReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid point transaction reason %q", value)
}
