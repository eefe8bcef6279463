package enums

import "fmt"

// PointTransactionType classifies how a ledger entry changed the balance.
type PointTransactionType string

const (
	PointTransactionTypeEarn   PointTransactionType = "earn"
	PointTransactionTypeDeduct PointTransactionType = "deduct"
	PointTransactionTypeAdjust PointTransactionType = "adjust"
)

var validPointTransactionTypes = []PointTransactionType{
	PointTransactionTypeEarn,
	PointTransactionTypeDeduct,
	PointTransactionTypeAdjust,
}

// String implements fmt.Stringer.
func (t PointTransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known PointTransactionType.
func (t PointTransactionType) IsValid() bool {
	for _, candidate := range validPointTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParsePointTransactionType converts raw input into a PointTransactionType.
func ParsePointTransactionType(value string) (PointTransactionType, error) {
	for _, candidate := range validPointTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid point transaction type %q", value)
}
