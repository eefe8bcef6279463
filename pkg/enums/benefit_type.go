package enums

import "fmt"

// BenefitType categorizes what a benefit grants.
type BenefitType string

const (
	BenefitTypeDiscountCoupon  BenefitType = "discount_coupon"
	BenefitTypePointsReward    BenefitType = "points_reward"
	BenefitTypeFreeShipping    BenefitType = "free_shipping"
	BenefitTypeExclusiveAccess BenefitType = "exclusive_access"
)

var validBenefitTypes = []BenefitType{
	BenefitTypeDiscountCoupon,
	BenefitTypePointsReward,
	BenefitTypeFreeShipping,
	BenefitTypeExclusiveAccess,
}

// String implements fmt.Stringer.
func (b BenefitType) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BenefitType.
func (b BenefitType) IsValid() bool {
	for _, candidate := range validBenefitTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBenefitType converts raw input into a BenefitType.
func ParseBenefitType(value string) (BenefitType, error) {
	for _, candidate := range validBenefitTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid benefit type %q", value)
}
