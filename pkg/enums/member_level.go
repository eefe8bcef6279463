package enums

import "fmt"

// MemberLevel is the membership tier a user holds.
type MemberLevel string

const (
	MemberLevelBronze   MemberLevel = "bronze"
	MemberLevelSilver   MemberLevel = "silver"
	MemberLevelGold     MemberLevel = "gold"
	MemberLevelPlatinum MemberLevel = "platinum"
)

var validMemberLevels = []MemberLevel{
	MemberLevelBronze,
	MemberLevelSilver,
	MemberLevelGold,
	MemberLevelPlatinum,
}

// String implements fmt.Stringer.
func (m MemberLevel) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberLevel.
func (m MemberLevel) IsValid() bool {
	for _, candidate := range validMemberLevels {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMemberLevel converts raw input into a MemberLevel.
func ParseMemberLevel(value string) (MemberLevel, error) {
	for _, candidate := range validMemberLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member level %q", value)
}
