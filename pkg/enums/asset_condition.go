package enums

import "fmt"

// AssetCondition grades the physical state of an asset item.
type AssetCondition string

const (
	AssetConditionExcellent AssetCondition = "excellent"
	AssetConditionGood      AssetCondition = "good"
	AssetConditionFair      AssetCondition = "fair"
	AssetConditionPoor      AssetCondition = "poor"
	AssetConditionBroken    AssetCondition = "broken"
)

var validAssetConditions = []AssetCondition{
	AssetConditionExcellent,
	AssetConditionGood,
	AssetConditionFair,
	AssetConditionPoor,
	AssetConditionBroken,
}

// String implements fmt.Stringer.
func (c AssetCondition) String() string {
	return string(c)
}

// IsValid reports whether the value is a known AssetCondition.
func (c AssetCondition) IsValid() bool {
	for _, candidate := range validAssetConditions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseAssetCondition converts raw input into an AssetCondition.
func ParseAssetCondition(value string) (AssetCondition, error) {
	for _, candidate := range validAssetConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid asset condition %q", value)
}
