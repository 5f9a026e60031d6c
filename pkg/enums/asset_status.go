package enums

import "fmt"

// AssetStatus tracks where an asset item sits in its assignment lifecycle.
type AssetStatus string

const (
	AssetStatusAvailable        AssetStatus = "available"
	AssetStatusAssigned         AssetStatus = "assigned"
	AssetStatusUnderMaintenance AssetStatus = "under_maintenance"
	AssetStatusRetired          AssetStatus = "retired"
)

var validAssetStatuses = []AssetStatus{
	AssetStatusAvailable,
	AssetStatusAssigned,
	AssetStatusUnderMaintenance,
	AssetStatusRetired,
}

// String implements fmt.Stringer.
func (s AssetStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AssetStatus.
func (s AssetStatus) IsValid() bool {
	for _, candidate := range validAssetStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Assignable reports whether an item in this status may accept a new assignee.
// Maintenance and retirement are terminal for assignment purposes.
func (s AssetStatus) Assignable() bool {
	return s == AssetStatusAvailable || s == AssetStatusAssigned
}

// ParseAssetStatus converts raw input into an AssetStatus.
func ParseAssetStatus(value string) (AssetStatus, error) {
	for _, candidate := range validAssetStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid asset status %q", value)
}
