package enums

import "fmt"

// AssigneeType is the kind of directory entity an asset may be assigned to.
type AssigneeType string

const (
	AssigneeTypeEmployee   AssigneeType = "employee"
	AssigneeTypeDepartment AssigneeType = "department"
)

var validAssigneeTypes = []AssigneeType{
	AssigneeTypeEmployee,
	AssigneeTypeDepartment,
}

// String implements fmt.Stringer.
func (a AssigneeType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssigneeType.
func (a AssigneeType) IsValid() bool {
	for _, candidate := range validAssigneeTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAssigneeType converts raw input into an AssigneeType.
func ParseAssigneeType(value string) (AssigneeType, error) {
	for _, candidate := range validAssigneeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignee type %q", value)
}
