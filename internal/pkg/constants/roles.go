package constants

const (
	Admin         = "admin"
	DemandPlanner = "demand_planner"
	SupplyPlanner = "supply_planner"
	Viewer        = "viewer"
)

// ValidRoles is the set of allowed values for a user's role within an org.
var ValidRoles = []string{Viewer, DemandPlanner, SupplyPlanner, Admin}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
