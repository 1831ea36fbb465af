package constants

import pkgconstants "loadplan-backend/internal/pkg/constants"

const (
	ViewPlans        = "view_plans"
	EditDemand       = "edit_demand"
	EditSupply       = "edit_supply"
	LockWeek         = "lock_week"
	ManageMasterData = "manage_master_data"
	ManageMembers    = "manage_members"
	UpdateOrg        = "update_org"
)

var (
	admin         = pkgconstants.Admin
	demandPlanner = pkgconstants.DemandPlanner
	supplyPlanner = pkgconstants.SupplyPlanner
	viewer        = pkgconstants.Viewer
)

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewPlans:        {viewer, demandPlanner, supplyPlanner, admin},
	EditDemand:       {demandPlanner, admin},
	EditSupply:       {supplyPlanner, admin},
	LockWeek:         {admin},
	ManageMasterData: {demandPlanner, admin},
	ManageMembers:    {admin},
	UpdateOrg:        {admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
