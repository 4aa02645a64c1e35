package session

// User types distinguish platform staff from tenant users.
const (
	// UserTypeAmbio marks platform-level Ambio staff.
	UserTypeAmbio = "ambio"
	// UserTypeCompany marks users belonging to a tenant company.
	UserTypeCompany = "company"
)

// Roles within a user type.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Capabilities is the policy surface derived once per session from the user's
// type and role. Commands consult these predicates instead of re-deriving
// role comparisons at each call site.
type Capabilities struct {
	// CanManageCompanies allows creating, editing and deleting company
	// records. Platform staff only.
	CanManageCompanies bool

	// CanManageUsers allows user administration. Platform staff manage all
	// users; company admins manage users within their own company.
	CanManageUsers bool

	// CanAssignSensors allows assigning unowned sensors to companies.
	// Platform staff only.
	CanAssignSensors bool

	// CanConfigureThresholds allows editing per-sensor alert thresholds.
	CanConfigureThresholds bool

	// CanEditCompanyProfile allows editing the user's own company record.
	CanEditCompanyProfile bool
}

// CapabilitiesFor computes the capability set for a user. A nil user has no
// capabilities.
func CapabilitiesFor(user *User) Capabilities {
	if user == nil {
		return Capabilities{}
	}

	isAmbio := user.UserType == UserTypeAmbio
	isAdmin := user.Role == RoleAdmin

	return Capabilities{
		CanManageCompanies:     isAmbio && isAdmin,
		CanManageUsers:         isAdmin,
		CanAssignSensors:       isAmbio,
		CanConfigureThresholds: isAmbio || isAdmin,
		CanEditCompanyProfile:  !isAmbio && isAdmin,
	}
}

// IsAmbioUser reports whether the user is platform-level Ambio staff.
func IsAmbioUser(user *User) bool {
	return user != nil && user.UserType == UserTypeAmbio
}
