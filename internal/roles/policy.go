package roles

// Capability is a named permission checked against a role.
type Capability string

const (
	// CapPublish covers creating, editing, and explicitly archiving
	// announcements.
	CapPublish Capability = "publish"
	// CapViewUsers covers listing all identities and their roles.
	CapViewUsers Capability = "view_users"
	// CapViewAnnouncements covers browsing the announcement feed.
	CapViewAnnouncements Capability = "view_announcements"
	// CapCompleteRoleSelection is the only capability of an unassigned
	// identity; it gates the role-selection flow itself.
	CapCompleteRoleSelection Capability = "complete_role_selection"
)

var grants = map[Role]map[Capability]bool{
	RoleMaster: {
		CapPublish:               true,
		CapViewUsers:             true,
		CapViewAnnouncements:     true,
		CapCompleteRoleSelection: true,
	},
	RoleAdmin: {
		CapPublish:               true,
		CapViewUsers:             true,
		CapViewAnnouncements:     true,
		CapCompleteRoleSelection: true,
	},
	RoleUser: {
		CapViewAnnouncements:     true,
		CapCompleteRoleSelection: true,
	},
	RoleUnassigned: {
		CapCompleteRoleSelection: true,
	},
}

// Allows reports whether role grants capability. Pure function, no I/O.
func Allows(role Role, capability Capability) bool {
	return grants[role][capability]
}
