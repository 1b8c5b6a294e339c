package auth

// Privilege is the access level required by a protected operation. It is
// attached to an endpoint at configuration time and never stored.
type Privilege string

const (
	PrivilegeAllow             Privilege = "Allow"
	PrivilegeSuperAdminOnly    Privilege = "SuperAdminOnly"
	PrivilegeAdminOrAbove      Privilege = "AdminOrAbove"
	PrivilegeModeratorOrAbove  Privilege = "ModeratorOrAbove"
	PrivilegeAuthenticatedOnly Privilege = "AuthenticatedOnly"
	PrivilegeAnonymousOnly     Privilege = "AnonymousOnly"
	PrivilegeDeny              Privilege = "Deny"
)

// Authorized reports whether a role satisfies the required privilege.
// Stronger roles cascade into weaker requirements: SuperAdmin satisfies
// AdminOrAbove, Admin satisfies ModeratorOrAbove, and so on. AnonymousOnly
// always fails a resolved-role check; it marks endpoints that accept
// unauthenticated callers at the routing layer, it is not a positive grant.
func (r Role) Authorized(p Privilege) bool {
	switch p {
	case PrivilegeAllow:
		return true
	case PrivilegeSuperAdminOnly:
		return r == RoleSuperAdmin
	case PrivilegeAdminOrAbove:
		return r == RoleAdmin || r.Authorized(PrivilegeSuperAdminOnly)
	case PrivilegeModeratorOrAbove:
		return r == RoleModerator || r.Authorized(PrivilegeAdminOrAbove)
	case PrivilegeAuthenticatedOnly:
		return r != RoleNone
	case PrivilegeAnonymousOnly:
		return false
	default: // Deny and anything unrecognized
		return false
	}
}
