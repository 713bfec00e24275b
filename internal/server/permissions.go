// Package server is the HTTP surface of the identity service: login, token
// refresh, MFA enrollment, and a set of tenant-scoped resource endpoints that
// run the full authentication chain end to end.
package server

import "github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"

// rolePermissions is the full per-role capability grant stamped into issued
// tokens. The fallback manager carries its own, deliberately smaller sets for
// degraded mode.
var rolePermissions = map[constants.Role][]string{
	constants.RoleSuperAdmin: {constants.PermissionWildcard},
	constants.RoleSalonOwner: {
		"salons.read", "salons.update",
		"appointments.read", "appointments.create", "appointments.update", "appointments.delete",
		"clients.read", "clients.create", "clients.update", "clients.delete",
		"services.read", "services.create", "services.update", "services.delete",
		"staff.read", "staff.create", "staff.update",
		"reports.read", "invoices.read", "invoices.create",
	},
	constants.RoleManager: {
		"appointments.read", "appointments.create", "appointments.update", "appointments.delete",
		"clients.read", "clients.create", "clients.update",
		"services.read", "services.update",
		"staff.read",
		"reports.read",
	},
	constants.RoleStaffMember: {
		"appointments.read", "appointments.update",
		"clients.read",
		"services.read",
	},
	constants.RoleReceptionist: {
		"appointments.read", "appointments.create", "appointments.update",
		"clients.read", "clients.create",
		"services.read",
	},
	constants.RoleAccountant: {
		"reports.read", "invoices.read", "invoices.create",
		"appointments.read",
	},
	constants.RoleClient: {
		"appointments.read", "appointments.create",
		"services.read",
	},
}

// PermissionsForRole returns the capability set issued with a role's tokens.
func PermissionsForRole(role constants.Role) []string {
	if perms, ok := rolePermissions[role]; ok {
		return append([]string(nil), perms...)
	}
	return nil
}
