package auth

// Account roles. These gate endpoints; they are unrelated to the approver
// groups in the roles table, which only configure approval steps.
const (
	RoleEmployee = "employee"
	RoleHR       = "hr"
	RoleAdmin    = "admin"
)

const (
	PermDirectoryRead   = "directory.read"
	PermDirectoryWrite  = "directory.write"
	PermTrainingsRead   = "trainings.read"
	PermTrainingsWrite  = "trainings.write"
	PermTrainingsApply  = "trainings.apply"
	PermRequestsRead    = "requests.read"
	PermRequestsWrite   = "requests.write"
	PermRequestsApprove = "requests.approve"
	PermRequestsFulfill = "requests.fulfill"
	PermSystemAdmin     = "admin.system"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermDirectoryRead,
		PermTrainingsRead,
		PermTrainingsApply,
		PermRequestsRead,
		PermRequestsWrite,
		PermRequestsApprove,
	},
	RoleHR: {
		PermDirectoryRead,
		PermDirectoryWrite,
		PermTrainingsRead,
		PermTrainingsWrite,
		PermTrainingsApply,
		PermRequestsRead,
		PermRequestsWrite,
		PermRequestsApprove,
		PermRequestsFulfill,
	},
	RoleAdmin: {
		PermDirectoryRead,
		PermDirectoryWrite,
		PermTrainingsRead,
		PermTrainingsWrite,
		PermTrainingsApply,
		PermRequestsRead,
		PermRequestsWrite,
		PermRequestsApprove,
		PermRequestsFulfill,
		PermSystemAdmin,
	},
}

func HasPermission(accountRole, permission string) bool {
	for _, perm := range RolePermissions[accountRole] {
		if perm == permission {
			return true
		}
	}
	return false
}
