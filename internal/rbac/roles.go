package rbac

// Role names reported to clients. Keep these stable; they are part of the API contract.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

func RoleOf(p Principal) string {
	if p.Privileged {
		return RoleAdmin
	}
	return RoleMember
}
