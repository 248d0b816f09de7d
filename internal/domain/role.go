package domain

type Role string

const (
	RoleMember  Role = "member"
	RoleTrainer Role = "trainer"
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleTrainer, RoleStaff, RoleManager:
		return true
	}
	return false
}

// RoleSet is an immutable membership set built once per route registration.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}
