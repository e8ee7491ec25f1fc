package user

import "studio-booking/internal/pkg/errs"

var ErrInvalidRole = errs.New("invalid role")

// Role is carried in the access token. Accounts live in the identity
// service; this service only reads the role.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleAdmin:
		return true
	default:
		return false
	}
}

func NewRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", errs.Wrapf(ErrInvalidRole, "%q", s)
	}
	return role, nil
}
