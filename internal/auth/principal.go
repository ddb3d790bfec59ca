package auth

import "fmt"

type Role string

const (
	RoleResident   Role = "resident"
	RoleJanitorial Role = "janitorial"
	RoleAdmin      Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleResident, RoleJanitorial, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

func (r Role) IsStaff() bool {
	return r == RoleJanitorial || r == RoleAdmin
}

// Principal is the authenticated caller. Identity is issued by the external
// auth service; this service only verifies it.
type Principal struct {
	UserID      string `json:"userId"`
	Role        Role   `json:"role"`
	CommunityID string `json:"communityId"`
}

// Actor renders the principal the way timeline and audit rows store it.
func (p Principal) Actor() string {
	return string(p.Role) + ":" + p.UserID
}
