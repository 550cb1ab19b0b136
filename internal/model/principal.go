package model

import "github.com/google/uuid"

const (
	RoleOperator = "OPERATOR"
	RoleAdmin    = "ADMIN"
)

type Principal struct {
	UserID uuid.UUID
	Role   string
}

func (p Principal) IsOperator() bool {
	return p.Role == RoleOperator || p.Role == RoleAdmin
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
