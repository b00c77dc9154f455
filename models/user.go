package models

import (
	"gorm.io/gorm"
)

const (
	RoleTenant = "tenant"
	RoleHost   = "host"
	RoleAdmin  = "admin"
)

type User struct {
	gorm.Model

	FullName string `json:"fullName"`
	Email    string `gorm:"uniqueIndex;size:255" json:"email"`
	Role     string `gorm:"size:32" json:"role"`
}
