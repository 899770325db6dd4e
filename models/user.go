package models

import (
	"regexp"
	"time"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super-admin"
)

// Rank orders roles for promote/demote comparisons. Unknown roles rank -1.
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 0
	case RoleAdmin:
		return 1
	case RoleSuperAdmin:
		return 2
	}
	return -1
}

func (r Role) IsValid() bool { return r.Rank() >= 0 }

func (r Role) IsAdmin() bool { return r == RoleAdmin || r == RoleSuperAdmin }

const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
)

type User struct {
	ID                   uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name                 string     `gorm:"column:name;size:100;not null" json:"name"`
	Email                string     `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	Password             string     `gorm:"column:password;size:255" json:"-"`
	Role                 Role       `gorm:"column:role;size:20;not null;default:'user'" json:"role"`
	IsBlocked            bool       `gorm:"column:is_blocked;not null" json:"is_blocked"`
	AuthProvider         string     `gorm:"column:auth_provider;size:20;default:'credentials'" json:"auth_provider"`
	LastLogin            *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`
	OdooTokenHash        *string    `gorm:"column:odoo_token_hash;size:64;index" json:"-"`
	OdooTokenGeneratedAt *time.Time `gorm:"column:odoo_token_generated_at" json:"-"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// ValidEmail performs the loose shape check used at signup.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
