package models

import (
	"slices"
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleCustomer = "customer"
)

var Roles = []string{RoleAdmin, RoleManager, RoleCustomer}

type Tenant struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Address   string    `gorm:"size:255;not null" json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName string    `gorm:"not null" json:"firstName"`
	LastName  string    `gorm:"not null" json:"lastName"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"not null" json:"role"`
	TenantID  *uint     `gorm:"index" json:"tenantId,omitempty"`
	Tenant    *Tenant   `gorm:"constraint:OnDelete:SET NULL;" json:"tenant,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RefreshToken tracks one issued refresh token; its ID is the token's jti. Deleting the row
// revokes the token.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func IsValidRole(role string) bool {
	return slices.Contains(Roles, role)
}
