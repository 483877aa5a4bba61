package users

import "time"

type Role string

const (
	RoleMember   Role = "member"
	RoleOfficer  Role = "officer"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// EligibleRoles are the roles counted as voters of their company's ballots.
var EligibleRoles = []Role{RoleMember, RoleOfficer}

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleOfficer, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

func (r Role) CanVote() bool {
	return r == RoleMember || r == RoleOfficer
}

func (r Role) CanAuthor() bool {
	return r == RoleEmployee || r == RoleAdmin
}

type Company struct {
	ID           string    `gorm:"size:36;primaryKey"`
	Name         string    `gorm:"not null"`
	Abbreviation string    `gorm:"size:16;not null;default:''"`
	Category     string    `gorm:"not null;default:''"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

type User struct {
	ID           string    `gorm:"size:36;primaryKey"`
	CompanyID    string    `gorm:"size:36;not null;index"`
	Role         Role      `gorm:"size:16;not null;index"`
	FirstName    string    `gorm:"not null"`
	LastName     string    `gorm:"not null"`
	Username     string    `gorm:"not null;uniqueIndex"`
	PasswordHash string    `gorm:"not null;default:''"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	Company      *Company  `gorm:"constraint:OnDelete:CASCADE"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type CreateCompanyInput struct {
	Name         string
	Abbreviation string
	Category     string
}

type CreateUserInput struct {
	CompanyID    string
	Role         Role
	FirstName    string
	LastName     string
	Username     string
	PasswordHash string
}
