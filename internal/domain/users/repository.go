package users

import "context"

type Repository interface {
	GetUser(ctx context.Context, userID string) (*User, error)
	GetCompany(ctx context.Context, companyID string) (*Company, error)
	CreateCompany(ctx context.Context, company *Company) error
	CreateUser(ctx context.Context, user *User) error
	ListCompanyUsers(ctx context.Context, companyID string, roles []Role) ([]User, error)
}
