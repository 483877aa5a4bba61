package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ErrUserNotFound
	}
	return s.repo.GetUser(ctx, userID)
}

func (s *Service) GetCompany(ctx context.Context, companyID string) (*Company, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return nil, ErrCompanyNotFound
	}
	return s.repo.GetCompany(ctx, companyID)
}

func (s *Service) CreateCompany(ctx context.Context, input CreateCompanyInput) (*Company, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidCompany)
	}

	company := Company{
		ID:           uuid.NewString(),
		Name:         name,
		Abbreviation: strings.ToUpper(strings.TrimSpace(input.Abbreviation)),
		Category:     strings.TrimSpace(input.Category),
	}
	if err := s.repo.CreateCompany(ctx, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	if _, err := uuid.Parse(input.CompanyID); err != nil {
		return nil, fmt.Errorf("%w: company id is invalid", ErrInvalidUser)
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, input.Role)
	}
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidUser)
	}
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" || lastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrInvalidUser)
	}

	user := User{
		ID:           uuid.NewString(),
		CompanyID:    input.CompanyID,
		Role:         input.Role,
		FirstName:    firstName,
		LastName:     lastName,
		Username:     username,
		PasswordHash: input.PasswordHash,
	}
	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListEligibleMembers returns the users of a company who may vote on its ballots.
func (s *Service) ListEligibleMembers(ctx context.Context, companyID string) ([]User, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return nil, ErrCompanyNotFound
	}
	return s.repo.ListCompanyUsers(ctx, companyID, EligibleRoles)
}
