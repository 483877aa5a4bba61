package users

import (
	"context"
	"errors"
	"sort"
	"testing"

	"ballot-app-go/internal/apperr"
)

type fakeUsersRepo struct {
	companies map[string]*Company
	users     map[string]*User
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		companies: make(map[string]*Company),
		users:     make(map[string]*User),
	}
}

func (r *fakeUsersRepo) GetUser(ctx context.Context, userID string) (*User, error) {
	user, ok := r.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUsersRepo) GetCompany(ctx context.Context, companyID string) (*Company, error) {
	company, ok := r.companies[companyID]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	copied := *company
	return &copied, nil
}

func (r *fakeUsersRepo) CreateCompany(ctx context.Context, company *Company) error {
	r.companies[company.ID] = company
	return nil
}

func (r *fakeUsersRepo) CreateUser(ctx context.Context, user *User) error {
	if _, ok := r.companies[user.CompanyID]; !ok {
		return ErrCompanyNotFound
	}
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return ErrUsernameTaken
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUsersRepo) ListCompanyUsers(ctx context.Context, companyID string, roles []Role) ([]User, error) {
	allowed := make(map[Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	items := make([]User, 0)
	for _, user := range r.users {
		if user.CompanyID != companyID {
			continue
		}
		if _, ok := allowed[user.Role]; !ok {
			continue
		}
		items = append(items, *user)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].LastName < items[j].LastName })
	return items, nil
}

func TestCreateUserNormalizesUsername(t *testing.T) {
	repo := newFakeUsersRepo()
	service := NewService(repo)

	company, err := service.CreateCompany(context.Background(), CreateCompanyInput{Name: " Acme ", Abbreviation: "acm"})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	if company.Name != "Acme" || company.Abbreviation != "ACM" {
		t.Fatalf("unexpected company %+v", company)
	}

	user, err := service.CreateUser(context.Background(), CreateUserInput{
		CompanyID: company.ID,
		Role:      RoleMember,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Username:  "  Ada.L ",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Username != "ada.l" {
		t.Fatalf("expected normalized username, got %q", user.Username)
	}
	if user.FullName() != "Ada Lovelace" {
		t.Fatalf("unexpected full name %q", user.FullName())
	}
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	repo := newFakeUsersRepo()
	service := NewService(repo)

	company, _ := service.CreateCompany(context.Background(), CreateCompanyInput{Name: "Acme"})
	_, err := service.CreateUser(context.Background(), CreateUserInput{
		CompanyID: company.ID,
		Role:      Role("root"),
		FirstName: "A",
		LastName:  "B",
		Username:  "ab",
	})
	if !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation kind, got %s", apperr.KindOf(err))
	}
}

func TestCreateCompanyRequiresName(t *testing.T) {
	service := NewService(newFakeUsersRepo())

	if _, err := service.CreateCompany(context.Background(), CreateCompanyInput{Name: "  "}); !errors.Is(err, ErrInvalidCompany) {
		t.Fatalf("expected ErrInvalidCompany, got %v", err)
	}
}

func TestGetUserRejectsMalformedID(t *testing.T) {
	service := NewService(newFakeUsersRepo())

	if _, err := service.GetUser(context.Background(), "not-a-uuid"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListEligibleMembersFiltersRoles(t *testing.T) {
	repo := newFakeUsersRepo()
	service := NewService(repo)
	ctx := context.Background()

	company, _ := service.CreateCompany(ctx, CreateCompanyInput{Name: "Acme"})
	roles := map[string]Role{"m": RoleMember, "o": RoleOfficer, "e": RoleEmployee, "a": RoleAdmin}
	for username, role := range roles {
		if _, err := service.CreateUser(ctx, CreateUserInput{
			CompanyID: company.ID,
			Role:      role,
			FirstName: "F",
			LastName:  username,
			Username:  username,
		}); err != nil {
			t.Fatalf("create user %s: %v", username, err)
		}
	}

	members, err := service.ListEligibleMembers(ctx, company.ID)
	if err != nil {
		t.Fatalf("list eligible: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 eligible members, got %d", len(members))
	}
	for _, member := range members {
		if !member.Role.CanVote() {
			t.Fatalf("unexpected role %s in eligible list", member.Role)
		}
	}
}
