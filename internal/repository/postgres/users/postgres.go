package users

import (
	"context"
	"errors"

	"ballot-app-go/internal/db"
	usersdomain "ballot-app-go/internal/domain/users"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetUser(ctx context.Context, userID string) (*usersdomain.User, error) {
	var user usersdomain.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usersdomain.ErrUserNotFound
		}
		return nil, db.TranslateError(err)
	}
	return &user, nil
}

func (r *PostgresRepository) GetCompany(ctx context.Context, companyID string) (*usersdomain.Company, error) {
	var company usersdomain.Company
	if err := r.db.WithContext(ctx).Where("id = ?", companyID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usersdomain.ErrCompanyNotFound
		}
		return nil, db.TranslateError(err)
	}
	return &company, nil
}

func (r *PostgresRepository) CreateCompany(ctx context.Context, company *usersdomain.Company) error {
	return db.TranslateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(company).Error)
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *usersdomain.User) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err):
		return usersdomain.ErrUsernameTaken
	case db.IsForeignKeyViolation(err):
		return usersdomain.ErrCompanyNotFound
	default:
		return db.TranslateError(err)
	}
}

func (r *PostgresRepository) ListCompanyUsers(ctx context.Context, companyID string, roles []usersdomain.Role) ([]usersdomain.User, error) {
	query := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if len(roles) > 0 {
		query = query.Where("role IN ?", roles)
	}

	var items []usersdomain.User
	if err := query.Order("last_name asc, first_name asc, id asc").Find(&items).Error; err != nil {
		return nil, db.TranslateError(err)
	}
	return items, nil
}
