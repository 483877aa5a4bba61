package users

import "ballot-app-go/internal/apperr"

var (
	ErrUserNotFound    = apperr.New(apperr.KindNotFound, "user_not_found", "user not found")
	ErrCompanyNotFound = apperr.New(apperr.KindNotFound, "company_not_found", "company not found")
	ErrUsernameTaken   = apperr.New(apperr.KindConflict, "username_taken", "username already exists")
	ErrInvalidUser     = apperr.New(apperr.KindValidation, "invalid_user", "invalid user")
	ErrInvalidCompany  = apperr.New(apperr.KindValidation, "invalid_company", "invalid company")
)
