package common

import (
	"net/http"

	"ballot-app-go/internal/transport/httpserver/middleware"
)

type companyResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Category     string `json:"category"`
}

type authMeResponse struct {
	ID        string           `json:"id"`
	Username  string           `json:"username"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Role      string           `json:"role"`
	Company   *companyResponse `json:"company"`
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	company, err := h.Users.GetCompany(r.Context(), user.CompanyID)
	if err != nil {
		WriteDomainError(w, h.log, "auth.me: get company failed", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusOK, authMeResponse{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
		Company: &companyResponse{
			ID:           company.ID,
			Name:         company.Name,
			Abbreviation: company.Abbreviation,
			Category:     company.Category,
		},
	})
}
