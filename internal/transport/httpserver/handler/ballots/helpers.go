package ballots

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	ballotsdomain "ballot-app-go/internal/domain/ballots"
	"ballot-app-go/internal/transport/httpserver/handler/common"
	"ballot-app-go/internal/transport/httpserver/middleware"
	"ballot-app-go/pkg/logger"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	common.WriteError(w, status, code, message)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	common.WriteJSON(w, status, payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return common.DecodeJSON(r, dst)
}

func writeDomainError(w http.ResponseWriter, log logger.Logger, op string, err error, args ...any) {
	common.WriteDomainError(w, log, op, err, args...)
}

// isStaff reports whether the user works across companies.
func isStaff(user middleware.User) bool {
	return user.Role.CanAuthor()
}

// visible hides other companies' ballots from members and officers.
func visible(user middleware.User, ballot ballotsdomain.Ballot) bool {
	return isStaff(user) || ballot.CompanyID == user.CompanyID
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	seen := make(map[string]struct{}, len(parts))
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}

func parseIntParam(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, fmt.Errorf("invalid int")
	}
	return parsed, nil
}
