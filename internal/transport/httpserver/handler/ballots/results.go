package ballots

import (
	"net/http"
	"time"

	ballotsdomain "ballot-app-go/internal/domain/ballots"
	tallydomain "ballot-app-go/internal/domain/tally"
	usersdomain "ballot-app-go/internal/domain/users"
	"ballot-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type candidateResultResponse struct {
	CandidateID string `json:"candidate_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	WriteIn     bool   `json:"write_in"`
	Votes       int64  `json:"votes"`
	Rank        int    `json:"rank"`
}

type positionTallyResponse struct {
	PositionID   string                    `json:"position_id"`
	Name         string                    `json:"name"`
	AllowedVotes int                       `json:"allowed_votes"`
	TotalVotes   int64                     `json:"total_votes"`
	Candidates   []candidateResultResponse `json:"candidates"`
}

type responseResultResponse struct {
	ResponseID string  `json:"response_id"`
	Text       string  `json:"text"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type initiativeTallyResponse struct {
	InitiativeID string                   `json:"initiative_id"`
	Name         string                   `json:"name"`
	TotalVotes   int64                    `json:"total_votes"`
	Responses    []responseResultResponse `json:"responses"`
}

type tallyResponse struct {
	BallotID    string                    `json:"ballot_id"`
	Name        string                    `json:"name"`
	Status      string                    `json:"status"`
	TotalVotes  int64                     `json:"total_votes"`
	Positions   []positionTallyResponse   `json:"positions"`
	Initiatives []initiativeTallyResponse `json:"initiatives"`
	ComputedAt  time.Time                 `json:"computed_at"`
}

type voterResponse struct {
	UserID    string     `json:"user_id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	Voted     bool       `json:"voted"`
	VotedAt   *time.Time `json:"voted_at"`
}

type turnoutResponse struct {
	BallotID        string          `json:"ballot_id"`
	EligibleMembers int64           `json:"eligible_members"`
	DistinctVoters  int64           `json:"distinct_voters"`
	VotedPercentage float64         `json:"voted_percentage"`
	Voters          []voterResponse `json:"voters"`
}

func (h *Handlers) Results(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	ballotID := chi.URLParam(r, "ballot_id")
	result, err := h.Tally.TallyFor(r.Context(), ballotID, tallydomain.Viewer{
		CompanyID:    user.CompanyID,
		AllCompanies: isStaff(user),
		ClosedOnly:   user.Role == usersdomain.RoleMember,
	})
	if err != nil {
		writeDomainError(w, h.log, "results.get: tally failed", err, "user_id", user.ID, "ballot_id", ballotID)
		return
	}

	writeJSON(w, http.StatusOK, toTallyResponse(result))
}

func (h *Handlers) Voters(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	ballotID := chi.URLParam(r, "ballot_id")
	turnout, err := h.Tally.TallyVoters(r.Context(), ballotID)
	if err == nil && !isStaff(user) && turnout.CompanyID != user.CompanyID {
		err = ballotsdomain.ErrBallotNotFound
	}
	if err != nil {
		writeDomainError(w, h.log, "results.voters: turnout failed", err, "user_id", user.ID, "ballot_id", ballotID)
		return
	}

	response := turnoutResponse{
		BallotID:        turnout.BallotID,
		EligibleMembers: turnout.EligibleMembers,
		DistinctVoters:  turnout.DistinctVoters,
		VotedPercentage: turnout.VotedPercentage,
		Voters:          make([]voterResponse, 0, len(turnout.Voters)),
	}
	for _, voter := range turnout.Voters {
		response.Voters = append(response.Voters, voterResponse{
			UserID:    voter.UserID,
			FirstName: voter.FirstName,
			LastName:  voter.LastName,
			Username:  voter.Username,
			Role:      string(voter.Role),
			Voted:     voter.Voted,
			VotedAt:   voter.VotedAt,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func toTallyResponse(result *tallydomain.BallotTally) tallyResponse {
	response := tallyResponse{
		BallotID:    result.BallotID,
		Name:        result.Name,
		Status:      string(result.Status),
		TotalVotes:  result.TotalVotes,
		Positions:   make([]positionTallyResponse, 0, len(result.Positions)),
		Initiatives: make([]initiativeTallyResponse, 0, len(result.Initiatives)),
		ComputedAt:  result.ComputedAt,
	}
	for _, position := range result.Positions {
		candidates := make([]candidateResultResponse, 0, len(position.Candidates))
		for _, candidate := range position.Candidates {
			candidates = append(candidates, candidateResultResponse(candidate))
		}
		response.Positions = append(response.Positions, positionTallyResponse{
			PositionID:   position.PositionID,
			Name:         position.Name,
			AllowedVotes: position.AllowedVotes,
			TotalVotes:   position.TotalVotes,
			Candidates:   candidates,
		})
	}
	for _, initiative := range result.Initiatives {
		responses := make([]responseResultResponse, 0, len(initiative.Responses))
		for _, option := range initiative.Responses {
			responses = append(responses, responseResultResponse{
				ResponseID: option.ResponseID,
				Text:       option.Text,
				Votes:      option.Votes,
				Percentage: initiative.Percentage(option.ResponseID),
			})
		}
		response.Initiatives = append(response.Initiatives, initiativeTallyResponse{
			InitiativeID: initiative.InitiativeID,
			Name:         initiative.Name,
			TotalVotes:   initiative.TotalVotes,
			Responses:    responses,
		})
	}
	return response
}
