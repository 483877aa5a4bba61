package ballots

import (
	"net/http"
	"time"

	ballotsdomain "ballot-app-go/internal/domain/ballots"
	"ballot-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type ballotResponse struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type summaryResponse struct {
	ballotResponse
	CompanyName         string `json:"company_name"`
	CompanyAbbreviation string `json:"company_abbreviation"`
	VoteCount           int64  `json:"vote_count"`
}

type pageResponse struct {
	Items      []summaryResponse `json:"items"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	HasNext    bool              `json:"has_next"`
	HasPrev    bool              `json:"has_prev"`
}

type candidateResponse struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Titles      string `json:"titles"`
	Description string `json:"description"`
	PictureURL  string `json:"picture_url"`
	WriteIn     bool   `json:"write_in"`
}

type positionResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	AllowedVotes int                 `json:"allowed_votes"`
	WriteIn      bool                `json:"write_in"`
	Candidates   []candidateResponse `json:"candidates"`
}

type responseOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type initiativeResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	PictureURL  string           `json:"picture_url"`
	Responses   []responseOption `json:"responses"`
}

type ballotDetailResponse struct {
	ballotResponse
	Positions   []positionResponse   `json:"positions"`
	Initiatives []initiativeResponse `json:"initiatives"`
}

type candidateRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Titles      string `json:"titles"`
	Description string `json:"description"`
	PictureURL  string `json:"picture_url"`
}

type positionRequest struct {
	Name         string             `json:"name"`
	AllowedVotes int                `json:"allowed_votes"`
	WriteIn      bool               `json:"write_in"`
	Candidates   []candidateRequest `json:"candidates"`
}

type initiativeRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PictureURL  string   `json:"picture_url"`
	Responses   []string `json:"responses"`
}

type createBallotRequest struct {
	CompanyID   string              `json:"company_id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	StartDate   time.Time           `json:"start_date"`
	EndDate     time.Time           `json:"end_date"`
	Positions   []positionRequest   `json:"positions"`
	Initiatives []initiativeRequest `json:"initiatives"`
}

type updateBallotRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

func (h *Handlers) ListBallots(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	values := r.URL.Query()
	page, err := parseIntParam(values.Get("page"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "page must be a non-negative integer")
		return
	}

	query := ballotsdomain.ListQuery{
		Filter: ballotsdomain.ListFilter{
			Search:     values.Get("search"),
			Status:     ballotsdomain.StatusFilter(values.Get("status")),
			CompanyIDs: parseCSV(values.Get("company_ids")),
		},
		Sort: ballotsdomain.ListSort{
			Field:     ballotsdomain.SortField(values.Get("sort")),
			Direction: ballotsdomain.SortDirection(values.Get("direction")),
		},
		Page: page,
	}
	if !isStaff(user) {
		query.Filter.CompanyIDs = []string{user.CompanyID}
	}

	result, err := h.Ballots.ListBallots(r.Context(), query)
	if err != nil {
		writeDomainError(w, h.log, "ballots.list: list failed", err, "user_id", user.ID)
		return
	}

	now := time.Now()
	response := pageResponse{
		Items:      make([]summaryResponse, 0, len(result.Items)),
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
		HasNext:    result.HasNext,
		HasPrev:    result.HasPrev,
	}
	for _, item := range result.Items {
		response.Items = append(response.Items, summaryResponse{
			ballotResponse:      toBallotResponse(item.Ballot, now),
			CompanyName:         item.CompanyName,
			CompanyAbbreviation: item.CompanyAbbreviation,
			VoteCount:           item.VoteCount,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateBallot(w http.ResponseWriter, r *http.Request) {
	var req createBallotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	input := ballotsdomain.CreateBallotInput{
		CompanyID:   req.CompanyID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Positions:   make([]ballotsdomain.PositionInput, 0, len(req.Positions)),
		Initiatives: make([]ballotsdomain.InitiativeInput, 0, len(req.Initiatives)),
	}
	for _, position := range req.Positions {
		candidates := make([]ballotsdomain.CandidateInput, 0, len(position.Candidates))
		for _, candidate := range position.Candidates {
			candidates = append(candidates, ballotsdomain.CandidateInput(candidate))
		}
		input.Positions = append(input.Positions, ballotsdomain.PositionInput{
			Name:         position.Name,
			AllowedVotes: position.AllowedVotes,
			WriteIn:      position.WriteIn,
			Candidates:   candidates,
		})
	}
	for _, initiative := range req.Initiatives {
		input.Initiatives = append(input.Initiatives, ballotsdomain.InitiativeInput(initiative))
	}

	created, err := h.Ballots.CreateBallot(r.Context(), input)
	if err != nil {
		writeDomainError(w, h.log, "ballots.create: create failed", err, "user_id", user.ID, "company_id", req.CompanyID)
		return
	}

	h.log.Info("ballots.create: created", "ballot_id", created.ID, "company_id", created.CompanyID, "user_id", user.ID)
	writeJSON(w, http.StatusCreated, toDetailResponse(created, time.Now()))
}

func (h *Handlers) GetBallot(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	ballotID := chi.URLParam(r, "ballot_id")
	detail, err := h.Ballots.GetBallot(r.Context(), ballotID)
	if err == nil && !visible(user, detail.Ballot) {
		err = ballotsdomain.ErrBallotNotFound
	}
	if err != nil {
		writeDomainError(w, h.log, "ballots.get: get failed", err, "user_id", user.ID, "ballot_id", ballotID)
		return
	}

	writeJSON(w, http.StatusOK, toDetailResponse(detail, time.Now()))
}

func (h *Handlers) UpdateBallot(w http.ResponseWriter, r *http.Request) {
	var req updateBallotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	ballotID := chi.URLParam(r, "ballot_id")
	updated, err := h.Ballots.UpdateBallotMetadata(r.Context(), ballotsdomain.UpdateMetadataInput{
		BallotID:    ballotID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		writeDomainError(w, h.log, "ballots.update: update failed", err, "user_id", user.ID, "ballot_id", ballotID)
		return
	}

	writeJSON(w, http.StatusOK, toBallotResponse(*updated, time.Now()))
}

func (h *Handlers) DeleteBallot(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	ballotID := chi.URLParam(r, "ballot_id")
	if err := h.Ballots.DeleteBallot(r.Context(), ballotID); err != nil {
		writeDomainError(w, h.log, "ballots.delete: delete failed", err, "user_id", user.ID, "ballot_id", ballotID)
		return
	}

	h.log.Info("ballots.delete: deleted", "ballot_id", ballotID, "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

func toBallotResponse(ballot ballotsdomain.Ballot, now time.Time) ballotResponse {
	return ballotResponse{
		ID:          ballot.ID,
		CompanyID:   ballot.CompanyID,
		Name:        ballot.Name,
		Description: ballot.Description,
		StartDate:   ballot.StartDate.UTC(),
		EndDate:     ballot.EndDate.UTC(),
		Status:      string(ballot.Status(now)),
		CreatedAt:   ballot.CreatedAt.UTC(),
		UpdatedAt:   ballot.UpdatedAt.UTC(),
	}
}

func toDetailResponse(detail *ballotsdomain.BallotDetail, now time.Time) ballotDetailResponse {
	response := ballotDetailResponse{
		ballotResponse: toBallotResponse(detail.Ballot, now),
		Positions:      make([]positionResponse, 0, len(detail.Positions)),
		Initiatives:    make([]initiativeResponse, 0, len(detail.Initiatives)),
	}
	for _, position := range detail.Positions {
		candidates := make([]candidateResponse, 0, len(position.Candidates))
		for _, candidate := range position.Candidates {
			candidates = append(candidates, candidateResponse{
				ID:          candidate.ID,
				FirstName:   candidate.FirstName,
				LastName:    candidate.LastName,
				Titles:      candidate.Titles,
				Description: candidate.Description,
				PictureURL:  candidate.PictureURL,
				WriteIn:     candidate.WriteIn,
			})
		}
		response.Positions = append(response.Positions, positionResponse{
			ID:           position.ID,
			Name:         position.Name,
			AllowedVotes: position.AllowedVotes,
			WriteIn:      position.WriteIn,
			Candidates:   candidates,
		})
	}
	for _, initiative := range detail.Initiatives {
		options := make([]responseOption, 0, len(initiative.Responses))
		for _, option := range initiative.Responses {
			options = append(options, responseOption{ID: option.ID, Text: option.Text})
		}
		response.Initiatives = append(response.Initiatives, initiativeResponse{
			ID:          initiative.ID,
			Name:        initiative.Name,
			Description: initiative.Description,
			PictureURL:  initiative.PictureURL,
			Responses:   options,
		})
	}
	return response
}
