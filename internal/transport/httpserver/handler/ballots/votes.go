package ballots

import (
	"net/http"
	"time"

	votingdomain "ballot-app-go/internal/domain/voting"
	"ballot-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type writeInRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type positionSelectionRequest struct {
	PositionID  string          `json:"position_id"`
	CandidateID string          `json:"candidate_id"`
	WriteIn     *writeInRequest `json:"write_in"`
}

type initiativeSelectionRequest struct {
	InitiativeID string `json:"initiative_id"`
	ResponseID   string `json:"response_id"`
}

type castVoteRequest struct {
	Positions   []positionSelectionRequest   `json:"positions"`
	Initiatives []initiativeSelectionRequest `json:"initiatives"`
}

type receiptResponse struct {
	VoteID              string    `json:"vote_id"`
	BallotID            string    `json:"ballot_id"`
	CastAt              time.Time `json:"cast_at"`
	PositionVotes       int       `json:"position_votes"`
	InitiativeVotes     int       `json:"initiative_votes"`
	WriteInCandidateIDs []string  `json:"write_in_candidate_ids"`
}

type hasVotedResponse struct {
	BallotID string `json:"ballot_id"`
	Voted    bool   `json:"voted"`
}

func (h *Handlers) CastVote(w http.ResponseWriter, r *http.Request) {
	var req castVoteRequest
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
	input := votingdomain.CastInput{
		UserID:      user.ID,
		BallotID:    ballotID,
		Positions:   make([]votingdomain.PositionSelection, 0, len(req.Positions)),
		Initiatives: make([]votingdomain.InitiativeSelection, 0, len(req.Initiatives)),
	}
	for _, selection := range req.Positions {
		item := votingdomain.PositionSelection{
			PositionID:  selection.PositionID,
			CandidateID: selection.CandidateID,
		}
		if selection.WriteIn != nil {
			item.WriteIn = &votingdomain.WriteInName{
				FirstName: selection.WriteIn.FirstName,
				LastName:  selection.WriteIn.LastName,
			}
		}
		input.Positions = append(input.Positions, item)
	}
	for _, selection := range req.Initiatives {
		input.Initiatives = append(input.Initiatives, votingdomain.InitiativeSelection(selection))
	}

	receipt, err := h.Voting.CastVote(r.Context(), input)
	if err != nil {
		writeDomainError(w, h.log, "votes.cast: cast failed", err, "user_id", user.ID, "ballot_id", ballotID)
		return
	}

	h.log.Info("votes.cast: recorded", "vote_id", receipt.VoteID, "ballot_id", ballotID, "user_id", user.ID,
		"position_votes", receipt.PositionVotes, "initiative_votes", receipt.InitiativeVotes)
	writeInIDs := receipt.WriteInCandidateIDs
	if writeInIDs == nil {
		writeInIDs = []string{}
	}
	writeJSON(w, http.StatusCreated, receiptResponse{
		VoteID:              receipt.VoteID,
		BallotID:            receipt.BallotID,
		CastAt:              receipt.CastAt.UTC(),
		PositionVotes:       receipt.PositionVotes,
		InitiativeVotes:     receipt.InitiativeVotes,
		WriteInCandidateIDs: writeInIDs,
	})
}

func (h *Handlers) MyVote(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	ballotID := chi.URLParam(r, "ballot_id")
	voted, err := h.Voting.HasVoted(r.Context(), user.ID, ballotID)
	if err != nil {
		writeDomainError(w, h.log, "votes.me: lookup failed", err, "user_id", user.ID, "ballot_id", ballotID)
		return
	}

	writeJSON(w, http.StatusOK, hasVotedResponse{BallotID: ballotID, Voted: voted})
}
