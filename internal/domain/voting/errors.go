package voting

import "ballot-app-go/internal/apperr"

var (
	ErrDuplicateVote = apperr.New(apperr.KindConflict, "duplicate_vote", "you have already voted on this ballot")
	ErrBallotNotOpen = apperr.New(apperr.KindState, "ballot_not_open", "ballot is not open for voting")

	// ErrInvalidSelection is the umbrella for every rejected selection. The
	// more specific errors below are always reported together with it.
	ErrInvalidSelection  = apperr.New(apperr.KindValidation, "invalid_selection", "invalid selection")
	ErrTooManySelections = apperr.New(apperr.KindConflict, "too_many_selections", "too many selections")
	ErrUnknownSelection  = apperr.New(apperr.KindNotFound, "unknown_selection", "selection does not belong to this ballot")
)
