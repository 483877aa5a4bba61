package ballots

import "ballot-app-go/internal/apperr"

var (
	ErrBallotNotFound = apperr.New(apperr.KindNotFound, "ballot_not_found", "ballot not found")
	ErrInvalidBallot  = apperr.New(apperr.KindValidation, "invalid_ballot", "invalid ballot")
	ErrInvalidFilter  = apperr.New(apperr.KindValidation, "invalid_filter", "invalid filter")
)
