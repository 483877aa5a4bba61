package tally

import (
	"context"

	"ballot-app-go/internal/domain/ballots"
	"ballot-app-go/internal/domain/users"
)

type Repository interface {
	GetBallot(ctx context.Context, ballotID string) (*ballots.Ballot, error)
	ListPositions(ctx context.Context, ballotID string) ([]ballots.Position, error)
	ListInitiatives(ctx context.Context, ballotID string) ([]ballots.Initiative, error)
	CountCandidateVotes(ctx context.Context, ballotID string) ([]CandidateCount, error)
	CountResponseVotes(ctx context.Context, ballotID string) ([]ResponseCount, error)
	CountVotes(ctx context.Context, ballotID string) (int64, error)
	ListVoters(ctx context.Context, ballotID, companyID string, roles []users.Role) ([]VoterRow, error)
}

// Cache holds computed tallies by ballot id. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ballotID string) (*BallotTally, bool)
	Set(ballotID string, tally *BallotTally)
	Invalidate(ballotID string)
}
