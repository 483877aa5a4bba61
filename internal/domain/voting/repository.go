package voting

import (
	"context"

	"ballot-app-go/internal/domain/ballots"
	"ballot-app-go/internal/domain/users"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	CreateVote(ctx context.Context, vote *Vote) error
	// LockWriteIn serializes write-in resolution for one position until the
	// surrounding transaction ends.
	LockWriteIn(ctx context.Context, positionID string) error
	// FindWriteInCandidate returns nil without error when no candidate on the
	// position carries the name.
	FindWriteInCandidate(ctx context.Context, positionID, firstName, lastName string) (*ballots.Candidate, error)
	CreateWriteInCandidate(ctx context.Context, positionID string, candidate *ballots.Candidate) error
	CreatePositionVotes(ctx context.Context, votes []PositionVote) error
	CountPositionVotes(ctx context.Context, voteID string) (map[string]int64, error)
	CreateInitiativeVotes(ctx context.Context, votes []InitiativeVote) error
	HasVoted(ctx context.Context, userID, ballotID string) (bool, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*users.User, error)
}

type BallotLoader interface {
	GetBallot(ctx context.Context, ballotID string) (*ballots.BallotDetail, error)
}
