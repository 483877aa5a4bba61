package ballots

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	CreateBallot(ctx context.Context, ballot *Ballot) error
	CreatePositions(ctx context.Context, positions []Position) error
	CreateCandidates(ctx context.Context, candidates []Candidate) error
	LinkCandidates(ctx context.Context, links []PositionCandidate) error
	CreateInitiatives(ctx context.Context, initiatives []Initiative) error
	CreateResponses(ctx context.Context, responses []Response) error
	GetBallot(ctx context.Context, ballotID string) (*Ballot, error)
	ListPositions(ctx context.Context, ballotID string) ([]Position, error)
	GetCandidatesByPositionIDs(ctx context.Context, positionIDs []string) (map[string][]Candidate, error)
	ListInitiatives(ctx context.Context, ballotID string) ([]Initiative, error)
	GetResponsesByInitiativeIDs(ctx context.Context, initiativeIDs []string) (map[string][]Response, error)
	UpdateBallot(ctx context.Context, ballot *Ballot) error
	DeleteBallot(ctx context.Context, ballotID string) (bool, error)
	DeleteOrphanCandidates(ctx context.Context, candidateIDs []string) (int64, error)
	ListBallots(ctx context.Context, params ListParams) ([]Summary, int64, error)
}
