package tally

import (
	"time"

	"ballot-app-go/internal/domain/ballots"
	"ballot-app-go/internal/domain/users"
)

type CandidateResult struct {
	CandidateID string
	FirstName   string
	LastName    string
	WriteIn     bool
	Votes       int64
	// Rank is 1-based; tied candidates share a rank and the next rank is skipped.
	Rank int
}

func (c CandidateResult) candidate() ballots.Candidate {
	return ballots.Candidate{ID: c.CandidateID, FirstName: c.FirstName, LastName: c.LastName}
}

type PositionTally struct {
	PositionID   string
	Name         string
	AllowedVotes int
	TotalVotes   int64
	Candidates   []CandidateResult
}

type ResponseResult struct {
	ResponseID string
	Text       string
	Votes      int64
}

type InitiativeTally struct {
	InitiativeID string
	Name         string
	TotalVotes   int64
	Responses    []ResponseResult
}

// Percentage is the share of this initiative's votes that went to responseID,
// in the range 0..100.
func (t InitiativeTally) Percentage(responseID string) float64 {
	if t.TotalVotes == 0 {
		return 0
	}
	for _, response := range t.Responses {
		if response.ResponseID == responseID {
			return float64(response.Votes) * 100 / float64(t.TotalVotes)
		}
	}
	return 0
}

type BallotTally struct {
	BallotID    string
	CompanyID   string
	Name        string
	Status      ballots.Status
	TotalVotes  int64
	Positions   []PositionTally
	Initiatives []InitiativeTally
	ComputedAt  time.Time

	version string
}

func (t *BallotTally) Clone() *BallotTally {
	if t == nil {
		return nil
	}
	c := *t
	c.Positions = make([]PositionTally, len(t.Positions))
	for i, position := range t.Positions {
		position.Candidates = append([]CandidateResult(nil), position.Candidates...)
		c.Positions[i] = position
	}
	c.Initiatives = make([]InitiativeTally, len(t.Initiatives))
	for i, initiative := range t.Initiatives {
		initiative.Responses = append([]ResponseResult(nil), initiative.Responses...)
		c.Initiatives[i] = initiative
	}
	return &c
}

// CandidateCount is the number of selections a candidate received on one
// position. Candidates without votes are reported with zero.
type CandidateCount struct {
	PositionID  string
	CandidateID string
	FirstName   string
	LastName    string
	WriteIn     bool
	Votes       int64
}

type ResponseCount struct {
	InitiativeID string
	ResponseID   string
	Text         string
	SortOrder    int
	Votes        int64
}

type VoterRow struct {
	UserID    string
	FirstName string
	LastName  string
	Username  string
	Role      users.Role
	VotedAt   *time.Time
}

type VoterStatus struct {
	UserID    string
	FirstName string
	LastName  string
	Username  string
	Role      users.Role
	Voted     bool
	VotedAt   *time.Time
}

type VoterTurnout struct {
	BallotID        string
	CompanyID       string
	Voters          []VoterStatus
	EligibleMembers int64
	DistinctVoters  int64
	VotedPercentage float64
}
