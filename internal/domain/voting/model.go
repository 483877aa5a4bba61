package voting

import (
	"time"

	"ballot-app-go/internal/domain/ballots"
	"ballot-app-go/internal/domain/users"
)

type Vote struct {
	ID        string          `gorm:"size:36;primaryKey"`
	UserID    string          `gorm:"size:36;not null;uniqueIndex:idx_votes_user_ballot"`
	BallotID  string          `gorm:"size:36;not null;uniqueIndex:idx_votes_user_ballot;index"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	User      *users.User     `gorm:"constraint:OnDelete:CASCADE"`
	Ballot    *ballots.Ballot `gorm:"constraint:OnDelete:CASCADE"`
}

type PositionVote struct {
	VoteID      string             `gorm:"size:36;primaryKey"`
	PositionID  string             `gorm:"size:36;primaryKey;index"`
	CandidateID string             `gorm:"size:36;primaryKey;index"`
	Vote        *Vote              `gorm:"constraint:OnDelete:CASCADE"`
	Position    *ballots.Position  `gorm:"constraint:OnDelete:CASCADE"`
	Candidate   *ballots.Candidate `gorm:"constraint:OnDelete:CASCADE"`
}

type InitiativeVote struct {
	ID           string              `gorm:"size:36;primaryKey"`
	VoteID       string              `gorm:"size:36;not null;index"`
	UserID       string              `gorm:"size:36;not null;uniqueIndex:idx_initiative_votes_user_ballot_initiative"`
	BallotID     string              `gorm:"size:36;not null;uniqueIndex:idx_initiative_votes_user_ballot_initiative"`
	InitiativeID string              `gorm:"size:36;not null;uniqueIndex:idx_initiative_votes_user_ballot_initiative"`
	ResponseID   string              `gorm:"size:36;not null;index"`
	Vote         *Vote               `gorm:"constraint:OnDelete:CASCADE"`
	User         *users.User         `gorm:"constraint:OnDelete:CASCADE"`
	Ballot       *ballots.Ballot     `gorm:"constraint:OnDelete:CASCADE"`
	Initiative   *ballots.Initiative `gorm:"constraint:OnDelete:CASCADE"`
	Response     *ballots.Response   `gorm:"constraint:OnDelete:CASCADE"`
}

// PositionSelection picks either a registered candidate or a write-in name.
type PositionSelection struct {
	PositionID  string
	CandidateID string
	WriteIn     *WriteInName
}

type WriteInName struct {
	FirstName string
	LastName  string
}

type InitiativeSelection struct {
	InitiativeID string
	ResponseID   string
}

type CastInput struct {
	UserID      string
	BallotID    string
	Positions   []PositionSelection
	Initiatives []InitiativeSelection
}

type Receipt struct {
	VoteID          string
	UserID          string
	BallotID        string
	CastAt          time.Time
	PositionVotes   int
	InitiativeVotes int
	// WriteInCandidateIDs lists the candidates resolved for write-in selections, in submission order.
	WriteInCandidateIDs []string
}
