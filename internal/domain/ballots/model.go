package ballots

import (
	"time"

	"ballot-app-go/internal/domain/users"
)

type Ballot struct {
	ID          string         `gorm:"size:36;primaryKey"`
	CompanyID   string         `gorm:"size:36;not null;index"`
	Name        string         `gorm:"not null"`
	Description string         `gorm:"not null;default:''"`
	StartDate   time.Time      `gorm:"not null;index"`
	EndDate     time.Time      `gorm:"not null;index"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	Company     *users.Company `gorm:"constraint:OnDelete:CASCADE"`
}

func (b Ballot) Status(now time.Time) Status {
	return StatusAt(b.StartDate, b.EndDate, now)
}

type Position struct {
	ID           string  `gorm:"size:36;primaryKey"`
	BallotID     string  `gorm:"size:36;not null;index"`
	Name         string  `gorm:"not null"`
	AllowedVotes int     `gorm:"not null;default:1;check:chk_positions_allowed_votes,allowed_votes >= 1"`
	WriteIn      bool    `gorm:"not null;default:false"`
	SortOrder    int     `gorm:"not null;default:0"`
	Ballot       *Ballot `gorm:"constraint:OnDelete:CASCADE"`
}

type Candidate struct {
	ID          string    `gorm:"size:36;primaryKey"`
	FirstName   string    `gorm:"not null"`
	LastName    string    `gorm:"not null"`
	Titles      string    `gorm:"not null;default:''"`
	Description string    `gorm:"not null;default:''"`
	PictureURL  string    `gorm:"not null;default:''"`
	WriteIn     bool      `gorm:"not null;default:false;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (c Candidate) FullName() string {
	return c.FirstName + " " + c.LastName
}

// PositionCandidate places a candidate on a position's slate.
type PositionCandidate struct {
	PositionID  string     `gorm:"size:36;primaryKey"`
	CandidateID string     `gorm:"size:36;primaryKey;index"`
	Position    *Position  `gorm:"constraint:OnDelete:CASCADE"`
	Candidate   *Candidate `gorm:"constraint:OnDelete:CASCADE"`
}

type Initiative struct {
	ID          string  `gorm:"size:36;primaryKey"`
	BallotID    string  `gorm:"size:36;not null;index"`
	Name        string  `gorm:"not null"`
	Description string  `gorm:"not null;default:''"`
	PictureURL  string  `gorm:"not null;default:''"`
	SortOrder   int     `gorm:"not null;default:0"`
	Ballot      *Ballot `gorm:"constraint:OnDelete:CASCADE"`
}

type Response struct {
	ID           string      `gorm:"size:36;primaryKey"`
	InitiativeID string      `gorm:"size:36;not null;index"`
	Text         string      `gorm:"not null"`
	SortOrder    int         `gorm:"not null;default:0"`
	Initiative   *Initiative `gorm:"constraint:OnDelete:CASCADE"`
}

type PositionDetail struct {
	Position
	Candidates []Candidate
}

type InitiativeDetail struct {
	Initiative
	Responses []Response
}

type BallotDetail struct {
	Ballot
	Positions   []PositionDetail
	Initiatives []InitiativeDetail
}

func (d *BallotDetail) Position(positionID string) (*PositionDetail, bool) {
	for i := range d.Positions {
		if d.Positions[i].ID == positionID {
			return &d.Positions[i], true
		}
	}
	return nil, false
}

func (d *BallotDetail) Initiative(initiativeID string) (*InitiativeDetail, bool) {
	for i := range d.Initiatives {
		if d.Initiatives[i].ID == initiativeID {
			return &d.Initiatives[i], true
		}
	}
	return nil, false
}

func (p PositionDetail) HasCandidate(candidateID string) bool {
	for _, candidate := range p.Candidates {
		if candidate.ID == candidateID {
			return true
		}
	}
	return false
}

func (i InitiativeDetail) HasResponse(responseID string) bool {
	for _, response := range i.Responses {
		if response.ID == responseID {
			return true
		}
	}
	return false
}

// Summary is one row of a ballot listing.
type Summary struct {
	Ballot
	CompanyName         string
	CompanyAbbreviation string
	VoteCount           int64
}

type CreateBallotInput struct {
	CompanyID   string
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Positions   []PositionInput
	Initiatives []InitiativeInput
}

type PositionInput struct {
	Name         string
	AllowedVotes int
	WriteIn      bool
	Candidates   []CandidateInput
}

type CandidateInput struct {
	FirstName   string
	LastName    string
	Titles      string
	Description string
	PictureURL  string
}

type InitiativeInput struct {
	Name        string
	Description string
	PictureURL  string
	Responses   []string
}

type UpdateMetadataInput struct {
	BallotID    string
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
}
