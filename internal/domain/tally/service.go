package tally

import (
	"context"
	"sort"
	"time"

	"ballot-app-go/internal/domain/ballots"
	"ballot-app-go/internal/domain/users"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Observer interface {
	ObserveTally(cached bool)
}

type noopObserver struct{}

func (noopObserver) ObserveTally(bool) {}

type noCache struct{}

func (noCache) Get(string) (*BallotTally, bool) { return nil, false }
func (noCache) Set(string, *BallotTally)         {}
func (noCache) Invalidate(string)                {}

type Service struct {
	repo     Repository
	cache    Cache
	observer Observer
	now      func() time.Time
}

func NewService(repo Repository, cache Cache, observer Observer) *Service {
	if cache == nil {
		cache = noCache{}
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		observer: observer,
		now:      time.Now,
	}
}

// cacheSettleDelay keeps a tally out of the cache until casts that passed the
// open check before the ballot ended have committed. It exceeds CAST_TIMEOUT.
const cacheSettleDelay = time.Minute

// TallyBallot computes ranked results. A closed ballot's tally is served from
// the cache only while the stored ballot still matches the one it was
// computed from.
func (s *Service) TallyBallot(ctx context.Context, ballotID string) (*BallotTally, error) {
	if _, err := uuid.Parse(ballotID); err != nil {
		return nil, ballots.ErrBallotNotFound
	}

	ballot, err := s.repo.GetBallot(ctx, ballotID)
	if err != nil {
		return nil, err
	}
	version := ballotVersion(ballot)
	now := s.now()
	settled := now.After(ballot.EndDate.Add(cacheSettleDelay))

	if settled {
		if cached, ok := s.cache.Get(ballotID); ok && cached.version == version {
			s.observer.ObserveTally(true)
			return cached.Clone(), nil
		}
	}

	result, err := s.compute(ctx, ballot)
	if err != nil {
		return nil, err
	}
	s.observer.ObserveTally(false)

	if settled {
		result.version = version
		s.cache.Set(ballotID, result.Clone())
	}
	return result, nil
}

// ballotVersion identifies the stored state a tally was computed from. Any
// metadata update bumps UpdatedAt.
func ballotVersion(ballot *ballots.Ballot) string {
	return ballot.StartDate.UTC().Format(time.RFC3339Nano) + "|" +
		ballot.EndDate.UTC().Format(time.RFC3339Nano) + "|" +
		ballot.UpdatedAt.UTC().Format(time.RFC3339Nano)
}

// Viewer scopes a tally request to what the caller may see.
type Viewer struct {
	CompanyID string
	// AllCompanies lifts the company restriction.
	AllCompanies bool
	// ClosedOnly hides results until the voting window has ended.
	ClosedOnly bool
}

// TallyFor is TallyBallot as seen by viewer. Ballots of other companies are
// reported as not found.
func (s *Service) TallyFor(ctx context.Context, ballotID string, viewer Viewer) (*BallotTally, error) {
	result, err := s.TallyBallot(ctx, ballotID)
	if err != nil {
		return nil, err
	}
	if !viewer.AllCompanies && result.CompanyID != viewer.CompanyID {
		return nil, ballots.ErrBallotNotFound
	}
	if viewer.ClosedOnly && result.Status != ballots.StatusClosed {
		return nil, ErrTallyUnavailable
	}
	return result, nil
}

// Invalidate drops the cached tally of ballotID.
func (s *Service) Invalidate(ballotID string) {
	s.cache.Invalidate(ballotID)
}

func (s *Service) compute(ctx context.Context, ballot *ballots.Ballot) (*BallotTally, error) {
	var (
		positions     []ballots.Position
		initiatives   []ballots.Initiative
		candidateRows []CandidateCount
		responseRows  []ResponseCount
		totalVotes    int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		positions, err = s.repo.ListPositions(gctx, ballot.ID)
		return err
	})
	g.Go(func() error {
		var err error
		initiatives, err = s.repo.ListInitiatives(gctx, ballot.ID)
		return err
	})
	g.Go(func() error {
		var err error
		candidateRows, err = s.repo.CountCandidateVotes(gctx, ballot.ID)
		return err
	})
	g.Go(func() error {
		var err error
		responseRows, err = s.repo.CountResponseVotes(gctx, ballot.ID)
		return err
	})
	g.Go(func() error {
		var err error
		totalVotes, err = s.repo.CountVotes(gctx, ballot.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	result := &BallotTally{
		BallotID:    ballot.ID,
		CompanyID:   ballot.CompanyID,
		Name:        ballot.Name,
		Status:      ballot.Status(now),
		TotalVotes:  totalVotes,
		Positions:   make([]PositionTally, 0, len(positions)),
		Initiatives: make([]InitiativeTally, 0, len(initiatives)),
		ComputedAt:  now.UTC(),
	}

	candidatesByPosition := make(map[string][]CandidateResult, len(positions))
	for _, row := range candidateRows {
		candidatesByPosition[row.PositionID] = append(candidatesByPosition[row.PositionID], CandidateResult{
			CandidateID: row.CandidateID,
			FirstName:   row.FirstName,
			LastName:    row.LastName,
			WriteIn:     row.WriteIn,
			Votes:       row.Votes,
		})
	}
	for _, position := range positions {
		candidates := rankCandidates(candidatesByPosition[position.ID])
		var total int64
		for _, candidate := range candidates {
			total += candidate.Votes
		}
		result.Positions = append(result.Positions, PositionTally{
			PositionID:   position.ID,
			Name:         position.Name,
			AllowedVotes: position.AllowedVotes,
			TotalVotes:   total,
			Candidates:   candidates,
		})
	}

	responsesByInitiative := make(map[string][]ResponseCount, len(initiatives))
	for _, row := range responseRows {
		responsesByInitiative[row.InitiativeID] = append(responsesByInitiative[row.InitiativeID], row)
	}
	for _, initiative := range initiatives {
		rows := responsesByInitiative[initiative.ID]
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].SortOrder != rows[j].SortOrder {
				return rows[i].SortOrder < rows[j].SortOrder
			}
			return rows[i].ResponseID < rows[j].ResponseID
		})
		responses := make([]ResponseResult, 0, len(rows))
		var total int64
		for _, row := range rows {
			responses = append(responses, ResponseResult{ResponseID: row.ResponseID, Text: row.Text, Votes: row.Votes})
			total += row.Votes
		}
		result.Initiatives = append(result.Initiatives, InitiativeTally{
			InitiativeID: initiative.ID,
			Name:         initiative.Name,
			TotalVotes:   total,
			Responses:    responses,
		})
	}

	return result, nil
}

// rankCandidates orders by votes descending, ties in ballot candidate order,
// and assigns competition ranks.
func rankCandidates(candidates []CandidateResult) []CandidateResult {
	if candidates == nil {
		return []CandidateResult{}
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}
		return ballots.CandidateLess(a.candidate(), b.candidate())
	})
	for i := range candidates {
		if i > 0 && candidates[i].Votes == candidates[i-1].Votes {
			candidates[i].Rank = candidates[i-1].Rank
			continue
		}
		candidates[i].Rank = i + 1
	}
	return candidates
}

// TallyVoters reports which eligible members of the owning company voted.
func (s *Service) TallyVoters(ctx context.Context, ballotID string) (*VoterTurnout, error) {
	if _, err := uuid.Parse(ballotID); err != nil {
		return nil, ballots.ErrBallotNotFound
	}

	ballot, err := s.repo.GetBallot(ctx, ballotID)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListVoters(ctx, ballot.ID, ballot.CompanyID, users.EligibleRoles)
	if err != nil {
		return nil, err
	}

	turnout := &VoterTurnout{
		BallotID:        ballot.ID,
		CompanyID:       ballot.CompanyID,
		Voters:          make([]VoterStatus, 0, len(rows)),
		EligibleMembers: int64(len(rows)),
	}
	for _, row := range rows {
		voted := row.VotedAt != nil
		if voted {
			turnout.DistinctVoters++
		}
		turnout.Voters = append(turnout.Voters, VoterStatus{
			UserID:    row.UserID,
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Username:  row.Username,
			Role:      row.Role,
			Voted:     voted,
			VotedAt:   row.VotedAt,
		})
	}
	if turnout.EligibleMembers > 0 {
		turnout.VotedPercentage = float64(turnout.DistinctVoters) * 100 / float64(turnout.EligibleMembers)
	}

	return turnout, nil
}
