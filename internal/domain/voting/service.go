package voting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"ballot-app-go/internal/apperr"
	"ballot-app-go/internal/domain/ballots"
	"ballot-app-go/internal/domain/users"
	"ballot-app-go/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultCastTimeout = 10 * time.Second
	maxWriteInName     = 100
)

type Observer interface {
	ObserveCast(result string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveCast(string, time.Duration) {}

type Options struct {
	CastTimeout time.Duration
	Observer    Observer
}

type Service struct {
	repo        Repository
	users       UserLookup
	ballots     BallotLoader
	log         logger.Logger
	castTimeout time.Duration
	observer    Observer
	now         func() time.Time
}

func NewService(repo Repository, users UserLookup, ballots BallotLoader, log logger.Logger, opts Options) *Service {
	if opts.CastTimeout <= 0 {
		opts.CastTimeout = DefaultCastTimeout
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:        repo,
		users:       users,
		ballots:     ballots,
		log:         log,
		castTimeout: opts.CastTimeout,
		observer:    opts.Observer,
		now:         time.Now,
	}
}

type plannedWriteIn struct {
	index      int
	positionID string
	name       WriteInName
}

type castPlan struct {
	positionVotes   []PositionVote
	writeIns        []plannedWriteIn
	initiativeVotes []InitiativeVote
	allowed         map[string]int
	chosen          map[string]map[string]struct{}
}

// CastVote records one user's complete submission for a ballot. Either every
// selection is stored or none is.
func (s *Service) CastVote(ctx context.Context, input CastInput) (receipt *Receipt, err error) {
	started := s.now()
	defer func() {
		s.observer.ObserveCast(castResult(err), s.now().Sub(started))
	}()

	if err := validateCastInput(input); err != nil {
		return nil, err
	}

	var (
		user   *users.User
		detail *ballots.BallotDetail
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.users.GetUser(gctx, input.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		detail, err = s.ballots.GetBallot(gctx, input.BallotID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if detail.CompanyID != user.CompanyID {
		return nil, ballots.ErrBallotNotFound
	}
	if status := detail.Status(s.now()); status != ballots.StatusOpen {
		return nil, fmt.Errorf("%w: ballot is %s", ErrBallotNotOpen, status)
	}

	plan, err := planCast(detail, input)
	if err != nil {
		return nil, err
	}

	castCtx, cancel := context.WithTimeout(ctx, s.castTimeout)
	defer cancel()

	vote := Vote{
		ID:       uuid.NewString(),
		UserID:   input.UserID,
		BallotID: input.BallotID,
	}
	writeInIDs := make([]string, len(plan.writeIns))
	positionVotes := 0

	err = s.repo.Transaction(castCtx, func(tx Repository) error {
		if err := tx.CreateVote(castCtx, &vote); err != nil {
			return err
		}

		rows := make([]PositionVote, 0, len(plan.positionVotes)+len(plan.writeIns))
		for _, pv := range plan.positionVotes {
			pv.VoteID = vote.ID
			rows = append(rows, pv)
		}

		chosen := make(map[string]map[string]struct{}, len(plan.chosen))
		for positionID, candidates := range plan.chosen {
			chosen[positionID] = make(map[string]struct{}, len(candidates))
			for candidateID := range candidates {
				chosen[positionID][candidateID] = struct{}{}
			}
		}

		for _, w := range plan.writeIns {
			candidateID, err := s.resolveWriteIn(castCtx, tx, w)
			if err != nil {
				return err
			}
			if _, dup := chosen[w.positionID][candidateID]; dup {
				return fmt.Errorf("%w: write-in %q repeats a selected candidate on position %s",
					ErrInvalidSelection, w.name.FirstName+" "+w.name.LastName, w.positionID)
			}
			if chosen[w.positionID] == nil {
				chosen[w.positionID] = make(map[string]struct{})
			}
			chosen[w.positionID][candidateID] = struct{}{}
			writeInIDs[w.index] = candidateID
			rows = append(rows, PositionVote{VoteID: vote.ID, PositionID: w.positionID, CandidateID: candidateID})
		}

		if len(rows) > 0 {
			if err := tx.CreatePositionVotes(castCtx, rows); err != nil {
				return err
			}
			if err := verifyPositionCounts(castCtx, tx, vote.ID, plan.allowed, len(rows)); err != nil {
				return err
			}
		}
		positionVotes = len(rows)

		if len(plan.initiativeVotes) > 0 {
			initiativeRows := make([]InitiativeVote, 0, len(plan.initiativeVotes))
			for _, iv := range plan.initiativeVotes {
				iv.ID = uuid.NewString()
				iv.VoteID = vote.ID
				initiativeRows = append(initiativeRows, iv)
			}
			if err := tx.CreateInitiativeVotes(castCtx, initiativeRows); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if castCtx.Err() != nil && apperr.KindOf(err) == apperr.KindUnknown {
			// Past the deadline the driver may report a finished transaction
			// instead of the context error.
			err = apperr.ErrStoreUnavailable.Wrap(err)
		}
		if apperr.KindOf(err) == apperr.KindInvariant {
			s.log.Critical("voting.cast: invariant violated", "ballot_id", input.BallotID, "user_id", input.UserID, "err", err)
		}
		return nil, err
	}

	castAt := vote.CreatedAt
	if castAt.IsZero() {
		castAt = s.now().UTC()
	}
	return &Receipt{
		VoteID:              vote.ID,
		UserID:              vote.UserID,
		BallotID:            vote.BallotID,
		CastAt:              castAt,
		PositionVotes:       positionVotes,
		InitiativeVotes:     len(plan.initiativeVotes),
		WriteInCandidateIDs: writeInIDs,
	}, nil
}

func (s *Service) HasVoted(ctx context.Context, userID, ballotID string) (bool, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return false, users.ErrUserNotFound
	}
	if _, err := uuid.Parse(ballotID); err != nil {
		return false, ballots.ErrBallotNotFound
	}
	return s.repo.HasVoted(ctx, userID, ballotID)
}

// resolveWriteIn reuses a candidate already on the position with the same
// name, registered candidates first, and registers a new write-in otherwise.
func (s *Service) resolveWriteIn(ctx context.Context, tx Repository, w plannedWriteIn) (string, error) {
	if err := tx.LockWriteIn(ctx, w.positionID); err != nil {
		return "", err
	}

	existing, err := tx.FindWriteInCandidate(ctx, w.positionID, w.name.FirstName, w.name.LastName)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}

	candidate := ballots.Candidate{
		ID:        uuid.NewString(),
		FirstName: w.name.FirstName,
		LastName:  w.name.LastName,
		WriteIn:   true,
	}
	if err := tx.CreateWriteInCandidate(ctx, w.positionID, &candidate); err != nil {
		return "", err
	}
	return candidate.ID, nil
}

func verifyPositionCounts(ctx context.Context, tx Repository, voteID string, allowed map[string]int, expected int) error {
	counts, err := tx.CountPositionVotes(ctx, voteID)
	if err != nil {
		return err
	}

	var total int64
	for positionID, count := range counts {
		limit, ok := allowed[positionID]
		if !ok || count > int64(limit) {
			return apperr.ErrInvariantViolation.Wrap(
				fmt.Errorf("position %s recorded %d selections, allows %d", positionID, count, limit))
		}
		total += count
	}
	if total != int64(expected) {
		return apperr.ErrInvariantViolation.Wrap(
			fmt.Errorf("vote %s recorded %d position selections, submitted %d", voteID, total, expected))
	}
	return nil
}

func validateCastInput(input CastInput) error {
	if _, err := uuid.Parse(input.UserID); err != nil {
		return fmt.Errorf("%w: user id is invalid", ErrInvalidSelection)
	}
	if _, err := uuid.Parse(input.BallotID); err != nil {
		return fmt.Errorf("%w: ballot id is invalid", ErrInvalidSelection)
	}

	for i, selection := range input.Positions {
		if _, err := uuid.Parse(selection.PositionID); err != nil {
			return fmt.Errorf("%w: selection %d: position id is invalid", ErrInvalidSelection, i)
		}
		hasCandidate := selection.CandidateID != ""
		hasWriteIn := selection.WriteIn != nil
		if hasCandidate == hasWriteIn {
			return fmt.Errorf("%w: selection %d: choose exactly one of candidate or write-in", ErrInvalidSelection, i)
		}
		if hasCandidate {
			if _, err := uuid.Parse(selection.CandidateID); err != nil {
				return fmt.Errorf("%w: selection %d: candidate id is invalid", ErrInvalidSelection, i)
			}
			continue
		}
		name := normalizeWriteIn(*selection.WriteIn)
		if name.FirstName == "" || name.LastName == "" {
			return fmt.Errorf("%w: selection %d: write-in needs first and last name", ErrInvalidSelection, i)
		}
		if utf8.RuneCountInString(name.FirstName) > maxWriteInName || utf8.RuneCountInString(name.LastName) > maxWriteInName {
			return fmt.Errorf("%w: selection %d: write-in name too long", ErrInvalidSelection, i)
		}
	}

	for i, selection := range input.Initiatives {
		if _, err := uuid.Parse(selection.InitiativeID); err != nil {
			return fmt.Errorf("%w: initiative selection %d: initiative id is invalid", ErrInvalidSelection, i)
		}
		if _, err := uuid.Parse(selection.ResponseID); err != nil {
			return fmt.Errorf("%w: initiative selection %d: response id is invalid", ErrInvalidSelection, i)
		}
	}

	return nil
}

// planCast checks every selection against the ballot layout.
func planCast(detail *ballots.BallotDetail, input CastInput) (castPlan, error) {
	plan := castPlan{
		allowed: make(map[string]int, len(detail.Positions)),
		chosen:  make(map[string]map[string]struct{}),
	}
	for _, position := range detail.Positions {
		plan.allowed[position.ID] = position.AllowedVotes
	}

	perPosition := make(map[string]int)
	writeInKeys := make(map[string]map[string]struct{})

	for _, selection := range input.Positions {
		position, ok := detail.Position(selection.PositionID)
		if !ok {
			return castPlan{}, fmt.Errorf("%w (%w): position %s", ErrUnknownSelection, ErrInvalidSelection, selection.PositionID)
		}

		perPosition[position.ID]++
		if perPosition[position.ID] > position.AllowedVotes {
			return castPlan{}, fmt.Errorf("%w (%w): position %s allows %d",
				ErrTooManySelections, ErrInvalidSelection, position.ID, position.AllowedVotes)
		}

		if selection.WriteIn != nil {
			if !position.WriteIn {
				return castPlan{}, fmt.Errorf("%w: position %s does not accept write-ins", ErrInvalidSelection, position.ID)
			}
			name := normalizeWriteIn(*selection.WriteIn)
			key := strings.ToLower(name.FirstName + "\x00" + name.LastName)
			if writeInKeys[position.ID] == nil {
				writeInKeys[position.ID] = make(map[string]struct{})
			}
			if _, dup := writeInKeys[position.ID][key]; dup {
				return castPlan{}, fmt.Errorf("%w: write-in repeated on position %s", ErrInvalidSelection, position.ID)
			}
			writeInKeys[position.ID][key] = struct{}{}
			plan.writeIns = append(plan.writeIns, plannedWriteIn{
				index:      len(plan.writeIns),
				positionID: position.ID,
				name:       name,
			})
			continue
		}

		if !position.HasCandidate(selection.CandidateID) {
			return castPlan{}, fmt.Errorf("%w (%w): candidate %s is not on position %s",
				ErrUnknownSelection, ErrInvalidSelection, selection.CandidateID, position.ID)
		}
		if plan.chosen[position.ID] == nil {
			plan.chosen[position.ID] = make(map[string]struct{})
		}
		if _, dup := plan.chosen[position.ID][selection.CandidateID]; dup {
			return castPlan{}, fmt.Errorf("%w: candidate %s selected twice", ErrInvalidSelection, selection.CandidateID)
		}
		plan.chosen[position.ID][selection.CandidateID] = struct{}{}
		plan.positionVotes = append(plan.positionVotes, PositionVote{
			PositionID:  position.ID,
			CandidateID: selection.CandidateID,
		})
	}

	answered := make(map[string]struct{}, len(input.Initiatives))
	for _, selection := range input.Initiatives {
		initiative, ok := detail.Initiative(selection.InitiativeID)
		if !ok {
			return castPlan{}, fmt.Errorf("%w (%w): initiative %s", ErrUnknownSelection, ErrInvalidSelection, selection.InitiativeID)
		}
		if _, dup := answered[initiative.ID]; dup {
			return castPlan{}, fmt.Errorf("%w (%w): initiative %s answered more than once",
				ErrTooManySelections, ErrInvalidSelection, initiative.ID)
		}
		answered[initiative.ID] = struct{}{}
		if !initiative.HasResponse(selection.ResponseID) {
			return castPlan{}, fmt.Errorf("%w (%w): response %s is not on initiative %s",
				ErrUnknownSelection, ErrInvalidSelection, selection.ResponseID, initiative.ID)
		}
		plan.initiativeVotes = append(plan.initiativeVotes, InitiativeVote{
			UserID:       input.UserID,
			BallotID:     input.BallotID,
			InitiativeID: initiative.ID,
			ResponseID:   selection.ResponseID,
		})
	}

	// Lock positions in a fixed order so concurrent write-ins cannot deadlock.
	sort.SliceStable(plan.writeIns, func(i, j int) bool {
		return plan.writeIns[i].positionID < plan.writeIns[j].positionID
	})

	return plan, nil
}

func normalizeWriteIn(name WriteInName) WriteInName {
	return WriteInName{
		FirstName: strings.Join(strings.Fields(name.FirstName), " "),
		LastName:  strings.Join(strings.Fields(name.LastName), " "),
	}
}

func castResult(err error) string {
	if err == nil {
		return "ok"
	}
	if code := apperr.CodeOf(err); code != "" {
		return code
	}
	return "error"
}
