package ballots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ListObserver interface {
	ObserveList(status StatusFilter, sort SortField, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveList(StatusFilter, SortField, error) {}

type Service struct {
	repo     Repository
	pageSize int
	observer ListObserver
	onChange []func(ballotID string)
	now      func() time.Time
}

func NewService(repo Repository, pageSize int, observer ListObserver) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Service{
		repo:     repo,
		pageSize: pageSize,
		observer: observer,
		now:      time.Now,
	}
}

// OnChange registers fn to run after a ballot's metadata is updated or the
// ballot is deleted. Register hooks before serving requests.
func (s *Service) OnChange(fn func(ballotID string)) {
	s.onChange = append(s.onChange, fn)
}

func (s *Service) changed(ballotID string) {
	for _, fn := range s.onChange {
		fn(ballotID)
	}
}

func (s *Service) PageSize() int {
	return s.pageSize
}

func (s *Service) CreateBallot(ctx context.Context, input CreateBallotInput) (*BallotDetail, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	ballot := Ballot{
		ID:          uuid.NewString(),
		CompanyID:   input.CompanyID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		StartDate:   input.StartDate.UTC(),
		EndDate:     input.EndDate.UTC(),
	}
	detail := BallotDetail{Ballot: ballot}

	var (
		positions  []Position
		candidates []Candidate
		links      []PositionCandidate
	)
	for i, in := range input.Positions {
		position := Position{
			ID:           uuid.NewString(),
			BallotID:     ballot.ID,
			Name:         strings.TrimSpace(in.Name),
			AllowedVotes: in.AllowedVotes,
			WriteIn:      in.WriteIn,
			SortOrder:    i,
		}
		positionCandidates := make([]Candidate, 0, len(in.Candidates))
		for _, c := range in.Candidates {
			candidate := Candidate{
				ID:          uuid.NewString(),
				FirstName:   strings.TrimSpace(c.FirstName),
				LastName:    strings.TrimSpace(c.LastName),
				Titles:      strings.TrimSpace(c.Titles),
				Description: strings.TrimSpace(c.Description),
				PictureURL:  strings.TrimSpace(c.PictureURL),
			}
			positionCandidates = append(positionCandidates, candidate)
			links = append(links, PositionCandidate{PositionID: position.ID, CandidateID: candidate.ID})
		}
		positions = append(positions, position)
		candidates = append(candidates, positionCandidates...)
		sortCandidates(positionCandidates)
		detail.Positions = append(detail.Positions, PositionDetail{Position: position, Candidates: positionCandidates})
	}

	var (
		initiatives []Initiative
		responses   []Response
	)
	for i, in := range input.Initiatives {
		initiative := Initiative{
			ID:          uuid.NewString(),
			BallotID:    ballot.ID,
			Name:        strings.TrimSpace(in.Name),
			Description: strings.TrimSpace(in.Description),
			PictureURL:  strings.TrimSpace(in.PictureURL),
			SortOrder:   i,
		}
		initiativeResponses := make([]Response, 0, len(in.Responses))
		for j, text := range in.Responses {
			initiativeResponses = append(initiativeResponses, Response{
				ID:           uuid.NewString(),
				InitiativeID: initiative.ID,
				Text:         strings.TrimSpace(text),
				SortOrder:    j,
			})
		}
		initiatives = append(initiatives, initiative)
		responses = append(responses, initiativeResponses...)
		detail.Initiatives = append(detail.Initiatives, InitiativeDetail{Initiative: initiative, Responses: initiativeResponses})
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateBallot(ctx, &ballot); err != nil {
			return err
		}
		if err := tx.CreatePositions(ctx, positions); err != nil {
			return err
		}
		if err := tx.CreateCandidates(ctx, candidates); err != nil {
			return err
		}
		if err := tx.LinkCandidates(ctx, links); err != nil {
			return err
		}
		if err := tx.CreateInitiatives(ctx, initiatives); err != nil {
			return err
		}
		return tx.CreateResponses(ctx, responses)
	})
	if err != nil {
		return nil, err
	}

	detail.Ballot = ballot
	return &detail, nil
}

func validateCreateInput(input CreateBallotInput) error {
	if _, err := uuid.Parse(input.CompanyID); err != nil {
		return fmt.Errorf("%w: company id is invalid", ErrInvalidBallot)
	}
	if err := validateMetadata(input.Name, input.StartDate, input.EndDate); err != nil {
		return err
	}
	if len(input.Positions) == 0 {
		return fmt.Errorf("%w: at least one position is required", ErrInvalidBallot)
	}

	for i, position := range input.Positions {
		if strings.TrimSpace(position.Name) == "" {
			return fmt.Errorf("%w: position %d: name is required", ErrInvalidBallot, i)
		}
		if position.AllowedVotes < 1 {
			return fmt.Errorf("%w: position %q: allowed votes must be at least 1", ErrInvalidBallot, position.Name)
		}
		if len(position.Candidates) == 0 && !position.WriteIn {
			return fmt.Errorf("%w: position %q: needs a candidate or write-ins", ErrInvalidBallot, position.Name)
		}
		for _, candidate := range position.Candidates {
			if strings.TrimSpace(candidate.FirstName) == "" || strings.TrimSpace(candidate.LastName) == "" {
				return fmt.Errorf("%w: position %q: candidate first and last name are required", ErrInvalidBallot, position.Name)
			}
		}
	}

	for i, initiative := range input.Initiatives {
		if strings.TrimSpace(initiative.Name) == "" {
			return fmt.Errorf("%w: initiative %d: name is required", ErrInvalidBallot, i)
		}
		if len(initiative.Responses) == 0 {
			return fmt.Errorf("%w: initiative %q: at least one response is required", ErrInvalidBallot, initiative.Name)
		}
		for _, response := range initiative.Responses {
			if strings.TrimSpace(response) == "" {
				return fmt.Errorf("%w: initiative %q: response text is required", ErrInvalidBallot, initiative.Name)
			}
		}
	}

	return nil
}

func validateMetadata(name string, start, end time.Time) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBallot)
	}
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidBallot)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end date must be after start date", ErrInvalidBallot)
	}
	return nil
}

func (s *Service) GetBallot(ctx context.Context, ballotID string) (*BallotDetail, error) {
	if _, err := uuid.Parse(ballotID); err != nil {
		return nil, ErrBallotNotFound
	}

	ballot, err := s.repo.GetBallot(ctx, ballotID)
	if err != nil {
		return nil, err
	}

	positions, err := s.repo.ListPositions(ctx, ballotID)
	if err != nil {
		return nil, err
	}
	positionIDs := make([]string, 0, len(positions))
	for _, position := range positions {
		positionIDs = append(positionIDs, position.ID)
	}
	candidatesByPosition, err := s.repo.GetCandidatesByPositionIDs(ctx, positionIDs)
	if err != nil {
		return nil, err
	}

	initiatives, err := s.repo.ListInitiatives(ctx, ballotID)
	if err != nil {
		return nil, err
	}
	initiativeIDs := make([]string, 0, len(initiatives))
	for _, initiative := range initiatives {
		initiativeIDs = append(initiativeIDs, initiative.ID)
	}
	responsesByInitiative, err := s.repo.GetResponsesByInitiativeIDs(ctx, initiativeIDs)
	if err != nil {
		return nil, err
	}

	detail := BallotDetail{
		Ballot:      *ballot,
		Positions:   make([]PositionDetail, 0, len(positions)),
		Initiatives: make([]InitiativeDetail, 0, len(initiatives)),
	}
	for _, position := range positions {
		candidates := candidatesByPosition[position.ID]
		if candidates == nil {
			candidates = []Candidate{}
		}
		sortCandidates(candidates)
		detail.Positions = append(detail.Positions, PositionDetail{Position: position, Candidates: candidates})
	}
	for _, initiative := range initiatives {
		responses := responsesByInitiative[initiative.ID]
		if responses == nil {
			responses = []Response{}
		}
		detail.Initiatives = append(detail.Initiatives, InitiativeDetail{Initiative: initiative, Responses: responses})
	}

	return &detail, nil
}

func (s *Service) UpdateBallotMetadata(ctx context.Context, input UpdateMetadataInput) (*Ballot, error) {
	if _, err := uuid.Parse(input.BallotID); err != nil {
		return nil, ErrBallotNotFound
	}
	if input.Name == nil && input.Description == nil && input.StartDate == nil && input.EndDate == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidBallot)
	}

	var updated Ballot
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		ballot, err := tx.GetBallot(ctx, input.BallotID)
		if err != nil {
			return err
		}

		if input.Name != nil {
			ballot.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			ballot.Description = strings.TrimSpace(*input.Description)
		}
		if input.StartDate != nil {
			ballot.StartDate = input.StartDate.UTC()
		}
		if input.EndDate != nil {
			ballot.EndDate = input.EndDate.UTC()
		}
		if err := validateMetadata(ballot.Name, ballot.StartDate, ballot.EndDate); err != nil {
			return err
		}
		ballot.UpdatedAt = s.now().UTC()

		if err := tx.UpdateBallot(ctx, ballot); err != nil {
			return err
		}
		updated = *ballot
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.changed(updated.ID)

	return &updated, nil
}

// DeleteBallot removes the ballot with everything that hangs off it, including
// candidates no longer on any slate.
func (s *Service) DeleteBallot(ctx context.Context, ballotID string) error {
	if _, err := uuid.Parse(ballotID); err != nil {
		return ErrBallotNotFound
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		positions, err := tx.ListPositions(ctx, ballotID)
		if err != nil {
			return err
		}
		positionIDs := make([]string, 0, len(positions))
		for _, position := range positions {
			positionIDs = append(positionIDs, position.ID)
		}
		candidatesByPosition, err := tx.GetCandidatesByPositionIDs(ctx, positionIDs)
		if err != nil {
			return err
		}

		deleted, err := tx.DeleteBallot(ctx, ballotID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrBallotNotFound
		}

		var candidateIDs []string
		for _, candidates := range candidatesByPosition {
			for _, candidate := range candidates {
				candidateIDs = append(candidateIDs, candidate.ID)
			}
		}
		if len(candidateIDs) == 0 {
			return nil
		}
		_, err = tx.DeleteOrphanCandidates(ctx, candidateIDs)
		return err
	})
	if err != nil {
		return err
	}
	s.changed(ballotID)
	return nil
}

func (s *Service) ListBallots(ctx context.Context, query ListQuery) (page *Page, err error) {
	defer func() {
		s.observer.ObserveList(query.Filter.Status, query.Sort.Field, err)
	}()

	params, err := normalizeListQuery(query, s.pageSize, s.now())
	if err != nil {
		return nil, err
	}

	items, total, err := s.repo.ListBallots(ctx, params)
	if err != nil {
		return nil, err
	}

	return newPage(items, total, query.Page, s.pageSize), nil
}
