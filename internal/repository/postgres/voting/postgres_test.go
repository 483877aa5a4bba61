package voting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ballot-app-go/internal/apperr"
	"ballot-app-go/internal/db/dbtest"
	ballotsdomain "ballot-app-go/internal/domain/ballots"
	usersdomain "ballot-app-go/internal/domain/users"
	votingdomain "ballot-app-go/internal/domain/voting"
	ballotsrepo "ballot-app-go/internal/repository/postgres/ballots"
	usersrepo "ballot-app-go/internal/repository/postgres/users"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	repo    *PostgresRepository
	voting  *votingdomain.Service
	users   *usersdomain.Service
	ballots *ballotsdomain.Service
	company *usersdomain.Company
	ballot  *ballotsdomain.BallotDetail
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gormDB := dbtest.Open(t)
	ctx := context.Background()

	userService := usersdomain.NewService(usersrepo.NewPostgres(gormDB))
	ballotService := ballotsdomain.NewService(ballotsrepo.NewPostgres(gormDB), 0, nil)
	repo := NewPostgres(gormDB)

	company, err := userService.CreateCompany(ctx, usersdomain.CreateCompanyInput{Name: "Acme", Abbreviation: "acm"})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}

	start := time.Now().UTC().Add(-time.Hour)
	ballot, err := ballotService.CreateBallot(ctx, ballotsdomain.CreateBallotInput{
		CompanyID: company.ID,
		Name:      "Annual",
		StartDate: start,
		EndDate:   start.Add(24 * time.Hour),
		Positions: []ballotsdomain.PositionInput{
			{Name: "President", AllowedVotes: 1, Candidates: []ballotsdomain.CandidateInput{
				{FirstName: "Xavier", LastName: "Xu"},
				{FirstName: "Yolanda", LastName: "Yu"},
			}},
			{Name: "Treasurer", AllowedVotes: 2, WriteIn: true, Candidates: []ballotsdomain.CandidateInput{
				{FirstName: "Reg", LastName: "Smith"},
			}},
		},
		Initiatives: []ballotsdomain.InitiativeInput{
			{Name: "Budget", Responses: []string{"Approve", "Reject"}},
		},
	})
	if err != nil {
		t.Fatalf("create ballot: %v", err)
	}

	return &fixture{
		db:      gormDB,
		repo:    repo,
		voting:  votingdomain.NewService(repo, userService, ballotService, nil, votingdomain.Options{}),
		users:   userService,
		ballots: ballotService,
		company: company,
		ballot:  ballot,
	}
}

func (f *fixture) member(t *testing.T) *usersdomain.User {
	t.Helper()
	user, err := f.users.CreateUser(context.Background(), usersdomain.CreateUserInput{
		CompanyID: f.company.ID,
		Role:      usersdomain.RoleMember,
		FirstName: "Member",
		LastName:  "One",
		Username:  "m-" + uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}

func TestCastVotePersistsSubmission(t *testing.T) {
	f := newFixture(t)
	user := f.member(t)
	president := f.ballot.Positions[0]
	budget := f.ballot.Initiatives[0]

	receipt, err := f.voting.CastVote(context.Background(), votingdomain.CastInput{
		UserID:   user.ID,
		BallotID: f.ballot.ID,
		Positions: []votingdomain.PositionSelection{
			{PositionID: president.ID, CandidateID: president.Candidates[0].ID},
		},
		Initiatives: []votingdomain.InitiativeSelection{
			{InitiativeID: budget.ID, ResponseID: budget.Responses[0].ID},
		},
	})
	if err != nil {
		t.Fatalf("cast: %v", err)
	}
	if receipt.PositionVotes != 1 || receipt.InitiativeVotes != 1 || receipt.CastAt.IsZero() {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	if got := f.count(t, &votingdomain.Vote{}); got != 1 {
		t.Fatalf("expected 1 vote row, got %d", got)
	}
	if got := f.count(t, &votingdomain.PositionVote{}); got != 1 {
		t.Fatalf("expected 1 position vote, got %d", got)
	}
	if got := f.count(t, &votingdomain.InitiativeVote{}); got != 1 {
		t.Fatalf("expected 1 initiative vote, got %d", got)
	}

	voted, err := f.voting.HasVoted(context.Background(), user.ID, f.ballot.ID)
	if err != nil || !voted {
		t.Fatalf("expected HasVoted true, got %v %v", voted, err)
	}
}

func TestCastVoteRejectsSecondSubmission(t *testing.T) {
	f := newFixture(t)
	user := f.member(t)
	input := votingdomain.CastInput{UserID: user.ID, BallotID: f.ballot.ID}

	if _, err := f.voting.CastVote(context.Background(), input); err != nil {
		t.Fatalf("first cast: %v", err)
	}
	if _, err := f.voting.CastVote(context.Background(), input); !errors.Is(err, votingdomain.ErrDuplicateVote) {
		t.Fatalf("expected ErrDuplicateVote, got %v", err)
	}
	if got := f.count(t, &votingdomain.Vote{}); got != 1 {
		t.Fatalf("expected 1 vote row, got %d", got)
	}
}

func TestConcurrentCastsRecordOneVote(t *testing.T) {
	f := newFixture(t)
	user := f.member(t)
	president := f.ballot.Positions[0]

	const attempts = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
		others     []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.voting.CastVote(context.Background(), votingdomain.CastInput{
				UserID:   user.ID,
				BallotID: f.ballot.ID,
				Positions: []votingdomain.PositionSelection{
					{PositionID: president.ID, CandidateID: president.Candidates[i%2].ID},
				},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, votingdomain.ErrDuplicateVote):
				duplicates++
			default:
				others = append(others, err)
			}
		}(i)
	}
	wg.Wait()

	if len(others) > 0 {
		t.Fatalf("unexpected errors: %v", others)
	}
	if successes != 1 || duplicates != attempts-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d/%d", attempts-1, successes, duplicates)
	}
	if got := f.count(t, &votingdomain.PositionVote{}); got != 1 {
		t.Fatalf("expected exactly one position vote, got %d", got)
	}
}

func TestWriteInsMergeByNamePerPosition(t *testing.T) {
	f := newFixture(t)
	treasurer := f.ballot.Positions[1]

	var ids []string
	for _, name := range []votingdomain.WriteInName{
		{FirstName: "Dana", LastName: "Scully"},
		{FirstName: "  dana ", LastName: "SCULLY"},
	} {
		user := f.member(t)
		name := name
		receipt, err := f.voting.CastVote(context.Background(), votingdomain.CastInput{
			UserID:    user.ID,
			BallotID:  f.ballot.ID,
			Positions: []votingdomain.PositionSelection{{PositionID: treasurer.ID, WriteIn: &name}},
		})
		if err != nil {
			t.Fatalf("cast: %v", err)
		}
		ids = append(ids, receipt.WriteInCandidateIDs[0])
	}
	if ids[0] != ids[1] {
		t.Fatalf("expected write-ins to merge, got %v", ids)
	}

	var created ballotsdomain.Candidate
	if err := f.db.Where("id = ?", ids[0]).First(&created).Error; err != nil {
		t.Fatalf("load write-in: %v", err)
	}
	if !created.WriteIn || created.FirstName != "Dana" {
		t.Fatalf("unexpected write-in candidate %+v", created)
	}

	detail, err := f.ballots.GetBallot(context.Background(), f.ballot.ID)
	if err != nil {
		t.Fatalf("get ballot: %v", err)
	}
	if got := len(detail.Positions[1].Candidates); got != 2 {
		t.Fatalf("expected registered candidate plus one write-in, got %d", got)
	}
}

func TestWriteInMatchingRegisteredCandidateReusesIt(t *testing.T) {
	f := newFixture(t)
	treasurer := f.ballot.Positions[1]
	registered := treasurer.Candidates[0]
	user := f.member(t)

	receipt, err := f.voting.CastVote(context.Background(), votingdomain.CastInput{
		UserID:   user.ID,
		BallotID: f.ballot.ID,
		Positions: []votingdomain.PositionSelection{
			{PositionID: treasurer.ID, WriteIn: &votingdomain.WriteInName{FirstName: "reg", LastName: "smith"}},
		},
	})
	if err != nil {
		t.Fatalf("cast: %v", err)
	}
	if receipt.WriteInCandidateIDs[0] != registered.ID {
		t.Fatalf("expected registered candidate %s, got %s", registered.ID, receipt.WriteInCandidateIDs[0])
	}
	if got := f.count(t, &ballotsdomain.Candidate{}); got != 3 {
		t.Fatalf("expected no new candidates, got %d", got)
	}
}

func TestFailedCastLeavesNoRows(t *testing.T) {
	f := newFixture(t)
	user := f.member(t)
	treasurer := f.ballot.Positions[1]

	// The write-in resolves to the same registered candidate picked directly.
	_, err := f.voting.CastVote(context.Background(), votingdomain.CastInput{
		UserID:   user.ID,
		BallotID: f.ballot.ID,
		Positions: []votingdomain.PositionSelection{
			{PositionID: treasurer.ID, CandidateID: treasurer.Candidates[0].ID},
			{PositionID: treasurer.ID, WriteIn: &votingdomain.WriteInName{FirstName: "Reg", LastName: "Smith"}},
		},
	})
	if !errors.Is(err, votingdomain.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}

	for _, model := range []any{&votingdomain.Vote{}, &votingdomain.PositionVote{}, &votingdomain.InitiativeVote{}} {
		if got := f.count(t, model); got != 0 {
			t.Fatalf("expected no %T rows after rollback, got %d", model, got)
		}
	}
}

// stallingRepo blocks the position vote insert until the cast deadline passes,
// after the vote row and any write-in candidate are already written.
type stallingRepo struct {
	votingdomain.Repository
}

func (r stallingRepo) Transaction(ctx context.Context, fn func(votingdomain.Repository) error) error {
	return r.Repository.Transaction(ctx, func(tx votingdomain.Repository) error {
		return fn(stallingRepo{Repository: tx})
	})
}

func (r stallingRepo) CreatePositionVotes(ctx context.Context, votes []votingdomain.PositionVote) error {
	<-ctx.Done()
	return r.Repository.CreatePositionVotes(ctx, votes)
}

func TestTimedOutCastLeavesNoRows(t *testing.T) {
	f := newFixture(t)
	user := f.member(t)
	treasurer := f.ballot.Positions[1]
	budget := f.ballot.Initiatives[0]

	service := votingdomain.NewService(stallingRepo{Repository: f.repo}, f.users, f.ballots, nil, votingdomain.Options{
		CastTimeout: 50 * time.Millisecond,
	})
	_, err := service.CastVote(context.Background(), votingdomain.CastInput{
		UserID:   user.ID,
		BallotID: f.ballot.ID,
		Positions: []votingdomain.PositionSelection{
			{PositionID: treasurer.ID, WriteIn: &votingdomain.WriteInName{FirstName: "Fox", LastName: "Mulder"}},
		},
		Initiatives: []votingdomain.InitiativeSelection{
			{InitiativeID: budget.ID, ResponseID: budget.Responses[0].ID},
		},
	})
	if !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if !apperr.Retryable(err) {
		t.Fatalf("expected a timed out cast to be retryable")
	}

	for _, model := range []any{&votingdomain.Vote{}, &votingdomain.PositionVote{}, &votingdomain.InitiativeVote{}} {
		if got := f.count(t, model); got != 0 {
			t.Fatalf("expected no %T rows after timeout, got %d", model, got)
		}
	}
	var writeIns int64
	if err := f.db.Model(&ballotsdomain.Candidate{}).Where("write_in = ?", true).Count(&writeIns).Error; err != nil {
		t.Fatalf("count write-ins: %v", err)
	}
	if writeIns != 0 {
		t.Fatalf("expected the write-in candidate rolled back, got %d", writeIns)
	}

	voted, err := f.voting.HasVoted(context.Background(), user.ID, f.ballot.ID)
	if err != nil {
		t.Fatalf("has voted: %v", err)
	}
	if voted {
		t.Fatalf("expected the user able to vote again after a timed out cast")
	}
}

func TestRepositoryConstraintMapping(t *testing.T) {
	f := newFixture(t)
	user := f.member(t)
	ctx := context.Background()

	vote := votingdomain.Vote{ID: uuid.NewString(), UserID: user.ID, BallotID: f.ballot.ID}
	if err := f.repo.CreateVote(ctx, &vote); err != nil {
		t.Fatalf("create vote: %v", err)
	}

	again := votingdomain.Vote{ID: uuid.NewString(), UserID: user.ID, BallotID: f.ballot.ID}
	if err := f.repo.CreateVote(ctx, &again); !errors.Is(err, votingdomain.ErrDuplicateVote) {
		t.Fatalf("expected ErrDuplicateVote, got %v", err)
	}

	orphan := votingdomain.Vote{ID: uuid.NewString(), UserID: user.ID, BallotID: uuid.NewString()}
	if err := f.repo.CreateVote(ctx, &orphan); !errors.Is(err, ballotsdomain.ErrBallotNotFound) {
		t.Fatalf("expected ErrBallotNotFound, got %v", err)
	}

	president := f.ballot.Positions[0]
	err := f.repo.CreatePositionVotes(ctx, []votingdomain.PositionVote{
		{VoteID: vote.ID, PositionID: president.ID, CandidateID: uuid.NewString()},
	})
	if !errors.Is(err, votingdomain.ErrUnknownSelection) {
		t.Fatalf("expected ErrUnknownSelection, got %v", err)
	}

	if err := f.repo.CreatePositionVotes(ctx, []votingdomain.PositionVote{
		{VoteID: vote.ID, PositionID: president.ID, CandidateID: president.Candidates[0].ID},
	}); err != nil {
		t.Fatalf("create position vote: %v", err)
	}
	counts, err := f.repo.CountPositionVotes(ctx, vote.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[president.ID] != 1 || len(counts) != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}

	missing, err := f.repo.FindWriteInCandidate(ctx, president.ID, "No", "Body")
	if err != nil || missing != nil {
		t.Fatalf("expected no candidate, got %+v %v", missing, err)
	}
	if err := f.repo.LockWriteIn(ctx, president.ID); err != nil {
		t.Fatalf("lock on sqlite should be a no-op: %v", err)
	}
}
