package voting

import (
	"context"
	"errors"

	"ballot-app-go/internal/db"
	ballotsdomain "ballot-app-go/internal/domain/ballots"
	votingdomain "ballot-app-go/internal/domain/voting"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(votingdomain.Repository) error) error {
	return db.TranslateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	}))
}

func (r *PostgresRepository) CreateVote(ctx context.Context, vote *votingdomain.Vote) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(vote).Error
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err):
		return votingdomain.ErrDuplicateVote
	case db.IsForeignKeyViolation(err):
		// The user and ballot were loaded before the transaction began; a
		// missing parent here means the ballot was deleted concurrently.
		return ballotsdomain.ErrBallotNotFound
	default:
		return db.TranslateError(err)
	}
}

// LockWriteIn takes a transaction-scoped advisory lock keyed by position. The
// sqlite pool holds a single connection, which already serializes writers.
func (r *PostgresRepository) LockWriteIn(ctx context.Context, positionID string) error {
	if db.IsSQLite(r.db) {
		return nil
	}
	return db.TranslateError(r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "write_in:"+positionID).Error)
}

func (r *PostgresRepository) FindWriteInCandidate(ctx context.Context, positionID, firstName, lastName string) (*ballotsdomain.Candidate, error) {
	var candidate ballotsdomain.Candidate
	err := r.db.WithContext(ctx).
		Table("candidates AS c").
		Select("c.*").
		Joins("JOIN position_candidates pc ON pc.candidate_id = c.id").
		Where("pc.position_id = ?", positionID).
		Where("LOWER(c.first_name) = LOWER(?) AND LOWER(c.last_name) = LOWER(?)", firstName, lastName).
		Order("c.write_in asc, c.created_at asc, c.id asc").
		Take(&candidate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, db.TranslateError(err)
	}
	return &candidate, nil
}

func (r *PostgresRepository) CreateWriteInCandidate(ctx context.Context, positionID string, candidate *ballotsdomain.Candidate) error {
	candidate.WriteIn = true
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(candidate).Error; err != nil {
		return db.TranslateError(err)
	}

	link := ballotsdomain.PositionCandidate{PositionID: positionID, CandidateID: candidate.ID}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&link).Error
	if db.IsForeignKeyViolation(err) {
		return votingdomain.ErrUnknownSelection
	}
	return db.TranslateError(err)
}

func (r *PostgresRepository) CreatePositionVotes(ctx context.Context, votes []votingdomain.PositionVote) error {
	if len(votes) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&votes).Error
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err):
		return votingdomain.ErrInvalidSelection
	case db.IsForeignKeyViolation(err):
		return votingdomain.ErrUnknownSelection
	default:
		return db.TranslateError(err)
	}
}

type positionCount struct {
	PositionID string
	Votes      int64
}

func (r *PostgresRepository) CountPositionVotes(ctx context.Context, voteID string) (map[string]int64, error) {
	var rows []positionCount
	if err := r.db.WithContext(ctx).
		Model(&votingdomain.PositionVote{}).
		Select("position_id, COUNT(*) AS votes").
		Where("vote_id = ?", voteID).
		Group("position_id").
		Scan(&rows).Error; err != nil {
		return nil, db.TranslateError(err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.PositionID] = row.Votes
	}
	return counts, nil
}

func (r *PostgresRepository) CreateInitiativeVotes(ctx context.Context, votes []votingdomain.InitiativeVote) error {
	if len(votes) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&votes).Error
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err):
		return votingdomain.ErrDuplicateVote
	case db.IsForeignKeyViolation(err):
		return votingdomain.ErrUnknownSelection
	default:
		return db.TranslateError(err)
	}
}

func (r *PostgresRepository) HasVoted(ctx context.Context, userID, ballotID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&votingdomain.Vote{}).
		Where("user_id = ? AND ballot_id = ?", userID, ballotID).
		Count(&count).Error; err != nil {
		return false, db.TranslateError(err)
	}
	return count > 0, nil
}
