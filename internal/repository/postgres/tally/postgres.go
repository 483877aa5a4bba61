package tally

import (
	"context"
	"errors"

	"ballot-app-go/internal/db"
	ballotsdomain "ballot-app-go/internal/domain/ballots"
	tallydomain "ballot-app-go/internal/domain/tally"
	usersdomain "ballot-app-go/internal/domain/users"
	votingdomain "ballot-app-go/internal/domain/voting"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetBallot(ctx context.Context, ballotID string) (*ballotsdomain.Ballot, error) {
	var ballot ballotsdomain.Ballot
	if err := r.db.WithContext(ctx).Where("id = ?", ballotID).First(&ballot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ballotsdomain.ErrBallotNotFound
		}
		return nil, db.TranslateError(err)
	}
	return &ballot, nil
}

func (r *PostgresRepository) ListPositions(ctx context.Context, ballotID string) ([]ballotsdomain.Position, error) {
	var positions []ballotsdomain.Position
	if err := r.db.WithContext(ctx).
		Where("ballot_id = ?", ballotID).
		Order("sort_order asc, id asc").
		Find(&positions).Error; err != nil {
		return nil, db.TranslateError(err)
	}
	return positions, nil
}

func (r *PostgresRepository) ListInitiatives(ctx context.Context, ballotID string) ([]ballotsdomain.Initiative, error) {
	var initiatives []ballotsdomain.Initiative
	if err := r.db.WithContext(ctx).
		Where("ballot_id = ?", ballotID).
		Order("sort_order asc, id asc").
		Find(&initiatives).Error; err != nil {
		return nil, db.TranslateError(err)
	}
	return initiatives, nil
}

// CountCandidateVotes reports every candidate linked to the ballot's
// positions, including those with no votes.
func (r *PostgresRepository) CountCandidateVotes(ctx context.Context, ballotID string) ([]tallydomain.CandidateCount, error) {
	var rows []tallydomain.CandidateCount
	if err := r.db.WithContext(ctx).
		Table("position_candidates AS pc").
		Select("pc.position_id, c.id AS candidate_id, c.first_name, c.last_name, c.write_in, COUNT(pv.vote_id) AS votes").
		Joins("JOIN positions p ON p.id = pc.position_id").
		Joins("JOIN candidates c ON c.id = pc.candidate_id").
		Joins("LEFT JOIN position_votes pv ON pv.position_id = pc.position_id AND pv.candidate_id = pc.candidate_id").
		Where("p.ballot_id = ?", ballotID).
		Group("pc.position_id, c.id, c.first_name, c.last_name, c.write_in").
		Scan(&rows).Error; err != nil {
		return nil, db.TranslateError(err)
	}
	return rows, nil
}

func (r *PostgresRepository) CountResponseVotes(ctx context.Context, ballotID string) ([]tallydomain.ResponseCount, error) {
	var rows []tallydomain.ResponseCount
	if err := r.db.WithContext(ctx).
		Table("responses AS r").
		Select("r.initiative_id, r.id AS response_id, r.text, r.sort_order, COUNT(iv.id) AS votes").
		Joins("JOIN initiatives i ON i.id = r.initiative_id").
		Joins("LEFT JOIN initiative_votes iv ON iv.response_id = r.id").
		Where("i.ballot_id = ?", ballotID).
		Group("r.initiative_id, r.id, r.text, r.sort_order").
		Scan(&rows).Error; err != nil {
		return nil, db.TranslateError(err)
	}
	return rows, nil
}

func (r *PostgresRepository) CountVotes(ctx context.Context, ballotID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&votingdomain.Vote{}).
		Where("ballot_id = ?", ballotID).
		Count(&count).Error; err != nil {
		return 0, db.TranslateError(err)
	}
	return count, nil
}

// ListVoters returns the company's users in the given roles, each with the
// time of their vote on the ballot or nil.
func (r *PostgresRepository) ListVoters(ctx context.Context, ballotID, companyID string, roles []usersdomain.Role) ([]tallydomain.VoterRow, error) {
	query := r.db.WithContext(ctx).
		Table("users AS u").
		Select("u.id AS user_id, u.first_name, u.last_name, u.username, u.role, v.created_at AS voted_at").
		Joins("LEFT JOIN votes v ON v.user_id = u.id AND v.ballot_id = ?", ballotID).
		Where("u.company_id = ?", companyID)
	if len(roles) > 0 {
		query = query.Where("u.role IN ?", roles)
	}

	var rows []tallydomain.VoterRow
	if err := query.Order("u.last_name asc, u.first_name asc, u.id asc").Scan(&rows).Error; err != nil {
		return nil, db.TranslateError(err)
	}
	return rows, nil
}
