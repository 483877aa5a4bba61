package ballots

import (
	"context"
	"errors"
	"strings"
	"time"

	"ballot-app-go/internal/db"
	ballotsdomain "ballot-app-go/internal/domain/ballots"
	usersdomain "ballot-app-go/internal/domain/users"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(ballotsdomain.Repository) error) error {
	return db.TranslateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	}))
}

func (r *PostgresRepository) CreateBallot(ctx context.Context, ballot *ballotsdomain.Ballot) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(ballot).Error
	if db.IsForeignKeyViolation(err) {
		return usersdomain.ErrCompanyNotFound
	}
	return db.TranslateError(err)
}

func (r *PostgresRepository) CreatePositions(ctx context.Context, positions []ballotsdomain.Position) error {
	if len(positions) == 0 {
		return nil
	}
	return r.create(ctx, &positions)
}

func (r *PostgresRepository) CreateCandidates(ctx context.Context, candidates []ballotsdomain.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	return r.create(ctx, &candidates)
}

func (r *PostgresRepository) LinkCandidates(ctx context.Context, links []ballotsdomain.PositionCandidate) error {
	if len(links) == 0 {
		return nil
	}
	return r.create(ctx, &links)
}

func (r *PostgresRepository) CreateInitiatives(ctx context.Context, initiatives []ballotsdomain.Initiative) error {
	if len(initiatives) == 0 {
		return nil
	}
	return r.create(ctx, &initiatives)
}

func (r *PostgresRepository) CreateResponses(ctx context.Context, responses []ballotsdomain.Response) error {
	if len(responses) == 0 {
		return nil
	}
	return r.create(ctx, &responses)
}

func (r *PostgresRepository) create(ctx context.Context, value any) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(value).Error
	if db.IsForeignKeyViolation(err) {
		return ballotsdomain.ErrBallotNotFound
	}
	return db.TranslateError(err)
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

type candidateRow struct {
	PositionID string `gorm:"column:position_id"`
	ballotsdomain.Candidate
}

func (r *PostgresRepository) GetCandidatesByPositionIDs(ctx context.Context, positionIDs []string) (map[string][]ballotsdomain.Candidate, error) {
	result := make(map[string][]ballotsdomain.Candidate, len(positionIDs))
	if len(positionIDs) == 0 {
		return result, nil
	}

	var rows []candidateRow
	if err := r.db.WithContext(ctx).
		Table("candidates AS c").
		Select("pc.position_id, c.*").
		Joins("JOIN position_candidates pc ON pc.candidate_id = c.id").
		Where("pc.position_id IN ?", positionIDs).
		Order("LOWER(c.last_name) asc, LOWER(c.first_name) asc, c.id asc").
		Scan(&rows).Error; err != nil {
		return nil, db.TranslateError(err)
	}

	for _, row := range rows {
		result[row.PositionID] = append(result[row.PositionID], row.Candidate)
	}
	return result, nil
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

func (r *PostgresRepository) GetResponsesByInitiativeIDs(ctx context.Context, initiativeIDs []string) (map[string][]ballotsdomain.Response, error) {
	result := make(map[string][]ballotsdomain.Response, len(initiativeIDs))
	if len(initiativeIDs) == 0 {
		return result, nil
	}

	var responses []ballotsdomain.Response
	if err := r.db.WithContext(ctx).
		Where("initiative_id IN ?", initiativeIDs).
		Order("sort_order asc, id asc").
		Find(&responses).Error; err != nil {
		return nil, db.TranslateError(err)
	}

	for _, response := range responses {
		result[response.InitiativeID] = append(result[response.InitiativeID], response)
	}
	return result, nil
}

func (r *PostgresRepository) UpdateBallot(ctx context.Context, ballot *ballotsdomain.Ballot) error {
	result := r.db.WithContext(ctx).
		Model(&ballotsdomain.Ballot{}).
		Where("id = ?", ballot.ID).
		Updates(map[string]interface{}{
			"name":        ballot.Name,
			"description": ballot.Description,
			"start_date":  ballot.StartDate,
			"end_date":    ballot.EndDate,
			"updated_at":  ballot.UpdatedAt,
		})
	if result.Error != nil {
		return db.TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ballotsdomain.ErrBallotNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteBallot(ctx context.Context, ballotID string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&ballotsdomain.Ballot{}, "id = ?", ballotID)
	return result.RowsAffected > 0, db.TranslateError(result.Error)
}

func (r *PostgresRepository) DeleteOrphanCandidates(ctx context.Context, candidateIDs []string) (int64, error) {
	if len(candidateIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("id IN ?", candidateIDs).
		Where("NOT EXISTS (SELECT 1 FROM position_candidates pc WHERE pc.candidate_id = candidates.id)").
		Delete(&ballotsdomain.Candidate{})
	return result.RowsAffected, db.TranslateError(result.Error)
}

type summaryRow struct {
	ID                  string    `gorm:"column:id"`
	CompanyID           string    `gorm:"column:company_id"`
	Name                string    `gorm:"column:name"`
	Description         string    `gorm:"column:description"`
	StartDate           time.Time `gorm:"column:start_date"`
	EndDate             time.Time `gorm:"column:end_date"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
	CompanyName         string    `gorm:"column:company_name"`
	CompanyAbbreviation string    `gorm:"column:company_abbreviation"`
	VoteCount           int64     `gorm:"column:vote_count"`
}

var sortColumns = map[ballotsdomain.SortField]string{
	ballotsdomain.SortStartDate: "b.start_date",
	ballotsdomain.SortEndDate:   "b.end_date",
	ballotsdomain.SortName:      "LOWER(b.name)",
	ballotsdomain.SortVoteCount: "COALESCE(vc.vote_count, 0)",
}

const voteCountsSubquery = "LEFT JOIN (SELECT ballot_id, COUNT(*) AS vote_count FROM votes GROUP BY ballot_id) vc ON vc.ballot_id = b.id"

// ListBallots counts and pages with the same predicate. Vote counts are
// aggregated at read time.
func (r *PostgresRepository) ListBallots(ctx context.Context, params ballotsdomain.ListParams) ([]ballotsdomain.Summary, int64, error) {
	query := r.db.WithContext(ctx).Table("ballots AS b")
	if params.Search != "" {
		pattern := "%" + escapeLike(params.Search) + "%"
		if db.IsSQLite(r.db) {
			// sqlite LIKE folds ASCII letters only; other letters must match case exactly.
			query = query.Where(`(b.name LIKE ? ESCAPE '\' OR b.description LIKE ? ESCAPE '\')`, pattern, pattern)
		} else {
			query = query.Where(`(b.name ILIKE ? ESCAPE '\' OR b.description ILIKE ? ESCAPE '\')`, pattern, pattern)
		}
	}
	switch params.Status {
	case ballotsdomain.StatusFilterOpen:
		query = query.Where("b.start_date <= ? AND b.end_date >= ?", params.Now, params.Now)
	case ballotsdomain.StatusFilterClosed:
		query = query.Where("b.end_date < ?", params.Now)
	}
	if len(params.CompanyIDs) > 0 {
		query = query.Where("b.company_id IN ?", params.CompanyIDs)
	}

	countQuery := query.Session(&gorm.Session{})

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, db.TranslateError(err)
	}
	if total == 0 || int64(params.Offset) >= total {
		return []ballotsdomain.Summary{}, total, nil
	}

	column, ok := sortColumns[params.Sort.Field]
	if !ok {
		return nil, 0, ballotsdomain.ErrInvalidFilter
	}
	direction := "desc"
	if params.Sort.Direction == ballotsdomain.SortAsc {
		direction = "asc"
	}

	var rows []summaryRow
	if err := query.
		Select("b.id, b.company_id, b.name, b.description, b.start_date, b.end_date, b.created_at, b.updated_at, " +
			"c.name AS company_name, c.abbreviation AS company_abbreviation, COALESCE(vc.vote_count, 0) AS vote_count").
		Joins("JOIN companies c ON c.id = b.company_id").
		Joins(voteCountsSubquery).
		Order(column + " " + direction + ", b.id asc").
		Limit(params.Limit).
		Offset(params.Offset).
		Scan(&rows).Error; err != nil {
		return nil, 0, db.TranslateError(err)
	}

	items := make([]ballotsdomain.Summary, 0, len(rows))
	for _, row := range rows {
		items = append(items, ballotsdomain.Summary{
			Ballot: ballotsdomain.Ballot{
				ID:          row.ID,
				CompanyID:   row.CompanyID,
				Name:        row.Name,
				Description: row.Description,
				StartDate:   row.StartDate,
				EndDate:     row.EndDate,
				CreatedAt:   row.CreatedAt,
				UpdatedAt:   row.UpdatedAt,
			},
			CompanyName:         row.CompanyName,
			CompanyAbbreviation: row.CompanyAbbreviation,
			VoteCount:           row.VoteCount,
		})
	}
	return items, total, nil
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
