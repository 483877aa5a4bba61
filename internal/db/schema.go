package db

import (
	"ballot-app-go/internal/domain/ballots"
	"ballot-app-go/internal/domain/users"
	"ballot-app-go/internal/domain/voting"
	"gorm.io/gorm"
)

// Models lists every persisted entity, parents before children.
func Models() []any {
	return []any{
		&users.Company{},
		&users.User{},
		&ballots.Ballot{},
		&ballots.Position{},
		&ballots.Candidate{},
		&ballots.PositionCandidate{},
		&ballots.Initiative{},
		&ballots.Response{},
		&voting.Vote{},
		&voting.PositionVote{},
		&voting.InitiativeVote{},
	}
}

// AutoMigrate creates the schema from the models. Used for sqlite; postgres
// deployments apply migrations/*.sql instead.
func AutoMigrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(Models()...)
}
