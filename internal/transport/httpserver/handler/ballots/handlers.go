package ballots

import (
	ballotsdomain "ballot-app-go/internal/domain/ballots"
	tallydomain "ballot-app-go/internal/domain/tally"
	votingdomain "ballot-app-go/internal/domain/voting"
	"ballot-app-go/pkg/logger"
)

type Handlers struct {
	Ballots *ballotsdomain.Service
	Voting  *votingdomain.Service
	Tally   *tallydomain.Service
	log     logger.Logger
}

func New(ballots *ballotsdomain.Service, voting *votingdomain.Service, tally *tallydomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Ballots: ballots,
		Voting:  voting,
		Tally:   tally,
		log:     log,
	}
}
