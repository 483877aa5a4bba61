package handler

import (
	"ballot-app-go/internal/transport/httpserver/handler/ballots"
	"ballot-app-go/internal/transport/httpserver/handler/common"
)

type Handlers struct {
	Common  *common.Handlers
	Ballots *ballots.Handlers
}

func New(common *common.Handlers, ballots *ballots.Handlers) *Handlers {
	return &Handlers{
		Common:  common,
		Ballots: ballots,
	}
}
