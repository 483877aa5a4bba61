package common

import (
	"context"

	usersdomain "ballot-app-go/internal/domain/users"
	"ballot-app-go/pkg/logger"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	Users *usersdomain.Service
	store Pinger
	log   logger.Logger
}

func New(users *usersdomain.Service, store Pinger, log logger.Logger) *Handlers {
	return &Handlers{
		Users: users,
		store: store,
		log:   log,
	}
}
