package server

import (
	"context"
	"database/sql"

	"github.com/onnwee/standup/backend/config"
	"github.com/onnwee/standup/backend/onair"
)

// Deps are the collaborators the HTTP layer serves. The on-air store and hub
// are constructed once by the host process and shared by reference between
// the polling and push delivery paths.
type Deps struct {
	DB    *sql.DB
	Cfg   *config.Config
	Store *onair.Store
	Hub   *onair.Hub

	// SyncCatalog is invoked by POST /admin/shows/sync; wired by main to the
	// shows package. Nil disables the endpoint.
	SyncCatalog func(ctx context.Context) error
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db          *sql.DB
	ctx         context.Context
	cfg         *config.Config
	store       *onair.Store
	hub         *onair.Hub
	identity    *identityConfig
	syncCatalog func(ctx context.Context) error
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(ctx context.Context, deps Deps, identity *identityConfig) *Handlers {
	return &Handlers{
		db:          deps.DB,
		ctx:         ctx,
		cfg:         deps.Cfg,
		store:       deps.Store,
		hub:         deps.Hub,
		identity:    identity,
		syncCatalog: deps.SyncCatalog,
	}
}
