// Package di assembles the application from its providers with google/wire.
package di

import (
	"go.uber.org/zap"

	appauth "coursegraph/application/auth"
	"coursegraph/application/documents"
	querybus "coursegraph/application/queries/bus"
	"coursegraph/infrastructure/config"
	"coursegraph/interfaces/http/rest"
	"coursegraph/interfaces/websocket"
	"coursegraph/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logging   *Logging
	Logger    *zap.Logger
	Metrics   *observability.Collector
	QueryBus  *querybus.QueryBus
	Auth      *appauth.Service
	Documents *documents.Service
	Hub       *websocket.Hub
	Router    *rest.Router
}
