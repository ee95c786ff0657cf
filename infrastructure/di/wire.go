//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"coursegraph/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogging,
	ProvideLogger,
	ProvideAWSConfig,
	ProvideMetrics,
	ProvideCognitoAPI,
	ProvideIdentityProvider,
	ProvideTokenVerifier,
	ProvideEventPublisher,
	ProvideHelixClient,
	ProvideDocumentStore,
	ProvidePDFBackend,
	ProvideCache,
	ProvideGraphCacheInvalidator,
	ProvideQueryBus,
	ProvideAuthService,
	ProvideHub,
	ProvideDocumentService,
	ProvideWebSocketServer,
	ProvideRateLimiter,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
