package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	appauth "coursegraph/application/auth"
	"coursegraph/application/documents"
	"coursegraph/application/ports"
	"coursegraph/application/queries"
	querybus "coursegraph/application/queries/bus"
	queries_handlers "coursegraph/application/queries/handlers"
	"coursegraph/application/voice"
	"coursegraph/infrastructure/cache"
	"coursegraph/infrastructure/config"
	"coursegraph/infrastructure/identity/cognito"
	"coursegraph/infrastructure/logging"
	"coursegraph/infrastructure/messaging/eventbridge"
	"coursegraph/infrastructure/pdfapi"
	"coursegraph/infrastructure/persistence/helix"
	"coursegraph/interfaces/http/rest"
	"coursegraph/interfaces/http/rest/handlers"
	"coursegraph/interfaces/http/rest/middleware"
	"coursegraph/interfaces/websocket"
	"coursegraph/pkg/auth"
	"coursegraph/pkg/observability"
)

// cacheCleanupInterval is how often expired cache entries are swept
const cacheCleanupInterval = 5 * time.Minute

// Logging is the process logger with the level handle used for hot reloads
type Logging struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// ProvideLogging creates the logger described by the configuration
func ProvideLogging(cfg *config.Config) (*Logging, error) {
	logger, level, err := logging.New(logging.Options{
		Production: cfg.IsProduction(),
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
	})
	if err != nil {
		return nil, err
	}
	return &Logging{Logger: logger, Level: level}, nil
}

// ProvideLogger exposes the process logger
func ProvideLogger(l *Logging) *zap.Logger {
	return l.Logger
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("coursegraph")
}

// ProvideCognitoAPI creates a Cognito user pool client
func ProvideCognitoAPI(awsCfg aws.Config) cognito.API {
	return awscognito.NewFromConfig(awsCfg)
}

// ProvideIdentityProvider creates the Cognito identity provider
func ProvideIdentityProvider(api cognito.API, cfg *config.Config, logger *zap.Logger) ports.IdentityProvider {
	return cognito.NewClient(api, cognito.Config{
		Region:       cfg.AWSRegion,
		UserPoolID:   cfg.CognitoUserPoolID,
		ClientID:     cfg.CognitoClientID,
		ClientSecret: cfg.CognitoClientSecret,
	}, logger)
}

// ProvideTokenVerifier creates the ID token verifier for the user pool. Its
// key refresh runs until ctx ends.
func ProvideTokenVerifier(ctx context.Context, cfg *config.Config, logger *zap.Logger) ports.TokenVerifier {
	return cognito.NewVerifier(ctx, cognito.VerifierConfig{
		Issuer:   cognito.IssuerURL(cfg.AWSRegion, cfg.CognitoUserPoolID),
		Audience: cfg.CognitoClientID,
		JWKSURL:  cfg.CognitoJWKSURL,
	}, logger)
}

// ProvideEventPublisher publishes to EventBridge, or only logs events when
// no bus is configured
func ProvideEventPublisher(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return eventbridge.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideHelixClient creates the HelixDB client
func ProvideHelixClient(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) *helix.Client {
	helixCfg := helix.DefaultConfig(cfg.HelixURL)
	helixCfg.Timeout = cfg.HelixTimeout
	return helix.NewClient(helixCfg, nil, metrics, logger)
}

// ProvideDocumentStore exposes HelixDB as the document store
func ProvideDocumentStore(client *helix.Client) ports.DocumentStore {
	return client
}

// ProvidePDFBackend creates the PDF processing backend client
func ProvidePDFBackend(cfg *config.Config, logger *zap.Logger) ports.PDFBackend {
	return pdfapi.NewClient(cfg.PDFAPIURL, cfg.PDFAPITimeout, logger)
}

// ProvideCache creates the in-process cache shared by the query bus and
// session lookups
func ProvideCache(cfg *config.Config) *cache.Memory {
	return cache.NewMemory(cfg.GraphCacheTTL, cacheCleanupInterval)
}

// ProvideGraphCacheInvalidator drops cached snapshots after document changes
func ProvideGraphCacheInvalidator(c *cache.Memory) *queries.GraphCacheInvalidator {
	return queries.NewGraphCacheInvalidator(c)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	store ports.DocumentStore,
	c *cache.Memory,
	invalidator *queries.GraphCacheInvalidator,
	metrics *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.NewMetricsMiddleware(metrics),
		querybus.NewCachingMiddleware(c, cfg.GraphCacheTTL, invalidator, metrics),
	)

	getGraphDataHandler := queries_handlers.NewGetGraphDataHandler(store, cfg.RelatedFetchConcurrency, metrics, logger)
	if err := queryBus.Register(queries.GetGraphDataQuery{}, getGraphDataHandler); err != nil {
		return nil, fmt.Errorf("register graph data handler: %w", err)
	}
	return queryBus, nil
}

// ProvideAuthService creates the auth proxy service
func ProvideAuthService(
	idp ports.IdentityProvider,
	verifier ports.TokenVerifier,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *appauth.Service {
	return appauth.NewService(idp, verifier, publisher, logger)
}

// ProvideHub creates the session hub. The caller runs and stops it.
func ProvideHub(metrics *observability.Collector, logger *zap.Logger) *websocket.Hub {
	return websocket.NewHub(metrics, logger)
}

// ProvideDocumentService creates the document upload and delete service
func ProvideDocumentService(
	backend ports.PDFBackend,
	store ports.DocumentStore,
	invalidator *queries.GraphCacheInvalidator,
	hub *websocket.Hub,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *documents.Service {
	return documents.NewService(backend, store, invalidator, hub, publisher, metrics, cfg.UploadDelay, logger)
}

// ProvideWebSocketServer creates the graph session endpoint
func ProvideWebSocketServer(
	hub *websocket.Hub,
	docs *documents.Service,
	metrics *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *websocket.Server {
	wsCfg := websocket.DefaultServerConfig()
	wsCfg.AllowedOrigins = cfg.AllowedOrigins
	return websocket.NewServer(hub, docs, metrics, wsCfg, logger)
}

// ProvideRateLimiter creates the per-IP limiter for sign-in routes
func ProvideRateLimiter(cfg *config.Config) *auth.IPRateLimiter {
	return auth.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
}

// ProvideRouter assembles the HTTP surface
func ProvideRouter(
	cfg *config.Config,
	authService *appauth.Service,
	queryBus *querybus.QueryBus,
	docs *documents.Service,
	wsServer *websocket.Server,
	hub *websocket.Hub,
	c *cache.Memory,
	limiter *auth.IPRateLimiter,
	metrics *observability.Collector,
	helixClient *helix.Client,
	logger *zap.Logger,
) *rest.Router {
	var metricsHandler http.Handler
	if cfg.EnableMetrics {
		metricsHandler = metrics.Handler()
	}

	settings := voice.AssistantSettings{
		ModelProvider: cfg.VoiceModelProvider,
		Model:         cfg.VoiceModel,
		VoiceProvider: cfg.VoiceProvider,
		VoiceID:       cfg.VoiceID,
	}

	return rest.NewRouter(
		rest.RouterConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			StaticDir:      cfg.StaticDir,
			SessionTTL:     middleware.DefaultSessionTTL,
		},
		rest.Handlers{
			Auth:      handlers.NewAuthHandler(authService, cfg.IsProduction(), logger),
			Graph:     handlers.NewGraphHandler(queryBus, logger),
			Documents: handlers.NewDocumentHandler(docs, cfg.MaxUploadBytes, logger),
			Voice:     handlers.NewVoiceHandler(hub, cfg.VoicePublicKey, settings, logger),
			Sessions:  wsServer,
		},
		authService,
		c,
		limiter,
		metricsHandler,
		metrics,
		[]rest.ReadinessCheck{{Name: "helix", Check: helixClient.Ready}},
		logger,
	)
}
