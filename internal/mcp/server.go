package mcp

import (
	"context"
	"log/slog"

	"github.com/ganot/report-results/internal/domain/activity"
	"github.com/ganot/report-results/internal/domain/definition"
	"github.com/ganot/report-results/internal/domain/identity"
	"github.com/ganot/report-results/internal/domain/payload"
	"github.com/ganot/report-results/internal/domain/result"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResultService defines result operations needed by MCP.
type ResultService interface {
	Create(ctx context.Context, req result.CreateRequest) (*result.Record, error)
	GetVisible(ctx context.Context, scope result.Scope, id string) (*result.Record, error)
	SetPayload(ctx context.Context, id string, p payload.Payload) error
	GetPayload(ctx context.Context, id string) (payload.Payload, error)
	IsEmpty(ctx context.Context, id string) (bool, error)
	StatusOf(ctx context.Context, rec *result.Record) (result.Status, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, scope result.Scope, opts result.ListOptions) ([]result.RecordRef, error)
	Search(ctx context.Context, scope result.Scope, query string, opts result.SearchOptions) ([]result.SearchResult, error)
	CountsByOwner(ctx context.Context) ([]result.OwnerCount, error)
	GenerateText(ctx context.Context, id string, format payload.TextFormat) (string, error)
}

// DefinitionService defines report definition operations needed by MCP.
type DefinitionService interface {
	Create(ctx context.Context, req definition.CreateRequest) (*definition.Definition, error)
	List(ctx context.Context) ([]definition.Summary, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// TaskStateWriter lets admins drive the local task table. It is nil when
// task state comes from an external runner.
type TaskStateWriter interface {
	SetState(ctx context.Context, taskID string, state result.TaskState) error
}

// Services contains all domain services needed by MCP.
type Services struct {
	Results     ResultService
	Definitions DefinitionService
	Activity    ActivityService
	Tasks       TaskStateWriter
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      CallerResolver
	AuthEnabled   bool
	DefaultCaller identity.Caller
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "report-results",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	// Each call wraps the handlers installed so far, so the caller
	// middleware added last runs first and traffic logs see the caller.
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))
	// Stdio is local only and always runs as the default caller.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.DefaultCaller))
	}

	registerTools(server, cfg.Services, logger)

	return server
}
