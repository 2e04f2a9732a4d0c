package testserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ganot/report-results/internal/domain/activity"
	"github.com/ganot/report-results/internal/domain/definition"
	"github.com/ganot/report-results/internal/domain/identity"
	"github.com/ganot/report-results/internal/domain/result"
	"github.com/ganot/report-results/internal/mcp"
	"github.com/ganot/report-results/internal/renderer"
	"github.com/ganot/report-results/internal/sqlite"
	"github.com/ganot/report-results/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// Tokens issued by New.
const (
	AdminToken = "admin-token"
	AliceToken = "alice-token"
	BobToken   = "bob-token"
)

// TestServer is the whole service over an in-memory database: HTTP routes,
// MCP over streamable HTTP, and a fake document renderer.
type TestServer struct {
	Server   *httptest.Server
	Renderer *httptest.Server
	DB       *sqlite.DB

	Identity    *identity.Service
	Results     *result.Service
	Definitions *definition.Service
	Activity    *activity.Service
	Tasks       *sqlite.TaskRepository

	// Alice and Bob are plain users in separate groups; Admin holds
	// report_admin.
	Admin, Alice, Bob identity.Caller
}

// New starts a server for the duration of the test.
func New(t *testing.T) *TestServer {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	blobs, err := sqlite.NewBlobRepository(db, sqlite.CompressionZstd)
	require.NoError(t, err)
	resultRepo := sqlite.NewResultRepository(db)
	definitionRepo := sqlite.NewDefinitionRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	taskRepo := sqlite.NewTaskRepository(db)

	fakeRenderer := httptest.NewServer(http.HandlerFunc(renderEcho))

	identitySvc := identity.NewService(sqlite.NewIdentityRepository(db), nil)
	resultSvc := result.NewService(
		resultRepo,
		sqlite.NewSearchRepository(db),
		blobs,
		taskRepo,
		renderer.New(fakeRenderer.URL, 5*time.Second, nil),
		definitionRepo,
		activityRepo,
		nil,
	)
	definitionSvc := definition.NewService(definitionRepo, nil)
	activitySvc := activity.NewService(activityRepo, nil)

	ts := &TestServer{
		Renderer:    fakeRenderer,
		DB:          db,
		Identity:    identitySvc,
		Results:     resultSvc,
		Definitions: definitionSvc,
		Activity:    activitySvc,
		Tasks:       taskRepo,
	}
	ts.Admin, err = identitySvc.Bootstrap(ctx, "admin")
	require.NoError(t, err)
	require.NoError(t, identitySvc.IssueKey(ctx, "admin", AdminToken, "test admin"))
	ts.Alice = ts.addUser(t, "alice", "Sales", AliceToken)
	ts.Bob = ts.addUser(t, "bob", "Engineering", BobToken)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Results:     resultSvc,
			Definitions: definitionSvc,
			Activity:    activitySvc,
			Tasks:       taskRepo,
		},
		Resolver:      identitySvc,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	ts.Server = httptest.NewServer(transport.NewServer(transport.Config{
		Results: resultSvc,
		MCP:     transport.NewMCPHandler(mcpServer),
		Auth:    transport.AuthMiddleware(identitySvc),
	}))

	t.Cleanup(func() {
		ts.Server.Close()
		fakeRenderer.Close()
		_ = db.Close()
	})
	return ts
}

func (ts *TestServer) addUser(t *testing.T, name, groupDescription, token string) identity.Caller {
	t.Helper()
	ctx := context.Background()
	group, err := ts.Identity.CreateGroup(ctx, groupDescription, "user")
	require.NoError(t, err)
	user, err := ts.Identity.CreateUser(ctx, name, group.ID)
	require.NoError(t, err)
	require.NoError(t, ts.Identity.IssueKey(ctx, user.ID, token, name))
	caller, err := ts.Identity.ResolveUser(ctx, user.ID)
	require.NoError(t, err)
	return caller
}

// Connect opens an MCP client session authenticated with token.
func (ts *TestServer) Connect(t *testing.T, token string) *sdkmcp.ClientSession {
	t.Helper()
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearer{token: token, next: http.DefaultTransport}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

// Get issues an authenticated GET against the plain HTTP routes.
func (ts *TestServer) Get(t *testing.T, token, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type bearer struct {
	token string
	next  http.RoundTripper
}

func (b bearer) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(req)
}

// renderEcho stands in for the document renderer: it returns a fake PDF
// whose body is the markup it was sent.
func renderEcho(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Markup     string `json:"markup"`
		Stylesheet string `json:"stylesheet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write([]byte("%PDF-1.7\n" + req.Stylesheet + "\n" + req.Markup))
}
