package integration_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func findBinary(t *testing.T) string {
	t.Helper()
	for _, path := range []string{"./bin/report-results", "../../bin/report-results"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("Server binary not found. Run 'go build -o bin/report-results ./cmd/server' first.")
	return ""
}

func stdioEnv() []string {
	return append(os.Environ(),
		"REPORTS_TRANSPORT_MODE=stdio",
		"REPORTS_DB_PATH=:memory:",
		"REPORTS_RENDERER_URL=",
	)
}

// TestStdioProtocolCompliance drives the server binary over stdio with the
// SDK client.
func TestStdioProtocolCompliance(t *testing.T) {
	binaryPath := findBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = stdioEnv()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	require.NoError(t, err, "Failed to connect to server")
	defer session.Close()

	t.Run("ServerInfo", func(t *testing.T) {
		initResult := session.InitializeResult()
		require.NotNil(t, initResult)
		require.NotNil(t, initResult.ServerInfo)
		require.Equal(t, "report-results", initResult.ServerInfo.Name)
		require.Equal(t, "0.1.0", initResult.ServerInfo.Version)
	})

	t.Run("ListTools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err, "tools/list failed")

		toolNames := make(map[string]bool)
		for _, tool := range tools.Tools {
			toolNames[tool.Name] = true
		}
		for _, name := range []string{"create_result", "set_payload", "get_payload", "result_status", "list_results", "set_task_state"} {
			require.True(t, toolNames[name], "Missing expected tool: %s", name)
		}
	})

	var resultID string
	t.Run("CreateResult", func(t *testing.T) {
		res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name: "create_result",
			Arguments: map[string]any{
				"snapshot": map[string]any{"name": "Stdio report"},
			},
		})
		require.NoError(t, err)
		require.False(t, res.IsError, "create_result returned error: %v", res)
		text := res.Content[0].(*sdkmcp.TextContent).Text
		var created struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal([]byte(text), &created))
		require.NotEmpty(t, created.ID)
		resultID = created.ID
	})

	t.Run("PayloadRoundTrip", func(t *testing.T) {
		require.NotEmpty(t, resultID)
		res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "set_payload",
			Arguments: map[string]any{"id": resultID, "text": "name\nvm1\n"},
		})
		require.NoError(t, err)
		require.False(t, res.IsError, "set_payload returned error: %v", res)

		res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "get_payload",
			Arguments: map[string]any{"id": resultID},
		})
		require.NoError(t, err)
		require.False(t, res.IsError, "get_payload returned error: %v", res)
		var got struct {
			Encoding string `json:"encoding"`
			Text     string `json:"text"`
		}
		require.NoError(t, json.Unmarshal([]byte(res.Content[0].(*sdkmcp.TextContent).Text), &got))
		require.Equal(t, "text", got.Encoding)
		require.Equal(t, "name\nvm1\n", got.Text)
	})

	t.Run("ResultStatus", func(t *testing.T) {
		require.NotEmpty(t, resultID)
		res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "result_status",
			Arguments: map[string]any{"id": resultID},
		})
		require.NoError(t, err)
		require.False(t, res.IsError, "result_status returned error: %v", res)
		require.Contains(t, res.Content[0].(*sdkmcp.TextContent).Text, `"status":"Complete"`)
	})
}

// TestStdioProtocol_StdoutHygiene checks that the first thing on stdout is
// the initialize response. Logs must go to stderr.
func TestStdioProtocol_StdoutHygiene(t *testing.T) {
	binaryPath := findBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = append(stdioEnv(), "REPORTS_LOG_LEVEL=debug")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = stdin.Close()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	initReq := `{"jsonrpc":"2.0","method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}},"id":1}`
	_, err = io.WriteString(stdin, initReq+"\n")
	require.NoError(t, err)

	lines := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		if scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	var first string
	select {
	case line, ok := <-lines:
		require.True(t, ok, "server closed stdout without answering; stderr: %s", stderr.String())
		first = line
	case <-ctx.Done():
		t.Fatalf("timed out waiting for initialize response; stderr: %s", stderr.String())
	}

	var resp struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int    `json:"id"`
		Result  struct {
			ServerInfo struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(first), &resp), "stdout line is not JSON: %q", first)
	require.Equal(t, "2.0", resp.JSONRPC)
	require.Equal(t, 1, resp.ID)
	require.Equal(t, "report-results", resp.Result.ServerInfo.Name)
}
