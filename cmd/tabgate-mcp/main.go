package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// sessionResponse mirrors the Tabgate session API response model.
type sessionResponse struct {
	Success    bool   `json:"success"`
	State      string `json:"state"`
	LoginURL   string `json:"login_url"`
	OpenedAt   string `json:"opened_at"`
	CurrentURL string `json:"current_url"`
	Error      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// extractResponse mirrors the Tabgate extract API response model.
type extractResponse struct {
	Success bool `json:"success"`
	Table   *struct {
		Name string     `json:"name"`
		Rows [][]string `json:"rows"`
	} `json:"table"`
	OutputPath string `json:"output_path"`
	Timing     struct {
		TotalMs int64 `json:"total_ms"`
	} `json:"timing"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// snapshotResponse mirrors the Tabgate snapshot API response model.
type snapshotResponse struct {
	Success   bool   `json:"success"`
	Content   string `json:"content"`
	Format    string `json:"format"`
	Title     string `json:"title"`
	SourceURL string `json:"source_url"`
	Error     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("TABGATE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8087"
	}
	// Optional: the API runs open by default on localhost.
	apiKey := os.Getenv("TABGATE_API_KEY")

	s := server.NewMCPServer(
		"tabgate",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	openSessionTool := mcp.NewTool("open_session",
		mcp.WithDescription("Open a visible browser on the configured login page with credentials pre-filled. A human operator must then complete 2FA and submit the login form in the browser window before extraction."),
		mcp.WithString("username",
			mcp.Required(),
			mcp.Description("Username to pre-fill into the login form"),
		),
		mcp.WithString("password",
			mcp.Required(),
			mcp.Description("Password to pre-fill into the login form"),
		),
	)
	s.AddTool(openSessionTool, handleOpenSession(apiURL, apiKey))

	sessionStatusTool := mcp.NewTool("session_status",
		mcp.WithDescription("Report the current browser session state and the page the operator is on."),
	)
	s.AddTool(sessionStatusTool, handleSessionStatus(apiURL, apiKey))

	closeSessionTool := mcp.NewTool("close_session",
		mcp.WithDescription("Close the browser session. Safe to call when no session is open."),
	)
	s.AddTool(closeSessionTool, handleCloseSession(apiURL, apiKey))

	extractTableTool := mcp.NewTool("extract_table",
		mcp.WithDescription("Extract a configured table from the live session into a CSV file and return the rows. Requires an open session in which the operator has finished logging in and navigated to the right page."),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("Logical name of a configured table"),
		),
	)
	s.AddTool(extractTableTool, handleExtractTable(apiURL, apiKey))

	snapshotPageTool := mcp.NewTool("snapshot_page",
		mcp.WithDescription("Capture the current page of the live session without navigating, useful for checking where the operator is before extracting."),
		mcp.WithString("format",
			mcp.Description("Snapshot format: 'markdown' (default), 'text', 'html', or 'article'"),
			mcp.Enum("markdown", "text", "html", "article"),
		),
		mcp.WithString("css_selector",
			mcp.Description("Optional CSS selector restricting the capture to matching elements"),
		),
	)
	s.AddTool(snapshotPageTool, handleSnapshotPage(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiDo sends a request to the Tabgate API and returns the response body.
func apiDo(ctx context.Context, client *http.Client, method, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleOpenSession(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 180 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		username, err := request.RequireString("username")
		if err != nil {
			return mcp.NewToolResultError("username is required"), nil
		}
		password, err := request.RequireString("password")
		if err != nil {
			return mcp.NewToolResultError("password is required"), nil
		}

		payload := map[string]string{
			"username": username,
			"password": password,
		}

		respBody, err := apiDo(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/session/open", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("open session request failed: %v", err)), nil
		}

		var sessResp sessionResponse
		if err := json.Unmarshal(respBody, &sessResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !sessResp.Success {
			errMsg := "open session failed"
			if sessResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", sessResp.Error.Code, sessResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		result := fmt.Sprintf(
			"Browser opened on %s with credentials pre-filled.\nState: %s\n\nThe operator must now complete 2FA and submit the login form in the browser window.",
			sessResp.LoginURL, sessResp.State,
		)
		return mcp.NewToolResultText(result), nil
	}
}

func handleSessionStatus(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		respBody, err := apiDo(ctx, client, http.MethodGet, apiURL, apiKey, "/api/v1/session", nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("status request failed: %v", err)), nil
		}

		var sessResp sessionResponse
		if err := json.Unmarshal(respBody, &sessResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString("State: " + sessResp.State + "\n")
		if sessResp.CurrentURL != "" {
			sb.WriteString("Current URL: " + sessResp.CurrentURL + "\n")
		}
		if sessResp.OpenedAt != "" {
			sb.WriteString("Opened at: " + sessResp.OpenedAt + "\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleCloseSession(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if _, err := apiDo(ctx, client, http.MethodDelete, apiURL, apiKey, "/api/v1/session", nil); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("close request failed: %v", err)), nil
		}
		return mcp.NewToolResultText("Session closed."), nil
	}
}

func handleExtractTable(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 180 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := request.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError("table is required"), nil
		}

		respBody, err := apiDo(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/extract/"+table, struct{}{})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("extract request failed: %v", err)), nil
		}

		var extResp extractResponse
		if err := json.Unmarshal(respBody, &extResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !extResp.Success {
			errMsg := "extraction failed"
			if extResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", extResp.Error.Code, extResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var sb strings.Builder
		rows := 0
		if extResp.Table != nil {
			rows = len(extResp.Table.Rows)
		}
		sb.WriteString(fmt.Sprintf("Extracted %d rows to %s (%d ms)\n\n", rows, extResp.OutputPath, extResp.Timing.TotalMs))

		// Preview the first rows as pipe-separated text.
		if extResp.Table != nil {
			const previewRows = 10
			for i, row := range extResp.Table.Rows {
				if i >= previewRows {
					sb.WriteString(fmt.Sprintf("... (%d more rows)\n", rows-previewRows))
					break
				}
				sb.WriteString(strings.Join(row, " | ") + "\n")
			}
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleSnapshotPage(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload := map[string]string{}
		if format := request.GetString("format", ""); format != "" {
			payload["format"] = format
		}
		if sel := request.GetString("css_selector", ""); sel != "" {
			payload["css_selector"] = sel
		}

		respBody, err := apiDo(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/snapshot", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("snapshot request failed: %v", err)), nil
		}

		var snapResp snapshotResponse
		if err := json.Unmarshal(respBody, &snapResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !snapResp.Success {
			errMsg := "snapshot failed"
			if snapResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", snapResp.Error.Code, snapResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var result string
		if snapResp.Title != "" || snapResp.SourceURL != "" {
			result = fmt.Sprintf("Title: %s\nSource: %s\n\n", snapResp.Title, snapResp.SourceURL)
		}
		result += snapResp.Content

		return mcp.NewToolResultText(result), nil
	}
}
