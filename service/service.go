package service

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/tabgate/config"
	"github.com/use-agent/tabgate/extractor"
	"github.com/use-agent/tabgate/models"
	"github.com/use-agent/tabgate/session"
	"github.com/use-agent/tabgate/snapshot"
)

// Service wires the session manager, the table extractor and the snapshotter
// behind the operations the control surfaces (HTTP API, MCP) expose. It adds
// no policy of its own: errors pass through unmodified, and there is no
// wait-for-login primitive — extraction is always a separate operator action.
type Service struct {
	manager     *session.Manager
	extractor   *extractor.Extractor
	snapshotter *snapshot.Snapshotter
	targets     *config.Targets
}

// New creates a Service.
func New(manager *session.Manager, ex *extractor.Extractor, sn *snapshot.Snapshotter, targets *config.Targets) *Service {
	return &Service{
		manager:     manager,
		extractor:   ex,
		snapshotter: sn,
		targets:     targets,
	}
}

// OpenSession launches the browser, pre-fills credentials and returns without
// waiting for login. See session.Manager.Open.
func (s *Service) OpenSession(ctx context.Context, username, password string) error {
	return s.manager.Open(ctx, username, password)
}

// SessionState reports the current lifecycle state for display.
func (s *Service) SessionState() (state, currentURL string, openedAt time.Time) {
	return s.manager.State()
}

// CloseSession tears down the session; safe to call with none open.
func (s *Service) CloseSession() {
	s.manager.Close()
}

// LoginURL returns the configured login page.
func (s *Service) LoginURL() string {
	return s.manager.LoginURL()
}

// TableNames returns the configured logical table names.
func (s *Service) TableNames() []string {
	return s.targets.TableNames()
}

// ExtractTable runs one extraction pass for the named table config and
// returns the rows, the written CSV path and timing.
func (s *Service) ExtractTable(ctx context.Context, name string) (*models.ExtractedTable, string, models.TimingInfo, error) {
	tbl, ok := s.targets.Table(name)
	if !ok {
		return nil, "", models.TimingInfo{}, models.NewSessionError(
			models.ErrCodeInvalidInput,
			"unknown table: "+name,
			nil,
		)
	}

	page, err := s.manager.Page()
	if err != nil {
		return nil, "", models.TimingInfo{}, err
	}

	table, timing, err := s.extractor.Extract(ctx, page, tbl)
	if err != nil {
		return nil, "", timing, err
	}
	return table, tbl.OutputCSV, timing, nil
}

// SnapshotPage captures the current page in the requested format.
func (s *Service) SnapshotPage(ctx context.Context, format, cssSelector string) (*models.SnapshotResponse, error) {
	page, err := s.manager.Page()
	if err != nil {
		return nil, err
	}

	p := page.Context(ctx)
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, models.NewSessionError(
			models.ErrCodeSessionClosed,
			"failed to read page HTML",
			err,
		)
	}

	title := evalStringOrEmpty(p, `() => document.title`)
	sourceURL := evalStringOrEmpty(p, `() => window.location.href`)

	content, err := s.snapshotter.Capture(rawHTML, sourceURL, format, cssSelector)
	if err != nil {
		return nil, err
	}

	return &models.SnapshotResponse{
		Success:   true,
		Content:   content,
		Format:    format,
		Title:     title,
		SourceURL: sourceURL,
	}, nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
