package extractor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/tabgate/config"
	"github.com/use-agent/tabgate/models"
	"github.com/use-agent/tabgate/webhook"
)

// pageDOM is the slice of live-page behavior the extraction flow consumes.
// *rodDOM adapts a rod page; tests substitute a fake so the flow's error
// mapping and file semantics can be checked without a browser.
type pageDOM interface {
	// URL reports the page's current location.
	URL() (string, error)

	// Scope resolves the DOM scope tables are located in: the page itself,
	// or the document of the iframe matching frameSelector when non-empty.
	Scope(ctx context.Context, frameSelector string) (domScope, error)
}

// domScope is a page or iframe document.
type domScope interface {
	// RunSteps executes the table's pre-extraction actions.
	RunSteps(ctx context.Context, steps []config.Step) error

	// TableMatches waits for the selector within the element timeout and
	// reports how many elements match.
	TableMatches(ctx context.Context, selector string) (int, error)

	// TableHTML reads the outer HTML of the selector's first match.
	TableHTML(selector string) (string, error)
}

// Extractor performs selector-driven table extraction against a live,
// operator-authenticated page. One generic row/cell walk serves every table;
// per-table behavior lives entirely in the table config.
type Extractor struct {
	extractCfg config.ExtractConfig
	webhookCfg config.WebhookConfig
}

// New creates an Extractor.
func New(extractCfg config.ExtractConfig, webhookCfg config.WebhookConfig) *Extractor {
	return &Extractor{extractCfg: extractCfg, webhookCfg: webhookCfg}
}

// Extract locates the table described by tbl on the given page, walks its
// rows and cells in DOM order, writes the result to the table's CSV path and
// returns the in-memory grid.
//
// Preconditions are the operator's: the page must currently show the screen
// containing the table. There is no login-success signal to verify, so a
// too-early call simply fails with TABLE_NOT_FOUND and can be retried.
func (e *Extractor) Extract(ctx context.Context, page *rod.Page, tbl config.TableConfig) (*models.ExtractedTable, models.TimingInfo, error) {
	return e.extract(ctx, &rodDOM{page: page, cfg: e.extractCfg}, tbl)
}

// extract is the orchestration behind Extract.
//
// Flow:
//
//  1. Mark      – capture the page URL for the staleness check
//  2. Scope     – resolve the configured iframe, if any
//  3. Steps     – run pre-extraction navigation steps
//  4. Locate    – bounded wait for the table selector; first match wins,
//     multiple matches log a warning
//  5. Read      – single CDP call for the element's outer HTML
//  6. Stale?    – URL changed mid-extraction → STALE_ELEMENT, no file
//  7. Parse     – goquery row/cell walk
//  8. Write     – CSV to the table's output path (mkdir, overwrite)
//
// The CSV is written only after steps 1-7 all succeed; any failure leaves the
// output file untouched.
func (e *Extractor) extract(ctx context.Context, page pageDOM, tbl config.TableConfig) (*models.ExtractedTable, models.TimingInfo, error) {
	totalStart := time.Now()
	var timing models.TimingInfo

	// ── 1. Mark ─────────────────────────────────────────────────────
	startURL, err := page.URL()
	if err != nil {
		return nil, timing, models.NewSessionError(
			models.ErrCodeSessionClosed,
			"page is gone",
			err,
		)
	}

	// ── 2. Scope ────────────────────────────────────────────────────
	scope, err := page.Scope(ctx, tbl.Frame)
	if err != nil {
		return nil, timing, err
	}

	// ── 3. Steps ────────────────────────────────────────────────────
	if len(tbl.Steps) > 0 {
		stepsStart := time.Now()
		slog.Info("running pre-extraction steps", "table", tbl.Name, "steps", len(tbl.Steps))
		if err := scope.RunSteps(ctx, tbl.Steps); err != nil {
			return nil, timing, err
		}
		timing.StepsMs = time.Since(stepsStart).Milliseconds()

		// Steps can swap the iframe under us; re-resolve.
		scope, err = page.Scope(ctx, tbl.Frame)
		if err != nil {
			return nil, timing, err
		}
	}

	// ── 4. Locate ───────────────────────────────────────────────────
	extractStart := time.Now()
	matches, err := scope.TableMatches(ctx, tbl.Selector)
	if err != nil || matches == 0 {
		return nil, timing, categorizeElement(err, "no element matches table selector "+tbl.Selector, models.ErrCodeTableNotFound)
	}
	if matches > 1 {
		// Recoverable fallback, but never silent: the selector was
		// expected to be unique.
		slog.Warn("ambiguous table selector, using first match",
			"table", tbl.Name,
			"selector", tbl.Selector,
			"matches", matches,
		)
	}

	// ── 5. Read ─────────────────────────────────────────────────────
	tableHTML, err := scope.TableHTML(tbl.Selector)
	if err != nil {
		return nil, timing, categorizeElement(err, "failed to read table element", models.ErrCodeStaleElement)
	}

	// ── 6. Staleness check ──────────────────────────────────────────
	endURL, err := page.URL()
	if err != nil {
		return nil, timing, models.NewSessionError(
			models.ErrCodeSessionClosed,
			"page is gone",
			err,
		)
	}
	if endURL != startURL {
		return nil, timing, models.NewSessionError(
			models.ErrCodeStaleElement,
			"page navigated away during extraction",
			nil,
		)
	}

	// ── 7. Parse ────────────────────────────────────────────────────
	rows, err := parseTableHTML(tableHTML)
	if err != nil {
		return nil, timing, models.NewSessionError(
			models.ErrCodeInternal,
			"failed to parse table HTML",
			err,
		)
	}
	timing.ExtractMs = time.Since(extractStart).Milliseconds()

	// ── 8. Write ────────────────────────────────────────────────────
	if err := writeCSV(tbl.OutputCSV, rows); err != nil {
		return nil, timing, err
	}

	table := &models.ExtractedTable{Name: tbl.Name, Rows: rows}
	timing.TotalMs = time.Since(totalStart).Milliseconds()

	slog.Info("table extracted",
		"table", tbl.Name,
		"rows", len(rows),
		"output", tbl.OutputCSV,
		"totalMs", timing.TotalMs,
	)

	if e.webhookCfg.URL != "" {
		webhook.DeliverAsync(e.webhookCfg.URL, e.webhookCfg.Secret, &webhook.Event{
			Type:      webhook.EventExtractCompleted,
			Table:     tbl.Name,
			Timestamp: time.Now().Unix(),
			Data: map[string]any{
				"rows":        len(rows),
				"output_path": tbl.OutputCSV,
			},
		})
	}

	return table, timing, nil
}

// categorizeElement maps raw rod errors from element operations to typed
// codes: timeouts mean the element never appeared (notFoundCode), anything
// else mid-operation is treated as the page moving under us.
func categorizeElement(err error, msg, notFoundCode string) *models.SessionError {
	switch {
	case err == nil:
		return models.NewSessionError(notFoundCode, msg, nil)
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewSessionError(notFoundCode, msg, err)
	default:
		return models.NewSessionError(models.ErrCodeStaleElement, msg, err)
	}
}
