package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/tabgate/config"
	"github.com/use-agent/tabgate/models"
	"github.com/ysmood/gson"
)

// Manager owns the single operator-facing browser session: one browser, one
// page, shared between the program and the human in front of the window.
// It is safe for concurrent use; all page access is serialized through it.
type Manager struct {
	mu sync.Mutex

	browserCfg config.BrowserConfig
	extractCfg config.ExtractConfig
	targets    *config.Targets

	// opening marks an in-flight Open. The slow launch work runs outside
	// the mutex so status and health calls stay responsive; this flag
	// keeps Open single-flight in the meantime.
	opening bool

	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	openedAt time.Time
}

// NewManager creates a Manager. No browser is launched until Open.
func NewManager(browserCfg config.BrowserConfig, extractCfg config.ExtractConfig, targets *config.Targets) *Manager {
	return &Manager{
		browserCfg: browserCfg,
		extractCfg: extractCfg,
		targets:    targets,
	}
}

// Open launches a visible browser, navigates to the login URL and fills the
// configured credential fields. It deliberately does NOT submit the form and
// does NOT wait for navigation past the login page: 2FA and the final login
// click belong to the operator.
//
// Lifecycle:
//
//  1. Reserve      – a dead previous session is swept; a live or in-flight one is an error
//  2. Preflight    – cheap HTTP probe of the login URL (optional)
//  3. Launch       – resolve channel to a binary, start it non-headless
//  4. Page setup   – stealth JS, extra headers, ad blocking (all optional)
//  5. Navigate     – login URL, bounded by the navigation timeout
//  6. Fill         – username + password via configured selectors, bounded wait
//  7. Install      – publish the handles; state becomes "awaiting_login"
//
// Only steps 1 and 7 hold the mutex. The minutes-long middle runs on local
// handles so State and Page keep answering while the browser starts.
//
// After Open returns, the session state is "awaiting_login" until the process
// exits or the window is closed; there is no login-success signal to wait for.
func (m *Manager) Open(ctx context.Context, username, password string) error {
	// ── 1. Reserve ───────────────────────────────────────────────────
	m.mu.Lock()
	if m.opening {
		m.mu.Unlock()
		return models.NewSessionError(
			models.ErrCodeSessionActive,
			"a session open is already in progress",
			nil,
		)
	}
	if m.page != nil {
		if m.aliveLocked() {
			m.mu.Unlock()
			return models.NewSessionError(
				models.ErrCodeSessionActive,
				"a session is already open; close it first",
				nil,
			)
		}
		slog.Warn("previous session is dead, replacing it")
		m.teardownLocked()
	}
	m.opening = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.opening = false
		m.mu.Unlock()
	}()

	// ── 2. Preflight ─────────────────────────────────────────────────
	if m.browserCfg.Preflight {
		if err := preflight(ctx, m.targets.LoginURL, m.browserCfg.Proxy); err != nil {
			return models.NewSessionError(
				models.ErrCodeNavigation,
				"login URL is not reachable",
				err,
			)
		}
	}

	// ── 3. Launch ────────────────────────────────────────────────────
	bin := m.browserCfg.Bin
	if bin == "" {
		resolved, err := resolveChannel(m.browserCfg.Channel)
		if err != nil {
			return models.NewSessionError(
				models.ErrCodeBrowserLaunch,
				"browser channel "+m.browserCfg.Channel+" is not available on this host",
				err,
			)
		}
		bin = resolved
	}

	l := launcher.New().
		Headless(false).
		NoSandbox(m.browserCfg.NoSandbox).
		Bin(bin).
		Leakless(true)

	if m.browserCfg.Proxy != "" {
		l = l.Proxy(m.browserCfg.Proxy)
	}

	// The window is for a human: keep first-run noise and automation
	// banners out, but leave rendering untouched.
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("no-default-browser-check"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))

	controlURL, err := l.Launch()
	if err != nil {
		return models.NewSessionError(
			models.ErrCodeBrowserLaunch,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "bin", bin, "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		discard(nil, l)
		return models.NewSessionError(
			models.ErrCodeBrowserLaunch,
			"failed to connect to browser",
			err,
		)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		discard(browser, l)
		return models.NewSessionError(
			models.ErrCodeBrowserLaunch,
			"failed to create page",
			err,
		)
	}

	// ── 4. Page setup ────────────────────────────────────────────────
	if m.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	if m.browserCfg.AcceptLanguage != "" {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{
				"Accept-Language": m.browserCfg.AcceptLanguage,
			}),
		}.Call(page)
	}

	if m.browserCfg.BlockAds {
		mountAdBlock(page)
	}

	// ── 5. Navigate ──────────────────────────────────────────────────
	navCtx, navCancel := context.WithTimeout(ctx, m.extractCfg.NavigationTimeout)
	defer navCancel()

	p := page.Context(navCtx)
	if err := p.Navigate(m.targets.LoginURL); err != nil {
		discard(browser, l)
		return categorizeNav(err, "navigation to login URL failed")
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("login page did not settle, proceeding with current DOM",
			"error", stableErr,
		)
	}

	// ── 6. Fill credentials ──────────────────────────────────────────
	if err := fillField(ctx, page, m.extractCfg.ElementTimeout, m.targets.Selectors.Username, username); err != nil {
		discard(browser, l)
		return err
	}
	if err := fillField(ctx, page, m.extractCfg.ElementTimeout, m.targets.Selectors.Password, password); err != nil {
		discard(browser, l)
		return err
	}

	// ── 7. Install ───────────────────────────────────────────────────
	m.mu.Lock()
	m.launcher = l
	m.browser = browser
	m.page = page
	m.openedAt = time.Now()
	m.mu.Unlock()

	slog.Info("session open: complete 2FA and submit login manually in the browser window",
		"loginURL", m.targets.LoginURL,
	)
	return nil
}

// fillField waits for the selector within timeout and replaces the field's
// content with value.
func fillField(ctx context.Context, page *rod.Page, timeout time.Duration, selector, value string) error {
	elCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := page.Context(elCtx).Element(selector)
	if err != nil {
		return models.NewSessionError(
			models.ErrCodeElementNotFound,
			"login field not found: "+selector,
			err,
		)
	}
	if err := el.ScrollIntoView(); err != nil {
		slog.Debug("scroll into view failed", "selector", selector, "error", err)
	}
	// Select any prefilled value so Input replaces it.
	if err := el.SelectAllText(); err != nil {
		slog.Debug("select all failed", "selector", selector, "error", err)
	}
	if err := el.Input(value); err != nil {
		return models.NewSessionError(
			models.ErrCodeElementNotFound,
			"failed to fill login field: "+selector,
			err,
		)
	}
	return nil
}

// Page returns the live page handle, or SESSION_CLOSED if no session is open
// or the browser window was closed externally.
func (m *Manager) Page() (*rod.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.page == nil {
		return nil, models.NewSessionError(
			models.ErrCodeSessionClosed,
			"no session is open",
			nil,
		)
	}
	if !m.aliveLocked() {
		m.teardownLocked()
		return nil, models.NewSessionError(
			models.ErrCodeSessionClosed,
			"the browser window was closed",
			nil,
		)
	}
	return m.page, nil
}

// State reports the session lifecycle state plus page metadata for display.
func (m *Manager) State() (state, currentURL string, openedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opening {
		return models.SessionStateOpening, "", time.Time{}
	}
	if m.page == nil || !m.aliveLocked() {
		return models.SessionStateNone, "", time.Time{}
	}
	if info, err := m.page.Info(); err == nil {
		currentURL = info.URL
	}
	return models.SessionStateAwaitingLogin, currentURL, m.openedAt
}

// LoginURL returns the configured login page.
func (m *Manager) LoginURL() string { return m.targets.LoginURL }

// Close tears down the session. Idempotent; safe to call with no session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
}

// aliveLocked pings the page with a short deadline. The browser's event loop
// answers TargetGetTargetInfo trivially, so a failure means the window or the
// whole browser is gone.
func (m *Manager) aliveLocked() bool {
	if m.page == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := m.page.Context(ctx).Info()
	return err == nil
}

// teardownLocked closes the installed session, tolerating an already-dead
// browser process.
func (m *Manager) teardownLocked() {
	discard(m.browser, m.launcher)
	m.launcher = nil
	m.browser = nil
	m.page = nil
	m.openedAt = time.Time{}
}

// discard closes a browser/launcher pair that either failed mid-open before
// being installed, or is being torn down.
func discard(browser *rod.Browser, l *launcher.Launcher) {
	if browser != nil {
		if err := browser.Close(); err != nil {
			slog.Debug("browser close failed (window likely closed externally)",
				"error", err,
			)
		}
	}
	if l != nil {
		l.Kill()
	}
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	h := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		h[k] = gson.New(v)
	}
	return h
}

// categorizeNav wraps raw navigation errors into typed SessionErrors.
func categorizeNav(err error, msg string) *models.SessionError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewSessionError(models.ErrCodeNavigation, msg+" (timed out)", err)
	case errors.Is(err, context.Canceled):
		return models.NewSessionError(models.ErrCodeNavigation, "navigation canceled", err)
	default:
		return models.NewSessionError(models.ErrCodeNavigation, msg, err)
	}
}
