package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/tabgate/config"
	"github.com/use-agent/tabgate/models"
)

// rodDOM adapts a rod page to the pageDOM facade.
type rodDOM struct {
	page *rod.Page
	cfg  config.ExtractConfig
}

// URL reads the page's current location with a short deadline.
func (r *rodDOM) URL() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	info, err := r.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Scope returns the page itself, or the document of the configured iframe.
// The target renders list views inside iframes whose IDs differ per screen,
// so the frame selector lives in the table config.
func (r *rodDOM) Scope(ctx context.Context, frameSel string) (domScope, error) {
	if frameSel == "" {
		return &rodScope{scope: r.page, cfg: r.cfg}, nil
	}

	elCtx, cancel := context.WithTimeout(ctx, r.cfg.ElementTimeout)
	defer cancel()

	frameEl, err := r.page.Context(elCtx).Element(frameSel)
	if err != nil {
		return nil, categorizeElement(err, "frame not found: "+frameSel, models.ErrCodeElementNotFound)
	}
	frame, err := frameEl.Frame()
	if err != nil {
		return nil, models.NewSessionError(
			models.ErrCodeElementNotFound,
			"element is not a frame: "+frameSel,
			err,
		)
	}
	return &rodScope{scope: frame, cfg: r.cfg}, nil
}

// rodScope is a rod page or iframe document implementing domScope.
type rodScope struct {
	scope *rod.Page
	cfg   config.ExtractConfig
}

func (r *rodScope) RunSteps(ctx context.Context, steps []config.Step) error {
	return runSteps(ctx, r.scope, steps)
}

func (r *rodScope) TableMatches(ctx context.Context, selector string) (int, error) {
	elCtx, cancel := context.WithTimeout(ctx, r.cfg.ElementTimeout)
	defer cancel()

	// Bounded wait for the first match, then a plain count.
	if _, err := r.scope.Context(elCtx).Element(selector); err != nil {
		return 0, err
	}
	els, err := r.scope.Elements(selector)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

func (r *rodScope) TableHTML(selector string) (string, error) {
	els, err := r.scope.Elements(selector)
	if err != nil {
		return "", err
	}
	if len(els) == 0 {
		return "", fmt.Errorf("element vanished: %s", selector)
	}
	return els.First().HTML()
}
