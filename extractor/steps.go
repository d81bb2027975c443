package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/tabgate/config"
	"github.com/use-agent/tabgate/models"
)

// defaultStepTimeout is the per-step deadline when the step does not set one.
const defaultStepTimeout = 10 * time.Second

// stepPause is the settle time between steps; the target re-renders menus and
// dropdowns after most clicks.
const stepPause = 600 * time.Millisecond

// runSteps executes the table's pre-extraction steps in order. A failing step
// aborts with STEP_FAILED naming the step index and how many completed.
func runSteps(ctx context.Context, scope *rod.Page, steps []config.Step) error {
	for i, step := range steps {
		if err := runStep(ctx, scope, step); err != nil {
			return models.NewSessionError(
				models.ErrCodeStepFailed,
				fmt.Sprintf("step %d (%s) failed after %d completed", i, step.Action, i),
				err,
			)
		}
		select {
		case <-time.After(stepPause):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// runStep dispatches a single step with its own timeout.
func runStep(ctx context.Context, scope *rod.Page, step config.Step) error {
	timeout := defaultStepTimeout
	if step.TimeoutMs > 0 {
		timeout = time.Duration(step.TimeoutMs) * time.Millisecond
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := scope.Context(stepCtx)

	switch step.Action {
	case "click":
		return execClick(p, step)
	case "fill":
		return execFill(p, step)
	case "press":
		return execPress(p, step)
	case "wait":
		return execWaitStep(p, step)
	default:
		return fmt.Errorf("unknown step action: %s", step.Action)
	}
}

// minCandidateWait floors the per-alternative share of a step's deadline.
const minCandidateWait = 500 * time.Millisecond

// elementAny tries the step's selector alternatives in order and returns the
// first element found. Each candidate gets its own slice of the remaining
// deadline: rod keeps polling an absent selector until its context expires,
// so one shared deadline would let a dead first candidate starve the rest.
func elementAny(p *rod.Page, selectors []string) (*rod.Element, error) {
	if len(selectors) == 0 {
		return nil, fmt.Errorf("no selector alternatives given")
	}
	share := candidateShare(p.GetContext(), len(selectors))

	var lastErr error
	for _, sel := range selectors {
		selCtx, cancel := context.WithTimeout(p.GetContext(), share)
		el, err := p.Context(selCtx).Element(sel)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		// selCtx is spent; the element must live on the step context.
		el = el.Context(p.GetContext())
		if err := el.ScrollIntoView(); err != nil {
			slog.Debug("scroll into view failed", "selector", sel, "error", err)
		}
		return el, nil
	}
	return nil, lastErr
}

// candidateShare splits the time left until ctx's deadline evenly over n
// candidates, floored at minCandidateWait. Without a deadline the default
// step timeout is split instead.
func candidateShare(ctx context.Context, n int) time.Duration {
	remaining := defaultStepTimeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining = time.Until(deadline)
	}
	share := remaining / time.Duration(n)
	if share < minCandidateWait {
		share = minCandidateWait
	}
	return share
}

func execClick(p *rod.Page, step config.Step) error {
	el, err := elementAny(p, step.Selectors)
	if err != nil {
		return fmt.Errorf("click target not found: %w", err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		// Overlays (select2 dropdowns etc.) can swallow the real click;
		// a JS click is the last resort the target still honors.
		if _, jsErr := el.Eval(`() => this.click()`); jsErr != nil {
			return fmt.Errorf("click failed: %w", err)
		}
	}
	return nil
}

func execFill(p *rod.Page, step config.Step) error {
	el, err := elementAny(p, step.Selectors)
	if err != nil {
		return fmt.Errorf("fill target not found: %w", err)
	}
	if err := el.SelectAllText(); err != nil {
		slog.Debug("select all failed", "error", err)
	}
	return el.Input(renderMacros(step.Text))
}

func execPress(p *rod.Page, step config.Step) error {
	el, err := elementAny(p, step.Selectors)
	if err != nil {
		return fmt.Errorf("press target not found: %w", err)
	}
	key, err := lookupKey(step.Key)
	if err != nil {
		return err
	}
	return el.Type(key)
}

// execWaitStep waits for a selector to appear, or just sleeps when the step
// has no selector and only a timeout.
func execWaitStep(p *rod.Page, step config.Step) error {
	if len(step.Selectors) > 0 {
		_, err := elementAny(p, step.Selectors)
		return err
	}
	<-p.GetContext().Done()
	if err := p.GetContext().Err(); err != context.DeadlineExceeded {
		return err
	}
	return nil
}

// lookupKey maps a step key name to a rod input key. Default is Enter.
func lookupKey(name string) (input.Key, error) {
	switch strings.ToLower(name) {
	case "", "enter":
		return input.Enter, nil
	case "tab":
		return input.Tab, nil
	case "escape", "esc":
		return input.Escape, nil
	case "backspace":
		return input.Backspace, nil
	default:
		return 0, fmt.Errorf("unsupported key %q", name)
	}
}

// renderMacros substitutes the supported date macros in fill text.
// Dates render as DD/MM/YYYY, matching the target's date-range filters.
func renderMacros(text string) string {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	text = strings.ReplaceAll(text, "{today}", now.Format("02/01/2006"))
	text = strings.ReplaceAll(text, "{month_start}", monthStart.Format("02/01/2006"))
	return text
}
