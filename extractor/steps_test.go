package extractor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/input"
)

func TestCandidateShare_SplitsDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	share := candidateShare(ctx, 2)
	// Each of two alternatives must keep roughly half the budget, so a dead
	// first candidate cannot consume the whole step deadline.
	if share < 4*time.Second || share > 5*time.Second {
		t.Errorf("share for 2 candidates of a 10s deadline = %v, want ~5s", share)
	}
}

func TestCandidateShare_NoDeadlineUsesDefault(t *testing.T) {
	if share := candidateShare(context.Background(), 1); share != defaultStepTimeout {
		t.Errorf("share = %v, want %v", share, defaultStepTimeout)
	}
	if share := candidateShare(context.Background(), 2); share != defaultStepTimeout/2 {
		t.Errorf("share = %v, want %v", share, defaultStepTimeout/2)
	}
}

func TestCandidateShare_FlooredForManyCandidates(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if share := candidateShare(ctx, 10); share != minCandidateWait {
		t.Errorf("share = %v, want floor %v", share, minCandidateWait)
	}
}

func TestRenderMacros_Today(t *testing.T) {
	got := renderMacros("{today}")
	want := time.Now().Format("02/01/2006")
	if got != want {
		t.Errorf("renderMacros({today}) = %q, want %q", got, want)
	}
}

func TestRenderMacros_MonthStart(t *testing.T) {
	got := renderMacros("{month_start}")

	now := time.Now()
	want := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format("02/01/2006")
	if got != want {
		t.Errorf("renderMacros({month_start}) = %q, want %q", got, want)
	}
	if !strings.HasPrefix(got, "01/") {
		t.Errorf("month start should render day 01, got %q", got)
	}
}

func TestRenderMacros_MixedText(t *testing.T) {
	got := renderMacros("from {month_start} to {today}")
	if strings.Contains(got, "{") {
		t.Errorf("macros left unrendered: %q", got)
	}
	if !strings.HasPrefix(got, "from ") || !strings.Contains(got, " to ") {
		t.Errorf("surrounding text mangled: %q", got)
	}
}

func TestRenderMacros_NoMacros(t *testing.T) {
	if got := renderMacros("plain text"); got != "plain text" {
		t.Errorf("plain text should pass through, got %q", got)
	}
}

func TestLookupKey(t *testing.T) {
	tests := []struct {
		name    string
		want    input.Key
		wantErr bool
	}{
		{"", input.Enter, false},
		{"enter", input.Enter, false},
		{"Enter", input.Enter, false},
		{"tab", input.Tab, false},
		{"escape", input.Escape, false},
		{"esc", input.Escape, false},
		{"backspace", input.Backspace, false},
		{"f13", 0, true},
	}

	for _, tt := range tests {
		t.Run("key_"+tt.name, func(t *testing.T) {
			got, err := lookupKey(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Errorf("lookupKey(%q) expected error", tt.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("lookupKey(%q) failed: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("lookupKey(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
