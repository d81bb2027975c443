package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
)

// Default login-field selectors used when the targets file omits them.
const (
	DefaultUsernameSelector = "#login"
	DefaultPasswordSelector = "#password"
)

// Targets is the deployment-specific target description: which login page to
// open, where the credential fields are, and which tables can be extracted.
// It is loaded once at startup and immutable afterwards.
type Targets struct {
	// LoginURL is the login page the session opens on. Required.
	LoginURL string `json:"login_url"`

	// Selectors maps the logical login-field names to CSS selectors.
	Selectors FieldSelectors `json:"selectors"`

	// Tables maps logical table names (e.g. "table1") to their configs.
	Tables map[string]TableConfig `json:"tables"`
}

// FieldSelectors locates the credential inputs on the login page.
type FieldSelectors struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TableConfig describes one extractable table.
type TableConfig struct {
	// Name is the logical table name; filled from the map key on load.
	Name string `json:"-"`

	// Selector is the CSS selector for the table's root element. Required.
	Selector string `json:"selector"`

	// Frame optionally names an iframe element; when set, the table is
	// located inside that frame's document.
	Frame string `json:"frame,omitempty"`

	// Steps are optional in-page navigation actions run before locating
	// the table (menu clicks, filter fills).
	Steps []Step `json:"steps,omitempty"`

	// OutputCSV is the destination file. Defaults to <output_dir>/<name>.csv.
	OutputCSV string `json:"output_csv,omitempty"`
}

// Step is one pre-extraction action. In JSON it is either a bare selector
// string (meaning click, with optional "||"-separated fallbacks) or an object:
//
//	{"action": "fill", "selector": "#a||#b", "text": "{today}"}
//
// Supported actions: "click" (default), "fill", "press", "wait".
type Step struct {
	// Action is the step kind; empty means "click".
	Action string `json:"action,omitempty"`

	// Selectors are the candidate CSS selectors, tried in order.
	Selectors []string `json:"-"`

	// Text is the value typed by a "fill" step. Supports the date macros
	// "{today}" and "{month_start}" (rendered as DD/MM/YYYY).
	Text string `json:"text,omitempty"`

	// Key is the key pressed by a "press" step (default "Enter").
	Key string `json:"key,omitempty"`

	// TimeoutMs overrides the default element wait for this step.
	TimeoutMs int `json:"timeout_ms,omitempty"`
}

// stepJSON is the object form of a Step on the wire.
type stepJSON struct {
	Action    string `json:"action,omitempty"`
	Selector  string `json:"selector"`
	Text      string `json:"text,omitempty"`
	Key       string `json:"key,omitempty"`
	TimeoutMs int    `json:"timeout_ms,omitempty"`
}

// UnmarshalJSON accepts both the bare-string and the object step forms.
func (s *Step) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		s.Action = "click"
		s.Selectors = splitSelectors(raw)
		return nil
	}

	var obj stepJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	s.Action = obj.Action
	if s.Action == "" {
		s.Action = "click"
	}
	s.Selectors = splitSelectors(obj.Selector)
	s.Text = obj.Text
	s.Key = obj.Key
	s.TimeoutMs = obj.TimeoutMs
	return nil
}

// MarshalJSON writes the object form.
func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(stepJSON{
		Action:    s.Action,
		Selector:  strings.Join(s.Selectors, "||"),
		Text:      s.Text,
		Key:       s.Key,
		TimeoutMs: s.TimeoutMs,
	})
}

// splitSelectors splits "||"-separated selector alternatives.
func splitSelectors(raw string) []string {
	parts := strings.Split(raw, "||")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// LoadTargets reads and validates the targets file. outputDir is used to
// derive CSV paths for tables that do not set output_csv explicitly.
func LoadTargets(path, outputDir string) (*Targets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("targets: read %s: %w", path, err)
	}

	var t Targets
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("targets: parse %s: %w", path, err)
	}

	if t.LoginURL == "" {
		return nil, fmt.Errorf("targets: login_url is required")
	}

	if t.Selectors.Username == "" {
		t.Selectors.Username = DefaultUsernameSelector
	}
	if t.Selectors.Password == "" {
		t.Selectors.Password = DefaultPasswordSelector
	}
	if err := validateSelector("selectors.username", t.Selectors.Username); err != nil {
		return nil, err
	}
	if err := validateSelector("selectors.password", t.Selectors.Password); err != nil {
		return nil, err
	}

	for name, tbl := range t.Tables {
		tbl.Name = name
		if tbl.Selector == "" {
			return nil, fmt.Errorf("targets: table %q has no selector", name)
		}
		if err := validateSelector(fmt.Sprintf("tables.%s.selector", name), tbl.Selector); err != nil {
			return nil, err
		}
		if tbl.Frame != "" {
			if err := validateSelector(fmt.Sprintf("tables.%s.frame", name), tbl.Frame); err != nil {
				return nil, err
			}
		}
		for i, step := range tbl.Steps {
			if len(step.Selectors) == 0 && step.Action != "wait" {
				return nil, fmt.Errorf("targets: tables.%s.steps[%d] has no selector", name, i)
			}
			for _, sel := range step.Selectors {
				if err := validateSelector(fmt.Sprintf("tables.%s.steps[%d]", name, i), sel); err != nil {
					return nil, err
				}
			}
		}
		if tbl.OutputCSV == "" {
			tbl.OutputCSV = filepath.Join(outputDir, name+".csv")
		}
		t.Tables[name] = tbl
	}

	return &t, nil
}

// Table returns the config for a logical table name.
func (t *Targets) Table(name string) (TableConfig, bool) {
	tbl, ok := t.Tables[name]
	return tbl, ok
}

// TableNames returns the configured table names, sorted.
func (t *Targets) TableNames() []string {
	names := make([]string, 0, len(t.Tables))
	for name := range t.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// validateSelector rejects selectors cascadia cannot parse, so a bad targets
// file fails at startup instead of at extraction time.
func validateSelector(field, sel string) error {
	if _, err := cascadia.ParseGroup(sel); err != nil {
		return fmt.Errorf("targets: %s: invalid selector %q: %w", field, sel, err)
	}
	return nil
}
