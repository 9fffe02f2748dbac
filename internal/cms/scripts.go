package cms

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"text/template"
)

//go:embed assets/branch-guard.js assets/autofill.js
var assets embed.FS

// FieldBinding maps a response field onto an editor form field.
type FieldBinding struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Picker bool   `json:"picker"`
}

// ScriptConfig is passed to the editor scripts as JSON.
type ScriptConfig struct {
	ExtractEndpoint  string         `json:"extractEndpoint"`
	CreatePREndpoint string         `json:"createPrEndpoint"`
	TriggerLabel     string         `json:"triggerLabel"`
	AncestorCap      int            `json:"ancestorCap"`
	StepDelayMs      int            `json:"stepDelayMs"`
	PickerDelayMs    int            `json:"pickerDelayMs"`
	PickerTimeoutMs  int            `json:"pickerTimeoutMs"`
	Fields           []FieldBinding `json:"fields"`
}

// DefaultScriptConfig returns the settings for the job posting collection.
func DefaultScriptConfig() ScriptConfig {
	return ScriptConfig{
		ExtractEndpoint:  "/api/jobs/extract-pdf",
		CreatePREndpoint: "/api/admin/create-pr",
		TriggerLabel:     "PDF",
		AncestorCap:      8,
		StepDelayMs:      150,
		PickerDelayMs:    300,
		PickerTimeoutMs:  1000,
		Fields: []FieldBinding{
			{Key: "title", Label: "Title"},
			{Key: "department", Label: "Department", Picker: true},
			{Key: "type", Label: "Type", Picker: true},
			{Key: "location", Label: "Location"},
			{Key: "summary", Label: "Summary"},
		},
	}
}

// Scripts holds the rendered <script> blocks for each view class.
type Scripts struct {
	guard    string
	autofill string
}

// NewScripts renders the embedded scripts with cfg.
func NewScripts(cfg ScriptConfig) (*Scripts, error) {
	if cfg.AncestorCap <= 0 {
		return nil, fmt.Errorf("ancestor cap must be positive, got %d", cfg.AncestorCap)
	}

	// json.Marshal escapes '<' and '>', so the config cannot close the script tag.
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode script config: %w", err)
	}

	tmpl, err := template.ParseFS(assets, "assets/*.js")
	if err != nil {
		return nil, fmt.Errorf("failed to parse script templates: %w", err)
	}

	render := func(name string) (string, error) {
		var buf bytes.Buffer
		buf.WriteString("<script>\n")
		if err := tmpl.ExecuteTemplate(&buf, name, struct{ ConfigJSON string }{string(configJSON)}); err != nil {
			return "", fmt.Errorf("failed to render %s: %w", name, err)
		}
		buf.WriteString("</script>\n")
		return buf.String(), nil
	}

	guard, err := render("branch-guard.js")
	if err != nil {
		return nil, err
	}
	autofill, err := render("autofill.js")
	if err != nil {
		return nil, err
	}
	return &Scripts{guard: guard, autofill: autofill}, nil
}

// For returns the markup to inject into an HTML page of the given view.
func (s *Scripts) For(view ViewClass) string {
	switch view {
	case ViewMain:
		return s.guard
	case ViewFeature:
		return s.guard + s.autofill
	default:
		return ""
	}
}
