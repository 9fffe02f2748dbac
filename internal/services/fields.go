package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Trueleap/contentflow/internal/gcp"
	"github.com/Trueleap/contentflow/internal/logger"
	"github.com/Trueleap/contentflow/internal/models"
)

const (
	maxSummaryRunes      = 500
	maxFieldPromptLength = 30000
)

// FieldInferrer maps extracted markdown onto job-posting fields. Missing
// fields are left empty; absence is never an error.
type FieldInferrer interface {
	Infer(ctx context.Context, markdown string) (models.JobFields, error)
}

var (
	labelLineRegex = regexp.MustCompile(`^(?:[-*+]\s+)?[*_]{0,2}([A-Za-z][A-Za-z /]{1,30}?)[*_]{0,2}\s*:\s*[*_]{0,2}\s*(.+?)\s*$`)
	headingRegex   = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	emphasisRegex  = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
	linkRegex      = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	employmentType = regexp.MustCompile(`(?i)\b(full[- ]time|part[- ]time|contract(?:or)?|internship|temporary|freelance)\b`)
)

var labelAliases = map[string]string{
	"title":           "title",
	"job title":       "title",
	"position":        "title",
	"role":            "title",
	"department":      "department",
	"team":            "department",
	"division":        "department",
	"function":        "department",
	"type":            "type",
	"job type":        "type",
	"employment type": "type",
	"employment":      "type",
	"position type":   "type",
	"contract type":   "type",
	"location":        "location",
	"work location":   "location",
	"based in":        "location",
	"office":          "location",
	"summary":         "summary",
	"overview":        "summary",
	"about the role":  "summary",
}

var summaryHeadings = map[string]bool{
	"summary":        true,
	"overview":       true,
	"about the role": true,
	"role overview":  true,
	"the role":       true,
	"about the job":  true,
}

// HeuristicFieldInferrer reads fields from the markdown structure: the first
// heading, "Label: value" lines and the first prose paragraph.
type HeuristicFieldInferrer struct{}

var _ FieldInferrer = HeuristicFieldInferrer{}

func (HeuristicFieldInferrer) Infer(_ context.Context, markdown string) (models.JobFields, error) {
	return inferFields(markdown), nil
}

type paragraph struct {
	section string
	lines   []string
}

func inferFields(markdown string) models.JobFields {
	var (
		fields     models.JobFields
		labeled    = map[string]string{}
		paragraphs []paragraph
		current    *paragraph
		section    string
	)

	closeParagraph := func() {
		if current != nil && len(current.lines) > 0 {
			paragraphs = append(paragraphs, *current)
		}
		current = nil
	}

	for _, raw := range strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)

		if line == "" {
			closeParagraph()
			continue
		}

		if m := headingRegex.FindStringSubmatch(line); m != nil {
			closeParagraph()
			text := cleanInline(m[2])
			if fields.Title == "" {
				fields.Title = text
			}
			section = strings.ToLower(strings.TrimRight(text, ":"))
			continue
		}

		if m := labelLineRegex.FindStringSubmatch(line); m != nil {
			if key, ok := labelAliases[strings.ToLower(strings.TrimSpace(m[1]))]; ok {
				closeParagraph()
				if _, seen := labeled[key]; !seen {
					labeled[key] = cleanInline(m[2])
				}
				continue
			}
		}

		if isStructuralLine(line) {
			closeParagraph()
			continue
		}

		if current == nil {
			current = &paragraph{section: section}
		}
		current.lines = append(current.lines, cleanInline(line))
	}
	closeParagraph()

	if fields.Title == "" {
		if v := labeled["title"]; v != "" {
			fields.Title = v
		} else if len(paragraphs) > 0 && utf8.RuneCountInString(paragraphs[0].lines[0]) <= 100 {
			// A document without headings usually opens with the title on its own line.
			fields.Title = paragraphs[0].lines[0]
			paragraphs[0].lines = paragraphs[0].lines[1:]
			if len(paragraphs[0].lines) == 0 {
				paragraphs = paragraphs[1:]
			}
		}
	}

	fields.Department = labeled["department"]
	fields.Location = labeled["location"]
	fields.Type = normalizeEmploymentType(labeled["type"])
	if fields.Type == "" {
		if m := employmentType.FindString(markdown); m != "" {
			fields.Type = normalizeEmploymentType(m)
		}
	}

	if v := labeled["summary"]; v != "" {
		fields.Summary = truncateRunes(v, maxSummaryRunes)
		return fields
	}
	for _, p := range paragraphs {
		if summaryHeadings[p.section] {
			fields.Summary = truncateRunes(strings.Join(p.lines, " "), maxSummaryRunes)
			return fields
		}
	}
	if len(paragraphs) > 0 {
		fields.Summary = truncateRunes(strings.Join(paragraphs[0].lines, " "), maxSummaryRunes)
	}
	return fields
}

// isStructuralLine reports list items, tables, quotes, rules and fences.
func isStructuralLine(line string) bool {
	switch {
	case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "), strings.HasPrefix(line, "+ "):
		return true
	case strings.HasPrefix(line, "|"), strings.HasPrefix(line, ">"), strings.HasPrefix(line, "```"):
		return true
	case strings.Trim(line, "-*_ ") == "":
		return true
	}
	// Numbered list item.
	if i := strings.IndexAny(line, ".)"); i > 0 && i < 4 {
		if _, err := fmt.Sscanf(line[:i], "%d", new(int)); err == nil {
			return true
		}
	}
	return false
}

func cleanInline(s string) string {
	s = linkRegex.ReplaceAllString(s, "$1")
	s = emphasisRegex.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "`", "")
	return strings.TrimSpace(s)
}

func normalizeEmploymentType(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(strings.ReplaceAll(s, " ", "-"))
	switch {
	case strings.HasPrefix(lower, "full-time"):
		return "Full-time"
	case strings.HasPrefix(lower, "part-time"):
		return "Part-time"
	case strings.HasPrefix(lower, "contract"):
		return "Contract"
	case strings.HasPrefix(lower, "intern"):
		return "Internship"
	case strings.HasPrefix(lower, "temporary"):
		return "Temporary"
	case strings.HasPrefix(lower, "freelance"):
		return "Freelance"
	}
	return s
}

// truncateBytes cuts s to at most max bytes without splitting a rune.
func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)[:max]
	cut := string(runes)
	if i := strings.LastIndex(cut, " "); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}

// VertexFieldInferrer asks a JSON-mode Gemini model for the fields and falls
// back to the heuristic when the model fails or returns malformed JSON.
type VertexFieldInferrer struct {
	model    contentGenerator
	fallback FieldInferrer
}

var _ FieldInferrer = (*VertexFieldInferrer)(nil)

// NewVertexFieldInferrer uses the client's pre-configured fields model.
func NewVertexFieldInferrer(client *gcp.VertexClient) *VertexFieldInferrer {
	return &VertexFieldInferrer{model: client.FieldsModel, fallback: HeuristicFieldInferrer{}}
}

func (f *VertexFieldInferrer) Infer(ctx context.Context, markdown string) (models.JobFields, error) {
	if strings.TrimSpace(markdown) == "" {
		return models.JobFields{}, nil
	}
	log := logger.FromContext(ctx)

	input := markdown
	if len(input) > maxFieldPromptLength {
		input = truncateBytes(input, maxFieldPromptLength)
	}

	resp, err := f.model.GenerateContent(ctx, genai.Text(gcp.FieldsUserPrompt+input))
	if err != nil {
		log.Warn("Field inference model call failed, using heuristic", "error", err)
		return f.fallback.Infer(ctx, markdown)
	}

	jsonString := firstCandidateText(resp, "json")
	if jsonString == "" {
		log.Warn("Field inference model returned no content, using heuristic")
		return f.fallback.Infer(ctx, markdown)
	}

	var fields models.JobFields
	if err := json.Unmarshal([]byte(jsonString), &fields); err != nil {
		log.Warn("Failed to unmarshal field inference response, using heuristic", "error", err, "responseBody", jsonString)
		return f.fallback.Infer(ctx, markdown)
	}

	fields.Title = strings.TrimSpace(fields.Title)
	fields.Department = strings.TrimSpace(fields.Department)
	fields.Type = normalizeEmploymentType(fields.Type)
	fields.Location = strings.TrimSpace(fields.Location)
	fields.Summary = truncateRunes(strings.TrimSpace(fields.Summary), maxSummaryRunes)
	return fields, nil
}
