package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Trueleap/contentflow/internal/gcp"
	"github.com/Trueleap/contentflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMarkdown = `# Senior Backend Engineer

**Department:** Engineering
**Employment Type:** full time
**Location:** Nairobi, Kenya

## About the role

TrueLeap is looking for a backend engineer to build
offline-first learning infrastructure.

## Responsibilities

- Build services
- Review code
`

func TestHeuristicFieldInferrer(t *testing.T) {
	ctx := context.Background()

	t.Run("labeled posting", func(t *testing.T) {
		fields, err := HeuristicFieldInferrer{}.Infer(ctx, sampleMarkdown)
		require.NoError(t, err)
		assert.Equal(t, models.JobFields{
			Title:      "Senior Backend Engineer",
			Department: "Engineering",
			Type:       "Full-time",
			Location:   "Nairobi, Kenya",
			Summary:    "TrueLeap is looking for a backend engineer to build offline-first learning infrastructure.",
		}, fields)
	})

	t.Run("no headings", func(t *testing.T) {
		md := "Product Designer\nTeam: Design\nContract role based remotely."
		fields, err := HeuristicFieldInferrer{}.Infer(ctx, md)
		require.NoError(t, err)
		assert.Equal(t, "Product Designer", fields.Title)
		assert.Equal(t, "Design", fields.Department)
		assert.Equal(t, "Contract", fields.Type)
		assert.Equal(t, "Contract role based remotely.", fields.Summary)
		assert.Empty(t, fields.Location)
	})

	t.Run("empty input", func(t *testing.T) {
		fields, err := HeuristicFieldInferrer{}.Infer(ctx, "")
		require.NoError(t, err)
		assert.True(t, fields.IsEmpty())
	})

	t.Run("first label wins", func(t *testing.T) {
		md := "# Analyst\n\nLocation: Remote\nLocation: Lagos\n"
		fields, err := HeuristicFieldInferrer{}.Infer(ctx, md)
		require.NoError(t, err)
		assert.Equal(t, "Remote", fields.Location)
	})

	t.Run("long summary truncated", func(t *testing.T) {
		md := "# Role\n\n" + strings.Repeat("word ", 200)
		fields, err := HeuristicFieldInferrer{}.Infer(ctx, md)
		require.NoError(t, err)
		assert.LessOrEqual(t, len([]rune(fields.Summary)), maxSummaryRunes+3)
		assert.True(t, strings.HasSuffix(fields.Summary, "..."))
	})
}

func TestNormalizeEmploymentType(t *testing.T) {
	assert.Equal(t, "Full-time", normalizeEmploymentType("Full Time"))
	assert.Equal(t, "Part-time", normalizeEmploymentType("part-time (20h)"))
	assert.Equal(t, "Internship", normalizeEmploymentType("Intern"))
	assert.Equal(t, "Seasonal", normalizeEmploymentType(" Seasonal "))
	assert.Empty(t, normalizeEmploymentType(""))
}

func TestVertexFieldInferrer(t *testing.T) {
	ctx := context.Background()

	t.Run("uses model output", func(t *testing.T) {
		gen := &fakeGenerator{text: "```json\n{\"title\":\" Data Analyst \",\"department\":\"Research\",\"type\":\"part time\",\"location\":\"Remote\",\"summary\":\"Analyse field data.\"}\n```"}
		f := &VertexFieldInferrer{model: gen, fallback: HeuristicFieldInferrer{}}

		fields, err := f.Infer(ctx, sampleMarkdown)
		require.NoError(t, err)
		assert.Equal(t, "Data Analyst", fields.Title)
		assert.Equal(t, "Part-time", fields.Type)
		assert.Equal(t, "Remote", fields.Location)
	})

	t.Run("long prompt is cut on a rune boundary", func(t *testing.T) {
		gen := &fakeGenerator{text: `{"title":"Mhandisi"}`}
		f := &VertexFieldInferrer{model: gen, fallback: HeuristicFieldInferrer{}}

		markdown := "a" + strings.Repeat("é", maxFieldPromptLength)
		_, err := f.Infer(ctx, markdown)
		require.NoError(t, err)

		require.Len(t, gen.parts, 1)
		prompt, ok := gen.parts[0].(genai.Text)
		require.True(t, ok)
		assert.True(t, utf8.ValidString(string(prompt)))
		assert.LessOrEqual(t, len(prompt), len(gcp.FieldsUserPrompt)+maxFieldPromptLength)
	})

	t.Run("malformed json falls back", func(t *testing.T) {
		f := &VertexFieldInferrer{model: &fakeGenerator{text: "not json"}, fallback: HeuristicFieldInferrer{}}
		fields, err := f.Infer(ctx, sampleMarkdown)
		require.NoError(t, err)
		assert.Equal(t, "Senior Backend Engineer", fields.Title)
	})

	t.Run("model error falls back", func(t *testing.T) {
		f := &VertexFieldInferrer{model: &fakeGenerator{err: errors.New("unavailable")}, fallback: HeuristicFieldInferrer{}}
		fields, err := f.Infer(ctx, sampleMarkdown)
		require.NoError(t, err)
		assert.Equal(t, "Engineering", fields.Department)
	})

	t.Run("empty markdown skips the model", func(t *testing.T) {
		gen := &fakeGenerator{text: `{"title":"x"}`}
		f := &VertexFieldInferrer{model: gen, fallback: HeuristicFieldInferrer{}}
		fields, err := f.Infer(ctx, "   ")
		require.NoError(t, err)
		assert.True(t, fields.IsEmpty())
		assert.Nil(t, gen.parts)
	})
}

func TestTruncateBytes(t *testing.T) {
	assert.Equal(t, "abc", truncateBytes("abc", 10))
	assert.Equal(t, "ab", truncateBytes("abc", 2))
	// "é" is two bytes; cutting at 2 would split it.
	assert.Equal(t, "a", truncateBytes("aé", 2))
	assert.Equal(t, "aé", truncateBytes("aéb", 3))
}
