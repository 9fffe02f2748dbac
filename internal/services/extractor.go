package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Trueleap/contentflow/internal/gcp"
	"github.com/Trueleap/contentflow/internal/logger"
	"github.com/ledongthuc/pdf"
)

// Extractor converts PDF bytes to markdown. An empty result is not an error.
type Extractor interface {
	ToMarkdown(ctx context.Context, filename string, data []byte) (string, error)
}

// contentGenerator is the part of *genai.GenerativeModel the services use.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// VertexExtractor sends the PDF inline to a Gemini model on Vertex AI.
type VertexExtractor struct {
	model contentGenerator
}

var _ Extractor = (*VertexExtractor)(nil)

// NewVertexExtractor uses the client's pre-configured extractor model.
func NewVertexExtractor(client *gcp.VertexClient) *VertexExtractor {
	return &VertexExtractor{model: client.ExtractorModel}
}

// ToMarkdown returns the markdown of the first candidate, or "" if the model returned none.
func (e *VertexExtractor) ToMarkdown(ctx context.Context, filename string, data []byte) (string, error) {
	log := logger.FromContext(ctx).With("filename", filename, "sizeBytes", len(data))

	resp, err := e.model.GenerateContent(ctx,
		genai.Blob{MIMEType: PDFContentType, Data: data},
		genai.Text(gcp.ExtractorUserPrompt),
	)
	if err != nil {
		log.Error("Call to Vertex AI for extraction failed", "error", err)
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}

	markdown := firstCandidateText(resp, "markdown")

	// Sanity check for LLM refusal. If the model refuses to answer, we must fail fast.
	if isRefusal(markdown) {
		log.Error("LLM refusal detected", "response", markdown)
		return "", fmt.Errorf("gemini response indicates refusal to convert %s", filename)
	}

	if markdown == "" {
		log.Warn("No markdown content extracted from response.")
	}
	return markdown, nil
}

// LocalExtractor extracts plain text with ledongthuc/pdf. It needs no
// credentials and is meant for development.
type LocalExtractor struct{}

var _ Extractor = LocalExtractor{}

// ToMarkdown returns the document's plain text with runs of blank lines collapsed.
func (LocalExtractor) ToMarkdown(ctx context.Context, filename string, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", filename, err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting plain text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("reading text buffer: %w", err)
	}

	return collapseBlankLines(buf.String()), nil
}

// firstCandidateText concatenates the text parts of the first candidate and
// strips a surrounding code fence labeled fence (or unlabeled).
func firstCandidateText(resp *genai.GenerateContentResponse, fence string) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return stripCodeFence(sb.String(), fence)
}

func stripCodeFence(s, fence string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```"+fence)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isRefusal(s string) bool {
	lower := strings.ToLower(s)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func collapseBlankLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
