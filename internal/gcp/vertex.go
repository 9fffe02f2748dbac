package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// --- Extractor Model Prompts ---
const ExtractorSystemPrompt = "You are a document parser and markdown translator. Your task is to convert a job posting PDF into clean markdown. Accuracy and information preservation are of utmost importance."
const ExtractorUserPrompt = `You will be provided with a PDF document containing a job posting.

Follow these instructions to convert it into markdown:

Text: Parse all text content directly into markdown text. Use a level-one heading for the job title.
Lists: Parse all lists into markdown lists, keeping responsibilities and requirements as separate lists.
Labeled details: Keep details such as department, employment type and location as "Label: value" lines.
Tables: Parse all tables into markdown tables.
Headers and Footers: Ignore page numbers, logos and repeated letterhead.

Return ONLY the markdown content. Do not include any preamble.`

// --- Field Inference Model Prompts ---
const FieldsSystemPrompt = "You are a job posting analysis tool. You read a job posting in markdown and return its key fields as a JSON object."
const FieldsUserPrompt = `Read the job posting below and return a single JSON object with exactly these keys:
- "title": the job title
- "department": the team or department
- "type": the employment type, e.g. "Full-time", "Part-time", "Contract", "Internship"
- "location": the work location or "Remote"
- "summary": one or two sentences summarizing the role

Use an empty string for any field the posting does not state. Do not invent values.

Job posting:
`

// VertexClient holds the pre-configured generative models used by the pipeline.
type VertexClient struct {
	ExtractorModel *genai.GenerativeModel
	FieldsModel    *genai.GenerativeModel
	baseClient     *genai.Client
}

// NewVertexClient creates a new client holding all necessary models.
func NewVertexClient(ctx context.Context, projectID, region, modelName, credentialsFile string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}

	baseClient, err := genai.NewClient(ctx, projectID, region, ClientOptions(credentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	extractorModel := baseClient.GenerativeModel(modelName)
	extractorModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ExtractorSystemPrompt)},
	}

	fieldsModel := baseClient.GenerativeModel(modelName)
	fieldsModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(FieldsSystemPrompt)},
	}
	fieldsModel.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	return &VertexClient{
		ExtractorModel: extractorModel,
		FieldsModel:    fieldsModel,
		baseClient:     baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
