package services

import (
	"context"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Trueleap/contentflow/internal/models"
	"github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/mock"
)

type MockPRService struct {
	mock.Mock
}

func (m *MockPRService) List(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error) {
	args := m.Called(ctx, owner, repo, opts)
	var resp *github.Response
	if r := args.Get(1); r != nil {
		resp = r.(*github.Response)
	}
	return args.Get(0).([]*github.PullRequest), resp, args.Error(2)
}

func (m *MockPRService) Create(ctx context.Context, owner, repo string, pull *github.NewPullRequest) (*github.PullRequest, *github.Response, error) {
	args := m.Called(ctx, owner, repo, pull)
	var pr *github.PullRequest
	if p := args.Get(0); p != nil {
		pr = p.(*github.PullRequest)
	}
	var resp *github.Response
	if r := args.Get(1); r != nil {
		resp = r.(*github.Response)
	}
	return pr, resp, args.Error(2)
}

type MockActionsService struct {
	mock.Mock
}

func (m *MockActionsService) ListRepositoryWorkflowRuns(ctx context.Context, owner, repo string, opts *github.ListWorkflowRunsOptions) (*github.WorkflowRuns, *github.Response, error) {
	args := m.Called(ctx, owner, repo, opts)
	var runs *github.WorkflowRuns
	if r := args.Get(0); r != nil {
		runs = r.(*github.WorkflowRuns)
	}
	return runs, nil, args.Error(2)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	args := m.Called(ctx, key, data, contentType, metadata)
	return args.Error(0)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) ToMarkdown(ctx context.Context, filename string, data []byte) (string, error) {
	args := m.Called(ctx, filename, data)
	return args.String(0), args.Error(1)
}

type MockFieldInferrer struct {
	mock.Mock
}

func (m *MockFieldInferrer) Infer(ctx context.Context, markdown string) (models.JobFields, error) {
	args := m.Called(ctx, markdown)
	return args.Get(0).(models.JobFields), args.Error(1)
}

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Record(ctx context.Context, doc models.UploadedDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

type MockDocumentIndex struct {
	mock.Mock
}

func (m *MockDocumentIndex) FindByHash(ctx context.Context, fileHash string) ([]string, error) {
	args := m.Called(ctx, fileHash)
	var ids []string
	if v := args.Get(0); v != nil {
		ids = v.([]string)
	}
	return ids, args.Error(1)
}

func (m *MockDocumentIndex) Upsert(ctx context.Context, docID string, fields map[string]interface{}) error {
	args := m.Called(ctx, docID, fields)
	return args.Error(0)
}

type MockObjectReader struct {
	mock.Mock
}

func (m *MockObjectReader) ReadObject(ctx context.Context, bucket, object string) ([]byte, error) {
	args := m.Called(ctx, bucket, object)
	var data []byte
	if v := args.Get(0); v != nil {
		data = v.([]byte)
	}
	return data, args.Error(1)
}

// fakeGenerator returns a canned model response.
type fakeGenerator struct {
	text  string
	err   error
	parts []genai.Part
}

func (f *fakeGenerator) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	if f.err != nil {
		return nil, f.err
	}
	if f.text == "" {
		return &genai.GenerateContentResponse{}, nil
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(f.text)}},
		}},
	}, nil
}
