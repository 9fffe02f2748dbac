// Package config loads the service configuration from an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/Trueleap/contentflow/internal/gcp"
	"gopkg.in/yaml.v3"
)

const (
	ExtractorVertex = "vertex"
	ExtractorLocal  = "local"

	FieldInferenceHeuristic = "heuristic"
	FieldInferenceVertex    = "vertex"

	DefaultMaxUploadBytes = int64(20 * 1024 * 1024)
)

// Configuration validation errors.
var (
	ErrInvalidPort           = errors.New("server.port must be a number between 1 and 65535")
	ErrInvalidLogLevel       = errors.New("server.log_level must be one of: debug, info, warn, error")
	ErrInvalidExtractor      = errors.New("extraction.extractor must be 'vertex' or 'local'")
	ErrInvalidFieldInference = errors.New("extraction.field_inference must be 'heuristic' or 'vertex'")
	ErrMissingProjectID      = errors.New("gcp.project_id is required when vertex or firestore is used")
	ErrInvalidMaxUpload      = errors.New("storage.max_upload_bytes must be positive")
	ErrInvalidPrefix         = errors.New("storage.pdf_prefix must not start or end with '/'")
	ErrInvalidRepo           = errors.New("github.repo must be in 'owner/name' form")
	ErrInvalidBaseBranch     = errors.New("github.base_branch is required")
	ErrInvalidUpstream       = errors.New("cms.upstream must be an absolute URL")
)

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	GCP        GCPConfig        `yaml:"gcp"`
	Storage    StorageConfig    `yaml:"storage"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Registry   RegistryConfig   `yaml:"registry"`
	GitHub     GitHubConfig     `yaml:"github"`
	CMS        CMSConfig        `yaml:"cms"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        string   `yaml:"port"`
	Environment string   `yaml:"environment"`
	LogLevel    string   `yaml:"log_level"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// GCPConfig contains settings shared by the Google Cloud clients.
type GCPConfig struct {
	ProjectID       string `yaml:"project_id"`
	VertexAIRegion  string `yaml:"vertex_ai_region"`
	VertexModel     string `yaml:"vertex_model"`
	CredentialsFile string `yaml:"credentials_file"`
}

// StorageConfig describes where uploaded PDFs go.
type StorageConfig struct {
	PDFBucket      string `yaml:"pdf_bucket"`
	PDFPrefix      string `yaml:"pdf_prefix"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// ExtractionConfig selects the extraction and field inference backends.
type ExtractionConfig struct {
	Extractor      string `yaml:"extractor"`
	FieldInference string `yaml:"field_inference"`
}

// RegistryConfig describes the Firestore document registry. An empty
// collection disables it.
type RegistryConfig struct {
	Collection string `yaml:"collection"`
}

// GitHubConfig holds the source-hosting credentials. The token never leaves the server.
type GitHubConfig struct {
	Token       string `yaml:"token"`
	Repo        string `yaml:"repo"`
	BaseBranch  string `yaml:"base_branch"`
	DeployEvent string `yaml:"deploy_event"`
}

// CMSConfig describes the proxied CMS. TokenCookie hands the GitHub token
// to the editor as a cookie and is off unless set.
type CMSConfig struct {
	Upstream    string `yaml:"upstream"`
	TokenCookie bool   `yaml:"token_cookie"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Environment: "development",
			LogLevel:    "info",
		},
		GCP: GCPConfig{
			VertexAIRegion: "us-central1",
			VertexModel:    "gemini-1.5-pro",
		},
		Storage: StorageConfig{
			PDFPrefix:      "job-pdfs",
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
		Extraction: ExtractionConfig{
			Extractor:      ExtractorVertex,
			FieldInference: FieldInferenceHeuristic,
		},
		GitHub: GitHubConfig{
			Repo:        "Trueleap/trueleap-inc",
			BaseBranch:  "main",
			DeployEvent: "repository_dispatch",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Environment, "ENVIRONMENT")
	setString(&c.Server.LogLevel, "LOG_LEVEL")
	if v := gcp.GetEnv("CORS_ORIGINS", ""); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	setString(&c.GCP.ProjectID, "PROJECT_ID")
	setString(&c.GCP.VertexAIRegion, "VERTEX_AI_REGION")
	setString(&c.GCP.VertexModel, "VERTEX_MODEL")
	setString(&c.GCP.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")

	setString(&c.Storage.PDFBucket, "PDF_BUCKET")
	setString(&c.Storage.PDFPrefix, "PDF_PREFIX")
	if v := gcp.GetEnv("MAX_UPLOAD_BYTES", ""); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		c.Storage.MaxUploadBytes = n
	}

	setString(&c.Extraction.Extractor, "EXTRACTOR")
	setString(&c.Extraction.FieldInference, "FIELD_INFERENCE")

	setString(&c.Registry.Collection, "FIRESTORE_COLLECTION")

	setString(&c.GitHub.Token, "GITHUB_TOKEN")
	setString(&c.GitHub.Repo, "GITHUB_REPO")
	setString(&c.GitHub.BaseBranch, "GITHUB_BASE_BRANCH")
	setString(&c.GitHub.DeployEvent, "GITHUB_DEPLOY_EVENT")

	setString(&c.CMS.Upstream, "CMS_UPSTREAM")
	if v := gcp.GetEnv("CMS_TOKEN_COOKIE", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CMS_TOKEN_COOKIE: %w", err)
		}
		c.CMS.TokenCookie = b
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return ErrInvalidPort
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return ErrInvalidLogLevel
	}

	switch c.Extraction.Extractor {
	case ExtractorVertex, ExtractorLocal:
	default:
		return ErrInvalidExtractor
	}

	switch c.Extraction.FieldInference {
	case FieldInferenceHeuristic, FieldInferenceVertex:
	default:
		return ErrInvalidFieldInference
	}

	if c.UsesVertex() || c.Registry.Collection != "" {
		if c.GCP.ProjectID == "" {
			return ErrMissingProjectID
		}
	}

	if c.Storage.MaxUploadBytes <= 0 {
		return ErrInvalidMaxUpload
	}

	if strings.HasPrefix(c.Storage.PDFPrefix, "/") || strings.HasSuffix(c.Storage.PDFPrefix, "/") {
		return ErrInvalidPrefix
	}

	if owner, name := c.GitHub.Owner(), c.GitHub.Name(); owner == "" || name == "" {
		return ErrInvalidRepo
	}

	if c.GitHub.BaseBranch == "" {
		return ErrInvalidBaseBranch
	}

	if c.CMS.Upstream != "" {
		u, err := url.Parse(c.CMS.Upstream)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return ErrInvalidUpstream
		}
	}

	return nil
}

// UsesVertex reports whether any configured backend needs a Vertex AI client.
func (c *Config) UsesVertex() bool {
	return c.Extraction.Extractor == ExtractorVertex || c.Extraction.FieldInference == FieldInferenceVertex
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Owner returns the repository owner from "owner/name".
func (g GitHubConfig) Owner() string {
	owner, _, ok := strings.Cut(g.Repo, "/")
	if !ok {
		return ""
	}
	return owner
}

// Name returns the repository name from "owner/name".
func (g GitHubConfig) Name() string {
	_, name, ok := strings.Cut(g.Repo, "/")
	if !ok || strings.Contains(name, "/") {
		return ""
	}
	return name
}

// String returns a representation of the config without secrets.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %s, Env: %s, Bucket: %s, Extractor: %s, Fields: %s, Repo: %s, GitHubToken: %t, CMS: %s}",
		c.Server.Port,
		c.Server.Environment,
		c.Storage.PDFBucket,
		c.Extraction.Extractor,
		c.Extraction.FieldInference,
		c.GitHub.Repo,
		c.GitHub.Token != "",
		c.CMS.Upstream,
	)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
