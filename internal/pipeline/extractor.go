// Package pipeline orchestrates CV extraction: document text, prompt,
// a single completion call and the validated CandidateProfile.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/monu322/ai-job-applier-app/internal/ingestion"
	"github.com/monu322/ai-job-applier-app/internal/llm"
	"github.com/monu322/ai-job-applier-app/internal/parsing"
	"github.com/monu322/ai-job-applier-app/internal/types"
)

// Defaults applied by NewExtractor to zero Config fields. Temperature has
// no zero default because 0 is a valid setting; it is only set by
// DefaultExtractorConfig.
const (
	DefaultMaxInputBytes   = 5 << 20
	DefaultTemperature     = 0.3
	DefaultMaxOutputTokens = 2000
)

// Progress steps reported through WithProgress.
const (
	StepIngest   = "ingest_cv"
	StepPrompt   = "build_prompt"
	StepComplete = "complete"
	StepParse    = "parse_profile"
)

// ProgressEvent represents a progress update during extraction
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when extraction progress occurs
type ProgressCallback func(event ProgressEvent)

// Config holds the extraction limits and completion parameters.
type Config struct {
	MaxInputBytes   int
	Tier            llm.ModelTier
	Model           string // overrides the tier's model when set
	Temperature     float32 // sent as given
	MaxOutputTokens int32
}

// DefaultExtractorConfig returns the defaults used for CV extraction.
func DefaultExtractorConfig() Config {
	return Config{
		MaxInputBytes:   DefaultMaxInputBytes,
		Tier:            llm.TierStandard,
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultExtractorConfig()
	if c.MaxInputBytes <= 0 {
		c.MaxInputBytes = d.MaxInputBytes
	}
	if c.Tier == "" {
		c.Tier = d.Tier
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = d.MaxOutputTokens
	}
	return c
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithProgress registers a callback invoked once per completed stage.
func WithProgress(fn ProgressCallback) Option {
	return func(e *Extractor) { e.onProgress = fn }
}

// WithLogger sets the logger used by the extractor and its parser.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// Extractor turns CV documents or text into a CandidateProfile.
// It is stateless per call and safe for concurrent use.
type Extractor struct {
	client     llm.Client
	config     Config
	parser     *parsing.Parser
	logger     zerolog.Logger
	onProgress ProgressCallback
}

// NewExtractor builds an Extractor around a completion client.
func NewExtractor(client llm.Client, cfg Config, opts ...Option) (*Extractor, error) {
	if client == nil {
		return nil, errors.New("completion client is required")
	}
	e := &Extractor{
		client: client,
		config: cfg.withDefaults(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	parser, err := parsing.NewParser(parsing.CandidateProfileSchema(), e.logger)
	if err != nil {
		return nil, err
	}
	e.parser = parser
	return e, nil
}

// Config returns the effective configuration.
func (e *Extractor) Config() Config {
	return e.config
}

func (e *Extractor) emit(step, message string, content any) {
	if e.onProgress != nil {
		e.onProgress(ProgressEvent{Step: step, Message: message, Content: content})
	}
}

// ExtractProfile extracts a CandidateProfile from an uploaded CV.
// The format is taken from filename's extension. Errors are
// *ingestion.UnsupportedFormatError, *PayloadTooLargeError,
// *ingestion.UnreadableDocumentError, *CompletionUnavailableError,
// *parsing.MalformedResponseError or *parsing.IncompleteExtractionError.
func (e *Extractor) ExtractProfile(ctx context.Context, data []byte, filename string) (*types.CandidateProfile, error) {
	format, err := ingestion.FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}
	if len(data) > e.config.MaxInputBytes {
		return nil, &PayloadTooLargeError{Size: len(data), Limit: e.config.MaxInputBytes}
	}

	text, err := ingestion.Extract(ctx, data, format)
	if err != nil {
		return nil, err
	}
	// Compressed formats can expand well past the upload size.
	if len(text) > e.config.MaxInputBytes {
		return nil, &PayloadTooLargeError{Size: len(text), Limit: e.config.MaxInputBytes}
	}
	e.logger.Debug().
		Str("filename", filename).
		Str("format", string(format)).
		Int("bytes", len(data)).
		Int("chars", len(text)).
		Msg("extracted CV text")
	e.emit(StepIngest, fmt.Sprintf("Extracted %d characters from %s", len(text), format), nil)

	return e.extract(ctx, text)
}

// ExtractFromText extracts a CandidateProfile from CV text pasted by the
// user. The same size ceiling applies.
func (e *Extractor) ExtractFromText(ctx context.Context, text string) (*types.CandidateProfile, error) {
	if len(text) > e.config.MaxInputBytes {
		return nil, &PayloadTooLargeError{Size: len(text), Limit: e.config.MaxInputBytes}
	}
	text = ingestion.CleanText(text)
	e.emit(StepIngest, fmt.Sprintf("Received %d characters of CV text", len(text)), nil)

	return e.extract(ctx, text)
}

func (e *Extractor) extract(ctx context.Context, text string) (*types.CandidateProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CompletionUnavailableError{Cause: err}
	}

	prompt := parsing.BuildPrompt(text)
	e.emit(StepPrompt, "Built extraction prompt", nil)

	start := time.Now()
	raw, err := e.client.Complete(ctx, llm.CompletionRequest{
		Model:           e.config.Model,
		Tier:            e.config.Tier,
		System:          prompt.System,
		Prompt:          prompt.User,
		Temperature:     e.config.Temperature,
		MaxOutputTokens: e.config.MaxOutputTokens,
		JSONMode:        true,
	})
	if err != nil {
		return nil, &CompletionUnavailableError{Cause: err}
	}
	e.logger.Debug().
		Dur("elapsed", time.Since(start)).
		Int("reply_chars", len(raw)).
		Msg("completion returned")
	e.emit(StepComplete, "Received completion", nil)

	profile, err := e.parser.Parse(raw)
	if err != nil {
		e.logger.Warn().Err(err).Str("reply", truncate(raw, 500)).Msg("failed to parse completion")
		return nil, err
	}
	e.emit(StepParse, fmt.Sprintf("Parsed profile: %s, %s", profile.Name, profile.Title), profile)
	return profile, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "") + "..."
}
