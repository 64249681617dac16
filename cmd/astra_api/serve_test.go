package main

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monu322/ai-job-applier-app/internal/config"
	"github.com/monu322/ai-job-applier-app/internal/llm"
	"github.com/monu322/ai-job-applier-app/internal/pipeline"
	"github.com/monu322/ai-job-applier-app/internal/server"
)

func TestLLMConfig(t *testing.T) {
	c := llmConfig(config.LLMConfig{Provider: config.LLMProviderGemini, Model: "gemini-exp"})
	assert.Equal(t, llm.ProviderGemini, c.Provider)
	assert.Equal(t, "gemini-exp", c.GetModel(llm.TierStandard))

	c = llmConfig(config.LLMConfig{Provider: config.LLMProviderOpenAI, OpenAIBaseURL: "http://proxy/v1"})
	assert.Equal(t, llm.ProviderOpenAI, c.Provider)
	assert.Equal(t, "http://proxy/v1", c.BaseURL)
	assert.Equal(t, llm.DefaultOpenAIConfig().GetModel(llm.TierStandard), c.GetModel(llm.TierStandard))
}

func TestExtractorConfig(t *testing.T) {
	cfg := &config.ServerConfig{Extraction: config.ExtractionConfig{MaxBytes: 1024, Temperature: 0.5, MaxOutputTokens: 300}}
	got := extractorConfig(cfg)

	assert.Equal(t, 1024, got.MaxInputBytes)
	assert.Equal(t, llm.TierStandard, got.Tier)
	assert.InDelta(t, 0.5, got.Temperature, 1e-6)
	assert.Equal(t, int32(300), got.MaxOutputTokens)
}

func TestExtractorConfig_ZeroTemperature(t *testing.T) {
	t.Setenv("CV_TEMPERATURE", "0")
	t.Setenv("JWT_SECRET", "secret")
	cfg, err := config.LoadServerConfig()
	require.NoError(t, err)

	extractor, err := pipeline.NewExtractor(&stubClient{}, extractorConfig(cfg))
	require.NoError(t, err)
	assert.Zero(t, extractor.Config().Temperature)
}

func TestBlobStore_Disabled(t *testing.T) {
	store, err := blobStore(t.Context(), config.StorageConfig{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestIdentityProvider(t *testing.T) {
	jwtService := server.NewJWTService("secret", time.Hour)

	local := identityProvider(config.AuthConfig{Provider: config.AuthProviderLocal}, nil, jwtService)
	assert.IsType(t, &server.LocalProvider{}, local)

	remote := identityProvider(config.AuthConfig{Provider: config.AuthProviderSupabase, SupabaseURL: "https://x.supabase.co"}, nil, jwtService)
	assert.IsType(t, &server.GoTrueProvider{}, remote)
}
