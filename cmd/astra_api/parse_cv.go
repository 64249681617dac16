package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/monu322/ai-job-applier-app/internal/config"
	"github.com/monu322/ai-job-applier-app/internal/ingestion"
	"github.com/monu322/ai-job-applier-app/internal/llm"
	"github.com/monu322/ai-job-applier-app/internal/observability"
	"github.com/monu322/ai-job-applier-app/internal/pipeline"
)

var parseCVCmd = &cobra.Command{
	Use:   "parse-cv",
	Short: "Extract a structured candidate profile from a CV file",
	Long:  "Extract a CandidateProfile JSON from a PDF, DOCX, DOC or TXT CV with a single completion call. Nothing is saved to the database.",
	RunE:  runParseCV,
}

var (
	parseCVInput       string
	parseCVConfigPath  string
	parseCVTemperature float64
	parseCVFlags       config.Config
)

var defaultTemperature = pipeline.DefaultTemperature

// cliDefaults fill whatever neither flags nor the config file set.
var cliDefaults = config.Config{
	Provider:    config.LLMProviderGemini,
	Tier:        string(llm.TierStandard),
	MaxBytes:    pipeline.DefaultMaxInputBytes,
	Temperature: &defaultTemperature,
}

func init() {
	f := parseCVCmd.Flags()
	f.StringVarP(&parseCVInput, "in", "i", "", "Path to the CV file (required)")
	f.StringVarP(&parseCVFlags.Output, "out", "o", "", "Write the profile JSON to this file instead of stdout")
	f.StringVar(&parseCVConfigPath, "config", "", "Path to a JSON config file with defaults")
	f.StringVar(&parseCVFlags.Provider, "provider", "", "Completion provider: gemini or openai")
	f.StringVar(&parseCVFlags.APIKey, "api-key", "", "Provider API key (overrides GEMINI_API_KEY / OPENAI_API_KEY)")
	f.StringVar(&parseCVFlags.BaseURL, "base-url", "", "OpenAI-compatible endpoint")
	f.StringVar(&parseCVFlags.Model, "model", "", "Explicit model name")
	f.StringVar(&parseCVFlags.Tier, "tier", "", "Model tier: lite, standard or advanced")
	f.IntVar(&parseCVFlags.MaxBytes, "max-bytes", 0, "Largest accepted CV in bytes")
	f.Float64Var(&parseCVTemperature, "temperature", pipeline.DefaultTemperature, "Sampling temperature")
	f.BoolVarP(&parseCVFlags.Verbose, "verbose", "v", false, "Print progress and a profile summary to stderr")
	_ = parseCVCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(parseCVCmd)
}

func runParseCV(cmd *cobra.Command, _ []string) error {
	flags := parseCVFlags
	if cmd.Flags().Changed("temperature") {
		flags.Temperature = &parseCVTemperature
	}
	opts, err := resolveParseOptions(flags, parseCVConfigPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := llm.NewClient(ctx, cliLLMConfig(opts), opts.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}
	defer func() { _ = client.Close() }()

	return parseCVFile(ctx, client, opts, parseCVInput, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// resolveParseOptions layers flags over the config file over defaults, then
// fills the API key from the provider's environment variable.
func resolveParseOptions(flags config.Config, configPath string) (config.Config, error) {
	opts := flags
	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		opts = opts.MergeWithDefaults(*fileCfg)
		opts.Verbose = opts.Verbose || fileCfg.Verbose
	}
	opts = opts.MergeWithDefaults(cliDefaults)

	if err := opts.Validate(); err != nil {
		return config.Config{}, err
	}

	if opts.APIKey == "" {
		envVar := "GEMINI_API_KEY"
		if opts.Provider == config.LLMProviderOpenAI {
			envVar = "OPENAI_API_KEY"
		}
		opts.APIKey = os.Getenv(envVar)
		if opts.APIKey == "" {
			return config.Config{}, fmt.Errorf("API key is required (set %s environment variable or use --api-key flag)", envVar)
		}
	}
	return opts, nil
}

func cliLLMConfig(opts config.Config) *llm.Config {
	c := llm.ConfigForProvider(llm.Provider(opts.Provider))
	if opts.BaseURL != "" {
		c.BaseURL = opts.BaseURL
	}
	return c
}

// parseCVFile extracts the profile of the CV at path and writes it as
// indented JSON to opts.Output, or to stdout when no output is set.
func parseCVFile(ctx context.Context, client llm.Client, opts config.Config, path string, stdout, stderr io.Writer) error {
	doc, err := ingestion.ReadFile(path)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(stderr)
	var extractorOpts []pipeline.Option
	if opts.Verbose {
		extractorOpts = append(extractorOpts, pipeline.WithProgress(func(event pipeline.ProgressEvent) {
			printer.PrintStep(event.Step, event.Message)
		}))
	}

	cfg := pipeline.DefaultExtractorConfig()
	cfg.MaxInputBytes = opts.MaxBytes
	cfg.Tier = llm.ModelTier(opts.Tier)
	cfg.Model = opts.Model
	if opts.Temperature != nil {
		cfg.Temperature = float32(*opts.Temperature)
	}
	extractor, err := pipeline.NewExtractor(client, cfg, extractorOpts...)
	if err != nil {
		return err
	}

	profile, err := extractor.ExtractProfile(ctx, doc.Data, doc.Filename)
	if err != nil {
		return fmt.Errorf("failed to extract profile from %s: %w", path, err)
	}
	if opts.Verbose {
		printer.PrintCandidateProfile(profile)
	}

	jsonBytes, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if opts.Output == "" {
		_, err = fmt.Fprintln(stdout, string(jsonBytes))
		return err
	}
	if err := os.WriteFile(opts.Output, append(jsonBytes, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	_, _ = fmt.Fprintf(stderr, "Successfully parsed %s\nOutput: %s\n", path, opts.Output)
	return nil
}
