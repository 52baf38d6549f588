package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"smellfix/internal/archive"
	"smellfix/internal/config"
	"smellfix/internal/llm"
	"smellfix/internal/pipeline/smell"
	"smellfix/internal/procexec"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// execCommand runs every external tool (git, pmd, mvn, the driver). Tests
// swap it for a fake.
var execCommand procexec.Executor = procexec.Exec

var cfgFile string

// newFakeLLM backs --llm-provider=fake.
var newFakeLLM = func() llm.LLMClient { return llm.NewFakeClient() }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "smellfix",
		Short:         "Detect and refactor design smells with Gemini, then open a pull request",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "Path to a smellfix config file (YAML or JSON)")
	pf.String(flag("llm.provider"), defaultString("llm.provider"), "Model provider: gemini or fake (offline)")
	pf.String(flag("llm.model"), defaultString("llm.model"), "Gemini model id")
	pf.String(flag("github.base_url"), "", "GitHub API base URL (GitHub Enterprise)")

	root.AddCommand(newRunCmd(), newWatchCmd(), newCCNReportCmd(), newConfigCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the smellfix version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "smellfix %s\n", version)
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.Options{ConfigFile: cfgFile, Cmd: cmd})
}

func flag(key string) string { return config.FlagName(key) }

func defaultString(key string) string {
	if v, ok := config.Defaults[key].(string); ok {
		return v
	}
	return ""
}

// buildLLM returns the configured model client wrapped as
// logging -> hooks -> cache -> rate limit -> retry -> provider.
func buildLLM(ctx context.Context, cfg *config.Config) (llm.LLMClient, error) {
	var base llm.LLMClient
	switch strings.ToLower(strings.TrimSpace(cfg.LLM.Provider)) {
	case "fake":
		base = newFakeLLM()
	case "", "gemini":
		g, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.JSONMode)
		if err != nil {
			return nil, err
		}
		base = g
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
	return llm.Wrap(base,
		llm.WithLogging(log.Default()),
		llm.WithHooks(),
		llm.Cache(cacheOptions(cfg)),
		llm.RateLimitFromEnv("LLM", "GEMINI"),
		llm.Retry(cfg.LLM.RetryAttempts, cfg.LLM.RetryBaseDelay),
	), nil
}

// cacheOptions keeps only replies the pipeline can use. The offline fake
// provider is never cached on disk.
func cacheOptions(cfg *config.Config) llm.CacheOptions {
	opts := llm.CacheOptions{Size: cfg.LLM.CacheSize, Dir: cfg.LLM.CacheDir, Accept: smell.AcceptReply}
	if strings.EqualFold(strings.TrimSpace(cfg.LLM.Provider), "fake") {
		opts.Dir = ""
	}
	return opts
}

// openArchive returns nil when no archive endpoint is configured or the
// store cannot be built; archiving is never fatal.
func openArchive(cfg *config.Config) archive.Store {
	a := cfg.Archive
	s3 := archive.S3Config{
		Endpoint:  a.Endpoint,
		Region:    a.Region,
		AccessKey: a.AccessKey,
		SecretKey: a.SecretKey,
		Bucket:    a.Bucket,
		Prefix:    a.Prefix,
		UseSSL:    a.UseSSL,
	}
	if !s3.Enabled() {
		return nil
	}
	store, err := newArchiveStore(s3)
	if err != nil {
		log.Printf("[archive] warn: disabled: %v", err)
		return nil
	}
	return store
}

var newArchiveStore = func(cfg archive.S3Config) (archive.Store, error) {
	return archive.NewS3Store(cfg)
}
