// Package config loads smellfix settings from defaults, an optional config
// file, the environment (.env included) and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override (SMELLFIX_LLM_MODEL, ...).
const EnvPrefix = "SMELLFIX"

type Config struct {
	Source     SourceConfig     `mapstructure:"source" yaml:"source"`
	LLM        LLMConfig        `mapstructure:"llm" yaml:"llm"`
	Analyzer   AnalyzerConfig   `mapstructure:"analyzer" yaml:"analyzer"`
	GitHub     GitHubConfig     `mapstructure:"github" yaml:"github"`
	Publish    PublishConfig    `mapstructure:"publish" yaml:"publish"`
	Watch      WatchConfig      `mapstructure:"watch" yaml:"watch"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint" yaml:"checkpoint"`
	Archive    ArchiveConfig    `mapstructure:"archive" yaml:"archive"`
	Verify     bool             `mapstructure:"verify" yaml:"verify"`
}

type SourceConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
	Ext  string `mapstructure:"ext" yaml:"ext"`
}

type LLMConfig struct {
	// Provider is "gemini" or "fake" (offline, no model calls).
	Provider       string        `mapstructure:"provider" yaml:"provider"`
	Model          string        `mapstructure:"model" yaml:"model"`
	APIKey         string        `mapstructure:"api_key" yaml:"api_key"`
	JSONMode       bool          `mapstructure:"json_mode" yaml:"json_mode"`
	CacheSize      int           `mapstructure:"cache_size" yaml:"cache_size"`
	CacheDir       string        `mapstructure:"cache_dir" yaml:"cache_dir"`
	RetryAttempts  int           `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
	// PromptDir, when set, receives every prompt and raw reply.
	PromptDir string `mapstructure:"prompt_dir" yaml:"prompt_dir"`
}

type AnalyzerConfig struct {
	Tool    string `mapstructure:"tool" yaml:"tool"`
	Bin     string `mapstructure:"bin" yaml:"bin"`
	Ruleset string `mapstructure:"ruleset" yaml:"ruleset"`
	Report  string `mapstructure:"report" yaml:"report"`
}

type GitHubConfig struct {
	Token   string `mapstructure:"token" yaml:"token"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

type PublishConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Repo      string `mapstructure:"repo" yaml:"repo"`
	RepoDir   string `mapstructure:"repo_dir" yaml:"repo_dir"`
	Remote    string `mapstructure:"remote" yaml:"remote"`
	Branch    string `mapstructure:"branch" yaml:"branch"`
	GuardHead string `mapstructure:"guard_head" yaml:"guard_head"`
	Head      string `mapstructure:"head" yaml:"head"`
	Base      string `mapstructure:"base" yaml:"base"`
}

type WatchConfig struct {
	Repo     string        `mapstructure:"repo" yaml:"repo"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	// Command is the argv spawned on a new commit; empty means "<self> run".
	Command []string `mapstructure:"command" yaml:"command"`
	Dir     string   `mapstructure:"dir" yaml:"dir"`
}

type CheckpointConfig struct {
	Store string `mapstructure:"store" yaml:"store"`
	Path  string `mapstructure:"path" yaml:"path"`
	DSN   string `mapstructure:"dsn" yaml:"dsn"`
}

type ArchiveConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Region    string `mapstructure:"region" yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

// Defaults lists every key; flag and env names derive from them.
var Defaults = map[string]any{
	"source.root":          "./check_repo",
	"source.ext":           ".java",
	"llm.provider":         "gemini",
	"llm.model":            "gemini-2.5-flash",
	"llm.api_key":          "",
	"llm.json_mode":        false,
	"llm.cache_size":       256,
	"llm.cache_dir":        ".smellfix/llm-cache",
	"llm.retry_attempts":   1,
	"llm.retry_base_delay": 2 * time.Second,
	"llm.prompt_dir":       "",
	"analyzer.tool":        "pmd",
	"analyzer.bin":         "",
	"analyzer.ruleset":     "",
	"analyzer.report":      "",
	"github.token":         "",
	"github.base_url":      "",
	"publish.enabled":      true,
	"publish.repo":         "mananchichra/osa-shell",
	"publish.repo_dir":     "./check_repo",
	"publish.remote":       "origin",
	"publish.branch":       "refactor-branch3",
	"publish.guard_head":   "refactor-branch3",
	"publish.head":         "refactor-branch",
	"publish.base":         "main",
	"watch.repo":           "mananchichra/distributed_ddes",
	"watch.interval":       100 * time.Second,
	"watch.command":        []string{},
	"watch.dir":            "",
	"checkpoint.store":     "file",
	"checkpoint.path":      ".smellfix/checkpoint.json",
	"checkpoint.dsn":       "",
	"archive.endpoint":     "",
	"archive.region":       "us-east-1",
	"archive.access_key":   "",
	"archive.secret_key":   "",
	"archive.bucket":       "smellfix-runs",
	"archive.prefix":       "runs",
	"archive.use_ssl":      false,
	"verify":               false,
}

// extraEnv lists well-known variable names accepted next to SMELLFIX_*.
var extraEnv = map[string][]string{
	"llm.api_key":        {"GEMINI_API_KEY"},
	"github.token":       {"GITHUB_TOKEN"},
	"checkpoint.dsn":     {"DATABASE_URL"},
	"archive.endpoint":   {"ARTIFACT_S3_ENDPOINT"},
	"archive.region":     {"ARTIFACT_S3_REGION"},
	"archive.access_key": {"ARTIFACT_S3_ACCESS_KEY", "MINIO_ROOT_USER"},
	"archive.secret_key": {"ARTIFACT_S3_SECRET_KEY", "MINIO_ROOT_PASSWORD"},
	"archive.bucket":     {"ARTIFACT_S3_BUCKET"},
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an explicit YAML/JSON file; it must exist when set.
	ConfigFile string
	// SearchDir is checked for smellfix.yaml/json when ConfigFile is empty.
	SearchDir string
	// DotEnv files to load; nil loads ".env" if present.
	DotEnv []string
	// Cmd binds flags named like keys with '.' and '_' replaced by '-'
	// (source.root -> --source-root).
	Cmd *cobra.Command
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	_ = godotenv.Load(opts.DotEnv...)

	v := viper.New()
	for k, val := range Defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range extraEnv {
		envs := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	if err := readFile(v, opts); err != nil {
		return nil, err
	}
	if opts.Cmd != nil {
		bindFlags(v, opts.Cmd)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Watch.Command = splitCommand(cfg.Watch.Command)
	return &cfg, nil
}

func readFile(v *viper.Viper, opts Options) error {
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", opts.ConfigFile, err)
		}
		return nil
	}
	dir := opts.SearchDir
	if dir == "" {
		dir = "."
	}
	v.SetConfigName("smellfix")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	flags := cmd.Flags()
	for key := range Defaults {
		name := FlagName(key)
		if f := flags.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// FlagName maps a config key to its command-line flag name.
func FlagName(key string) string {
	return strings.NewReplacer(".", "-", "_", "-").Replace(key)
}

// splitCommand accepts either a proper list or a single shell-ish string
// coming from the environment ("smellfix run --verify").
func splitCommand(argv []string) []string {
	if len(argv) == 1 {
		return strings.Fields(argv[0])
	}
	return argv
}

// RequireModel fails when the configured provider needs a key that is missing.
func (c *Config) RequireModel() error {
	if strings.EqualFold(c.LLM.Provider, "gemini") && strings.TrimSpace(c.LLM.APIKey) == "" {
		return errors.New("config: GEMINI_API_KEY is not set (or use --llm-provider=fake)")
	}
	return nil
}

// RequireGitHub fails when no hosting token is configured.
func (c *Config) RequireGitHub() error {
	if strings.TrimSpace(c.GitHub.Token) == "" {
		return errors.New("config: GITHUB_TOKEN is not set")
	}
	return nil
}

const masked = "****"

// Redacted returns a copy with credentials masked.
func (c Config) Redacted() Config {
	mask := func(s *string) {
		if strings.TrimSpace(*s) != "" {
			*s = masked
		}
	}
	mask(&c.LLM.APIKey)
	mask(&c.GitHub.Token)
	mask(&c.Checkpoint.DSN)
	mask(&c.Archive.AccessKey)
	mask(&c.Archive.SecretKey)
	c.Watch.Command = append([]string{}, c.Watch.Command...)
	return c
}

// YAML renders the redacted configuration in the config file format.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}
