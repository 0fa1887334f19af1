package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/headliner/internal/app"
	"github.com/hyperifyio/headliner/internal/generate"
	"github.com/hyperifyio/headliner/internal/template"
)

// options are command-line settings that never reach app.Config.
type options struct {
	configPath  string
	envFiles    string
	jsonLogs    bool
	showVersion bool
	listPrompts bool
}

func main() {
	cfg, opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Println(app.VersionString())
		return
	}
	if opts.listPrompts {
		listProfiles(os.Stdout)
		return
	}
	setupLogging(opts.jsonLogs, cfg.Verbose)

	if err := run(cfg, opts); err != nil {
		log.Error().Err(err).Msg("run failed")
		var ce *generate.ConfigError
		if errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, "hint: set LLM_API_KEY or DEEPSEEK_API_KEY (in the environment or .env) to a key starting with \"sk-\"")
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, out io.Writer) (app.Config, options, error) {
	var (
		cfg  app.Config
		opts options
	)
	fs := flag.NewFlagSet("headliner", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&opts.configPath, "config", "", "Path to YAML or JSON config file")
	fs.StringVar(&opts.envFiles, "env", "", "Comma-separated dotenv files (default .env)")
	fs.BoolVar(&opts.jsonLogs, "log.json", false, "Write JSON logs instead of console output")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&opts.listPrompts, "prompt.list", false, "List built-in prompt profiles and exit")

	fs.IntVar(&cfg.Port, "port", 0, "HTTP listen port (default 3000)")
	fs.StringVar(&cfg.StaticDir, "static.dir", "", "Serve a UI directory at /")
	fs.StringVar(&cfg.UploadDir, "upload.dir", "", "Directory for staged uploads (default OS temp dir)")
	fs.Float64Var(&cfg.RateLimit, "rate.limit", 0, "Max POST requests per second across clients; 0 disables")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown.timeout", 0, "Drain timeout on SIGINT/SIGTERM")

	fs.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL (default https://api.deepseek.com)")
	fs.StringVar(&cfg.LLMModel, "llm.model", "", "Model name (default deepseek-chat)")
	fs.StringVar(&cfg.LLMAPIKey, "llm.key", "", "API key for the model endpoint")
	fs.StringVar(&cfg.KeyPrefix, "llm.keyPrefix", "", "Required API key prefix (default sk-)")
	fs.Float64Var(&cfg.Temperature, "llm.temperature", 0, "Sampling temperature (default 0.8)")
	fs.IntVar(&cfg.MaxTokens, "llm.maxTokens", 0, "Max output tokens (default 2000)")
	fs.Float64Var(&cfg.TopP, "llm.topP", 0, "Nucleus sampling top_p (default 0.9)")
	fs.DurationVar(&cfg.LLMTimeout, "llm.timeout", 0, "Per-call upstream timeout (default 60s)")
	fs.IntVar(&cfg.MaxConcurrent, "llm.maxConcurrent", 0, "Max concurrent upstream calls; 0 is unlimited")
	fs.BoolVar(&cfg.Preflight, "llm.preflight", false, "List upstream models at startup")

	fs.StringVar(&cfg.PromptFile, "prompt.file", "", "Prompt template file containing {{content}}")
	fs.StringVar(&cfg.PromptProfile, "prompt.profile", "", "Built-in prompt profile: mimeng or english")

	fs.DurationVar(&cfg.FetchTimeout, "fetch.timeout", 0, "Per-request timeout for URL fetching (default 15s)")
	fs.StringVar(&cfg.UserAgent, "fetch.ua", "", "User-Agent for URL fetching")

	fs.StringVar(&cfg.CacheDir, "cache.dir", "", "Cache directory; empty disables caching")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear cache directory at startup")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.BoolVar(&cfg.CacheBypass, "cache.bypass", false, "Refetch pages without conditional requests (cache is still refreshed)")
	fs.BoolVar(&cfg.LLMCache, "cache.llm", false, "Cache generated titles by model and prompt")
	fs.Int64Var(&cfg.CacheMaxBytes, "cache.maxBytes", 0, "Evict least recently used entries above this size; 0 disables")
	fs.IntVar(&cfg.CacheMaxCount, "cache.maxCount", 0, "Evict least recently used entries above this count; 0 disables")

	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return cfg, opts, err
	}
	if s := strings.TrimSpace(opts.envFiles); s != "" {
		for _, p := range strings.Split(s, ",") {
			if v := strings.TrimSpace(p); v != "" {
				cfg.EnvFiles = append(cfg.EnvFiles, v)
			}
		}
	}
	return cfg, opts, nil
}

func listProfiles(w io.Writer) {
	for _, p := range template.Profiles() {
		fmt.Fprintf(w, "%-8s %s: %s\n", p.Type, p.Name, p.Description)
	}
}

func setupLogging(jsonLogs, verbose bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	if jsonLogs {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// resolveConfig loads dotenv files and the optional config file, then merges
// flags > env > file > defaults and validates the result.
func resolveConfig(flags app.Config, opts options) (app.Config, error) {
	envFiles := flags.EnvFiles
	if len(envFiles) == 0 {
		envFiles = app.DefaultEnvFiles
	}
	if err := app.LoadEnvFiles(envFiles...); err != nil {
		return flags, err
	}

	var fc *app.FileConfig
	if strings.TrimSpace(opts.configPath) != "" {
		loaded, err := app.LoadConfigFile(opts.configPath)
		if err != nil {
			return flags, fmt.Errorf("config file: %w", err)
		}
		fc = &loaded
	}
	cfg := app.Resolve(flags, fc)
	if err := app.ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func run(flags app.Config, opts options) error {
	cfg, err := resolveConfig(flags, opts)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Info().Str("version", app.BuildVersion).Str("commit", app.BuildCommit).Msg("starting headliner")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := a.ReloadCredential(); err != nil {
					log.Warn().Err(err).Msg("credential reload failed; keeping previous key")
				}
			}
		}
	}()

	return a.Run(ctx)
}
