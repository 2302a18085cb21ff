package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mmgreduce/pkg/buildinfo"
	"github.com/matzehuels/mmgreduce/pkg/cache"
	"github.com/matzehuels/mmgreduce/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "mmgreduce"

	// artifactSuffix is appended to the edge table name when no output path
	// is given.
	artifactSuffix = ".reduced.json"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by the persistent --config flag.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "mmgreduce reduces investigation graphs to social networks",
		Long: `mmgreduce turns a multivariate multigraph of people, phones, cars, addresses
and other entities into a weighted social network between the people, keeping
for every derived link the original evidence it was built from.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./"+pipeline.DefaultConfigFile+" if present)")

	// Register all subcommands
	root.AddCommand(c.reduceCommand())
	root.AddCommand(c.reweightCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig reads the --config file, or mmgreduce.toml in the working
// directory when it exists. Without either it returns an empty config.
func (c *CLI) loadConfig() (*pipeline.Config, error) {
	path := c.configPath
	if path == "" {
		if _, err := os.Stat(pipeline.DefaultConfigFile); errors.Is(err, os.ErrNotExist) {
			return &pipeline.Config{}, nil
		}
		path = pipeline.DefaultConfigFile
	}
	cfg, err := pipeline.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", path)
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg *pipeline.Config, noCache bool) (*pipeline.Runner, error) {
	store, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	if nc, ok := store.(*cache.NullCache); ok {
		c.Logger.Debug(nc.String())
	}
	runner := pipeline.NewRunner(store, cfg.Cache.Keyer(), c.Logger)
	if runner.TTL, err = cfg.Cache.TTLDuration(); err != nil {
		runner.Close()
		return nil, err
	}
	return runner, nil
}

func newCache(ctx context.Context, cfg pipeline.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache("--no-cache"), nil
	}
	dir, err := cacheDir()
	if err != nil {
		dir = ""
	}
	return pipeline.OpenCache(ctx, cfg, dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mmgreduce/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// defaultOutput derives the artifact path from the edge table path.
func defaultOutput(edgesPath string) string {
	base := edgesPath[:len(edgesPath)-len(filepath.Ext(edgesPath))]
	return base + artifactSuffix
}
