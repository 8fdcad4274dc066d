// Package cli implements the color-validator-mcp command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ironsheep/color-validator-mcp/internal/analysis"
	"github.com/ironsheep/color-validator-mcp/internal/config"
	"github.com/ironsheep/color-validator-mcp/internal/imaging"
	"github.com/ironsheep/color-validator-mcp/internal/logging"
	"github.com/ironsheep/color-validator-mcp/internal/store"
)

// AppName is the binary name, also used as the syslog tag.
const AppName = "color-validator-mcp"

const (
	description     = "Brand color compliance checks for images."
	fullDescription = "Extracts the dominant colors of an image, matches each against the colors of a brand profile with CIEDE2000 and an area-weighted tolerance, and reports overall compliance. Run \"serve\" to expose the same operations as MCP tools over stdio."
)

// BuildInfo is stamped into the binary with ldflags.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// Execute is the primary entrypoint for this CLI
func Execute(build BuildInfo) int {
	a := newApp(build)
	defer a.atExit()

	root := a.rootCmd()
	tw := NewTermWrap(80, 24)
	root.Long = tw.Paragraph(description + "\n\n" + fullDescription)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-stop
		log.Info().Str("signal", sig.String()).Msg("stopping")
		cancel()
	}()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Err(err).Msg("command failed")
		return a.failureCode
	}
	return 0
}

// app holds the state shared by the commands of one invocation.
type app struct {
	build BuildInfo
	v     *viper.Viper

	env    config.Config
	envErr error
	cfg    config.Config

	configPath  string
	jsonOutput  bool
	failureCode int
	initialized bool

	logCloser io.Closer
	cache     *imaging.ImageCache
	store     *store.Store
	analyzer  *analysis.Analyzer
}

func newApp(build BuildInfo) *app {
	if build.Version == "" {
		build.Version = "dev"
	}
	env, envErr := config.FromEnv()
	return &app{
		build:       build,
		v:           viper.New(),
		env:         env,
		envErr:      envErr,
		configPath:  config.DefaultConfigPath,
		failureCode: 1,
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               AppName,
		Short:             description,
		Version:           a.build.Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.atStart,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(os.Stdout) // default is stderr

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", a.configPath, "the configuration file to load")
	flags.BoolVar(&a.jsonOutput, "json", false, "print results as JSON")

	flags.String(config.KeyLogLevel, a.env.LogLevel, "set logging level: debug, info, warn, error")
	flags.String(config.KeyLogDst, a.env.LogDst, "write logs to syslog, stdout, stderr, or provide a pathname")
	flags.String(config.KeyStore, a.env.Store, "pathname of the profile and history store")
	flags.Int(config.KeyWorkers, a.env.Workers, "concurrent matching workers (0 for one per CPU)")
	for _, key := range []string{config.KeyLogLevel, config.KeyLogDst, config.KeyStore, config.KeyWorkers} {
		_ = a.v.BindPFlag(key, flags.Lookup(key))
	}

	root.AddCommand(
		a.serveCmd(),
		a.labCmd(),
		a.deltaECmd(),
		a.matchCmd(),
		a.extractCmd(),
		a.analyzeCmd(),
		a.profileCmd(),
		a.historyCmd(),
		a.versionCmd(),
	)
	return root
}

// atStart resolves the configuration and sets up logging before any command
// runs.
func (a *app) atStart(cmd *cobra.Command, _ []string) error {
	if a.initialized {
		return nil
	}
	a.initialized = true

	if a.envErr != nil {
		return a.envErr
	}
	config.SetDefaults(a.v, a.env)

	found, err := config.ReadFile(a.v, a.configPath)
	if err != nil {
		return err
	}
	if found {
		a.v.OnConfigChange(func(e fsnotify.Event) {
			level := a.v.GetString(config.KeyLogLevel)
			if err := logging.SetLevel(level); err != nil {
				log.Err(err).Str("level", level).Msg("unable to parse new log level")
				return
			}
			log.Info().Str("file", e.Name).Str("level", level).Msg("config reloaded")
		})
		a.v.WatchConfig()
	}

	a.cfg, err = config.Load(a.v)
	if err != nil {
		return err
	}

	a.logCloser, err = logging.Setup(a.cfg.LogLevel, a.cfg.LogDst, AppName)
	if err != nil {
		return fail(a, 4, err)
	}

	log.Debug().Str("file", a.v.ConfigFileUsed()).Str("store", a.cfg.StorePath()).Msg("config")
	return nil
}

func (a *app) atExit() {
	if a.analyzer != nil {
		a.analyzer.Close()
	}
	if a.logCloser != nil {
		a.logCloser.Close()
	}
}

// openStore opens the store on first use.
func (a *app) openStore() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	st, err := store.Open(a.cfg.StorePath(), store.WithDefaultTolerance(a.cfg.DefaultTolerance))
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

// openAnalyzer opens the store and starts the analyzer on first use.
func (a *app) openAnalyzer() (*analysis.Analyzer, error) {
	if a.analyzer != nil {
		return a.analyzer, nil
	}
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}

	policy := a.cfg.Policy()
	a.cache = imaging.NewImageCache()
	a.analyzer = analysis.New(a.cache, st, analysis.Options{
		Workers: a.cfg.WorkerCount(),
		Policy:  &policy,
		Extract: a.cfg.ExtractOptions(),
	})
	return a.analyzer, nil
}

func fail(a *app, code int, formatOrErr interface{}, args ...interface{}) error {
	a.failureCode = code
	if len(args) == 0 {
		err, ok := formatOrErr.(error)
		if ok {
			return err
		}
		return errors.New(formatOrErr.(string))
	}
	return fmt.Errorf(formatOrErr.(string), args...)
}
