package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/codewiresh/gsapi/internal/client"
	"github.com/codewiresh/gsapi/internal/config"
	"github.com/codewiresh/gsapi/internal/logging"
)

// app carries the persistent flags and the state resolved from them before
// any subcommand runs.
type app struct {
	configDir string
	host      string
	port      uint16
	codec     string
	output    string
	timeout   time.Duration
	logLevel  string

	cfg   *config.Config
	conns *config.Store
	log   zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:               "gsctl",
		Short:             "Drive a running GameSynth Tool over its TCP API",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	f := rootCmd.PersistentFlags()
	f.StringVar(&a.configDir, "config-dir", config.DefaultDir(), "Directory holding gsapi.toml and the patch catalog")
	f.StringVar(&a.host, "host", "", "Tool host (overrides config)")
	f.Uint16Var(&a.port, "port", 0, "Tool TCP port (overrides config)")
	f.StringVar(&a.codec, "codec", "", "Text encoding of the wire, e.g. UTF-8 or Shift_JIS (overrides config)")
	f.StringVarP(&a.output, "output", "o", formatText, "Output format: text, json or yaml")
	f.DurationVar(&a.timeout, "timeout", 0, "Deadline for the whole command (0 means none)")
	f.StringVar(&a.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error or disabled (default $"+logging.EnvLevel+" or warn)")

	rootCmd.AddCommand(
		// Tool
		pingCmd(a),
		versionCmd(a),
		commandsCmd(a),
		modelsCmd(a),
		modelCmd(a),
		pathCmd(a),
		sampleRateCmd(a),
		repoCmd(a),

		// Patch
		patchCmd(a),
		variationCmd(a),
		drawingCmd(a),
		metaCmd(a),
		curveCmd(a),

		// Playback and windows
		playCmd(a),
		stopCmd(a),
		statusCmd(a),
		eventsCmd(a),
		windowCmd(a),

		// Local
		catalogCmd(a),
		configCmd(a),
		simCmd(a),
		mcpCmd(a),
	)

	return rootCmd
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	opts, envErr := logging.FromEnv()
	if a.logLevel != "" {
		lvl, err := logging.ParseLevel(a.logLevel)
		if err != nil {
			return err
		}
		opts.Level = lvl
		envErr = nil
	}
	a.log = logging.New(cmd.ErrOrStderr(), opts)
	if envErr != nil {
		a.log.Warn().Err(envErr).Msg("ignoring " + logging.EnvLevel)
	}

	if err := checkFormat(a.output); err != nil {
		return err
	}

	cfg, err := config.Load(a.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	conn := cfg.Connection
	if flags.Changed("host") {
		conn.Host = a.host
	}
	if flags.Changed("port") {
		conn.Port = a.port
	}
	if flags.Changed("codec") {
		conn.Codec = a.codec
	}
	a.conns = config.NewStore(cfg.Connection)
	if err := a.conns.Set(conn); err != nil {
		return err
	}
	cfg.Connection = a.conns.Get()
	a.cfg = cfg

	a.log.Debug().Str("addr", cfg.Connection.Addr()).Str("codec", cfg.Connection.Codec).Msg("configuration loaded")
	return nil
}

// client builds a Client for the resolved connection settings.
func (a *app) client() (*client.Client, error) {
	return client.New(a.conns.Get(),
		client.WithTiming(a.cfg.Timing),
		client.WithLogger(a.log),
	)
}

// context applies --timeout to the command's context.
func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.timeout > 0 {
		return context.WithTimeout(ctx, a.timeout)
	}
	return context.WithCancel(ctx)
}

// run is the common shape of a command that talks to the Tool.
func (a *app) run(fn func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cl, err := a.client()
		if err != nil {
			return err
		}
		ctx, cancel := a.context(cmd)
		defer cancel()
		return fn(ctx, cl, cmd, args)
	}
}
