package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/Mohsinsiddi/w3probe/internal/config"
	"github.com/Mohsinsiddi/w3probe/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3probe/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir   string
	cfg      *config.Config
	logger   zerolog.Logger
	verbose  bool
	testnet  bool
	mainnet  bool
	network  string
	logLevel string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "w3probe",
	Short: "Inspect what a deployed contract can do",
	Long: `w3probe reads a contract's runtime bytecode, follows proxies to the
implementation and tells you which functions and standard extensions it
supports, without needing its ABI.

  w3probe selectors 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48
  w3probe detect    0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D
  w3probe scan      0x4200000000000000000000000000000000000006

Global flags --testnet and --mainnet override the configured network mode
for a single invocation. Without either flag the persisted mode is used
(default: mainnet).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if testnet {
			cfg.NetworkMode = "testnet"
		}
		if mainnet {
			cfg.NetworkMode = "mainnet"
		}

		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		if verbose {
			level = "debug"
		}
		logger = setupLogger(os.Stderr, level)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		stop()
		os.Exit(1)
	}
}

// setupLogger builds the console logger. Unknown levels fall back to warn.
func setupLogger(out io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}

func init() {
	// W3PROBE_CONFIG_DIR env var overrides --config flag.
	if envDir := os.Getenv("W3PROBE_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	logger = zerolog.Nop()

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.w3probe)")
	rootCmd.PersistentFlags().StringVarP(&network, "network", "n", "", "chain to query (default: config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&testnet, "testnet", false, "use testnet instead of mainnet")
	rootCmd.PersistentFlags().BoolVar(&mainnet, "mainnet", false, "use mainnet instead of testnet")
	rootCmd.MarkFlagsMutuallyExclusive("testnet", "mainnet")

	rootCmd.AddCommand(
		selectorsCmd,
		supportsCmd,
		detectCmd,
		codeCmd,
		storageCmd,
		selectorCmd,
		mediaCmd,
		scanCmd,
		networkCmd,
		rpcCmd,
		configCmd,
	)
}
