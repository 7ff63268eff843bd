package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ironsheep/siftkit/internal/config"
)

// LogLevelEnv selects the log level when --debug is not given.
const LogLevelEnv = "SIFTKIT_LOG_LEVEL"

// app carries state shared by all subcommands of one invocation.
type app struct {
	configPath string
	debug      bool
	workers    int

	logger *slog.Logger
}

// NewRootCommand builds the siftkit command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "siftkit",
		Short: "Scale-invariant keypoint detection and matching",
		Long: `siftkit detects scale- and rotation-invariant keypoints in images,
computes 128-dimensional gradient descriptors for them and matches
descriptor sets between images. It can also run as an MCP server over stdio.

Configuration is read from --config (YAML), SIFTKIT_* environment variables
(e.g. SIFTKIT_DETECTOR_CONTRAST_THRESHOLD=0.02) and command-line flags, in
increasing precedence. A .env file in the working directory is loaded first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.initConfig(cmd)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().IntVar(&a.workers, "workers", 0, "Worker goroutines per image (0 = GOMAXPROCS)")

	rootCmd.AddCommand(
		newDetectCmd(a),
		newMatchCmd(a),
		newSynthCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) initConfig(cmd *cobra.Command) {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	level := slog.LevelInfo
	if a.debug || strings.EqualFold(os.Getenv(LogLevelEnv), "debug") {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
}

// loadConfig resolves the configuration for cmd: defaults, --config,
// environment, then every flag in keys the user set explicitly.
func (a *app) loadConfig(cmd *cobra.Command, keys map[string]string) (config.Config, error) {
	overrides := make(map[string]interface{})
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}
	if cmd.Flags().Changed("workers") {
		overrides["workers"] = a.workers
	}
	return config.Load(a.configPath, overrides)
}
