// Package cmd implements the hubkit command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/dataworkshop/hubkit/internal/config"
	"github.com/dataworkshop/hubkit/internal/logging"
	"github.com/dataworkshop/hubkit/internal/style"
	"github.com/spf13/cobra"
)

// Command groups shown in help output.
const (
	GroupSetup = "setup"
	GroupDiag  = "diag"
)

var (
	configPath string
	logLevel   string
	logJSON    bool

	// cfg and logger are populated by the root PersistentPreRunE.
	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hubkit",
	Short: "Set up a JupyterHub data workshop",
	Long: `hubkit prepares a shared JupyterHub environment for a data workshop.

It turns a roster of student names into login credentials, renders the
JupyterHub configuration, installs the Spark S3 connector jars and seeds the
object store with the workshop datasets.

Configuration is read from hubkit.toml (or --config), a .env file and the
environment, in increasing order of precedence.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadRuntime,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupSetup, Title: "Workshop Setup:"},
		&cobra.Group{ID: GroupDiag, Title: "Diagnostics:"},
	)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default hubkit.toml, or $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default $"+logging.EnvLogLevel+" or info)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON")
}

func loadRuntime(*cobra.Command, []string) error {
	style.Auto()
	logger = logging.Setup(logging.Config{Level: logLevel, JSON: logJSON})

	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, os.Args[1:])
}

func execute(ctx context.Context, args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var silent *SilentExitError
	if errors.As(err, &silent) {
		return silent.Code
	}

	fmt.Fprintf(os.Stderr, "%s %v\n", style.ErrorPrefix(), err)
	return 1
}
