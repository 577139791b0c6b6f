// Command intakectl works with intake desk data from the terminal, either
// against the local store or against a backend when API_BASE_URL is set.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lalith-99/intakedesk/internal/client"
	"github.com/lalith-99/intakedesk/internal/config"
	"github.com/lalith-99/intakedesk/internal/observ"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once the root has run.
type app struct {
	envFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
	client *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "intakectl",
		Short: "Manage firms, intakes, messages and email history",
		Long: `intakectl reads and writes the intake desk store.

With API_BASE_URL set every command goes to that backend; otherwise the
store configured by STORE_BACKEND and STORE_PATH is used directly.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "load environment from this file before reading config")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		a.meCmd(), a.loginCmd(), a.logoutCmd(),
		a.listCmd(), a.getCmd(), a.createCmd(), a.updateCmd(), a.deleteCmd(),
		a.invokeCmd(), a.exportCmd(),
		a.uploadCmd(), a.submitCmd(), a.statsCmd(),
		a.statusCmd(), a.bulkCmd(), a.tagCmd(), a.untagCmd(),
		a.assignCmd(), a.notesCmd(), a.followUpCmd(),
		a.messageCmd(), a.threadCmd(), a.readCmd(), a.portalCmd(),
		a.purgeCmd(),
	)
	return root
}

func (a *app) open(cmd *cobra.Command, _ []string) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.logger, err = observ.NewLogger("intakectl", cfg.Env, level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	a.client, err = client.New(cmd.Context(), cfg, a.logger)
	if err != nil {
		return fmt.Errorf("open client: %w", err)
	}
	a.logger.Debug("client opened", zap.Bool("remote", a.client.IsRemote()))
	return nil
}

func (a *app) close() error {
	var err error
	if a.client != nil {
		err = a.client.Close()
		a.client = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
