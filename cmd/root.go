package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/papapumpkin/ddk/internal/changes"
	"github.com/papapumpkin/ddk/internal/config"
	"github.com/papapumpkin/ddk/internal/journal"
	"github.com/papapumpkin/ddk/internal/storage"
	"github.com/papapumpkin/ddk/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "ddk",
	Short: "Delphi project and workspace manager",
	Long: `ddk keeps the list of Delphi projects, the workspaces grouping them and the
installed compiler configurations in a shared store, and applies batches of
changes to it atomically.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		ui.New().Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .ddk.yaml)")
	rootCmd.PersistentFlags().String("config-dir", "", "directory holding the store files")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("config_dir", rootCmd.PersistentFlags().Lookup("config-dir"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".ddk")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("DDK")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// newLogger builds the development-style zap logger used on stderr.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log_level: %w", err)
		}
		lvl = parsed
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.DisableStacktrace = true
	zc.DisableCaller = !verbose
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zc.Build()
}

// session bundles what the store commands share for one invocation.
type session struct {
	cfg     config.Config
	log     *zap.Logger
	store   *storage.Store
	journal *journal.Emitter
	printer *ui.Printer
}

// openSession loads the configuration and opens the store it names.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	log, err := newLogger(cfg.LogLevel, verbose)
	if err != nil {
		return nil, err
	}
	return newSession(cfg, log, cmd.ErrOrStderr())
}

func newSession(cfg config.Config, log *zap.Logger, errOut io.Writer) (*session, error) {
	store, err := storage.Open(storage.Options{
		Dir:               cfg.ConfigDir,
		LockTimeout:       cfg.LockTimeout,
		LockRetryInterval: cfg.LockRetryInterval,
		Logger:            log,
	})
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, log: log, store: store, printer: ui.NewTo(errOut)}
	if cfg.Journal {
		em, err := journal.NewEmitter(cfg.JournalPath())
		if err != nil {
			log.Warn("journal disabled", zap.Error(err))
		} else {
			s.journal = em
		}
	}
	return s, nil
}

func (s *session) executor() *changes.Executor {
	return changes.NewExecutor(s.store, changes.Options{
		Journal:            s.journal,
		Logger:             s.log,
		RebalanceThreshold: s.cfg.RebalanceThreshold,
	})
}

func (s *session) close() {
	if err := s.journal.Close(); err != nil {
		s.log.Warn("closing journal", zap.Error(err))
	}
	_ = s.log.Sync()
}
