package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/lmittmann/tint"
	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "jsonreststores",
	Short: "Ordered JSON record stores over sqlite",
	Long: `jsonreststores manages JSON record stores backed by sqlite tables, with
list ordering maintained per group through placement directives. Stores are
declared in a YAML definitions file; every write runs through the full hook
pipeline, positioning included.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var (
	cfgFilePath string
	verbose     bool
)

const (
	ConfigFileName      = ".jsonreststores"
	ConfigFileExtension = ".yaml"
)

func init() {
	homePath, err := homedir.Dir()
	if err != nil {
		log.Fatal(err)
	}

	cfgFilePath = fmt.Sprintf("%s/%s%s", homePath, ConfigFileName, ConfigFileExtension)

	viper.SetDefault("db", filepath.Join(homePath, ".jsonreststores.db"))
	viper.SetDefault("stores", filepath.Join(homePath, ".jsonreststores.stores.yaml"))

	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFilePath, "config", cfgFilePath, "config file (default is $HOME/.jsonreststores.yaml)")
	rootCmd.PersistentFlags().String("db", "", "sqlite database path")
	rootCmd.PersistentFlags().String("stores", "", "store definitions file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("stores", rootCmd.PersistentFlags().Lookup("stores"))
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("error executing root command: %s", err)
	}
}

func initConfig() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(cfgFilePath)
	if err := viper.ReadInConfig(); err != nil {
		// Running without a config file is fine; defaults and flags cover it.
		if _, statErr := os.Stat(cfgFilePath); os.IsNotExist(statErr) {
			return
		}
		fmt.Fprintf(os.Stderr, "error reading config file: %s\n", err)
	}
}

// newLogger writes tinted logs on a terminal and falls back to plain colors
// off one.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
}
