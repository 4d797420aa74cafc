package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/viant/extgraph/analyzer"
)

// Version is set via -ldflags
var Version = "dev"

const envPrefix = "EXTGRAPH"

// settings represents command configuration resolved from flags, environment and config file
type settings struct {
	analyzer.Config `mapstructure:",squash"`
	Format          string        `mapstructure:"format"`
	Output          string        `mapstructure:"output"`
	Debounce        time.Duration `mapstructure:"debounce"`
	Verbose         bool          `mapstructure:"verbose"`
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "extgraph",
		Short:         "Index Ext JS class definitions of a package tree",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentFlags().String("config", "", "config file (yaml, json or toml)")
	root.AddCommand(newIndexCmd(), newWatchCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "extgraph", Version)
		},
	}
}

func addIndexFlags(cmd *cobra.Command) {
	defaults := analyzer.DefaultConfig()
	flags := cmd.Flags()
	flags.StringP("toolkit", "t", defaults.Toolkit, "toolkit name, e.g. classic or modern")
	flags.StringSliceP("package", "p", nil, "sub package to process before the root package, repeatable")
	flags.StringP("namespace", "n", "", "namespace overriding the manifest one")
	flags.Bool("merge-overrides", false, "keep linked overrides when a class is registered again")
	flags.Bool("defer-overrides", false, "link overrides discovered before their target once the traversal completes")
	flags.Int("cache-size", defaults.CacheSize, "number of inspection results cached by content hash, 0 disables the cache")
	flags.StringP("format", "f", "yaml", "output format: yaml or json")
	flags.StringP("output", "o", "", "output location, stdout when empty")
}

// loadSettings merges defaults, config file, EXTGRAPH_ environment variables and command flags
func loadSettings(cmd *cobra.Command) (*settings, error) {
	v := viper.New()
	defaults := analyzer.DefaultConfig()
	v.SetDefault("toolkit", defaults.Toolkit)
	v.SetDefault("cache-size", defaults.CacheSize)
	v.SetDefault("format", "yaml")
	v.SetDefault("debounce", defaultDebounce)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if location, _ := cmd.Flags().GetString("config"); location != "" {
		v.SetConfigFile(location)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", location, err)
		}
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if flag := cmd.Flags().Lookup("package"); flag != nil {
		if err := v.BindPFlag("packages", flag); err != nil {
			return nil, err
		}
	}
	ret := &settings{}
	if err := v.Unmarshal(ret); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	switch ret.Format {
	case "yaml", "json":
	default:
		return nil, fmt.Errorf("unsupported format %q, expected yaml or json", ret.Format)
	}
	return ret, nil
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "extgraph",
		ReportTimestamp: true,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func commandLogger(cmd *cobra.Command, s *settings) *log.Logger {
	return newLogger(cmd.ErrOrStderr(), s.Verbose)
}
