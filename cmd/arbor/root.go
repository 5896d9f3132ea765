package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/npillmayer/arbor/dom/ingest"
	"github.com/npillmayer/schuko/tracing"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type rootOpts struct {
	cfgFile string
}

var rootOpt rootOpts

var longRootCmdDescription = `arbor loads HTML documents into a document tree, the way a browser
engine does: an HTML5 tree builder emits tree-construction operations, which
are applied to the tree in a separate goroutine.

Documents are read from a file argument, or from stdin if the argument is "-".
`

// tracing keys of all arbor packages
var traceKeys = []string{"arbor.tree", "arbor.dom", "arbor.sink", "arbor.htmlsrc", "arbor.ingest", "arbor.query"}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "arbor",
	Short:         "Load HTML documents into a document tree and inspect them.",
	Long:          longRootCmdDescription,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setTraceLevel(viper.GetString("trace"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "arbor: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(newTreeCmd(), newDotCmd(), newSelectCmd(), newStylesCmd())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootOpt.cfgFile, "config", "", "config file (default is $HOME/.arbor.yaml, if present)")
	flags.String("trace", "error", "trace level, one of [debug info error]")
	flags.Int("buffer-size", 64, "capacity of the operation channel")
	flags.Int("batch-size", 32, "maximum number of operations per mutation phase")
	flags.Bool("abort-unsupported", false, "fail loads on unsupported tree-construction operations")
	flags.Bool("verify", false, "verify tree invariants after loading")
	for _, key := range []string{"trace", "buffer-size", "batch-size", "abort-unsupported", "verify"} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(err)
		}
	}
	rootCmd.DisableAutoGenTag = true
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("arbor")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
	if rootOpt.cfgFile != "" {
		viper.SetConfigFile(rootOpt.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".arbor")
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && rootOpt.cfgFile != "" {
			fmt.Fprintf(os.Stderr, "arbor: cannot read config: %v\n", err)
		}
	}
}

func setTraceLevel(level string) error {
	var l tracing.TraceLevel
	switch strings.ToLower(level) {
	case "debug":
		l = tracing.LevelDebug
	case "info":
		l = tracing.LevelInfo
	case "error", "":
		l = tracing.LevelError
	default:
		return errors.Errorf("unknown trace level %q", level)
	}
	for _, key := range traceKeys {
		tracing.Select(key).SetTraceLevel(l)
	}
	return nil
}

// loadOptions collects ingest options from flags, environment and config.
func loadOptions() []ingest.Option {
	return []ingest.Option{
		ingest.BufferSize(viper.GetInt("buffer-size")),
		ingest.BatchSize(viper.GetInt("batch-size")),
		ingest.AbortOnUnsupported(viper.GetBool("abort-unsupported")),
		ingest.VerifyOnFinish(viper.GetBool("verify")),
	}
}

// load reads and loads a document from a file argument.
func load(ctx context.Context, arg string) (*ingest.Document, error) {
	var r io.Reader = os.Stdin
	if arg != "-" {
		f, err := os.Open(arg)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	doc, err := ingest.Load(ctx, r, loadOptions()...)
	if err != nil {
		return nil, err
	}
	tree, _ := doc.Tree()
	if tree.IsIncomplete() {
		fmt.Fprintf(os.Stderr, "arbor: warning: document is incomplete: %v\n", tree.Incomplete())
	}
	return doc, nil
}
