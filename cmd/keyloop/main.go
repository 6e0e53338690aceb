// Package main is the entry point for keyloop, a keyboard and mouse macro
// recorder.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/keyloop/internal/app"
	"github.com/dshills/keyloop/internal/config"
	"github.com/dshills/keyloop/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	c := newCLI(stdout, stderr)
	root := c.rootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// cli holds state shared by all commands.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string

	// isTerminal reports whether stdin is an interactive terminal.
	isTerminal func() bool
	// configure adjusts application options before New.
	configure func(*app.Options)
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{
		stdout: stdout,
		stderr: stderr,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "keyloop",
		Short:         "Record and replay keyboard and mouse macros",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.logLevel != "" && !logging.ValidLevel(c.logLevel) {
				return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", c.logLevel)
			}
			return nil
		},
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "configuration file (default "+config.DefaultPath()+")")
	flags.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		c.recordCmd(),
		c.playCmd(),
		c.listCmd(),
		c.showCmd(),
		c.deleteCmd(),
		c.renameCmd(),
		c.editCmd(),
		c.removeEventCmd(),
		c.configCmd(),
		c.versionCmd(),
	)
	return root
}

// loadConfig loads the configuration file, environment and flags.
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(c.configPath).Load()
	if err != nil {
		return nil, err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	return cfg, nil
}

// open creates the application. prepare, if not nil, adjusts the options
// once configuration and logging are set up. The returned function
// releases the application.
func (c *cli) open(prepare func(*config.Config, *logging.Logger, *app.Options)) (*app.Application, func(), error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.Open(logging.Config{
		Level:  cfg.LogLevel(),
		Output: c.stderr,
		Prefix: "keyloop",
	}, cfg.Paths.LogsDir)
	if err != nil {
		return nil, nil, err
	}

	opts := app.Options{Config: cfg, Logger: logger, Output: c.stdout}
	if prepare != nil {
		prepare(cfg, logger, &opts)
	}
	if c.configure != nil {
		c.configure(&opts)
	}

	application, err := app.New(opts)
	if err != nil {
		_ = logger.Close()
		return nil, nil, err
	}
	return application, func() {
		_ = application.Close()
		_ = logger.Close()
	}, nil
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.stdout, "keyloop %s\n", version)
			fmt.Fprintf(c.stdout, "Commit: %s\n", commit)
			fmt.Fprintf(c.stdout, "Built: %s\n", date)
		},
	}
}

// errNotTerminal is returned by commands that need the terminal for input.
var errNotTerminal = errors.New("this command needs an interactive terminal")
