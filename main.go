// Command loam runs terrain projects in batch.
//
//	loam run [flags] project.json|script.lisp
//	loam inventory [--format table|csv|mermaid|yaml]
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/chazu/loam/pkg/config"
)

const usage = `usage:
  loam run [flags] <project.json|script.lisp>
  loam inventory [flags]

Run "loam <command> --help" for the flags of a command.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "run":
		err = runProject(args[1:], stdout, stderr)
	case "inventory":
		err = runInventory(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		return 2
	default:
		fmt.Fprintln(stderr, "loam:", err)
		return 1
	}
}

var errUsage = errors.New("usage error")

// parse parses args into fs. Bad flags are usage errors; --help passes
// through as pflag.ErrHelp.
func parse(fs *pflag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %w", errUsage, err)
}

// common are the flags every command accepts.
type common struct {
	settings string
	logLevel string
}

func (c *common) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.settings, "settings", "s", "", "YAML settings file")
	fs.StringVar(&c.logLevel, "log-level", "", "override the settings log level (debug, info, warn, error)")
}

// app loads the settings and builds the App with a logger writing to stderr.
func (c *common) app(stderr io.Writer) (*App, error) {
	s := config.DefaultSettings()
	if c.settings != "" {
		var err error
		if s, err = config.Load(c.settings); err != nil {
			return nil, err
		}
	}
	if c.logLevel != "" {
		s.LogLevel = c.logLevel
	}
	lvl, err := s.Level()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl}))
	return NewApp(s, logger)
}

func runProject(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		c    common
		opts RunOptions
	)
	c.register(fs)
	fs.StringVarP(&opts.Output, "output", "o", "", "write the updated project document to this file")
	fs.BoolVarP(&opts.Force, "force", "f", false, "recompute every node")
	fs.BoolVar(&opts.Reseed, "reseed", false, "draw new random seeds before updating")
	quiet := fs.BoolP("quiet", "q", false, "do not print the update report")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: run takes exactly one project file", errUsage)
	}
	opts.Input = fs.Arg(0)

	a, err := c.app(stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	reports, runErr := a.Run(opts)
	if !*quiet && len(reports) > 0 {
		if err := writeReports(stdout, reports); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}

func runInventory(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("inventory", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	format := fs.String("format", "table", "output format: table, csv, mermaid or yaml")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("%w: inventory takes no arguments", errUsage)
	}

	a, err := c.app(stderr)
	if err != nil {
		return err
	}
	defer a.Close()
	return writeInventory(stdout, a.Registry(), *format)
}
