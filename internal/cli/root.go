// Package cli implements ftq, a command line front end for the search,
// aggregate and index builders. By default a command only prints the
// tokens it would send; --exec sends them and prints the decoded reply as
// YAML.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/manojoshi/redisearch/driver"
	"github.com/manojoshi/redisearch/option"
)

const welcomeMessage = "ftq builds RediSearch commands and, with --exec, runs them."

// Cmd carries the state shared by the ftq commands.
type Cmd struct {
	appVersion string
	out        io.Writer
	logOut     io.Writer

	flagsApp       *App
	flagsSearch    *Search
	flagsAggregate *Aggregate
	deleteDocs     bool

	Logger *slog.Logger

	// Dial opens the transport used by --exec. The returned func releases it.
	Dial func(ctx context.Context) (driver.Transport, func(), error)
}

// NewCmd builds the root command. Results go to out, logs to logOut.
func NewCmd(appVersion string, out, logOut io.Writer) (*cobra.Command, *Cmd) {
	c := &Cmd{
		appVersion:     appVersion,
		out:            out,
		logOut:         logOut,
		flagsApp:       NewApp(),
		flagsSearch:    NewSearch(),
		flagsAggregate: NewAggregate(),
		Logger:         slog.New(slog.NewTextHandler(logOut, nil)),
	}
	c.Dial = c.dial

	rootCmd := &cobra.Command{
		Use:               "ftq",
		Short:             "RediSearch command builder",
		Long:              welcomeMessage,
		PersistentPreRunE: c.initLogger,
	}
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.SilenceUsage = true
	rootCmd.SetOut(out)
	rootCmd.SetErr(logOut)
	rootCmd.PersistentFlags().AddFlagSet(c.flagsApp.NewFlagSet())

	searchCmd := &cobra.Command{
		Use:   "search INDEX [QUERY...]",
		Short: "Build or run FT.SEARCH",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.runSearch,
	}
	searchCmd.Flags().SortFlags = false
	searchCmd.Flags().AddFlagSet(c.flagsSearch.NewFlagSet())

	aggregateCmd := &cobra.Command{
		Use:   "aggregate INDEX [QUERY...]",
		Short: "Build or run FT.AGGREGATE",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.runAggregate,
	}
	aggregateCmd.Flags().SortFlags = false
	aggregateCmd.Flags().AddFlagSet(c.flagsAggregate.NewFlagSet())

	infoCmd := &cobra.Command{
		Use:   "info INDEX",
		Short: "Build or run FT.INFO",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runInfo,
	}

	dropCmd := &cobra.Command{
		Use:   "drop INDEX",
		Short: "Build or run FT.DROPINDEX",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runDrop,
	}
	dropCmd.Flags().BoolVar(&c.deleteDocs, "dd", false, "Delete the indexed documents too.")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the ftq version, and the search module version with --exec",
		Args:  cobra.NoArgs,
		RunE:  c.runVersion,
	}

	rootCmd.AddCommand(searchCmd, aggregateCmd, infoCmd, dropCmd, versionCmd)
	return rootCmd, c
}

func (c *Cmd) initLogger(_ *cobra.Command, _ []string) error {
	logger, err := NewLogger(c.logOut, c.flagsApp.LogLevel, c.flagsApp.Verbose, c.flagsApp.LogJSON)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.Logger = logger
	return nil
}

func (c *Cmd) dial(_ context.Context) (driver.Transport, func(), error) {
	cfg, err := c.flagsApp.DriverConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	conn, err := driver.NewDefaultRegistry().Open("", cfg, driver.WithLogger(c.Logger))
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("connected", slog.String("mode", string(cfg.Mode)), slog.Any("addrs", cfg.Addrs))
	return conn, func() { _ = conn.Close() }, nil
}

// withTransport dials, runs fn and releases the transport.
func (c *Cmd) withTransport(ctx context.Context, fn func(driver.Transport) error) error {
	t, release, err := c.Dial(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(t)
}

// printArgs writes the command on one line, quoting tokens that would not
// survive a shell round trip.
func (c *Cmd) printArgs(args option.Tokens, err error) error {
	if err != nil {
		return err
	}
	parts := args.Strings()
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\n\"'") {
			parts[i] = strconv.Quote(p)
		}
	}
	_, err = fmt.Fprintln(c.out, strings.Join(parts, " "))
	return err
}

func (c *Cmd) printYAML(v any) error {
	enc := yaml.NewEncoder(c.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return enc.Close()
}

func queryArg(args []string) string {
	return strings.Join(args[1:], " ")
}
