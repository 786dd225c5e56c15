package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/manojoshi/redisearch/driver"
)

// App holds the flags shared by every command.
type App struct {
	Config   string
	Addr     []string
	Mode     string
	Protocol int
	Verbose  bool
	LogLevel string
	LogJSON  bool
	Exec     bool
}

func NewApp() *App {
	return &App{}
}

func (f *App) NewFlagSet() *pflag.FlagSet {
	flagSet := &pflag.FlagSet{}

	flagSet.StringVar(&f.Config, "config",
		"",
		"Path to YAML connection configuration file.")
	flagSet.StringSliceVarP(&f.Addr, "addr", "a",
		nil,
		"Server address as host:port. Repeat for cluster seeds. Overrides the config file.")
	flagSet.StringVar(&f.Mode, "mode",
		"",
		"Client mode: standalone, cluster or failover. Overrides the config file.")
	flagSet.IntVar(&f.Protocol, "protocol",
		0,
		"RESP protocol version, 2 or 3. Overrides the config file.")
	flagSet.BoolVarP(&f.Verbose, "verbose", "v",
		false,
		"Enable more detailed logging.")
	flagSet.StringVar(&f.LogLevel, "log-level",
		"debug",
		"Determine log level for --verbose output. Log levels are: debug, info, warn, error.")
	flagSet.BoolVar(&f.LogJSON, "log-json",
		false,
		"Set output in JSON format for parsing by external tools.")
	flagSet.BoolVarP(&f.Exec, "exec", "x",
		false,
		"Send the command to the server. Without it the command is only printed.")

	return flagSet
}

// DriverConfig loads --config, or the defaults, and applies the flag
// overrides on top.
func (f *App) DriverConfig() (*driver.Config, error) {
	cfg := driver.DefaultConfig()
	if f.Config != "" {
		var err error
		if cfg, err = driver.LoadConfig(f.Config); err != nil {
			return nil, err
		}
	}
	if len(f.Addr) > 0 {
		cfg.Addrs = f.Addr
	}
	if f.Mode != "" {
		cfg.Mode = driver.Mode(f.Mode)
	}
	if f.Protocol != 0 {
		cfg.Protocol = f.Protocol
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Query holds the flags shared by search and aggregate.
type Query struct {
	SortBy   string
	Desc     bool
	Offset   int64
	Size     int64
	Verbatim bool
	Dialect  int64
	Params   []string
}

func (f *Query) NewFlagSet() *pflag.FlagSet {
	flagSet := &pflag.FlagSet{}

	flagSet.StringVar(&f.SortBy, "sort-by",
		"",
		"Field to sort by.")
	flagSet.BoolVar(&f.Desc, "desc",
		false,
		"Sort in descending order.")
	flagSet.Int64Var(&f.Offset, "offset",
		0,
		"Number of results to skip.")
	flagSet.Int64Var(&f.Size, "size",
		-1,
		"Number of results to return. Negative leaves the server default.")
	flagSet.BoolVar(&f.Verbatim, "verbatim",
		false,
		"Do not stem query terms.")
	flagSet.Int64Var(&f.Dialect, "dialect",
		0,
		"Query dialect version.")
	flagSet.StringArrayVarP(&f.Params, "param", "p",
		nil,
		"Query parameter as name=value. Can be repeated.")

	return flagSet
}

// ParsedParams splits every --param into its name and value.
func (f *Query) ParsedParams() ([][2]string, error) {
	out := make([][2]string, 0, len(f.Params))
	for _, p := range f.Params {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q, expected name=value", p)
		}
		out = append(out, [2]string{name, value})
	}
	return out, nil
}

// Search holds the FT.SEARCH flags.
type Search struct {
	Query
	Return     []string
	WithScores bool
	NoContent  bool
	InKeys     []string
}

func NewSearch() *Search {
	return &Search{}
}

func (f *Search) NewFlagSet() *pflag.FlagSet {
	flagSet := f.Query.NewFlagSet()

	flagSet.StringSliceVarP(&f.Return, "return", "r",
		nil,
		"Fields to return. All fields are returned when empty.")
	flagSet.BoolVar(&f.WithScores, "with-scores",
		false,
		"Return the relevance score of every document.")
	flagSet.BoolVar(&f.NoContent, "no-content",
		false,
		"Return document ids only.")
	flagSet.StringSliceVar(&f.InKeys, "in-keys",
		nil,
		"Limit the search to these keys.")

	return flagSet
}

// Aggregate holds the FT.AGGREGATE flags.
type Aggregate struct {
	Query
	Load    []string
	GroupBy []string
	Count   string
	Sum     []string
	Avg     []string
	Apply   []string
	Filter  string
}

func NewAggregate() *Aggregate {
	return &Aggregate{}
}

func (f *Aggregate) NewFlagSet() *pflag.FlagSet {
	flagSet := f.Query.NewFlagSet()

	flagSet.StringSliceVarP(&f.Load, "load", "l",
		nil,
		"Document fields to load before the pipeline runs.")
	flagSet.StringSliceVarP(&f.GroupBy, "group", "g",
		nil,
		"Properties to group by.")
	flagSet.StringVar(&f.Count, "count",
		"",
		"Add a COUNT reducer with this alias.")
	flagSet.StringArrayVar(&f.Sum, "sum",
		nil,
		"Add a SUM reducer as property=alias. Can be repeated.")
	flagSet.StringArrayVar(&f.Avg, "avg",
		nil,
		"Add an AVG reducer as property=alias. Can be repeated.")
	flagSet.StringArrayVar(&f.Apply, "apply",
		nil,
		"Add an APPLY step as alias=expression. Can be repeated.")
	flagSet.StringVar(&f.Filter, "filter",
		"",
		"Add a FILTER step after the grouping.")

	return flagSet
}
