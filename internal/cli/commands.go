package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manojoshi/redisearch/aggregate"
	"github.com/manojoshi/redisearch/driver"
	"github.com/manojoshi/redisearch/index"
	"github.com/manojoshi/redisearch/option"
	"github.com/manojoshi/redisearch/search"
)

// defaultPageSize is sent when only --offset is given.
const defaultPageSize = 10

func (f *Query) limit() (offset, size int64, ok bool) {
	if f.Size < 0 && f.Offset == 0 {
		return 0, 0, false
	}
	size = f.Size
	if size < 0 {
		size = defaultPageSize
	}
	return f.Offset, size, true
}

func (c *Cmd) runSearch(cmd *cobra.Command, args []string) error {
	f := c.flagsSearch
	b := search.NewBuilder(args[0]).Query(queryArg(args))

	params, err := f.ParsedParams()
	if err != nil {
		return err
	}
	for _, p := range params {
		b.Param(p[0], p[1])
	}
	if f.NoContent {
		b.NoContent()
	}
	if f.Verbatim {
		b.Verbatim()
	}
	if f.WithScores {
		b.WithScores()
	}
	if len(f.InKeys) > 0 {
		b.InKeys(f.InKeys...)
	}
	if len(f.Return) > 0 {
		b.Return(f.Return...)
	}
	if f.SortBy != "" {
		dir := search.Asc
		if f.Desc {
			dir = search.Desc
		}
		b.SortBy(f.SortBy, dir)
	}
	if offset, size, ok := f.limit(); ok {
		b.Limit(offset, size)
	}
	if f.Dialect != 0 {
		b.Dialect(f.Dialect)
	}

	if !c.flagsApp.Exec {
		return c.printArgs(b.Args())
	}
	return c.withTransport(cmd.Context(), func(t driver.Transport) error {
		res, err := b.Run(cmd.Context(), t)
		if err != nil {
			return err
		}
		c.Logger.Info("search done",
			"index", args[0],
			"total", res.Total,
			"returned", len(res.Documents),
		)
		return c.printYAML(res)
	})
}

func (c *Cmd) runAggregate(cmd *cobra.Command, args []string) error {
	f := c.flagsAggregate
	b := aggregate.NewBuilder(args[0]).Query(queryArg(args))

	params, err := f.ParsedParams()
	if err != nil {
		return err
	}
	for _, p := range params {
		b.Param(p[0], p[1])
	}
	if f.Verbatim {
		b.Verbatim()
	}
	if len(f.Load) > 0 {
		b.Load(f.Load...)
	}

	reducers, err := f.reducers()
	if err != nil {
		return err
	}
	if len(f.GroupBy) > 0 || len(reducers) > 0 {
		b.GroupBy(f.GroupBy, reducers...)
	}
	for _, a := range f.Apply {
		alias, expr, ok := strings.Cut(a, "=")
		if !ok || alias == "" {
			return fmt.Errorf("invalid --apply %q, expected alias=expression", a)
		}
		b.Apply(expr, alias)
	}
	if f.Filter != "" {
		b.Filter(f.Filter)
	}
	if f.SortBy != "" {
		dir := aggregate.Asc
		if f.Desc {
			dir = aggregate.Desc
		}
		b.SortBy([]aggregate.SortKey{{Property: f.SortBy, Dir: dir}}, 0)
	}
	if offset, size, ok := f.limit(); ok {
		b.Limit(offset, size)
	}
	if f.Dialect != 0 {
		b.Dialect(f.Dialect)
	}

	if !c.flagsApp.Exec {
		return c.printArgs(b.Args())
	}
	return c.withTransport(cmd.Context(), func(t driver.Transport) error {
		res, err := b.Run(cmd.Context(), t)
		if err != nil {
			return err
		}
		c.Logger.Info("aggregate done",
			"index", args[0],
			"rows", len(res.Rows),
		)
		return c.printYAML(res)
	})
}

// reducers turns --count, --sum and --avg into GROUPBY reducers.
func (f *Aggregate) reducers() ([]aggregate.Reducer, error) {
	var out []aggregate.Reducer
	if f.Count != "" {
		out = append(out, aggregate.Count().As(f.Count))
	}
	for _, r := range []struct {
		flag  string
		vals  []string
		build func(string) aggregate.Reducer
	}{
		{"sum", f.Sum, aggregate.Sum},
		{"avg", f.Avg, aggregate.Average},
	} {
		for _, v := range r.vals {
			property, alias, _ := strings.Cut(v, "=")
			if property == "" {
				return nil, fmt.Errorf("invalid --%s %q, expected property=alias", r.flag, v)
			}
			out = append(out, r.build(property).As(alias))
		}
	}
	return out, nil
}

type infoView struct {
	Name           string   `yaml:"name"`
	KeyType        string   `yaml:"key_type"`
	Prefixes       []string `yaml:"prefixes,omitempty"`
	NumDocs        int64    `yaml:"num_docs"`
	NumTerms       int64    `yaml:"num_terms"`
	NumRecords     int64    `yaml:"num_records"`
	Indexing       bool     `yaml:"indexing"`
	PercentIndexed float64  `yaml:"percent_indexed"`
	Fields         []string `yaml:"fields"`
}

func newInfoView(info *index.Info) infoView {
	v := infoView{
		Name:           info.Name,
		KeyType:        info.Definition.KeyType,
		Prefixes:       info.Definition.Prefixes,
		NumDocs:        info.NumDocs,
		NumTerms:       info.NumTerms,
		NumRecords:     info.NumRecords,
		Indexing:       info.Indexing,
		PercentIndexed: info.PercentIndexed,
	}
	for _, f := range info.Fields {
		v.Fields = append(v.Fields, f.String())
	}
	return v
}

func (c *Cmd) runInfo(cmd *cobra.Command, args []string) error {
	if !c.flagsApp.Exec {
		return c.printArgs(option.Strs("FT.INFO", args[0]), nil)
	}
	return c.withTransport(cmd.Context(), func(t driver.Transport) error {
		info, err := index.GetInfo(cmd.Context(), t, args[0])
		if err != nil {
			return err
		}
		return c.printYAML(newInfoView(info))
	})
}

func (c *Cmd) runDrop(cmd *cobra.Command, args []string) error {
	if !c.flagsApp.Exec {
		return c.printArgs(index.DropArgs(args[0], c.deleteDocs))
	}
	return c.withTransport(cmd.Context(), func(t driver.Transport) error {
		if err := index.Drop(cmd.Context(), t, args[0], c.deleteDocs); err != nil {
			return err
		}
		c.Logger.Info("index dropped", "index", args[0], "documents", c.deleteDocs)
		return nil
	})
}

func (c *Cmd) runVersion(cmd *cobra.Command, _ []string) error {
	if _, err := fmt.Fprintf(c.out, "ftq %s\n", c.appVersion); err != nil {
		return err
	}
	if !c.flagsApp.Exec {
		return nil
	}
	return c.withTransport(cmd.Context(), func(t driver.Transport) error {
		v, err := driver.ModuleVersion(cmd.Context(), t)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(c.out, "search %s\n", v)
		return err
	})
}
