package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/manojoshi/redisearch/scan"
)

// ModuleVersion asks the server for the version of its search module. The
// result is what every builder's Version setter expects.
func ModuleVersion(ctx context.Context, exec Executor) (*semver.Version, error) {
	raw, err := exec.Do(ctx, "MODULE", "LIST")
	if err != nil {
		return nil, fmt.Errorf("driver: module list: %w", err)
	}
	return ParseModuleList(raw)
}

// ParseModuleList finds the search module in a MODULE LIST reply. Both the
// RESP2 shape (a list of flat name/value arrays) and the RESP3 one (a list
// of maps) are understood.
func ParseModuleList(raw any) (*semver.Version, error) {
	mods, ok := scan.List(raw)
	if !ok {
		return nil, fmt.Errorf("%w: module list is %T", scan.ErrUnexpectedReply, raw)
	}
	for _, m := range mods {
		kv, err := scan.Pairs(m)
		if err != nil {
			return nil, err
		}
		name := strings.ToLower(scan.String(kv["name"]))
		if name != "search" && name != "ft" && name != "searchlight" {
			continue
		}
		n, ok := scan.Int64(kv["ver"])
		if !ok {
			return nil, fmt.Errorf("%w: module version %v", scan.ErrUnexpectedReply, kv["ver"])
		}
		return ParseModuleVersion(n), nil
	}
	return nil, ErrModuleNotLoaded
}

// ParseModuleVersion decodes the packed integer modules report, e.g. 20813
// is 2.8.13.
func ParseModuleVersion(n int64) *semver.Version {
	if n < 0 {
		n = 0
	}
	u := uint64(n)
	return semver.New(u/10000, (u/100)%100, u%100, "", "")
}
