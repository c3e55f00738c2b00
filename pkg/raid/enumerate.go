package raid

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/addisonbair/mdraid-sidecars/pkg/log"
)

var (
	selectorPattern = regexp.MustCompile(`^(?:/dev/|/sys/block/)?(md\d+)$`)
	namePattern     = regexp.MustCompile(`^md(\d+)$`)
)

// Target selects what to check: every discoverable array, or one by name.
type Target struct {
	All  bool
	Name string
}

func (t Target) String() string {
	if t.All {
		return "all"
	}
	return t.Name
}

// ParseTarget accepts "md0", "/dev/md0", "/sys/block/md0", or "all".
// An empty selector means all.
func ParseTarget(selector string) (Target, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" || strings.EqualFold(selector, "all") {
		return Target{All: true}, nil
	}
	m := selectorPattern.FindStringSubmatch(selector)
	if m == nil {
		return Target{}, newError(KindConfig, selector, "", nil)
	}
	return Target{Name: m[1]}, nil
}

// Discover lists every md array under block/. No arrays is not an error.
func (r *Reader) Discover(ctx context.Context) ([]string, error) {
	pattern := path.Join("block", "md*")
	log.Debug().Str("pattern", pattern).Msg("Collecting all MD devices")

	dirs, err := r.fs.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}

	var names []string
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := filepath.Base(dir)
		if !r.fs.IsDir(dir) {
			log.Warn().Str("path", dir).Msg("Strange - MD entry is not a directory")
			continue
		}
		if !namePattern.MatchString(name) {
			log.Debug().Str("path", dir).Msg("Skipping non-numbered MD entry")
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Targets resolves a selector to the array names to check.
func (r *Reader) Targets(ctx context.Context, t Target) ([]string, error) {
	if t.All {
		return r.Discover(ctx)
	}
	return []string{t.Name}, nil
}

// ValidateDevice checks that a single named array exists both in sysfs and
// as a block device node.
func (r *Reader) ValidateDevice(name string) error {
	if !r.fs.IsDir(path.Join("block", name)) {
		return newError(KindConfig, name, "", fmt.Errorf("not a block device"))
	}
	node := filepath.Join(r.devRoot, name)
	ok, err := IsBlockDevice(node)
	if err != nil {
		if isNotExist(err) {
			return newError(KindConfig, name, node, fmt.Errorf("doesn't exist"))
		}
		return newError(KindConfig, name, node, err)
	}
	if !ok {
		return newError(KindConfig, name, node, fmt.Errorf("not a block device"))
	}
	return nil
}

// SortByNumber orders array names by their numeric suffix, so md2 comes
// before md10. Names without a number sort last, lexically.
func SortByNumber(names []string) []string {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ni, oki := arrayNumber(sorted[i])
		nj, okj := arrayNumber(sorted[j])
		switch {
		case oki && okj:
			return ni < nj
		case oki != okj:
			return oki
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}

func arrayNumber(name string) (int, bool) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}
