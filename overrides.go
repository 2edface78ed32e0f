package anvil

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// OverridesEnv is the environment variable read by the default
// OverrideResolver. Its value lists per-arena concurrency overrides in the
// form "name:count,name:count".
const OverridesEnv = "ANVIL_PARALLEL_OVERRIDES"

// OverrideResolver lazily parses the concurrency-override string exactly
// once per resolver. The raw string is read from its source on first Resolve
// and the parsed mapping (or the parse error) is memoized for every later
// call.
type OverrideResolver struct {
	once      sync.Once
	source    func() string
	overrides map[string]int
	err       error
}

// NewOverrideResolver creates a resolver over a fixed raw override string.
func NewOverrideResolver(raw string) *OverrideResolver {
	return &OverrideResolver{source: func() string { return raw }}
}

// NewOverrideResolverFromEnv creates a resolver that reads OverridesEnv on
// first use.
func NewOverrideResolverFromEnv() *OverrideResolver {
	return &OverrideResolver{source: func() string { return os.Getenv(OverridesEnv) }}
}

// Resolve returns the arena-name to concurrency mapping. The underlying
// string is read and parsed at most once; a parse failure is fatal for the
// resolver and is returned from every subsequent call.
func (r *OverrideResolver) Resolve() (map[string]int, error) {
	r.once.Do(func() {
		r.overrides, r.err = parseOverrides(r.source())
	})
	return r.overrides, r.err
}

// parseOverrides parses "name:count(,name:count)*". Segments without a colon
// are skipped; a count that is not a positive integer is a configuration
// error. An empty input yields an empty mapping.
func parseOverrides(raw string) (map[string]int, error) {
	overrides := make(map[string]int)
	if raw == "" {
		return overrides, nil
	}

	for _, seg := range strings.Split(raw, ",") {
		name, countStr, ok := strings.Cut(seg, ":")
		if !ok {
			continue
		}
		count, err := strconv.Atoi(countStr)
		if err != nil {
			return nil, fmt.Errorf("parse concurrency for arena %q: %w", name, err)
		}
		if count < 1 {
			return nil, fmt.Errorf("concurrency for arena %q must be positive, got %d", name, count)
		}
		overrides[name] = count
	}
	return overrides, nil
}
