package cli

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// envBindings maps flag names to the environment variables that supply
// their defaults.
var envBindings = map[string]string{
	"clusters":       "LANDTINT_CLUSTERS",
	"restarts":       "LANDTINT_RESTARTS",
	"max-iterations": "LANDTINT_MAX_ITERATIONS",
	"epsilon":        "LANDTINT_EPSILON",
	"seed-mode":      "LANDTINT_SEED_MODE",
	"cache-dir":      "LANDTINT_CACHE_DIR",
	"listen":         "LANDTINT_LISTEN",
}

// applyEnv fills flags that were not set on the command line from the
// environment. Flags always win over the environment. Values are written
// through the flag's Value so Changed keeps meaning "given on the command
// line".
func applyEnv(fs *pflag.FlagSet) error {
	for name, env := range envBindings {
		f := fs.Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		v, ok := os.LookupEnv(env)
		if !ok || v == "" {
			continue
		}
		if err := f.Value.Set(v); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", env, v, err)
		}
	}
	return nil
}
