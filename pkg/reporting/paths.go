package reporting

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultOutputDir derives a results directory from the basket and method,
// e.g. results/BTCUSDT_ETHUSDT_walk_forward.
func DefaultOutputDir(tickers []string, method string) string {
	parts := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		parts = []string{"UNKNOWN"}
	}
	name := strings.Join(parts, "_")
	if method = strings.ToLower(strings.TrimSpace(method)); method != "" {
		name += "_" + method
	}
	return filepath.Join("results", name)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
