package toolrun

import (
	"os"
	"strings"

	"github.com/dennisaldea/chipseqpipe/internal/services"
)

// RequireInputs verifies that every listed artifact exists before a tool is
// launched, so a missing upstream output surfaces as a clear diagnostic
// instead of a tool-specific failure.
func RequireInputs(operation string, paths ...string) error {
	var missing []string
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return services.Wrap(services.ErrMissingInput, "", operation, "missing input: "+strings.Join(missing, ", "), nil)
}

// EnsureDir creates a coordinate's working directory before its tasks run.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return services.Wrap(services.ErrInternal, "", "ensure directory", path, err)
	}
	return nil
}
