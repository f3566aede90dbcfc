// Package secrets resolves secret material that must not live in plain
// environment dumps, such as the chat webhook URL.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Resolve returns the secret value. When filePath is set the secret is
// read from that file at call time (docker-secret style mount),
// otherwise the inline value is returned as-is. Both empty means the
// secret is unset, which callers treat as "feature disabled".
func Resolve(value, filePath string) (string, error) {
	if filePath == "" {
		return value, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("reading secret file %s: %w", filePath, err)
	}

	return strings.TrimSpace(string(data)), nil
}
