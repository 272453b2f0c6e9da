package input

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Stdin is the File value that reads from standard input.
const Stdin = "-"

// Source describes how to load a text input.
type Source struct {
	// Name is used in error messages to give more context about the input.
	Name string
	// Value is an inline value provided via configuration or flags.
	Value string
	// File points to a file containing the value, or Stdin. When set it takes
	// precedence over Value.
	File string
}

// Reader used for Stdin; replaced in tests.
var stdin io.Reader = os.Stdin

// Load returns the resolved text. It is trimmed of surrounding whitespace.
// An unset source yields an empty string: whether the input is required is
// decided by the caller.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "input"
	}

	file := strings.TrimSpace(src.File)
	switch file {
	case "":
	case Stdin:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading %s from stdin: %w", name, err)
		}
		src.Value = string(data)
	default:
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		src.Value = string(data)
	}

	return strings.TrimSpace(src.Value), nil
}
