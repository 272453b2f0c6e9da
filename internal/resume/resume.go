package resume

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/resume-agent/internal/backend"
)

// MaxSize is the largest résumé the client uploads.
const MaxSize = 10 << 20

// ErrUnsupportedType is returned for files the backend cannot parse.
var ErrUnsupportedType = errors.New("unsupported resume type, use PDF or DOCX")

var supported = map[string]struct{}{
	".pdf":  {},
	".docx": {},
}

// Load reads the résumé at path. An empty path yields nil without error so
// that the missing input is reported by the session.
func Load(path string) (*backend.ResumeFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}

	if _, ok := supported[strings.ToLower(filepath.Ext(path))]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Base(path))
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading resume: %w", err)
	}

	if stat.IsDir() {
		return nil, fmt.Errorf("reading resume: %s is a directory", path)
	}

	if stat.Size() == 0 {
		return nil, fmt.Errorf("resume file %q is empty", path)
	}

	if stat.Size() > MaxSize {
		return nil, fmt.Errorf("resume file %q is too large: %d bytes, limit %d", path, stat.Size(), MaxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resume: %w", err)
	}

	return &backend.ResumeFile{
		Name:    filepath.Base(path),
		Content: data,
	}, nil
}
