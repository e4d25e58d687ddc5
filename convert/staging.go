package convert

import (
	"fmt"
	"os"
	"path/filepath"
)

// StagingArea is the scratch directory a single unit extracts into
type StagingArea struct {
	Dir  string
	keep bool
}

// NewStagingArea creates dir. An existing directory, even an empty one, is
// never adopted: it is replaced when overwrite is set, otherwise it is left
// untouched and an error is returned.
func NewStagingArea(dir string, overwrite bool) (*StagingArea, error) {
	fi, err := os.Stat(dir)
	switch {
	case err == nil && !fi.IsDir():
		return nil, fmt.Errorf("staging path %s exists and is not a directory", dir)
	case err == nil && !overwrite:
		return nil, fmt.Errorf("staging directory %s already exists", dir)
	case err == nil:
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", dir, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to inspect staging directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &StagingArea{Dir: dir}, nil
}

// Keep turns the staging area into the deliverable; Cleanup will leave it alone
func (s *StagingArea) Keep() { s.keep = true }

// Cleanup deletes the staging directory unless it was kept
func (s *StagingArea) Cleanup() error {
	if s == nil || s.keep {
		return nil
	}
	return os.RemoveAll(s.Dir)
}

// Path returns the path of a file inside the staging area
func (s *StagingArea) Path(name string) string {
	return filepath.Join(s.Dir, name)
}
