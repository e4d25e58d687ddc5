package convert

import (
	"path/filepath"
	"strings"
)

// Unit is one input file, or one folder of loose images, converted independently
type Unit struct {
	// Source is the input file, or the folder for image units
	Source string
	Format Format
	// Members holds the sorted image files of an image unit
	Members []string
}

// Name is the base name used for the staging area, the output and log lines
func (u Unit) Name() string {
	base := filepath.Base(u.Source)
	if u.Format == FormatImages {
		return base
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// StagingDir returns <dir>/<base name> for file units. Image units never stage.
func (u Unit) StagingDir() string {
	return filepath.Join(filepath.Dir(u.Source), u.Name())
}

// OutputPath returns where the artifact for the given output format is written.
// For image units it sits next to the folder: <parent>/<folder>.<ext>.
func (u Unit) OutputPath(out Format) string {
	if out == FormatImages {
		return u.StagingDir()
	}
	return filepath.Join(filepath.Dir(u.Source), u.Name()+out.OutputExtension())
}
