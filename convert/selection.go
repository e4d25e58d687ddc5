package convert

import (
	"fmt"
	"os"
	"path/filepath"
)

// Discover expands the user's selection into conversion units.
//
// For image input every selected folder becomes one unit, and image files
// selected directly are grouped by their parent folder. For every other
// format each matching file is a unit and folders are expanded to the files
// they contain (recursively when asked).
func Discover(paths []string, in Format, recursive bool) ([]Unit, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: nothing selected", ErrValidation)
	}
	if in == FormatImages {
		return discoverImageUnits(paths, recursive)
	}

	var units []Unit
	seen := make(map[string]bool)
	// X.cbz and X.zip would share staging area and output
	byStage := make(map[string]string)
	for _, path := range paths {
		path = filepath.Clean(path)

		fi, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot access %s: %v", ErrValidation, path, err)
		}

		var files []string
		if fi.IsDir() {
			files, err = findFiles(path, in.Accepts, recursive)
			if err != nil {
				return nil, fmt.Errorf("%w: failed to scan directory %s: %v", ErrValidation, path, err)
			}
		} else {
			if !in.Accepts(path) {
				return nil, fmt.Errorf("%w: %s is not a %s file", ErrValidation, path, in)
			}
			files = []string{path}
		}

		for _, f := range files {
			if seen[f] {
				continue
			}
			seen[f] = true

			unit := Unit{Source: f, Format: in}
			if other, ok := byStage[unit.StagingDir()]; ok {
				return nil, fmt.Errorf("%w: %s and %s would both be converted to %s",
					ErrValidation, other, f, unit.StagingDir())
			}
			byStage[unit.StagingDir()] = f
			units = append(units, unit)
		}
	}

	if len(units) == 0 {
		return nil, fmt.Errorf("%w: no %s files found in selection", ErrValidation, in)
	}
	return units, nil
}

func discoverImageUnits(paths []string, recursive bool) ([]Unit, error) {
	groups := make(map[string][]string)
	var order []string

	add := func(dir string, files ...string) {
		if _, ok := groups[dir]; !ok {
			order = append(order, dir)
		}
		groups[dir] = append(groups[dir], files...)
	}

	for _, path := range paths {
		path = filepath.Clean(path)

		fi, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot access %s: %v", ErrValidation, path, err)
		}

		if !fi.IsDir() {
			if !IsImageFile(path) {
				return nil, fmt.Errorf("%w: %s is not an image file", ErrValidation, path)
			}
			add(filepath.Dir(path), path)
			continue
		}

		if !recursive {
			files, err := findFiles(path, IsImageFile, false)
			if err != nil {
				return nil, fmt.Errorf("%w: failed to scan directory %s: %v", ErrValidation, path, err)
			}
			add(path, files...)
			continue
		}

		// recursive: every directory holding images is its own unit
		files, err := findFiles(path, IsImageFile, true)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan directory %s: %v", ErrValidation, path, err)
		}
		for _, f := range files {
			add(filepath.Dir(f), f)
		}
	}

	var units []Unit
	for _, dir := range order {
		members := dedupe(groups[dir])
		if len(members) == 0 {
			continue
		}
		sortPathsByName(members)
		units = append(units, Unit{Source: dir, Format: FormatImages, Members: members})
	}

	if len(units) == 0 {
		return nil, fmt.Errorf("%w: no image files found in selection", ErrValidation)
	}
	return units, nil
}

// findFiles uses filepath.WalkDir to collect matching files, sorted by path
func findFiles(directory string, match func(string) bool, recursive bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(directory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != directory && !recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if match(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNatural(files)
	return files, nil
}

func dedupe(files []string) []string {
	seen := make(map[string]bool, len(files))
	out := files[:0]
	for _, f := range files {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
