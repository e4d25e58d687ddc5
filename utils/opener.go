package utils

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openCommand returns the platform file browser invocation for dir
func openCommand(dir string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", dir)
	case "windows":
		return exec.Command("explorer", dir)
	default:
		return exec.Command("xdg-open", dir)
	}
}

// OpenFolder starts the platform file browser on dir and returns without
// waiting for it
func OpenFolder(dir string) error {
	cmd := openCommand(dir)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", dir, err)
	}
	// reap the child in the background
	go func() { _ = cmd.Wait() }()
	return nil
}
