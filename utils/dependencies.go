package utils

import (
	"fmt"
	"os/exec"
	"runtime"
)

// ValidatePacker checks that the external RAR packer can be executed.
// packer may be a bare command name looked up in PATH or a path to a binary.
func ValidatePacker(packer string) error {
	if packer == "" {
		packer = "rar"
	}

	if _, err := exec.LookPath(packer); err != nil {
		return fmt.Errorf("RAR packer %q not found. %s", packer, getInstallationInstructions())
	}

	return nil
}

// getInstallationInstructions returns platform-specific installation instructions
func getInstallationInstructions() string {
	switch runtime.GOOS {
	case "darwin":
		return "Install with: brew install rar"
	case "linux":
		return "Install with: apt-get install rar (Ubuntu/Debian) or dnf install rar (Fedora, RPM Fusion)"
	case "windows":
		return "Download WinRAR from https://www.rarlab.com/download.htm and point --rar-path at Rar.exe"
	default:
		return "Download from https://www.rarlab.com/download.htm"
	}
}
