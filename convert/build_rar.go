package convert

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

// RarBuilder packs pages with an external RAR packer. The call blocks until
// the packer exits; there is no timeout, so a hung packer stalls the batch.
type RarBuilder struct {
	Packer string
	Args   []string
}

// NewRarBuilder parses the packer argument string shell-style
func NewRarBuilder(packer, args string) (*RarBuilder, error) {
	if packer == "" {
		packer = "rar"
	}
	if strings.TrimSpace(args) == "" {
		args = DefaultRarArgs
	}

	parts, err := shlex.Split(args)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid packer arguments %q: %v", ErrValidation, args, err)
	}

	return &RarBuilder{Packer: packer, Args: parts}, nil
}

// Command returns the packer invocation for the given output and pages
func (b *RarBuilder) Command(pages []string, output string) *exec.Cmd {
	args := make([]string, 0, len(b.Args)+1+len(pages))
	args = append(args, b.Args...)
	args = append(args, output)
	args = append(args, pages...)
	return exec.Command(b.Packer, args...)
}

func (b *RarBuilder) Build(_ context.Context, pages []string, output string) error {
	if len(pages) == 0 {
		return errors.New("no pages to pack")
	}
	if err := removeExisting(output); err != nil {
		return err
	}

	cmd := b.Command(pages, output)
	combined, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", b.Packer, err, extractFirstLine(string(combined)))
	}
	return nil
}

// extractFirstLine extracts just the first line from a multi-line string
func extractFirstLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
		return strings.TrimSpace(lines[0])
	}
	return "no additional information available"
}
