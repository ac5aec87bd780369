package buildhook

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// DefaultCommand is the build engine binary invoked when configuration
// does not override it.
const DefaultCommand = "morph-build-engine"

// Hook hands a resolved build snapshot off to a build engine.
type Hook interface {
	// Invoke runs the build engine against branchRoot (the clone directory
	// of the branch-root repo), buildRef (the ephemeral ref it was
	// committed to) and systemMorphFile (the system morphology's path
	// relative to branchRoot). stdout/stderr receive the engine's output
	// as it runs.
	Invoke(ctx context.Context, branchRoot, buildRef, systemMorphFile string, env []string, stdout, stderr io.Writer) error
}

// CommandHook runs a configured external command with the build's
// (branchRoot, buildRef, systemMorphFile) triple appended as positional
// arguments via exec.CommandContext directly, no shell involved, so the
// triple can never be reinterpreted as shell syntax.
type CommandHook struct {
	Command string
	Args    []string
}

// NewCommandHook returns a CommandHook, defaulting command to
// DefaultCommand when empty.
func NewCommandHook(command string, args []string) CommandHook {
	if command == "" {
		command = DefaultCommand
	}
	return CommandHook{Command: command, Args: args}
}

// Invoke implements Hook.
func (h CommandHook) Invoke(ctx context.Context, branchRoot, buildRef, systemMorphFile string, env []string, stdout, stderr io.Writer) error {
	args := make([]string, 0, len(h.Args)+3)
	args = append(args, h.Args...)
	args = append(args, branchRoot, buildRef, systemMorphFile)

	cmd := exec.CommandContext(ctx, h.Command, args...)
	cmd.Dir = branchRoot
	cmd.Env = env
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("buildhook: %s: %w", h.Command, err)
	}
	return nil
}

// NoopHook skips invocation and reports success. Used by tests, and by
// `morph build` when the configured build command is empty, to exercise
// the rest of the build pipeline (plan, ephemeral commit, push, cleanup)
// without a real build engine present. `morph build` has no --dry-run flag.
type NoopHook struct{}

// Invoke implements Hook by doing nothing.
func (NoopHook) Invoke(ctx context.Context, branchRoot, buildRef, systemMorphFile string, env []string, stdout, stderr io.Writer) error {
	return nil
}
