// Package morpherr defines the sentinel error kinds morph's components
// surface to the CLI, along with small helpers for wrapping a cause while
// preserving errors.Is matching against a sentinel.
package morpherr

import (
	"errors"
	"fmt"

	"github.com/baserock/morph/internal/gitcmd"
)

// Layout discovery failures (component C).
var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrBranchAmbiguous   = errors.New("system branch is ambiguous")
	ErrBranchNotFound    = errors.New("system branch not found")
)

// Branch lifecycle failures (component D).
var ErrBranchAlreadyExists = errors.New("branch already exists")

// Edit propagation failures (component E).
var ErrComponentNotFound = errors.New("stratum or chunk not found")

// Merge orchestrator failures (component F).
var (
	ErrUncommittedChanges = errors.New("repository has uncommitted changes")
	ErrRootMismatch       = errors.New("branches do not share a branch root")
)

// Ref resolution failures (component A).
var ErrBadRef = errors.New("ref is not a resolvable SHA")

// Submodule parsing failures.
var (
	ErrMissingGitmodules      = errors.New(".gitmodules not found")
	ErrMalformedSection       = errors.New("malformed .gitmodules section")
	ErrMissingSubmoduleCommit = errors.New("submodule has no recorded commit")
)

// ErrExternalCommandFailure is the sentinel an *ExternalCommandError
// unwraps to. Match it with Is(err, ErrExternalCommandFailure).
var ErrExternalCommandFailure = errors.New("external command failed")

// wrappedError pairs a sentinel kind with the error that triggered it,
// preserving both errors.Is(err, kind) and errors.Is(err, cause).
type wrappedError struct {
	kind  error
	cause error
}

func (w *wrappedError) Error() string {
	if w.cause == nil {
		return w.kind.Error()
	}
	return fmt.Sprintf("%s: %s", w.kind, w.cause)
}

func (w *wrappedError) Unwrap() error {
	return w.cause
}

func (w *wrappedError) Is(target error) bool {
	return target == w.kind
}

// Wrap associates cause with kind so that Is(result, kind) and
// Is(result, cause) both hold. If cause is nil, kind is returned bare. If
// kind is nil, cause is returned bare.
func Wrap(cause, kind error) error {
	if cause == nil {
		return kind
	}
	if kind == nil {
		return cause
	}
	return &wrappedError{kind: kind, cause: cause}
}

// WrapWithMessage attaches context to cause using standard error wrapping,
// so Is(result, cause) holds. Returns nil if cause is nil.
func WrapWithMessage(cause error, context string) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, cause)
}

// Is reports whether err matches target anywhere in its chain, nil-safe in
// both directions.
func Is(err, target error) bool {
	if err == nil || target == nil {
		return err == target
	}
	return errors.Is(err, target)
}

// ExternalCommandError wraps a failed git invocation, preserving the
// command, exit code and stderr captured by internal/gitcmd so the CLI can
// report it verbatim.
type ExternalCommandError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExternalCommandError) Error() string {
	return fmt.Sprintf("external command failed: %s (exit %d): %s", e.Command, e.ExitCode, e.Stderr)
}

func (e *ExternalCommandError) Is(target error) bool {
	return target == ErrExternalCommandFailure
}

// WrapGitError converts a *gitcmd.GitError into an *ExternalCommandError.
// Non-GitError inputs pass through unchanged; nil returns nil.
func WrapGitError(err error) error {
	if err == nil {
		return nil
	}
	var gitErr *gitcmd.GitError
	if errors.As(err, &gitErr) {
		return &ExternalCommandError{
			Command:  gitErr.Command,
			ExitCode: gitErr.ExitCode,
			Stderr:   gitErr.Stderr,
		}
	}
	return err
}
