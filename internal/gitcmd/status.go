// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package gitcmd

import (
	"fmt"
	"strings"
)

// Status is the parsed result of `git status --porcelain`.
type Status struct {
	Clean          bool
	StagedPaths    []string
	ModifiedPaths  []string
	UntrackedPaths []string
	DeletedPaths   []string
	ConflictPaths  []string
	RenamedPaths   []RenamedPath
}

// RenamedPath is one "old -> new" entry reported by status.
type RenamedPath struct {
	OldPath string
	NewPath string
}

// ChangedPaths returns every path that needs to be passed to `git add` to
// stage the working tree's current state in full: staged, modified,
// untracked, deleted and conflicted paths, plus the new side of every
// rename. `git add` stages a deletion as readily as a modification, so a
// single combined list is enough for callers that just want "everything
// touched" added to an index.
func (s *Status) ChangedPaths() []string {
	var paths []string
	paths = append(paths, s.StagedPaths...)
	paths = append(paths, s.ModifiedPaths...)
	paths = append(paths, s.UntrackedPaths...)
	paths = append(paths, s.DeletedPaths...)
	paths = append(paths, s.ConflictPaths...)
	for _, r := range s.RenamedPaths {
		paths = append(paths, r.NewPath)
	}
	return paths
}

// StatusParseError reports a `git status --porcelain` line this parser
// could not interpret.
type StatusParseError struct {
	Line    int
	Content string
	Reason  string
}

func (e *StatusParseError) Error() string {
	return fmt.Sprintf("parse git status line %d: %s (content: %q)", e.Line, e.Reason, e.Content)
}

// parseStatusPorcelain parses the output of `git status --porcelain`.
//
// Format:
// XY PATH
// where X = index status, Y = worktree status
//
// Status codes:
// ' ' = unmodified
// M = modified
// A = added
// D = deleted
// R = renamed
// C = copied
// U = updated but unmerged
// ? = untracked
// ! = ignored
//
// Example output:
//
//	M  README.md
//	A  newfile.go
//	?? untracked.txt
//	R  old.txt -> new.txt
func parseStatusPorcelain(output string) (*Status, error) {
	status := &Status{Clean: true}

	if strings.TrimSpace(output) == "" {
		return status, nil
	}

	lines := strings.Split(output, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if len(line) < 4 {
			return nil, &StatusParseError{Line: i, Content: line, Reason: "line too short for status format"}
		}

		indexStatus := rune(line[0])
		worktreeStatus := rune(line[1])
		path := strings.TrimSpace(line[3:])

		if indexStatus == 'R' || worktreeStatus == 'R' {
			if parts := strings.SplitN(path, " -> ", 2); len(parts) == 2 {
				status.RenamedPaths = append(status.RenamedPaths, RenamedPath{
					OldPath: strings.TrimSpace(parts[0]),
					NewPath: strings.TrimSpace(parts[1]),
				})
				status.Clean = false
				continue
			}
		}

		if err := parseStatusCode(status, indexStatus, worktreeStatus, path); err != nil {
			return nil, &StatusParseError{Line: i, Content: line, Reason: err.Error()}
		}
	}

	return status, nil
}

// parseStatusCode interprets one line's two-character status code.
func parseStatusCode(status *Status, index, worktree rune, path string) error {
	switch index {
	case 'M', 'A', 'C':
		status.StagedPaths = append(status.StagedPaths, path)
		status.Clean = false
	case 'D':
		status.StagedPaths = append(status.StagedPaths, path)
		status.DeletedPaths = append(status.DeletedPaths, path)
		status.Clean = false
	case 'U':
		status.ConflictPaths = append(status.ConflictPaths, path)
		status.Clean = false
	case '?':
		status.UntrackedPaths = append(status.UntrackedPaths, path)
		status.Clean = false
	case '!', ' ':
		// ignored / unchanged in index: no action
	default:
		return fmt.Errorf("unknown index status code: %c", index)
	}

	switch worktree {
	case 'M':
		status.ModifiedPaths = append(status.ModifiedPaths, path)
		status.Clean = false
	case 'D':
		status.DeletedPaths = append(status.DeletedPaths, path)
		status.Clean = false
	case 'U':
		status.ConflictPaths = append(status.ConflictPaths, path)
		status.Clean = false
	case '?', ' ':
		// untracked is reported via the index column; unchanged needs nothing
	default:
		if worktree != 'A' && worktree != 'R' && worktree != 'C' {
			return fmt.Errorf("unknown worktree status code: %c", worktree)
		}
	}

	return nil
}
