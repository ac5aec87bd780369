// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package buildhook implements the external build-engine handoff: once the
// build-ref synthesizer has an ephemeral, content-addressed snapshot
// pushed, something has to actually turn it into artifacts. Actually
// running a build is out of scope for this repository; buildhook models
// the boundary as a single configured, shell-free external command: no
// pipes, no redirects, no shell.
package buildhook
