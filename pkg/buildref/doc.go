// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package buildref implements the build-ref synthesizer: the distributed
// commit protocol that turns a system branch's uncommitted, multi-repo
// working state into a content-addressed snapshot a build engine can
// consume. It plans which repos participate, names a deterministic
// ephemeral ref per repo, commits each repo's working tree into that ref
// through an isolated index (never touching the user's real index or
// working tree), pushes the refs, hands the snapshot to pkg/buildhook, and
// deletes the ephemeral refs again on the way out. Grounded on
// branch_and_merge_plugin.py's build/get_system_build_repos/
// generate_build_ref_names/update_build_refs/push_build_refs/
// delete_remote_build_refs, reusing internal/gitcmd's isolated-index
// plumbing and internal/morphconfig's committer-identity helper.
package buildref
