// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package merge implements the merge orchestrator: pulling another system
// branch's commits into the receiving branch across every involved repo,
// descending into stratum and chunk repos whose ref points at the merged
// branch and rewriting those refs back to the receiving branch name once
// their own nested merge completes. Grounded on
// branch_and_merge_plugin.py's merge/merge_repo/_merge_stratum/
// _merge_chunk, generalized from this package's earlier Options/Result
// manager idiom.
package merge
