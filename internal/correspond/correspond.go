// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package correspond pairs text leaves between an original subtree and its
// clone. No id survives cloning, so pairing is purely positional: both sides
// are collected by the same depth-first traversal and matched by index.
// Precondition: the clone is structurally identical to the original. When it
// is not, the pairing covers only the shorter side and a diagnostic is
// reported instead of failing.
package correspond

import (
	"fmt"
	"strings"

	"github.com/glotframe/glotframe/internal/canvas"
	"github.com/glotframe/glotframe/internal/model"
)

// BuildMap pairs the original's translatable units with the clone's text
// leaves by DFS index. units must be in scan order, i.e. the order Scan
// extracted them, so that units[i] corresponds to the i-th non-skipped leaf.
// The returned diagnostic is empty when both sides line up exactly.
func BuildMap(original, clone canvas.Node, units []model.TextUnit) (map[string]canvas.TextNode, string) {
	origLeaves := translatable(original)
	cloneLeaves := translatable(clone)

	n := len(origLeaves)
	if len(cloneLeaves) < n {
		n = len(cloneLeaves)
	}
	if n > len(units) {
		n = len(units)
	}

	handles := make(map[string]canvas.TextNode, n)
	for i := 0; i < n; i++ {
		handles[units[i].ID] = cloneLeaves[i]
	}

	diag := ""
	if len(origLeaves) != len(cloneLeaves) {
		diag = fmt.Sprintf("text leaf count mismatch: original has %d, clone has %d; %d units mapped",
			len(origLeaves), len(cloneLeaves), n)
	}
	return handles, diag
}

// translatable collects the text leaves the scanner would extract: non-empty
// and outside locked chains, in DFS order. Skipping must match the scanner
// exactly or indexes drift.
func translatable(root canvas.Node) []canvas.TextNode {
	var out []canvas.TextNode
	canvas.WalkText(root, func(t canvas.TextNode) {
		if strings.TrimSpace(t.Characters()) == "" {
			return
		}
		if canvas.HasLockedAncestor(t) {
			return
		}
		out = append(out, t)
	})
	return out
}
