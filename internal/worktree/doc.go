// Package worktree inspects working tree cleanliness and guards branch switches
// against uncommitted changes.
package worktree
