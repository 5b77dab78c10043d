// Package gitsync wires bootstrap, ignore rules, branch selection, the
// uncommitted-change guard, reconciliation, and the push or overwrite paths
// into the interactive sync flow, and exposes the cobra commands that drive it.
package gitsync
