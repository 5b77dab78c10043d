// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging and optional per-command timeouts via
// ShellExecutor, exposes OSCommandRunner for default process execution, and
// formats human-readable lifecycle messages for the git subcommands gitpush
// runs while synchronizing a repository.
package execshell
