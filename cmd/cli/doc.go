// Package cli constructs the gitpush command-line interface. It wires the
// Cobra command hierarchy, the Viper-backed configuration loader with its
// embedded defaults, and the zap loggers handed to the sync commands.
package cli
