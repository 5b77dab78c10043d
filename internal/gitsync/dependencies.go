package gitsync

import (
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/gitpush/internal/bootstrap"
	"github.com/temirov/gitpush/internal/execshell"
	"github.com/temirov/gitpush/internal/filesystem"
	"github.com/temirov/gitpush/internal/gitrepo"
	"github.com/temirov/gitpush/internal/prompt"
	"github.com/temirov/gitpush/internal/ui"
	pathutils "github.com/temirov/gitpush/internal/utils/path"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current sync configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandDependencies holds collaborators shared by the sync command builders.
// Nil fields are replaced with operating system backed defaults.
type CommandDependencies struct {
	LoggerProvider LoggerProvider
	// ConsoleLoggerProvider supplies the logger rendering human-readable git progress.
	ConsoleLoggerProvider LoggerProvider
	ConfigurationProvider ConfigurationProvider
	GitExecutor           gitrepo.GitExecutor
	Prompter              prompt.Prompter
	FileSystem            filesystem.FileSystem
	Locator               bootstrap.RepositoryLocator
}

func (dependencies CommandDependencies) resolveLogger() *zap.Logger {
	return resolveProvidedLogger(dependencies.LoggerProvider)
}

func (dependencies CommandDependencies) resolveConfiguration() CommandConfiguration {
	if dependencies.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return dependencies.ConfigurationProvider().Sanitize()
}

func (dependencies CommandDependencies) resolveGitExecutor(logger *zap.Logger, commandTimeout time.Duration) (gitrepo.GitExecutor, error) {
	if dependencies.GitExecutor != nil {
		return dependencies.GitExecutor, nil
	}

	shellExecutor, creationError := execshell.NewShellExecutorWithOptions(logger, execshell.NewOSCommandRunner(), execshell.ShellExecutorOptions{
		CommandTimeout: commandTimeout,
		EventObserver:  ui.NewProgressReporter(resolveProvidedLogger(dependencies.ConsoleLoggerProvider)),
	})
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

func (dependencies CommandDependencies) resolvePrompter(input io.Reader, output io.Writer) prompt.Prompter {
	if dependencies.Prompter != nil {
		return dependencies.Prompter
	}
	return prompt.NewIOPrompter(input, output)
}

func (dependencies CommandDependencies) resolveFileSystem() filesystem.FileSystem {
	if dependencies.FileSystem != nil {
		return dependencies.FileSystem
	}
	return filesystem.OSFileSystem{}
}

func (dependencies CommandDependencies) resolveLocator() bootstrap.RepositoryLocator {
	if dependencies.Locator != nil {
		return dependencies.Locator
	}
	return gitrepo.NewRepositoryLocator()
}

func resolveProvidedLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveRepositoryPath(candidatePath string) (string, error) {
	return pathutils.NewRepositoryPathResolver().Resolve(candidatePath)
}
