package worktree

import (
	"context"
	"errors"
	"fmt"

	"github.com/temirov/gitpush/internal/execshell"
	"github.com/temirov/gitpush/internal/gitrepo"
)

const (
	gitExecutorMissingMessageConstant  = "git executor not configured"
	statusQueryFailureTemplateConstant = "failed to inspect working tree with git %s: %w"
	gitStatusSubcommandConstant        = "status"
	gitPorcelainFlagConstant           = "--porcelain"
	gitDiffSubcommandConstant          = "diff"
	gitNameOnlyFlagConstant            = "--name-only"
	gitListFilesSubcommandConstant     = "ls-files"
	gitOthersFlagConstant              = "--others"
	gitExcludeStandardFlagConstant     = "--exclude-standard"
)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// State names the cleanliness of a working tree.
type State string

// Supported working tree states.
const (
	StateClean State = "CLEAN"
	StateDirty State = "DIRTY"
)

// Status combines the three independent change queries.
type Status struct {
	PorcelainEntries []string
	UnstagedPaths    []string
	UntrackedPaths   []string
}

// Dirty reports whether any query found a change.
func (status Status) Dirty() bool {
	return len(status.PorcelainEntries) > 0 || len(status.UnstagedPaths) > 0 || len(status.UntrackedPaths) > 0
}

// State converts the status into CLEAN or DIRTY.
func (status Status) State() State {
	if status.Dirty() {
		return StateDirty
	}
	return StateClean
}

// StatusInspector queries git for staged, unstaged, and untracked changes.
type StatusInspector struct {
	executor gitrepo.GitExecutor
}

// NewStatusInspector constructs a StatusInspector.
func NewStatusInspector(executor gitrepo.GitExecutor) (*StatusInspector, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &StatusInspector{executor: executor}, nil
}

// Inspect runs every query against the repository.
func (inspector *StatusInspector) Inspect(executionContext context.Context, repositoryPath string) (Status, error) {
	porcelainEntries, porcelainError := inspector.query(executionContext, repositoryPath, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if porcelainError != nil {
		return Status{}, porcelainError
	}

	unstagedPaths, unstagedError := inspector.query(executionContext, repositoryPath, gitDiffSubcommandConstant, gitNameOnlyFlagConstant)
	if unstagedError != nil {
		return Status{}, unstagedError
	}

	untrackedPaths, untrackedError := inspector.query(executionContext, repositoryPath, gitListFilesSubcommandConstant, gitOthersFlagConstant, gitExcludeStandardFlagConstant)
	if untrackedError != nil {
		return Status{}, untrackedError
	}

	return Status{PorcelainEntries: porcelainEntries, UnstagedPaths: unstagedPaths, UntrackedPaths: untrackedPaths}, nil
}

func (inspector *StatusInspector) query(executionContext context.Context, repositoryPath string, arguments ...string) ([]string, error) {
	result, executionError := inspector.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return nil, fmt.Errorf(statusQueryFailureTemplateConstant, arguments[0], executionError)
	}
	return gitrepo.SplitOutputLines(result.StandardOutput), nil
}
