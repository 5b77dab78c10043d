package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/gitpush/internal/execshell"
)

const (
	gitExecutorNotConfiguredMessageConstant  = "git executor not configured"
	gitBranchSubcommandConstant              = "branch"
	gitRemoteBranchesFlagConstant            = "-r"
	gitShowCurrentFlagConstant               = "--show-current"
	gitListFlagConstant                      = "--list"
	gitConfigSubcommandConstant              = "config"
	gitLsFilesSubcommandConstant             = "ls-files"
	gitDiffSubcommandConstant                = "diff"
	gitCachedFlagConstant                    = "--cached"
	gitNameOnlyFlagConstant                  = "--name-only"
	gitFetchSubcommandConstant               = "fetch"
	gitRemoteSubcommandConstant              = "remote"
	gitRemoteSetURLSubcommandConstant        = "set-url"
	gitRemoteAddSubcommandConstant           = "add"
	gitConfigUnsetExitCodeConstant           = 1
	gitNoSuchRemoteExitCodeConstant          = 2
	gitFatalExitCodeConstant                 = 128
	currentBranchErrorTemplateConstant       = "determine current branch: %w"
	remoteBranchesErrorTemplateConstant      = "list remote branches: %w"
	localBranchErrorTemplateConstant         = "check local branch %s: %w"
	configReadErrorTemplateConstant          = "read git setting %s: %w"
	configWriteErrorTemplateConstant         = "write git setting %s: %w"
	trackedFilesErrorTemplateConstant        = "list tracked files: %w"
	stagedFilesErrorTemplateConstant         = "list staged files: %w"
	fetchErrorTemplateConstant               = "fetch %s: %w"
	remoteConfigurationErrorTemplateConstant = "configure remote %s: %w"
	lineSeparatorConstant                    = "\n"
)

// ErrGitExecutorNotConfigured indicates that no git executor was supplied.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager answers read-mostly questions about a working tree through git.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CurrentBranch returns the checked-out branch name. A detached HEAD yields an empty name.
func (manager *RepositoryManager) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitBranchSubcommandConstant, gitShowCurrentFlagConstant)
	if executionError != nil {
		return "", fmt.Errorf(currentBranchErrorTemplateConstant, executionError)
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// RemoteBranchReferences returns the raw lines reported by `git branch -r`.
func (manager *RepositoryManager) RemoteBranchReferences(executionContext context.Context, repositoryPath string) ([]string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitBranchSubcommandConstant, gitRemoteBranchesFlagConstant)
	if executionError != nil {
		return nil, fmt.Errorf(remoteBranchesErrorTemplateConstant, executionError)
	}
	return SplitOutputLines(result.StandardOutput), nil
}

// LocalBranchExists reports whether a local branch with the provided name exists.
func (manager *RepositoryManager) LocalBranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitBranchSubcommandConstant, gitListFlagConstant, branchName)
	if executionError != nil {
		return false, fmt.Errorf(localBranchErrorTemplateConstant, branchName, executionError)
	}
	return len(strings.TrimSpace(result.StandardOutput)) > 0, nil
}

// ConfigValue reads a git setting. The boolean is false when the setting is not present.
func (manager *RepositoryManager) ConfigValue(executionContext context.Context, repositoryPath string, settingName string) (string, bool, error) {
	result, executionError := manager.runExpecting(executionContext, repositoryPath, []int{gitConfigUnsetExitCodeConstant}, gitConfigSubcommandConstant, settingName)
	if executionError != nil {
		var failedError execshell.CommandFailedError
		if errors.As(executionError, &failedError) && failedError.Result.ExitCode == gitConfigUnsetExitCodeConstant {
			return "", false, nil
		}
		return "", false, fmt.Errorf(configReadErrorTemplateConstant, settingName, executionError)
	}

	settingValue := strings.TrimSpace(result.StandardOutput)
	return settingValue, len(settingValue) > 0, nil
}

// SetConfigValue writes a repository-local git setting.
func (manager *RepositoryManager) SetConfigValue(executionContext context.Context, repositoryPath string, settingName string, settingValue string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitConfigSubcommandConstant, settingName, settingValue); executionError != nil {
		return fmt.Errorf(configWriteErrorTemplateConstant, settingName, executionError)
	}
	return nil
}

// TrackedFiles lists the files currently tracked in the index.
func (manager *RepositoryManager) TrackedFiles(executionContext context.Context, repositoryPath string) ([]string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitLsFilesSubcommandConstant)
	if executionError != nil {
		return nil, fmt.Errorf(trackedFilesErrorTemplateConstant, executionError)
	}
	return SplitOutputLines(result.StandardOutput), nil
}

// StagedFiles lists the paths staged for the next commit.
func (manager *RepositoryManager) StagedFiles(executionContext context.Context, repositoryPath string) ([]string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitDiffSubcommandConstant, gitCachedFlagConstant, gitNameOnlyFlagConstant)
	if executionError != nil {
		return nil, fmt.Errorf(stagedFilesErrorTemplateConstant, executionError)
	}
	return SplitOutputLines(result.StandardOutput), nil
}

// Fetch downloads objects and references from the named remote.
func (manager *RepositoryManager) Fetch(executionContext context.Context, repositoryPath string, remoteName string) error {
	if _, executionError := manager.run(executionContext, repositoryPath, gitFetchSubcommandConstant, remoteName); executionError != nil {
		return fmt.Errorf(fetchErrorTemplateConstant, remoteName, executionError)
	}
	return nil
}

// ConfigureRemote points the named remote at remoteURL, adding the remote when set-url fails.
func (manager *RepositoryManager) ConfigureRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	_, setError := manager.runExpecting(executionContext, repositoryPath, []int{gitNoSuchRemoteExitCodeConstant, gitFatalExitCodeConstant}, gitRemoteSubcommandConstant, gitRemoteSetURLSubcommandConstant, remoteName, remoteURL)
	if setError == nil {
		return nil
	}

	if _, addError := manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteAddSubcommandConstant, remoteName, remoteURL); addError != nil {
		return fmt.Errorf(remoteConfigurationErrorTemplateConstant, remoteName, errors.Join(setError, addError))
	}
	return nil
}

func (manager *RepositoryManager) run(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	return manager.runExpecting(executionContext, repositoryPath, nil, arguments...)
}

func (manager *RepositoryManager) runExpecting(executionContext context.Context, repositoryPath string, expectedExitCodes []int, arguments ...string) (execshell.ExecutionResult, error) {
	return manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:         arguments,
		WorkingDirectory:  repositoryPath,
		ExpectedExitCodes: expectedExitCodes,
	})
}

// SplitOutputLines splits command output into trimmed, non-empty lines.
func SplitOutputLines(output string) []string {
	rawLines := strings.Split(output, lineSeparatorConstant)
	lines := make([]string, 0, len(rawLines))
	for _, rawLine := range rawLines {
		trimmedLine := strings.TrimSpace(rawLine)
		if len(trimmedLine) == 0 {
			continue
		}
		lines = append(lines, trimmedLine)
	}
	return lines
}
