// Package publish commits the working tree and pushes it to the selected branch.
package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitpush/internal/execshell"
	"github.com/temirov/gitpush/internal/gitrepo"
	"github.com/temirov/gitpush/internal/prompt"
	"github.com/temirov/gitpush/internal/worktree"
)

const (
	prompterMissingMessageConstant        = "prompter not configured"
	repositoryPathRequiredMessageConstant = "repository path must be provided"
	branchNameRequiredMessageConstant     = "branch name must be provided"
	commitFailureTemplateConstant         = "failed to commit changes: %w"
	stageFailureTemplateConstant          = "failed to stage changes: %w"
	trackedFilesFailureTemplateConstant   = "failed to list tracked files: %w"
	stagedFilesFailureTemplateConstant    = "failed to list staged files: %w"
	defaultRemoteNameConstant             = "origin"
	defaultExcludesFileConstant           = ".gitignore"
	excludesFileSettingConstant           = "core.excludesfile"
	noChangesQuestionConstant             = "No significant changes detected by Git. Force commit anyway? (y/n): "
	trackedFilesHeadingConstant           = "=== Files to be included in commit ==="
	stagedFilesHeadingConstant            = "=== Files staged for commit ==="
	untrackQuestionTemplateConstant       = "Stop tracking managed paths (%s) before committing? (%s): "
	untrackDefaultYesHintConstant         = "Y/n"
	untrackDefaultNoHintConstant          = "y/N"
	managedPathSeparatorConstant          = ", "
	commitMessageQuestionConstant         = "Enter commit message: "
	emptyCommitMessageNoticeConstant      = "Commit message cannot be empty."
	nothingToCommitNoticeConstant         = "No changes to commit. Make sure you've added files to the repository."
	newBranchNoticeTemplateConstant       = "This is a new branch. Setting upstream to %s/%s"
	pushedNoticeTemplateConstant          = "Updates successfully pushed to %s!"
	pushRetryNoticeConstant               = "Push failed - likely due to large files. Retrying without thin packs..."
	pushDeferredNoticeConstant            = "Push still failed. Your changes are committed locally and can be pushed later with:"
	manualPushTemplateConstant            = "git %s"
	fileListEntryTemplateConstant         = "  %s"
	gitAddSubcommandConstant              = "add"
	gitAllFlagConstant                    = "-A"
	gitCurrentDirectoryConstant           = "."
	gitCommitSubcommandConstant           = "commit"
	gitMessageFlagConstant                = "-m"
	gitRemoveSubcommandConstant           = "rm"
	gitRecursiveFlagConstant              = "-r"
	gitCachedFlagConstant                 = "--cached"
	gitIgnoreUnmatchFlagConstant          = "--ignore-unmatch"
	gitPushSubcommandConstant             = "push"
	gitSetUpstreamFlagConstant            = "--set-upstream"
	gitNoThinFlagConstant                 = "--no-thin"
	argumentSeparatorConstant             = " "
	logFieldRepositoryConstant            = "repository"
	logFieldBranchConstant                = "branch"
	logFieldPathConstant                  = "path"
	logFieldStatusConstant                = "status"
	untrackWarningMessageConstant         = "Failed to untrack managed path"
	excludesWarningMessageConstant        = "Failed to pin excludes file"
	publishCompletedMessageConstant       = "Publish finished"
)

// ErrPrompterNotConfigured indicates the prompter dependency was missing.
var ErrPrompterNotConfigured = errors.New(prompterMissingMessageConstant)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrBranchNameRequired indicates the branch name option was empty.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)

// Status is the terminal state of a publish run.
type Status string

// Supported publish statuses.
const (
	StatusPushed          Status = "pushed"
	StatusPushDeferred    Status = "push_deferred"
	StatusNothingToCommit Status = "nothing_to_commit"
	StatusNoChanges       Status = "no_changes"
)

// ServiceDependencies enumerates collaborators required by the service.
type ServiceDependencies struct {
	GitExecutor gitrepo.GitExecutor
	Prompter    prompt.Prompter
	Logger      *zap.Logger
}

// Options configure one publish run.
type Options struct {
	RepositoryPath     string
	RemoteName         string
	BranchName         string
	RemoteBranchExists bool
	// ManagedPaths are removed from the index when the operator agrees to untrack them.
	ManagedPaths []string
	// UntrackByDefault is the answer assumed when the untrack question is left blank.
	UntrackByDefault bool
	ExcludesFile     string
	MaxAttempts      int
}

// Result captures what happened during a publish run.
type Result struct {
	Status         Status
	TrackedFiles   []string
	UntrackedPaths []string
	Warnings       []error
	CommitMessage  string
	StagedFiles    []string
	PushAttempts   int
	UsedNoThin     bool
	ManualCommand  string
	PushError      error
}

// Service commits local changes and pushes them.
type Service struct {
	executor          gitrepo.GitExecutor
	repositoryManager *gitrepo.RepositoryManager
	inspector         *worktree.StatusInspector
	prompter          prompt.Prompter
	logger            *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	repositoryManager, managerError := gitrepo.NewRepositoryManager(dependencies.GitExecutor)
	if managerError != nil {
		return nil, managerError
	}
	inspector, inspectorError := worktree.NewStatusInspector(dependencies.GitExecutor)
	if inspectorError != nil {
		return nil, inspectorError
	}
	if dependencies.Prompter == nil {
		return nil, ErrPrompterNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		executor:          dependencies.GitExecutor,
		repositoryManager: repositoryManager,
		inspector:         inspector,
		prompter:          dependencies.Prompter,
		logger:            logger,
	}, nil
}

// Publish commits every change in the repository and pushes the branch.
// A rejected push is retried once without thin packs; a second rejection
// keeps the local commit and reports the manual push command.
func (service *Service) Publish(executionContext context.Context, options Options) (Result, error) {
	normalizedOptions, optionsError := normalizeOptions(options)
	if optionsError != nil {
		return Result{}, optionsError
	}
	repositoryPath := normalizedOptions.RepositoryPath

	status, inspectError := service.inspector.Inspect(executionContext, repositoryPath)
	if inspectError != nil {
		return Result{}, inspectError
	}
	if !status.Dirty() {
		forceCommit, confirmError := prompt.Confirm(service.prompter, noChangesQuestionConstant)
		if confirmError != nil {
			return Result{}, confirmError
		}
		if !forceCommit {
			return service.finish(normalizedOptions, Result{Status: StatusNoChanges}), nil
		}
	}

	result := Result{}
	trackedFiles, trackedError := service.repositoryManager.TrackedFiles(executionContext, repositoryPath)
	if trackedError != nil {
		return Result{}, fmt.Errorf(trackedFilesFailureTemplateConstant, trackedError)
	}
	result.TrackedFiles = trackedFiles
	if notifyError := service.notifyList(trackedFilesHeadingConstant, trackedFiles); notifyError != nil {
		return Result{}, notifyError
	}

	if len(normalizedOptions.ManagedPaths) > 0 {
		untrack, untrackAnswerError := service.askUntrack(normalizedOptions)
		if untrackAnswerError != nil {
			return Result{}, untrackAnswerError
		}
		if untrack {
			service.untrackManagedPaths(executionContext, normalizedOptions, &result)
		}
	}

	commitMessage, messageError := prompt.AskRequired(service.prompter, commitMessageQuestionConstant, emptyCommitMessageNoticeConstant, normalizedOptions.MaxAttempts)
	if messageError != nil {
		return Result{}, messageError
	}
	result.CommitMessage = commitMessage

	if stageError := service.run(executionContext, repositoryPath, gitAddSubcommandConstant, gitAllFlagConstant, gitCurrentDirectoryConstant); stageError != nil {
		return Result{}, fmt.Errorf(stageFailureTemplateConstant, stageError)
	}

	stagedFiles, stagedError := service.repositoryManager.StagedFiles(executionContext, repositoryPath)
	if stagedError != nil {
		return Result{}, fmt.Errorf(stagedFilesFailureTemplateConstant, stagedError)
	}
	result.StagedFiles = stagedFiles
	if len(stagedFiles) == 0 {
		result.Status = StatusNothingToCommit
		if notifyError := service.prompter.Notify(nothingToCommitNoticeConstant); notifyError != nil {
			return Result{}, notifyError
		}
		return service.finish(normalizedOptions, result), nil
	}
	if notifyError := service.notifyList(stagedFilesHeadingConstant, stagedFiles); notifyError != nil {
		return Result{}, notifyError
	}

	if commitError := service.run(executionContext, repositoryPath, gitCommitSubcommandConstant, gitMessageFlagConstant, commitMessage); commitError != nil {
		return Result{}, fmt.Errorf(commitFailureTemplateConstant, commitError)
	}

	if pushError := service.push(executionContext, normalizedOptions, &result); pushError != nil {
		return Result{}, pushError
	}
	return service.finish(normalizedOptions, result), nil
}

// ManualPushCommand returns the command an operator can run to push later.
func ManualPushCommand(remoteName string, branchName string, remoteBranchExists bool) string {
	return fmt.Sprintf(manualPushTemplateConstant, strings.Join(pushArguments(remoteName, branchName, remoteBranchExists, false), argumentSeparatorConstant))
}

func (service *Service) push(executionContext context.Context, options Options, result *Result) error {
	if !options.RemoteBranchExists {
		if notifyError := service.prompter.Notify(fmt.Sprintf(newBranchNoticeTemplateConstant, options.RemoteName, options.BranchName)); notifyError != nil {
			return notifyError
		}
	}

	result.PushAttempts = 1
	firstPushError := service.run(executionContext, options.RepositoryPath, pushArguments(options.RemoteName, options.BranchName, options.RemoteBranchExists, false)...)
	if firstPushError == nil {
		result.Status = StatusPushed
		return service.prompter.Notify(fmt.Sprintf(pushedNoticeTemplateConstant, options.BranchName))
	}

	if notifyError := service.prompter.Notify(pushRetryNoticeConstant); notifyError != nil {
		return notifyError
	}
	result.PushAttempts = 2
	result.UsedNoThin = true
	retryPushError := service.run(executionContext, options.RepositoryPath, pushArguments(options.RemoteName, options.BranchName, options.RemoteBranchExists, true)...)
	if retryPushError == nil {
		result.Status = StatusPushed
		return service.prompter.Notify(fmt.Sprintf(pushedNoticeTemplateConstant, options.BranchName))
	}

	result.Status = StatusPushDeferred
	result.PushError = errors.Join(firstPushError, retryPushError)
	result.ManualCommand = ManualPushCommand(options.RemoteName, options.BranchName, options.RemoteBranchExists)
	if notifyError := service.prompter.Notify(pushDeferredNoticeConstant); notifyError != nil {
		return notifyError
	}
	return service.prompter.Notify(fmt.Sprintf(fileListEntryTemplateConstant, result.ManualCommand))
}

func (service *Service) askUntrack(options Options) (bool, error) {
	defaultHint := untrackDefaultNoHintConstant
	if options.UntrackByDefault {
		defaultHint = untrackDefaultYesHintConstant
	}
	question := fmt.Sprintf(untrackQuestionTemplateConstant, strings.Join(options.ManagedPaths, managedPathSeparatorConstant), defaultHint)
	answer, askError := service.prompter.Ask(question)
	if askError != nil {
		return false, askError
	}
	if len(strings.TrimSpace(answer)) == 0 {
		return options.UntrackByDefault, nil
	}
	return prompt.IsAffirmative(answer), nil
}

func (service *Service) untrackManagedPaths(executionContext context.Context, options Options, result *Result) {
	for _, managedPath := range options.ManagedPaths {
		untrackError := service.run(executionContext, options.RepositoryPath, gitRemoveSubcommandConstant, gitRecursiveFlagConstant, gitCachedFlagConstant, gitIgnoreUnmatchFlagConstant, managedPath)
		if untrackError != nil {
			result.Warnings = append(result.Warnings, untrackError)
			service.logger.Warn(untrackWarningMessageConstant, zap.String(logFieldRepositoryConstant, options.RepositoryPath), zap.String(logFieldPathConstant, managedPath), zap.Error(untrackError))
			continue
		}
		result.UntrackedPaths = append(result.UntrackedPaths, managedPath)
	}

	if configError := service.repositoryManager.SetConfigValue(executionContext, options.RepositoryPath, excludesFileSettingConstant, options.ExcludesFile); configError != nil {
		result.Warnings = append(result.Warnings, configError)
		service.logger.Warn(excludesWarningMessageConstant, zap.String(logFieldRepositoryConstant, options.RepositoryPath), zap.Error(configError))
	}
}

func (service *Service) notifyList(heading string, entries []string) error {
	if notifyError := service.prompter.Notify(heading); notifyError != nil {
		return notifyError
	}
	for _, entry := range entries {
		if notifyError := service.prompter.Notify(fmt.Sprintf(fileListEntryTemplateConstant, entry)); notifyError != nil {
			return notifyError
		}
	}
	return nil
}

func (service *Service) finish(options Options, result Result) Result {
	service.logger.Info(
		publishCompletedMessageConstant,
		zap.String(logFieldRepositoryConstant, options.RepositoryPath),
		zap.String(logFieldBranchConstant, options.BranchName),
		zap.String(logFieldStatusConstant, string(result.Status)),
	)
	return result
}

func (service *Service) run(executionContext context.Context, repositoryPath string, arguments ...string) error {
	_, executionError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

func pushArguments(remoteName string, branchName string, remoteBranchExists bool, withoutThinPacks bool) []string {
	arguments := []string{gitPushSubcommandConstant}
	if withoutThinPacks {
		arguments = append(arguments, gitNoThinFlagConstant)
	}
	if !remoteBranchExists {
		arguments = append(arguments, gitSetUpstreamFlagConstant)
	}
	return append(arguments, remoteName, branchName)
}

func normalizeOptions(options Options) (Options, error) {
	options.RepositoryPath = strings.TrimSpace(options.RepositoryPath)
	if len(options.RepositoryPath) == 0 {
		return Options{}, ErrRepositoryPathRequired
	}
	options.BranchName = strings.TrimSpace(options.BranchName)
	if len(options.BranchName) == 0 {
		return Options{}, ErrBranchNameRequired
	}
	options.RemoteName = strings.TrimSpace(options.RemoteName)
	if len(options.RemoteName) == 0 {
		options.RemoteName = defaultRemoteNameConstant
	}
	options.ExcludesFile = strings.TrimSpace(options.ExcludesFile)
	if len(options.ExcludesFile) == 0 {
		options.ExcludesFile = defaultExcludesFileConstant
	}
	if options.MaxAttempts < 1 {
		options.MaxAttempts = prompt.DefaultMaxAttempts
	}

	managedPaths := make([]string, 0, len(options.ManagedPaths))
	for _, managedPath := range options.ManagedPaths {
		if trimmedPath := strings.TrimSpace(managedPath); len(trimmedPath) > 0 {
			managedPaths = append(managedPaths, trimmedPath)
		}
	}
	options.ManagedPaths = managedPaths
	return options, nil
}
