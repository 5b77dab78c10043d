// Package overwrite replaces the working tree with the remote copy of a branch.
package overwrite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitpush/internal/branches"
	"github.com/temirov/gitpush/internal/execshell"
	"github.com/temirov/gitpush/internal/gitrepo"
	"github.com/temirov/gitpush/internal/prompt"
)

const (
	gitExecutorMissingMessageConstant    = "git executor not configured"
	prompterMissingMessageConstant       = "prompter not configured"
	branchNotOnRemoteMessageConstant     = "branch does not exist on the remote"
	confirmationRejectedMessageConstant  = "overwrite confirmation did not match the branch name"
	branchNotOnRemoteTemplateConstant    = "cannot overwrite with %s/%s: %w"
	stepFailureTemplateConstant          = "overwrite step %q failed; run it manually with `%s`: %v"
	defaultRemoteNameConstant            = "origin"
	remoteReferenceTemplateConstant      = "%s/%s"
	manualCommandTemplateConstant        = "git %s"
	argumentSeparatorConstant            = " "
	overwriteNoticeTemplateConstant      = "Overwriting the folder content with files from %s/%s..."
	confirmationQuestionTemplateConstant = "Type the branch name (%s) to confirm the overwrite: "
	completedNoticeTemplateConstant      = "Content from %s/%s successfully overwritten locally!"
	gitResetSubcommandConstant           = "reset"
	gitHardFlagConstant                  = "--hard"
	gitCleanSubcommandConstant           = "clean"
	gitForceDirectoriesFlagConstant      = "-fd"
	gitFetchSubcommandConstant           = "fetch"
	gitCheckoutSubcommandConstant        = "checkout"
	gitForceCreateBranchFlagConstant     = "-B"
	logFieldRepositoryConstant           = "repository"
	logFieldBranchConstant               = "branch"
	logFieldRemoteConstant               = "remote"
	overwriteCompletedMessageConstant    = "Working tree overwritten"
)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrPrompterNotConfigured indicates the prompter dependency was missing.
var ErrPrompterNotConfigured = errors.New(prompterMissingMessageConstant)

// ErrBranchNotOnRemote indicates the target branch has no remote copy.
var ErrBranchNotOnRemote = errors.New(branchNotOnRemoteMessageConstant)

// ErrConfirmationRejected indicates the operator did not retype the branch name.
var ErrConfirmationRejected = errors.New(confirmationRejectedMessageConstant)

// ServiceDependencies enumerates collaborators required by the service.
type ServiceDependencies struct {
	GitExecutor gitrepo.GitExecutor
	Prompter    prompt.Prompter
	Logger      *zap.Logger
}

// Options configure one overwrite.
type Options struct {
	RepositoryPath string
	RemoteName     string
	BranchName     string
	BranchSet      branches.BranchSet
	// RequireConfirmation makes the operator retype the branch name first.
	RequireConfirmation bool
}

// Result lists the commands that ran.
type Result struct {
	BranchName       string
	RemoteReference  string
	ExecutedCommands []string
}

// StepError reports the overwrite step that failed and how to run it by hand.
type StepError struct {
	Step          string
	ManualCommand string
	Cause         error
}

// Error describes the failed step.
func (stepError StepError) Error() string {
	return fmt.Sprintf(stepFailureTemplateConstant, stepError.Step, stepError.ManualCommand, stepError.Cause)
}

// Unwrap exposes the underlying failure.
func (stepError StepError) Unwrap() error {
	return stepError.Cause
}

// Service performs destructive overwrites.
type Service struct {
	executor gitrepo.GitExecutor
	prompter prompt.Prompter
	logger   *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.Prompter == nil {
		return nil, ErrPrompterNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{executor: dependencies.GitExecutor, prompter: dependencies.Prompter, logger: logger}, nil
}

// Overwrite discards local state and checks out the remote branch in its place.
// Steps are never retried; the first failure stops the sequence.
func (service *Service) Overwrite(executionContext context.Context, options Options) (Result, error) {
	branchName := strings.TrimSpace(options.BranchName)
	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		remoteName = defaultRemoteNameConstant
	}

	if len(branchName) == 0 || !options.BranchSet.Contains(branchName) {
		return Result{}, fmt.Errorf(branchNotOnRemoteTemplateConstant, remoteName, branchName, ErrBranchNotOnRemote)
	}

	if options.RequireConfirmation {
		answer, askError := service.prompter.Ask(fmt.Sprintf(confirmationQuestionTemplateConstant, branchName))
		if askError != nil {
			return Result{}, askError
		}
		if strings.TrimSpace(answer) != branchName {
			return Result{}, ErrConfirmationRejected
		}
	}

	if notifyError := service.prompter.Notify(fmt.Sprintf(overwriteNoticeTemplateConstant, remoteName, branchName)); notifyError != nil {
		return Result{}, notifyError
	}

	remoteReference := fmt.Sprintf(remoteReferenceTemplateConstant, remoteName, branchName)
	result := Result{BranchName: branchName, RemoteReference: remoteReference}
	steps := [][]string{
		{gitResetSubcommandConstant, gitHardFlagConstant},
		{gitCleanSubcommandConstant, gitForceDirectoriesFlagConstant},
		{gitFetchSubcommandConstant, remoteName},
		{gitCheckoutSubcommandConstant, gitForceCreateBranchFlagConstant, branchName, remoteReference},
	}
	for _, arguments := range steps {
		commandLine := strings.Join(arguments, argumentSeparatorConstant)
		_, stepError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:        arguments,
			WorkingDirectory: options.RepositoryPath,
		})
		if stepError != nil {
			return result, StepError{Step: arguments[0], ManualCommand: fmt.Sprintf(manualCommandTemplateConstant, commandLine), Cause: stepError}
		}
		result.ExecutedCommands = append(result.ExecutedCommands, commandLine)
	}

	service.logger.Info(
		overwriteCompletedMessageConstant,
		zap.String(logFieldRepositoryConstant, options.RepositoryPath),
		zap.String(logFieldBranchConstant, branchName),
		zap.String(logFieldRemoteConstant, remoteName),
	)
	return result, service.prompter.Notify(fmt.Sprintf(completedNoticeTemplateConstant, remoteName, branchName))
}
