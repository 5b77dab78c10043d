// Package reconcile brings the local checkout onto a target branch.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitpush/internal/execshell"
	"github.com/temirov/gitpush/internal/gitrepo"
)

const (
	repositoryPathRequiredMessageConstant    = "repository path must be provided"
	branchNameRequiredMessageConstant        = "branch name must be provided"
	gitExecutorMissingMessageConstant        = "git executor not configured"
	localBranchLookupFailureTemplateConstant = "failed to inspect local branches: %w"
	gitCheckoutFailureTemplateConstant       = "failed to switch to branch %q: %w"
	gitCreateBranchFailureTemplateConstant   = "failed to create branch %q: %w"
	defaultRemoteNameConstant                = "origin"
	remoteReferenceTemplateConstant          = "%s/%s"
	gitCheckoutSubcommandConstant            = "checkout"
	gitCreateBranchFlagConstant              = "-b"
	gitPullSubcommandConstant                = "pull"
	gitTerminalPromptEnvironmentNameConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableValue = "0"
	trackingFallbackMessageConstant          = "Tracking the remote branch failed; created a local branch instead"
	pullWarningMessageConstant               = "Pull failed; continuing with the local branch"
	logFieldRepositoryConstant               = "repository"
	logFieldBranchConstant                   = "branch"
	logFieldRemoteConstant                   = "remote"
	logFieldActionConstant                   = "action"
	reconciledMessageConstant                = "Branch reconciled"
)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrBranchNameRequired indicates the branch name option was empty.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// Action names the checkout performed by a reconciliation.
type Action string

// Supported reconciliation actions.
const (
	ActionNone                 Action = "none"
	ActionCreatedTracking      Action = "created_tracking"
	ActionCreatedAfterFallback Action = "created_after_tracking_failure"
	ActionCreatedLocal         Action = "created_local"
	ActionSwitched             Action = "switched"
)

// ServiceDependencies enumerates collaborators required by the service.
type ServiceDependencies struct {
	GitExecutor gitrepo.GitExecutor
	Logger      *zap.Logger
}

// Options configure a reconciliation.
type Options struct {
	RepositoryPath     string
	RemoteName         string
	TargetBranch       string
	CurrentBranch      string
	RemoteBranchExists bool
}

// Result captures the outcome of a reconciliation.
type Result struct {
	BranchName string
	Action     Action
	// TrackingError holds the failure that triggered the plain-branch fallback.
	TrackingError error
	Pulled        bool
	// PullError holds the pull failure, which is reported but never fatal.
	PullError error
}

// Service reconciles local branch state with the target branch.
type Service struct {
	executor          gitrepo.GitExecutor
	repositoryManager *gitrepo.RepositoryManager
	logger            *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	repositoryManager, managerError := gitrepo.NewRepositoryManager(dependencies.GitExecutor)
	if managerError != nil {
		return nil, managerError
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{executor: dependencies.GitExecutor, repositoryManager: repositoryManager, logger: logger}, nil
}

// Reconcile checks out the target branch according to its local and remote presence,
// then pulls it when it exists on the remote.
func (service *Service) Reconcile(executionContext context.Context, options Options) (Result, error) {
	repositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(repositoryPath) == 0 {
		return Result{}, ErrRepositoryPathRequired
	}

	targetBranch := strings.TrimSpace(options.TargetBranch)
	if len(targetBranch) == 0 {
		return Result{}, ErrBranchNameRequired
	}

	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		remoteName = defaultRemoteNameConstant
	}

	result := Result{BranchName: targetBranch, Action: ActionNone}
	if targetBranch != strings.TrimSpace(options.CurrentBranch) {
		checkoutResult, checkoutError := service.checkout(executionContext, repositoryPath, remoteName, targetBranch, options.RemoteBranchExists)
		if checkoutError != nil {
			return Result{}, checkoutError
		}
		result = checkoutResult
	}

	if options.RemoteBranchExists {
		_, pullError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:            []string{gitPullSubcommandConstant, remoteName, targetBranch},
			WorkingDirectory:     repositoryPath,
			EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableValue},
		})
		if pullError != nil {
			result.PullError = pullError
			service.logger.Warn(pullWarningMessageConstant, zap.String(logFieldRepositoryConstant, repositoryPath), zap.String(logFieldBranchConstant, targetBranch), zap.Error(pullError))
		} else {
			result.Pulled = true
		}
	}

	service.logger.Info(
		reconciledMessageConstant,
		zap.String(logFieldRepositoryConstant, repositoryPath),
		zap.String(logFieldBranchConstant, targetBranch),
		zap.String(logFieldRemoteConstant, remoteName),
		zap.String(logFieldActionConstant, string(result.Action)),
	)

	return result, nil
}

func (service *Service) checkout(executionContext context.Context, repositoryPath string, remoteName string, targetBranch string, remoteBranchExists bool) (Result, error) {
	localBranchExists, lookupError := service.repositoryManager.LocalBranchExists(executionContext, repositoryPath, targetBranch)
	if lookupError != nil {
		return Result{}, fmt.Errorf(localBranchLookupFailureTemplateConstant, lookupError)
	}

	if localBranchExists {
		if checkoutError := service.runCheckout(executionContext, repositoryPath, targetBranch); checkoutError != nil {
			return Result{}, fmt.Errorf(gitCheckoutFailureTemplateConstant, targetBranch, checkoutError)
		}
		return Result{BranchName: targetBranch, Action: ActionSwitched}, nil
	}

	if !remoteBranchExists {
		if createError := service.runCheckout(executionContext, repositoryPath, gitCreateBranchFlagConstant, targetBranch); createError != nil {
			return Result{}, fmt.Errorf(gitCreateBranchFailureTemplateConstant, targetBranch, createError)
		}
		return Result{BranchName: targetBranch, Action: ActionCreatedLocal}, nil
	}

	remoteReference := fmt.Sprintf(remoteReferenceTemplateConstant, remoteName, targetBranch)
	trackingError := service.runCheckout(executionContext, repositoryPath, gitCreateBranchFlagConstant, targetBranch, remoteReference)
	if trackingError == nil {
		return Result{BranchName: targetBranch, Action: ActionCreatedTracking}, nil
	}

	service.logger.Warn(trackingFallbackMessageConstant, zap.String(logFieldRepositoryConstant, repositoryPath), zap.String(logFieldBranchConstant, targetBranch), zap.Error(trackingError))
	if createError := service.runCheckout(executionContext, repositoryPath, gitCreateBranchFlagConstant, targetBranch); createError != nil {
		return Result{}, fmt.Errorf(gitCreateBranchFailureTemplateConstant, targetBranch, errors.Join(trackingError, createError))
	}
	return Result{BranchName: targetBranch, Action: ActionCreatedAfterFallback, TrackingError: trackingError}, nil
}

func (service *Service) runCheckout(executionContext context.Context, repositoryPath string, arguments ...string) error {
	_, checkoutError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        append([]string{gitCheckoutSubcommandConstant}, arguments...),
		WorkingDirectory: repositoryPath,
	})
	return checkoutError
}
