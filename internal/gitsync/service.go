package gitsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitpush/internal/bootstrap"
	"github.com/temirov/gitpush/internal/branches"
	"github.com/temirov/gitpush/internal/branches/reconcile"
	"github.com/temirov/gitpush/internal/filesystem"
	"github.com/temirov/gitpush/internal/gitrepo"
	"github.com/temirov/gitpush/internal/ignorefile"
	"github.com/temirov/gitpush/internal/overwrite"
	"github.com/temirov/gitpush/internal/prompt"
	"github.com/temirov/gitpush/internal/publish"
	"github.com/temirov/gitpush/internal/worktree"
)

const (
	gitExecutorMissingMessageConstant     = "git executor not configured"
	prompterMissingMessageConstant        = "prompter not configured"
	modeAttemptsExhaustedMessageConstant  = "no valid mode selected"
	currentBranchFailureTemplateConstant  = "failed to determine current branch: %w"
	remoteBranchesFailureTemplateConstant = "failed to list remote branches: %w"
	selectedBranchNoticeTemplateConstant  = "=== Selected branch: %s ==="
	switchCancelledNoticeConstant         = "Branch switch cancelled. Please handle your uncommitted changes first."
	pullWarningNoticeTemplateConstant     = "Warning: Could not pull latest changes from %s/%s."
	modeMenuTitleTemplateConstant         = "Do you want to push updates to '%s' or overwrite this folder with the branch's files?"
	modePushOptionKeyConstant             = "1"
	modePushOptionLabelConstant           = "Push updates to the branch"
	modeOverwriteOptionKeyConstant        = "2"
	modeOverwriteOptionLabelConstant      = "Overwrite content in the folder with the selected branch"
	modeQuestionConstant                  = "Enter your choice (1 or 2): "
	invalidModeMessageConstant            = "Invalid choice. Enter 1 or 2."
	logFieldRepositoryConstant            = "repository"
	logFieldBranchConstant                = "branch"
	logFieldModeConstant                  = "mode"
	logFieldStatusConstant                = "status"
	logFieldSwitchedConstant              = "switched"
	syncCompletedMessageConstant          = "Sync finished"
)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrPrompterNotConfigured indicates the prompter dependency was missing.
var ErrPrompterNotConfigured = errors.New(prompterMissingMessageConstant)

// ErrModeAttemptsExhausted indicates every mode answer was invalid.
var ErrModeAttemptsExhausted = errors.New(modeAttemptsExhaustedMessageConstant)

// OutcomeStatus is the terminal state of a sync run.
type OutcomeStatus string

// Supported outcome statuses.
const (
	OutcomePushed          OutcomeStatus = OutcomeStatus(publish.StatusPushed)
	OutcomePushDeferred    OutcomeStatus = OutcomeStatus(publish.StatusPushDeferred)
	OutcomeNothingToCommit OutcomeStatus = OutcomeStatus(publish.StatusNothingToCommit)
	OutcomeNoChanges       OutcomeStatus = OutcomeStatus(publish.StatusNoChanges)
	OutcomeOverwritten     OutcomeStatus = "overwritten"
	OutcomeCancelled       OutcomeStatus = "cancelled"
)

// Outcome is the final report of a sync run.
type Outcome struct {
	RepositoryPath  string
	BranchName      string
	PreviousBranch  string
	SelectionSource branches.SelectionSource
	Switched        bool
	Mode            Mode
	Status          OutcomeStatus
	Bootstrap       bootstrap.Result
	Ignore          ignorefile.Result
	Guard           worktree.GuardResult
	Reconcile       reconcile.Result
	Publish         publish.Result
	Overwrite       overwrite.Result
}

// ServiceDependencies enumerates collaborators required by the orchestrator.
type ServiceDependencies struct {
	GitExecutor gitrepo.GitExecutor
	Prompter    prompt.Prompter
	FileSystem  filesystem.FileSystem
	Locator     bootstrap.RepositoryLocator
	Logger      *zap.Logger
}

// Options configure one sync run.
type Options struct {
	Configuration CommandConfiguration
}

// Service runs the interactive branch selection, commit, and push flow.
type Service struct {
	repositoryManager *gitrepo.RepositoryManager
	prompter          prompt.Prompter
	logger            *zap.Logger
	bootstrapper      *bootstrap.Service
	ignoreRules       *ignorefile.Service
	resolver          *branches.Resolver
	guard             *worktree.Guard
	reconciler        *reconcile.Service
	publisher         *publish.Service
	overwriter        *overwrite.Service
}

// NewService constructs the orchestrator and every component it drives.
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
	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(dependencies.GitExecutor)
	if managerError != nil {
		return nil, managerError
	}
	bootstrapper, bootstrapError := bootstrap.NewService(bootstrap.ServiceDependencies{GitExecutor: dependencies.GitExecutor, Locator: dependencies.Locator, Logger: logger})
	if bootstrapError != nil {
		return nil, bootstrapError
	}
	ignoreRules, ignoreError := ignorefile.NewService(ignorefile.ServiceDependencies{FileSystem: fileSystem, GitExecutor: dependencies.GitExecutor, Logger: logger})
	if ignoreError != nil {
		return nil, ignoreError
	}
	resolver, resolverError := branches.NewResolver(branches.ResolverDependencies{Prompter: dependencies.Prompter})
	if resolverError != nil {
		return nil, resolverError
	}
	guard, guardError := worktree.NewGuard(worktree.GuardDependencies{GitExecutor: dependencies.GitExecutor, Prompter: dependencies.Prompter, Logger: logger})
	if guardError != nil {
		return nil, guardError
	}
	reconciler, reconcilerError := reconcile.NewService(reconcile.ServiceDependencies{GitExecutor: dependencies.GitExecutor, Logger: logger})
	if reconcilerError != nil {
		return nil, reconcilerError
	}
	publisher, publisherError := publish.NewService(publish.ServiceDependencies{GitExecutor: dependencies.GitExecutor, Prompter: dependencies.Prompter, Logger: logger})
	if publisherError != nil {
		return nil, publisherError
	}
	overwriter, overwriterError := overwrite.NewService(overwrite.ServiceDependencies{GitExecutor: dependencies.GitExecutor, Prompter: dependencies.Prompter, Logger: logger})
	if overwriterError != nil {
		return nil, overwriterError
	}

	return &Service{
		repositoryManager: repositoryManager,
		prompter:          dependencies.Prompter,
		logger:            logger,
		bootstrapper:      bootstrapper,
		ignoreRules:       ignoreRules,
		resolver:          resolver,
		guard:             guard,
		reconciler:        reconciler,
		publisher:         publisher,
		overwriter:        overwriter,
	}, nil
}

// Run executes bootstrap, ignore rules, branch selection, the uncommitted-change
// guard, reconciliation, and finally the push or overwrite path.
// Operator cancellation is reported through Outcome.Status, not as an error.
func (service *Service) Run(executionContext context.Context, options Options) (Outcome, error) {
	configuration := options.Configuration.Sanitize()
	mode, modeError := ParseMode(configuration.Mode)
	if modeError != nil {
		return Outcome{}, modeError
	}

	bootstrapResult, bootstrapError := service.bootstrapper.Bootstrap(executionContext, bootstrap.Options{
		RepositoryPath:       configuration.RepositoryPath,
		RemoteName:           configuration.RemoteName,
		RemoteURL:            configuration.RemoteURL,
		InitializeRepository: configuration.InitializeRepository,
		FetchOnStart:         configuration.FetchOnStart,
		Identity:             bootstrap.Identity{Name: configuration.Identity.Name, Email: configuration.Identity.Email},
	})
	if bootstrapError != nil {
		return Outcome{}, bootstrapError
	}
	repositoryPath := bootstrapResult.RepositoryRoot
	outcome := Outcome{RepositoryPath: repositoryPath, Bootstrap: bootstrapResult}

	if configuration.Ignore.Enabled {
		ignoreResult, ignoreError := service.ignoreRules.Ensure(executionContext, ignorefile.Options{
			RepositoryPath: repositoryPath,
			FileName:       configuration.Ignore.File,
			ManagedPaths:   configuration.Ignore.ManagedPaths,
			Rules:          configuration.Ignore.Rules,
		})
		if ignoreError != nil {
			return Outcome{}, ignoreError
		}
		outcome.Ignore = ignoreResult
	}

	currentBranch, branchSet, discoveryError := DiscoverBranches(executionContext, service.repositoryManager, repositoryPath, configuration.RemoteName)
	if discoveryError != nil {
		return Outcome{}, discoveryError
	}
	outcome.PreviousBranch = currentBranch

	selection, selectionError := service.resolver.Resolve(branches.ResolveOptions{
		BranchSet:     branchSet,
		CurrentBranch: currentBranch,
		MaxAttempts:   configuration.MaxPromptAttempts,
	})
	if errors.Is(selectionError, branches.ErrSelectionAborted) {
		return service.finish(outcome, OutcomeCancelled), nil
	}
	if selectionError != nil {
		return Outcome{}, selectionError
	}
	outcome.BranchName = selection.BranchName
	outcome.SelectionSource = selection.Source
	if notifyError := service.prompter.Notify(fmt.Sprintf(selectedBranchNoticeTemplateConstant, selection.BranchName)); notifyError != nil {
		return Outcome{}, notifyError
	}

	remoteBranchExists := branchSet.Contains(selection.BranchName)
	if selection.BranchName != currentBranch {
		guardResult, guardError := service.guard.Protect(executionContext, worktree.GuardOptions{
			RepositoryPath: repositoryPath,
			MaxAttempts:    configuration.MaxPromptAttempts,
		})
		outcome.Guard = guardResult
		if guardError != nil {
			return outcome, guardError
		}
		if guardResult.Cancelled() {
			if notifyError := service.prompter.Notify(switchCancelledNoticeConstant); notifyError != nil {
				return Outcome{}, notifyError
			}
			return service.finish(outcome, OutcomeCancelled), nil
		}
	}

	reconcileResult, reconcileError := service.reconciler.Reconcile(executionContext, reconcile.Options{
		RepositoryPath:     repositoryPath,
		RemoteName:         configuration.RemoteName,
		TargetBranch:       selection.BranchName,
		CurrentBranch:      currentBranch,
		RemoteBranchExists: remoteBranchExists,
	})
	if reconcileError != nil {
		return outcome, reconcileError
	}
	outcome.Reconcile = reconcileResult
	outcome.Switched = reconcileResult.Action != reconcile.ActionNone
	if reconcileResult.PullError != nil {
		if notifyError := service.prompter.Notify(fmt.Sprintf(pullWarningNoticeTemplateConstant, configuration.RemoteName, selection.BranchName)); notifyError != nil {
			return Outcome{}, notifyError
		}
	}

	if mode == ModeAsk {
		chosenMode, chooseError := service.askMode(selection.BranchName, configuration.MaxPromptAttempts)
		if chooseError != nil {
			return outcome, chooseError
		}
		mode = chosenMode
	}
	outcome.Mode = mode

	if mode == ModeOverwrite {
		overwriteResult, overwriteError := service.overwriter.Overwrite(executionContext, overwrite.Options{
			RepositoryPath:      repositoryPath,
			RemoteName:          configuration.RemoteName,
			BranchName:          selection.BranchName,
			BranchSet:           branchSet,
			RequireConfirmation: configuration.RequireBranchConfirmation,
		})
		outcome.Overwrite = overwriteResult
		if errors.Is(overwriteError, overwrite.ErrConfirmationRejected) {
			return service.finish(outcome, OutcomeCancelled), nil
		}
		if overwriteError != nil {
			return outcome, overwriteError
		}
		return service.finish(outcome, OutcomeOverwritten), nil
	}

	publishResult, publishError := service.publisher.Publish(executionContext, publish.Options{
		RepositoryPath:     repositoryPath,
		RemoteName:         configuration.RemoteName,
		BranchName:         selection.BranchName,
		RemoteBranchExists: remoteBranchExists,
		ManagedPaths:       configuration.Ignore.ManagedPaths,
		UntrackByDefault:   configuration.UntrackManagedPaths,
		ExcludesFile:       configuration.Ignore.File,
		MaxAttempts:        configuration.MaxPromptAttempts,
	})
	outcome.Publish = publishResult
	if publishError != nil {
		return outcome, publishError
	}
	return service.finish(outcome, OutcomeStatus(publishResult.Status)), nil
}

// DiscoverBranches reads the current branch and the remote branch listing.
func DiscoverBranches(executionContext context.Context, repositoryManager *gitrepo.RepositoryManager, repositoryPath string, remoteName string) (string, branches.BranchSet, error) {
	currentBranch, currentError := repositoryManager.CurrentBranch(executionContext, repositoryPath)
	if currentError != nil {
		return "", branches.BranchSet{}, fmt.Errorf(currentBranchFailureTemplateConstant, currentError)
	}
	references, referencesError := repositoryManager.RemoteBranchReferences(executionContext, repositoryPath)
	if referencesError != nil {
		return "", branches.BranchSet{}, fmt.Errorf(remoteBranchesFailureTemplateConstant, referencesError)
	}
	return strings.TrimSpace(currentBranch), branches.ParseRemoteBranches(remoteName, references), nil
}

func (service *Service) askMode(branchName string, maxAttempts int) (Mode, error) {
	menu := prompt.Menu{
		Title: fmt.Sprintf(modeMenuTitleTemplateConstant, branchName),
		Options: []prompt.MenuOption{
			{Key: modePushOptionKeyConstant, Label: modePushOptionLabelConstant},
			{Key: modeOverwriteOptionKeyConstant, Label: modeOverwriteOptionLabelConstant},
		},
	}
	if presentError := service.prompter.Present(menu); presentError != nil {
		return "", presentError
	}

	mode, askError := prompt.AskUntil(service.prompter, modeQuestionConstant, maxAttempts, func(answer string) (Mode, error) {
		switch strings.TrimSpace(answer) {
		case modePushOptionKeyConstant:
			return ModePush, nil
		case modeOverwriteOptionKeyConstant:
			return ModeOverwrite, nil
		default:
			return "", prompt.InvalidAnswer(invalidModeMessageConstant)
		}
	})
	if errors.Is(askError, prompt.ErrAttemptsExhausted) {
		return "", ErrModeAttemptsExhausted
	}
	return mode, askError
}

func (service *Service) finish(outcome Outcome, status OutcomeStatus) Outcome {
	outcome.Status = status
	service.logger.Info(
		syncCompletedMessageConstant,
		zap.String(logFieldRepositoryConstant, outcome.RepositoryPath),
		zap.String(logFieldBranchConstant, outcome.BranchName),
		zap.String(logFieldModeConstant, string(outcome.Mode)),
		zap.String(logFieldStatusConstant, string(status)),
		zap.Bool(logFieldSwitchedConstant, outcome.Switched),
	)
	return outcome
}
