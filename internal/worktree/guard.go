package worktree

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitpush/internal/execshell"
	"github.com/temirov/gitpush/internal/gitrepo"
	"github.com/temirov/gitpush/internal/prompt"
)

const (
	prompterMissingMessageConstant        = "prompter not configured"
	worktreeStillDirtyMessageConstant     = "working tree still has uncommitted changes"
	guardAttemptsExhaustedMessageConstant = "no valid choice made for uncommitted changes"
	guardActionFailureTemplateConstant    = "failed to %s uncommitted changes: %w"
	dirtyNoticeConstant                   = "You have uncommitted changes that need to be handled before switching branches."
	guardMenuTitleConstant                = "How would you like to handle these changes?"
	commitOptionLabelConstant             = "Commit changes to current branch"
	stashOptionLabelConstant              = "Stash changes (save them for later)"
	discardOptionLabelConstant            = "Discard changes"
	cancelOptionLabelConstant             = "Cancel operation"
	guardChoiceQuestionConstant           = "Enter your choice (1/2/3/4): "
	invalidGuardChoiceMessageConstant     = "Invalid choice. Enter 1, 2, 3 or 4."
	commitMessageQuestionConstant         = "Enter a commit message: "
	emptyCommitMessageNoticeConstant      = "Commit message cannot be empty."
	stashMessageQuestionConstant          = "Enter a stash message (optional): "
	discardConfirmationQuestionConstant   = "Are you sure you want to discard all changes? This cannot be undone. (y/n): "
	committedNoticeConstant               = "Changes committed."
	stashedNoticeConstant                 = "Changes stashed."
	discardedNoticeConstant               = "Changes discarded."
	cancelledNoticeConstant               = "Operation cancelled."
	gitAddSubcommandConstant              = "add"
	gitAllFlagConstant                    = "-A"
	gitCommitSubcommandConstant           = "commit"
	gitMessageFlagConstant                = "-m"
	gitStashSubcommandConstant            = "stash"
	gitStashPushSubcommandConstant        = "push"
	gitIncludeUntrackedFlagConstant       = "--include-untracked"
	gitResetSubcommandConstant            = "reset"
	gitHardFlagConstant                   = "--hard"
	gitCleanSubcommandConstant            = "clean"
	gitForceDirectoriesFlagConstant       = "-fd"
	logFieldRepositoryConstant            = "repository"
	logFieldChoiceConstant                = "choice"
	guardResolvedMessageConstant          = "Uncommitted changes handled"
)

// ErrPrompterNotConfigured indicates the prompter dependency was missing.
var ErrPrompterNotConfigured = errors.New(prompterMissingMessageConstant)

// ErrWorktreeStillDirty indicates a mutating choice left changes behind.
var ErrWorktreeStillDirty = errors.New(worktreeStillDirtyMessageConstant)

// ErrGuardAttemptsExhausted indicates every menu answer was invalid.
var ErrGuardAttemptsExhausted = errors.New(guardAttemptsExhaustedMessageConstant)

// Choice names how the operator handled uncommitted changes.
type Choice string

// Supported guard choices.
const (
	ChoiceNone    Choice = "none"
	ChoiceCommit  Choice = "commit"
	ChoiceStash   Choice = "stash"
	ChoiceDiscard Choice = "discard"
	ChoiceCancel  Choice = "cancel"
)

var guardMenuChoices = []struct {
	key    string
	label  string
	choice Choice
}{
	{key: "1", label: commitOptionLabelConstant, choice: ChoiceCommit},
	{key: "2", label: stashOptionLabelConstant, choice: ChoiceStash},
	{key: "3", label: discardOptionLabelConstant, choice: ChoiceDiscard},
	{key: "4", label: cancelOptionLabelConstant, choice: ChoiceCancel},
}

// GuardDependencies enumerates collaborators required by the guard.
type GuardDependencies struct {
	GitExecutor gitrepo.GitExecutor
	Prompter    prompt.Prompter
	Logger      *zap.Logger
}

// GuardOptions configure one guard run.
type GuardOptions struct {
	RepositoryPath string
	MaxAttempts    int
}

// GuardResult reports the state before and after the guard ran.
type GuardResult struct {
	InitialState State
	Choice       Choice
	FinalState   State
}

// Cancelled reports whether the operator left the tree dirty on purpose.
func (result GuardResult) Cancelled() bool {
	return result.Choice == ChoiceCancel
}

// Guard ensures the working tree is clean before a branch switch.
type Guard struct {
	executor  gitrepo.GitExecutor
	inspector *StatusInspector
	prompter  prompt.Prompter
	logger    *zap.Logger
}

// NewGuard constructs a Guard from the provided dependencies.
func NewGuard(dependencies GuardDependencies) (*Guard, error) {
	inspector, inspectorError := NewStatusInspector(dependencies.GitExecutor)
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
	return &Guard{executor: dependencies.GitExecutor, inspector: inspector, prompter: dependencies.Prompter, logger: logger}, nil
}

// Protect returns immediately for a clean tree. A dirty tree is resolved through
// the commit, stash, discard, or cancel menu and then inspected again.
func (guard *Guard) Protect(executionContext context.Context, options GuardOptions) (GuardResult, error) {
	initialStatus, inspectError := guard.inspector.Inspect(executionContext, options.RepositoryPath)
	if inspectError != nil {
		return GuardResult{}, inspectError
	}
	if !initialStatus.Dirty() {
		return GuardResult{InitialState: StateClean, Choice: ChoiceNone, FinalState: StateClean}, nil
	}

	maxAttempts := options.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = prompt.DefaultMaxAttempts
	}

	choice, choiceError := guard.askChoice(maxAttempts)
	if choiceError != nil {
		return GuardResult{}, choiceError
	}

	if choice == ChoiceDiscard {
		confirmed, confirmError := prompt.Confirm(guard.prompter, discardConfirmationQuestionConstant)
		if confirmError != nil {
			return GuardResult{}, confirmError
		}
		if !confirmed {
			choice = ChoiceCancel
		}
	}

	if choice == ChoiceCancel {
		if notifyError := guard.prompter.Notify(cancelledNoticeConstant); notifyError != nil {
			return GuardResult{}, notifyError
		}
		return GuardResult{InitialState: StateDirty, Choice: ChoiceCancel, FinalState: StateDirty}, nil
	}

	notice, applyError := guard.apply(executionContext, options.RepositoryPath, choice, maxAttempts)
	if applyError != nil {
		return GuardResult{}, fmt.Errorf(guardActionFailureTemplateConstant, choice, applyError)
	}

	finalStatus, finalInspectError := guard.inspector.Inspect(executionContext, options.RepositoryPath)
	if finalInspectError != nil {
		return GuardResult{}, finalInspectError
	}
	result := GuardResult{InitialState: StateDirty, Choice: choice, FinalState: finalStatus.State()}
	if finalStatus.Dirty() {
		return result, ErrWorktreeStillDirty
	}

	if notifyError := guard.prompter.Notify(notice); notifyError != nil {
		return GuardResult{}, notifyError
	}
	guard.logger.Info(guardResolvedMessageConstant, zap.String(logFieldRepositoryConstant, options.RepositoryPath), zap.String(logFieldChoiceConstant, string(choice)))
	return result, nil
}

func (guard *Guard) askChoice(maxAttempts int) (Choice, error) {
	if notifyError := guard.prompter.Notify(dirtyNoticeConstant); notifyError != nil {
		return ChoiceNone, notifyError
	}

	menu := prompt.Menu{Title: guardMenuTitleConstant}
	for _, menuChoice := range guardMenuChoices {
		menu.Options = append(menu.Options, prompt.MenuOption{Key: menuChoice.key, Label: menuChoice.label})
	}
	if presentError := guard.prompter.Present(menu); presentError != nil {
		return ChoiceNone, presentError
	}

	choice, askError := prompt.AskUntil(guard.prompter, guardChoiceQuestionConstant, maxAttempts, func(answer string) (Choice, error) {
		trimmedAnswer := strings.TrimSpace(answer)
		for _, menuChoice := range guardMenuChoices {
			if trimmedAnswer == menuChoice.key {
				return menuChoice.choice, nil
			}
		}
		return ChoiceNone, prompt.InvalidAnswer(invalidGuardChoiceMessageConstant)
	})
	if errors.Is(askError, prompt.ErrAttemptsExhausted) {
		return ChoiceNone, ErrGuardAttemptsExhausted
	}
	return choice, askError
}

func (guard *Guard) apply(executionContext context.Context, repositoryPath string, choice Choice, maxAttempts int) (string, error) {
	switch choice {
	case ChoiceCommit:
		commitMessage, messageError := prompt.AskRequired(guard.prompter, commitMessageQuestionConstant, emptyCommitMessageNoticeConstant, maxAttempts)
		if messageError != nil {
			return "", messageError
		}
		if addError := guard.run(executionContext, repositoryPath, gitAddSubcommandConstant, gitAllFlagConstant); addError != nil {
			return "", addError
		}
		return committedNoticeConstant, guard.run(executionContext, repositoryPath, gitCommitSubcommandConstant, gitMessageFlagConstant, commitMessage)
	case ChoiceStash:
		stashMessage, messageError := guard.prompter.Ask(stashMessageQuestionConstant)
		if messageError != nil {
			return "", messageError
		}
		arguments := []string{gitStashSubcommandConstant, gitStashPushSubcommandConstant, gitIncludeUntrackedFlagConstant}
		if trimmedMessage := strings.TrimSpace(stashMessage); len(trimmedMessage) > 0 {
			arguments = append(arguments, gitMessageFlagConstant, trimmedMessage)
		}
		return stashedNoticeConstant, guard.run(executionContext, repositoryPath, arguments...)
	default:
		if resetError := guard.run(executionContext, repositoryPath, gitResetSubcommandConstant, gitHardFlagConstant); resetError != nil {
			return "", resetError
		}
		return discardedNoticeConstant, guard.run(executionContext, repositoryPath, gitCleanSubcommandConstant, gitForceDirectoriesFlagConstant)
	}
}

func (guard *Guard) run(executionContext context.Context, repositoryPath string, arguments ...string) error {
	_, executionError := guard.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
	return executionError
}
