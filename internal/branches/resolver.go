package branches

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/gitpush/internal/prompt"
)

const (
	prompterNotConfiguredMessageConstant      = "prompter not configured"
	selectionAbortedMessageConstant           = "branch selection aborted"
	selectionAttemptsExhaustedMessageConstant = "no valid branch selected"
	availableBranchesTitleConstant            = "Available remote branches:"
	noRemoteBranchesTitleConstant             = "No remote branches found. Have you pushed to the remote repository yet?"
	currentBranchOptionKeyConstant            = "C"
	currentBranchOptionLabelTemplateConstant  = "Use current branch (%s)"
	detachedCurrentBranchLabelConstant        = "Use current branch (unavailable: detached HEAD)"
	newBranchOptionKeyConstant                = "N"
	newBranchOptionLabelConstant              = "Enter a new branch name"
	abortOptionKeyConstant                    = "Q"
	abortOptionLabelConstant                  = "Abort"
	selectionQuestionConstant                 = "Enter your choice: "
	newBranchQuestionConstant                 = "Enter new branch name: "
	invalidChoiceMessageConstant              = "Invalid choice. Please try again."
	outOfRangeTemplateConstant                = "Invalid selection. Choose a number between 1 and %d."
	noNumberedOptionsMessageConstant          = "There are no remote branches to select by number."
	detachedHeadMessageConstant               = "There is no current branch (detached HEAD)."
	emptyBranchNameMessageConstant            = "Branch name cannot be empty."
	invalidBranchNameTemplateConstant         = "Branch name %q is not valid."
	invalidBranchNameCharactersConstant       = " \t~^:?*[\\"
	branchNameOptionPrefixConstant            = "-"
	branchNameParentPathConstant              = ".."
)

// ErrPrompterNotConfigured indicates that no prompter was supplied.
var ErrPrompterNotConfigured = errors.New(prompterNotConfiguredMessageConstant)

// ErrSelectionAborted indicates that the operator chose to abort.
var ErrSelectionAborted = errors.New(selectionAbortedMessageConstant)

// ErrSelectionAttemptsExhausted indicates that every attempt produced invalid input.
var ErrSelectionAttemptsExhausted = errors.New(selectionAttemptsExhaustedMessageConstant)

// SelectionSource describes which menu entry produced the branch name.
type SelectionSource string

// Supported selection sources.
const (
	SelectionSourceRemote  SelectionSource = "remote"
	SelectionSourceCurrent SelectionSource = "current"
	SelectionSourceNew     SelectionSource = "new"
)

// Selection is the branch chosen by the operator.
type Selection struct {
	BranchName string
	Source     SelectionSource
}

// ResolverDependencies enumerates collaborators required by the resolver.
type ResolverDependencies struct {
	Prompter prompt.Prompter
}

// ResolveOptions configure one branch selection.
type ResolveOptions struct {
	BranchSet     BranchSet
	CurrentBranch string
	MaxAttempts   int
}

// Resolver asks the operator to choose a target branch.
type Resolver struct {
	prompter prompt.Prompter
}

// NewResolver constructs a Resolver from the provided dependencies.
func NewResolver(dependencies ResolverDependencies) (*Resolver, error) {
	if dependencies.Prompter == nil {
		return nil, ErrPrompterNotConfigured
	}
	return &Resolver{prompter: dependencies.Prompter}, nil
}

// Resolve presents the branch menu and returns a non-empty branch name.
func (resolver *Resolver) Resolve(options ResolveOptions) (Selection, error) {
	currentBranch := strings.TrimSpace(options.CurrentBranch)
	if presentError := resolver.prompter.Present(BuildMenu(options.BranchSet, currentBranch)); presentError != nil {
		return Selection{}, presentError
	}

	maxAttempts := options.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = prompt.DefaultMaxAttempts
	}

	selection, selectionError := prompt.AskUntil(resolver.prompter, selectionQuestionConstant, maxAttempts, func(answer string) (Selection, error) {
		return resolver.interpret(answer, options.BranchSet, currentBranch)
	})
	if errors.Is(selectionError, prompt.ErrAttemptsExhausted) {
		return Selection{}, ErrSelectionAttemptsExhausted
	}
	return selection, selectionError
}

// BuildMenu renders the numbered remote branches followed by the lettered actions.
func BuildMenu(branchSet BranchSet, currentBranch string) prompt.Menu {
	title := availableBranchesTitleConstant
	if branchSet.Len() == 0 {
		title = noRemoteBranchesTitleConstant
	}

	options := make([]prompt.MenuOption, 0, branchSet.Len()+3)
	for index, branchName := range branchSet.Names() {
		options = append(options, prompt.MenuOption{Key: strconv.Itoa(index + 1), Label: branchName})
	}

	currentLabel := detachedCurrentBranchLabelConstant
	if len(currentBranch) > 0 {
		currentLabel = fmt.Sprintf(currentBranchOptionLabelTemplateConstant, currentBranch)
	}
	options = append(options,
		prompt.MenuOption{Key: currentBranchOptionKeyConstant, Label: currentLabel},
		prompt.MenuOption{Key: newBranchOptionKeyConstant, Label: newBranchOptionLabelConstant},
		prompt.MenuOption{Key: abortOptionKeyConstant, Label: abortOptionLabelConstant},
	)

	return prompt.Menu{Title: title, Options: options}
}

func (resolver *Resolver) interpret(answer string, branchSet BranchSet, currentBranch string) (Selection, error) {
	normalizedAnswer := strings.ToUpper(strings.TrimSpace(answer))

	switch normalizedAnswer {
	case currentBranchOptionKeyConstant:
		if len(currentBranch) == 0 {
			return Selection{}, prompt.InvalidAnswer(detachedHeadMessageConstant)
		}
		return Selection{BranchName: currentBranch, Source: SelectionSourceCurrent}, nil
	case newBranchOptionKeyConstant:
		return resolver.askNewBranchName()
	case abortOptionKeyConstant:
		return Selection{}, ErrSelectionAborted
	}

	selectedNumber, parseError := strconv.Atoi(normalizedAnswer)
	if parseError != nil {
		return Selection{}, prompt.InvalidAnswer(invalidChoiceMessageConstant)
	}
	if branchSet.Len() == 0 {
		return Selection{}, prompt.InvalidAnswer(noNumberedOptionsMessageConstant)
	}

	branchName, exists := branchSet.At(selectedNumber - 1)
	if !exists {
		return Selection{}, prompt.InvalidAnswer(fmt.Sprintf(outOfRangeTemplateConstant, branchSet.Len()))
	}
	return Selection{BranchName: branchName, Source: SelectionSourceRemote}, nil
}

func (resolver *Resolver) askNewBranchName() (Selection, error) {
	answer, askError := resolver.prompter.Ask(newBranchQuestionConstant)
	if askError != nil {
		return Selection{}, askError
	}

	branchName := strings.TrimSpace(answer)
	if len(branchName) == 0 {
		return Selection{}, prompt.InvalidAnswer(emptyBranchNameMessageConstant)
	}
	if !IsValidBranchName(branchName) {
		return Selection{}, prompt.InvalidAnswer(fmt.Sprintf(invalidBranchNameTemplateConstant, branchName))
	}
	return Selection{BranchName: branchName, Source: SelectionSourceNew}, nil
}

// IsValidBranchName rejects names git would refuse as a branch reference.
func IsValidBranchName(branchName string) bool {
	if len(branchName) == 0 {
		return false
	}
	if strings.HasPrefix(branchName, branchNameOptionPrefixConstant) {
		return false
	}
	if strings.Contains(branchName, branchNameParentPathConstant) {
		return false
	}
	return !strings.ContainsAny(branchName, invalidBranchNameCharactersConstant)
}
