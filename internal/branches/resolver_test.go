package branches_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/temirov/gitpush/internal/branches"
	"github.com/temirov/gitpush/internal/prompt"
	"github.com/temirov/gitpush/internal/prompt/mocks"
)

func TestNewResolverRequiresPrompter(testInstance *testing.T) {
	_, creationError := branches.NewResolver(branches.ResolverDependencies{})
	require.ErrorIs(testInstance, creationError, branches.ErrPrompterNotConfigured)
}

func TestResolverResolve(testInstance *testing.T) {
	testCases := []struct {
		name              string
		branchNames       []string
		currentBranch     string
		input             string
		expectedSelection branches.Selection
		expectedError     error
	}{
		{
			name:              "numbered_remote_branch",
			branchNames:       []string{"main", "dev"},
			currentBranch:     "main",
			input:             "2\n",
			expectedSelection: branches.Selection{BranchName: "dev", Source: branches.SelectionSourceRemote},
		},
		{
			name:              "current_branch_lowercase",
			branchNames:       []string{"main"},
			currentBranch:     "feature",
			input:             "c\n",
			expectedSelection: branches.Selection{BranchName: "feature", Source: branches.SelectionSourceCurrent},
		},
		{
			name:              "new_branch_after_empty_name",
			currentBranch:     "main",
			input:             "N\n\nN\nrelease-1\n",
			expectedSelection: branches.Selection{BranchName: "release-1", Source: branches.SelectionSourceNew},
		},
		{
			name:              "out_of_range_then_valid",
			branchNames:       []string{"main", "dev"},
			currentBranch:     "main",
			input:             "3\nabc\n1\n",
			expectedSelection: branches.Selection{BranchName: "main", Source: branches.SelectionSourceRemote},
		},
		{
			name:              "number_without_remote_branches",
			currentBranch:     "main",
			input:             "1\nC\n",
			expectedSelection: branches.Selection{BranchName: "main", Source: branches.SelectionSourceCurrent},
		},
		{
			name:          "detached_head_rejects_current",
			branchNames:   []string{"main"},
			input:         "C\nC\nC\nC\nC\n",
			expectedError: branches.ErrSelectionAttemptsExhausted,
		},
		{
			name:          "abort",
			branchNames:   []string{"main"},
			currentBranch: "main",
			input:         "q\n",
			expectedError: branches.ErrSelectionAborted,
		},
		{
			name:          "input_closed",
			branchNames:   []string{"main"},
			currentBranch: "main",
			input:         "",
			expectedError: prompt.ErrInputClosed,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var output bytes.Buffer
			resolver, creationError := branches.NewResolver(branches.ResolverDependencies{
				Prompter: prompt.NewIOPrompter(strings.NewReader(testCase.input), &output),
			})
			require.NoError(testInstance, creationError)

			selection, resolveError := resolver.Resolve(branches.ResolveOptions{
				BranchSet:     branches.NewBranchSet(testCase.branchNames),
				CurrentBranch: testCase.currentBranch,
				MaxAttempts:   5,
			})
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, resolveError, testCase.expectedError)
				return
			}
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, testCase.expectedSelection, selection)
		})
	}
}

func TestResolverMenuWithoutRemoteBranchesOffersOnlyLetters(testInstance *testing.T) {
	controller := gomock.NewController(testInstance)
	prompter := mocks.NewMockPrompter(controller)

	expectedMenu := prompt.Menu{
		Title: "No remote branches found. Have you pushed to the remote repository yet?",
		Options: []prompt.MenuOption{
			{Key: "C", Label: "Use current branch (main)"},
			{Key: "N", Label: "Enter a new branch name"},
			{Key: "Q", Label: "Abort"},
		},
	}

	gomock.InOrder(
		prompter.EXPECT().Present(expectedMenu).Return(nil),
		prompter.EXPECT().Ask("Enter your choice: ").Return("N", nil),
		prompter.EXPECT().Ask("Enter new branch name: ").Return("", nil),
		prompter.EXPECT().Notify("Branch name cannot be empty.").Return(nil),
		prompter.EXPECT().Ask("Enter your choice: ").Return("N", nil),
		prompter.EXPECT().Ask("Enter new branch name: ").Return("docs", nil),
	)

	resolver, creationError := branches.NewResolver(branches.ResolverDependencies{Prompter: prompter})
	require.NoError(testInstance, creationError)

	selection, resolveError := resolver.Resolve(branches.ResolveOptions{CurrentBranch: "main", MaxAttempts: 3})
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, "docs", selection.BranchName)
}

func TestResolverListsDuplicatedBranchesOnce(testInstance *testing.T) {
	menu := branches.BuildMenu(branches.NewBranchSet([]string{"main", "dev", "main", "dev"}), "main")

	numberedLabels := []string{}
	for _, option := range menu.Options {
		if option.Key == "C" || option.Key == "N" || option.Key == "Q" {
			continue
		}
		numberedLabels = append(numberedLabels, option.Key+"="+option.Label)
	}
	require.Equal(testInstance, []string{"1=main", "2=dev"}, numberedLabels)
}

func TestIsValidBranchName(testInstance *testing.T) {
	testCases := []struct {
		branchName string
		expected   bool
	}{
		{branchName: "feature/login", expected: true},
		{branchName: "release-1.2", expected: true},
		{branchName: "has space", expected: false},
		{branchName: "-option", expected: false},
		{branchName: "a..b", expected: false},
		{branchName: "what?", expected: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.branchName, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, branches.IsValidBranchName(testCase.branchName))
		})
	}
}
