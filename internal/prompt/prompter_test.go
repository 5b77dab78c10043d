package prompt_test

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/temirov/gitpush/internal/prompt"
	"github.com/temirov/gitpush/internal/prompt/mocks"
)

func TestIOPrompterPresentAndAsk(testInstance *testing.T) {
	var output bytes.Buffer
	prompter := prompt.NewIOPrompter(strings.NewReader("  2 \nsecond line"), &output)

	presentError := prompter.Present(prompt.Menu{
		Title: "Available remote branches:",
		Options: []prompt.MenuOption{
			{Key: "1", Label: "main"},
			{Key: "2", Label: "dev"},
		},
	})
	require.NoError(testInstance, presentError)

	firstAnswer, firstError := prompter.Ask("Enter choice: ")
	require.NoError(testInstance, firstError)
	require.Equal(testInstance, "2", firstAnswer)

	secondAnswer, secondError := prompter.Ask("Next: ")
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, "second line", secondAnswer)

	_, closedError := prompter.Ask("Again: ")
	require.ErrorIs(testInstance, closedError, prompt.ErrInputClosed)

	require.Equal(testInstance, "\nAvailable remote branches:\n  1. main\n  2. dev\nEnter choice: Next: Again: ", output.String())
}

func TestIOPrompterNotify(testInstance *testing.T) {
	var output bytes.Buffer
	prompter := prompt.NewIOPrompter(strings.NewReader(""), &output)

	require.NoError(testInstance, prompter.Notify("Invalid selection."))
	require.Equal(testInstance, "Invalid selection.\n", output.String())
}

func TestAskUntilRetriesInvalidAnswers(testInstance *testing.T) {
	controller := gomock.NewController(testInstance)
	prompter := mocks.NewMockPrompter(controller)

	gomock.InOrder(
		prompter.EXPECT().Ask("Pick: ").Return("x", nil),
		prompter.EXPECT().Notify("not a number").Return(nil),
		prompter.EXPECT().Ask("Pick: ").Return("7", nil),
	)

	value, askError := prompt.AskUntil(prompter, "Pick: ", 3, parseNumber)
	require.NoError(testInstance, askError)
	require.Equal(testInstance, 7, value)
}

func TestAskUntilStopsAfterMaxAttempts(testInstance *testing.T) {
	controller := gomock.NewController(testInstance)
	prompter := mocks.NewMockPrompter(controller)

	prompter.EXPECT().Ask("Pick: ").Return("x", nil).Times(2)
	prompter.EXPECT().Notify("not a number").Return(nil).Times(2)

	_, askError := prompt.AskUntil(prompter, "Pick: ", 2, parseNumber)
	require.ErrorIs(testInstance, askError, prompt.ErrAttemptsExhausted)
}

func TestAskUntilPropagatesOtherErrors(testInstance *testing.T) {
	controller := gomock.NewController(testInstance)
	prompter := mocks.NewMockPrompter(controller)
	abortError := errors.New("aborted")

	prompter.EXPECT().Ask("Pick: ").Return("q", nil)

	_, askError := prompt.AskUntil(prompter, "Pick: ", 5, func(answer string) (int, error) {
		return 0, abortError
	})
	require.ErrorIs(testInstance, askError, abortError)
}

func TestIsAffirmative(testInstance *testing.T) {
	testCases := []struct {
		answer   string
		expected bool
	}{
		{answer: "y", expected: true},
		{answer: " YES ", expected: true},
		{answer: "Yes", expected: true},
		{answer: "n", expected: false},
		{answer: "", expected: false},
		{answer: "yep", expected: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.answer, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, prompt.IsAffirmative(testCase.answer))
		})
	}
}

func parseNumber(answer string) (int, error) {
	number, parseError := strconv.Atoi(answer)
	if parseError != nil {
		return 0, prompt.InvalidAnswer("not a number")
	}
	return number, nil
}

func TestAskRequiredRejectsEmptyAnswers(testInstance *testing.T) {
	var output bytes.Buffer
	prompter := prompt.NewIOPrompter(strings.NewReader("\n   \n fix typo \n"), &output)

	answer, askError := prompt.AskRequired(prompter, "Enter commit message: ", "Commit message cannot be empty.", 3)
	require.NoError(testInstance, askError)
	require.Equal(testInstance, "fix typo", answer)
	require.Equal(testInstance, 2, strings.Count(output.String(), "Commit message cannot be empty."))
}

func TestConfirm(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "yes", input: "YES\n", expected: true},
		{name: "short_yes", input: "y\n", expected: true},
		{name: "no", input: "n\n", expected: false},
		{name: "anything_else", input: "maybe\n", expected: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			prompter := prompt.NewIOPrompter(strings.NewReader(testCase.input), &bytes.Buffer{})
			confirmed, confirmError := prompt.Confirm(prompter, "Continue? (y/n): ")
			require.NoError(testInstance, confirmError)
			require.Equal(testInstance, testCase.expected, confirmed)
		})
	}
}
