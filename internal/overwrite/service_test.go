package overwrite_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitpush/internal/branches"
	"github.com/temirov/gitpush/internal/overwrite"
	"github.com/temirov/gitpush/internal/prompt"
	"github.com/temirov/gitpush/internal/testsupport"
)

const (
	testRepositoryPathConstant = "/tmp/site"
)

func newOverwriteService(testInstance *testing.T, executor *testsupport.ScriptedGitExecutor, input string, output *bytes.Buffer) *overwrite.Service {
	testInstance.Helper()
	service, serviceError := overwrite.NewService(overwrite.ServiceDependencies{
		GitExecutor: executor,
		Prompter:    prompt.NewIOPrompter(strings.NewReader(input), output),
	})
	require.NoError(testInstance, serviceError)
	return service
}

func TestOverwriteRunsDestructiveSequence(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor()
	var output bytes.Buffer
	service := newOverwriteService(testInstance, executor, "", &output)

	result, overwriteError := service.Overwrite(context.Background(), overwrite.Options{
		RepositoryPath: testRepositoryPathConstant,
		RemoteName:     "origin",
		BranchName:     "dev",
		BranchSet:      branches.NewBranchSet([]string{"main", "dev"}),
	})
	require.NoError(testInstance, overwriteError)

	expectedCommands := []string{"reset --hard", "clean -fd", "fetch origin", "checkout -B dev origin/dev"}
	require.Equal(testInstance, expectedCommands, executor.CommandLines())
	require.Equal(testInstance, expectedCommands, result.ExecutedCommands)
	require.Equal(testInstance, "origin/dev", result.RemoteReference)
	require.Equal(testInstance, []string{testRepositoryPathConstant}, executor.WorkingDirectories())
	require.Contains(testInstance, output.String(), "Content from origin/dev successfully overwritten locally!")
}

func TestOverwriteRejectsBranchMissingFromRemote(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor()
	service := newOverwriteService(testInstance, executor, "", &bytes.Buffer{})

	_, overwriteError := service.Overwrite(context.Background(), overwrite.Options{
		RepositoryPath: testRepositoryPathConstant,
		BranchName:     "feature",
		BranchSet:      branches.NewBranchSet([]string{"main"}),
	})
	require.ErrorIs(testInstance, overwriteError, overwrite.ErrBranchNotOnRemote)
	require.Empty(testInstance, executor.ExecutedGitCommands)
}

func TestOverwriteConfirmation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedError error
		expectedCalls int
	}{
		{name: "matching_name", input: "dev\n", expectedCalls: 4},
		{name: "mismatched_name", input: "main\n", expectedError: overwrite.ErrConfirmationRejected},
		{name: "closed_input", input: "", expectedError: prompt.ErrInputClosed},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := testsupport.NewScriptedGitExecutor()
			service := newOverwriteService(testInstance, executor, testCase.input, &bytes.Buffer{})

			_, overwriteError := service.Overwrite(context.Background(), overwrite.Options{
				RepositoryPath:      testRepositoryPathConstant,
				BranchName:          "dev",
				BranchSet:           branches.NewBranchSet([]string{"dev"}),
				RequireConfirmation: true,
			})
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, overwriteError, testCase.expectedError)
			} else {
				require.NoError(testInstance, overwriteError)
			}
			require.Len(testInstance, executor.ExecutedGitCommands, testCase.expectedCalls)
		})
	}
}

func TestOverwriteStopsAtFirstFailedStep(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor()
	executor.Fail("fetch origin", 128, "fatal: unable to access remote")
	service := newOverwriteService(testInstance, executor, "", &bytes.Buffer{})

	result, overwriteError := service.Overwrite(context.Background(), overwrite.Options{
		RepositoryPath: testRepositoryPathConstant,
		BranchName:     "main",
		BranchSet:      branches.NewBranchSet([]string{"main"}),
	})
	require.Error(testInstance, overwriteError)

	var stepError overwrite.StepError
	require.True(testInstance, errors.As(overwriteError, &stepError))
	require.Equal(testInstance, "fetch", stepError.Step)
	require.Equal(testInstance, "git fetch origin", stepError.ManualCommand)
	require.True(testInstance, strings.HasPrefix(overwriteError.Error(), "overwrite step \"fetch\" failed; run it manually with `git fetch origin`: "))
	require.Contains(testInstance, overwriteError.Error(), "fatal: unable to access remote")
	require.NotContains(testInstance, overwriteError.Error(), "%!")
	require.Equal(testInstance, []string{"reset --hard", "clean -fd"}, result.ExecutedCommands)
	require.Zero(testInstance, executor.CountCommandsWithPrefix("checkout"))
	require.Equal(testInstance, 1, executor.CountCommandsWithPrefix("fetch"))
}
