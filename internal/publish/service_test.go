package publish_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitpush/internal/prompt"
	"github.com/temirov/gitpush/internal/publish"
	"github.com/temirov/gitpush/internal/testsupport"
)

const (
	testRepositoryPathConstant = "/tmp/site"
	porcelainCommandConstant   = "status --porcelain"
	stagedCommandConstant      = "diff --cached --name-only"
)

func newPublishService(testInstance *testing.T, executor *testsupport.ScriptedGitExecutor, input string, output *bytes.Buffer) *publish.Service {
	testInstance.Helper()
	service, serviceError := publish.NewService(publish.ServiceDependencies{
		GitExecutor: executor,
		Prompter:    prompt.NewIOPrompter(strings.NewReader(input), output),
	})
	require.NoError(testInstance, serviceError)
	return service
}

func newChangedExecutor() *testsupport.ScriptedGitExecutor {
	executor := testsupport.NewScriptedGitExecutor()
	executor.Respond(porcelainCommandConstant, " M app.py\n")
	executor.Respond("ls-files", "app.py\nREADME.md\n")
	executor.Respond(stagedCommandConstant, "app.py\n")
	return executor
}

func TestPublishDeclinedForceSkipsCommitAndPush(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor()
	var output bytes.Buffer
	service := newPublishService(testInstance, executor, "n\n", &output)

	result, publishError := service.Publish(context.Background(), publish.Options{
		RepositoryPath:     testRepositoryPathConstant,
		BranchName:         "main",
		RemoteBranchExists: true,
	})
	require.NoError(testInstance, publishError)
	require.Equal(testInstance, publish.StatusNoChanges, result.Status)
	require.Zero(testInstance, executor.CountCommandsWithPrefix("commit"))
	require.Zero(testInstance, executor.CountCommandsWithPrefix("push"))
	require.Zero(testInstance, executor.CountCommandsWithPrefix("add"))
	require.Contains(testInstance, output.String(), "Force commit anyway?")
}

func TestPublishPushesExistingBranch(testInstance *testing.T) {
	executor := newChangedExecutor()
	var output bytes.Buffer
	service := newPublishService(testInstance, executor, "update docs\n", &output)

	result, publishError := service.Publish(context.Background(), publish.Options{
		RepositoryPath:     testRepositoryPathConstant,
		RemoteName:         "origin",
		BranchName:         "main",
		RemoteBranchExists: true,
	})
	require.NoError(testInstance, publishError)
	require.Equal(testInstance, publish.StatusPushed, result.Status)
	require.Equal(testInstance, []string{"app.py", "README.md"}, result.TrackedFiles)
	require.Equal(testInstance, []string{"app.py"}, result.StagedFiles)
	require.Equal(testInstance, "update docs", result.CommitMessage)
	require.Equal(testInstance, 1, result.PushAttempts)
	require.Equal(testInstance, []string{
		"status --porcelain",
		"diff --name-only",
		"ls-files --others --exclude-standard",
		"ls-files",
		"add -A .",
		"diff --cached --name-only",
		"commit -m update docs",
		"push origin main",
	}, executor.CommandLines())
	require.Contains(testInstance, output.String(), "=== Files to be included in commit ===")
	require.Contains(testInstance, output.String(), "Updates successfully pushed to main!")
}

func TestPublishForcedCommitProceedsWithoutChanges(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor()
	executor.Respond(stagedCommandConstant, "generated.txt\n")
	service := newPublishService(testInstance, executor, "y\nforced\n", &bytes.Buffer{})

	result, publishError := service.Publish(context.Background(), publish.Options{
		RepositoryPath:     testRepositoryPathConstant,
		BranchName:         "main",
		RemoteBranchExists: true,
	})
	require.NoError(testInstance, publishError)
	require.Equal(testInstance, publish.StatusPushed, result.Status)
	require.Equal(testInstance, 1, executor.CountCommandsWithPrefix("commit -m forced"))
}

func TestPublishRetriesWithoutThinPacks(testInstance *testing.T) {
	testCases := []struct {
		name               string
		remoteBranchExists bool
		firstPush          string
		retryPush          string
	}{
		{
			name:               "existing_branch",
			remoteBranchExists: true,
			firstPush:          "push origin main",
			retryPush:          "push --no-thin origin main",
		},
		{
			name:               "new_branch",
			remoteBranchExists: false,
			firstPush:          "push --set-upstream origin main",
			retryPush:          "push --no-thin --set-upstream origin main",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := newChangedExecutor()
			executor.Fail(testCase.firstPush, 1, "error: RPC failed; HTTP 413")
			service := newPublishService(testInstance, executor, "large assets\n", &bytes.Buffer{})

			result, publishError := service.Publish(context.Background(), publish.Options{
				RepositoryPath:     testRepositoryPathConstant,
				BranchName:         "main",
				RemoteBranchExists: testCase.remoteBranchExists,
			})
			require.NoError(testInstance, publishError)
			require.Equal(testInstance, publish.StatusPushed, result.Status)
			require.Equal(testInstance, 2, result.PushAttempts)
			require.True(testInstance, result.UsedNoThin)

			commandLines := executor.CommandLines()
			require.Equal(testInstance, []string{testCase.firstPush, testCase.retryPush}, commandLines[len(commandLines)-2:])
		})
	}
}

func TestPublishDefersPushAfterSecondFailure(testInstance *testing.T) {
	executor := newChangedExecutor()
	executor.Fail("push --set-upstream origin feature", 1, "fatal: unable to access")
	executor.Fail("push --no-thin --set-upstream origin feature", 1, "fatal: unable to access")
	var output bytes.Buffer
	service := newPublishService(testInstance, executor, "first feature commit\n", &output)

	result, publishError := service.Publish(context.Background(), publish.Options{
		RepositoryPath: testRepositoryPathConstant,
		BranchName:     "feature",
	})
	require.NoError(testInstance, publishError)
	require.Equal(testInstance, publish.StatusPushDeferred, result.Status)
	require.Error(testInstance, result.PushError)
	require.Equal(testInstance, "git push --set-upstream origin feature", result.ManualCommand)
	require.Equal(testInstance, 1, executor.CountCommandsWithPrefix("commit"))
	require.Zero(testInstance, executor.CountCommandsWithPrefix("reset"))
	require.Contains(testInstance, output.String(), "git push --set-upstream origin feature")
}

func TestPublishReportsNothingToCommit(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor()
	executor.Respond(porcelainCommandConstant, "?? venv/\n")
	var output bytes.Buffer
	service := newPublishService(testInstance, executor, "y\nsnapshot\n", &output)

	result, publishError := service.Publish(context.Background(), publish.Options{
		RepositoryPath:     testRepositoryPathConstant,
		BranchName:         "main",
		RemoteBranchExists: true,
		ManagedPaths:       []string{"venv/"},
	})
	require.NoError(testInstance, publishError)
	require.Equal(testInstance, publish.StatusNothingToCommit, result.Status)
	require.Zero(testInstance, executor.CountCommandsWithPrefix("commit"))
	require.Zero(testInstance, executor.CountCommandsWithPrefix("push"))
	require.Contains(testInstance, output.String(), "No changes to commit.")
}

func TestPublishUntracksManagedPaths(testInstance *testing.T) {
	testCases := []struct {
		name             string
		untrackByDefault bool
		answer           string
		expectUntrack    bool
	}{
		{name: "blank_uses_enabled_default", untrackByDefault: true, answer: "", expectUntrack: true},
		{name: "blank_uses_disabled_default", untrackByDefault: false, answer: "", expectUntrack: false},
		{name: "explicit_yes", untrackByDefault: false, answer: "y", expectUntrack: true},
		{name: "explicit_no", untrackByDefault: true, answer: "n", expectUntrack: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := newChangedExecutor()
			service := newPublishService(testInstance, executor, testCase.answer+"\nmessage\n", &bytes.Buffer{})

			result, publishError := service.Publish(context.Background(), publish.Options{
				RepositoryPath:     testRepositoryPathConstant,
				BranchName:         "main",
				RemoteBranchExists: true,
				ManagedPaths:       []string{"dist/", " venv/ ", ""},
				UntrackByDefault:   testCase.untrackByDefault,
			})
			require.NoError(testInstance, publishError)

			if !testCase.expectUntrack {
				require.Zero(testInstance, executor.CountCommandsWithPrefix("rm"))
				require.Empty(testInstance, result.UntrackedPaths)
				return
			}
			require.Equal(testInstance, []string{"dist/", "venv/"}, result.UntrackedPaths)
			require.Equal(testInstance, 1, executor.CountCommandsWithPrefix("rm -r --cached --ignore-unmatch dist/"))
			require.Equal(testInstance, 1, executor.CountCommandsWithPrefix("rm -r --cached --ignore-unmatch venv/"))
			require.Equal(testInstance, 1, executor.CountCommandsWithPrefix("config core.excludesfile .gitignore"))
		})
	}
}

func TestPublishUntrackFailuresAreWarnings(testInstance *testing.T) {
	executor := newChangedExecutor()
	executor.Fail("rm -r --cached --ignore-unmatch dist/", 128, "fatal: pathspec error")
	service := newPublishService(testInstance, executor, "y\nmessage\n", &bytes.Buffer{})

	result, publishError := service.Publish(context.Background(), publish.Options{
		RepositoryPath:     testRepositoryPathConstant,
		BranchName:         "main",
		RemoteBranchExists: true,
		ManagedPaths:       []string{"dist/", "venv/"},
	})
	require.NoError(testInstance, publishError)
	require.Equal(testInstance, publish.StatusPushed, result.Status)
	require.Len(testInstance, result.Warnings, 1)
	require.Equal(testInstance, []string{"venv/"}, result.UntrackedPaths)
}

func TestPublishFailsWhenCommitFails(testInstance *testing.T) {
	executor := newChangedExecutor()
	executor.Fail("commit -m broken", 1, "error: gpg failed to sign the data")
	service := newPublishService(testInstance, executor, "broken\n", &bytes.Buffer{})

	_, publishError := service.Publish(context.Background(), publish.Options{
		RepositoryPath:     testRepositoryPathConstant,
		BranchName:         "main",
		RemoteBranchExists: true,
	})
	require.Error(testInstance, publishError)
	require.Zero(testInstance, executor.CountCommandsWithPrefix("push"))
}

func TestManualPushCommand(testInstance *testing.T) {
	require.Equal(testInstance, "git push origin main", publish.ManualPushCommand("origin", "main", true))
	require.Equal(testInstance, "git push --set-upstream upstream dev", publish.ManualPushCommand("upstream", "dev", false))
}

func TestPublishValidatesOptions(testInstance *testing.T) {
	service := newPublishService(testInstance, testsupport.NewScriptedGitExecutor(), "", &bytes.Buffer{})

	_, pathError := service.Publish(context.Background(), publish.Options{BranchName: "main"})
	require.ErrorIs(testInstance, pathError, publish.ErrRepositoryPathRequired)

	_, branchError := service.Publish(context.Background(), publish.Options{RepositoryPath: testRepositoryPathConstant})
	require.ErrorIs(testInstance, branchError, publish.ErrBranchNameRequired)

	_, constructionError := publish.NewService(publish.ServiceDependencies{GitExecutor: testsupport.NewScriptedGitExecutor()})
	require.ErrorIs(testInstance, constructionError, publish.ErrPrompterNotConfigured)
}
