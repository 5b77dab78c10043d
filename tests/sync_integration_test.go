package tests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	ignoreDisabledConfigurationConstant = "tools:\n  sync:\n    ignore:\n      enabled: false\n"
	ignoreEnabledConfigurationConstant  = "tools:\n  sync:\n    mode: push\n"
	updatedFileContentConstant          = "<h1>updated</h1>\n"
	commitMessageConstant               = "Publish landing page"
)

func TestSyncPushesCommittedChangesToCurrentBranch(testInstance *testing.T) {
	environmentSandbox := newSandbox(testInstance, ignoreEnabledConfigurationConstant)
	environmentSandbox.writeFile(seedFileNameConstant, updatedFileContentConstant)

	output, runError := environmentSandbox.runGitpush("C\nn\n"+commitMessageConstant+"\n", "sync")
	require.NoError(testInstance, runError, output)
	require.Contains(testInstance, output, "Sync finished: pushed (branch main)")

	remoteSubject := environmentSandbox.git(environmentSandbox.remotePath, "log", "-1", "--format=%s", "main")
	require.Equal(testInstance, commitMessageConstant, remoteSubject)

	remoteFiles := environmentSandbox.git(environmentSandbox.remotePath, "ls-tree", "--name-only", "main")
	require.Contains(testInstance, remoteFiles, ".gitignore")

	excludeContent, readError := os.ReadFile(filepath.Join(environmentSandbox.workPath, ".git", "info", "exclude"))
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(excludeContent), "# Force ignored patterns")
}

func TestSyncSwitchesToRemoteBranch(testInstance *testing.T) {
	environmentSandbox := newSandbox(testInstance, ignoreDisabledConfigurationConstant)

	output, runError := environmentSandbox.runGitpush("1\n1\nn\n", "sync")
	require.NoError(testInstance, runError, output)
	require.Contains(testInstance, output, "=== Selected branch: dev ===")
	require.Contains(testInstance, output, "Sync finished: no_changes (branch dev)")

	require.Equal(testInstance, "dev", environmentSandbox.git(environmentSandbox.workPath, "branch", "--show-current"))
	require.Equal(testInstance, "origin/dev", environmentSandbox.git(environmentSandbox.workPath, "rev-parse", "--abbrev-ref", "dev@{upstream}"))
}

func TestSyncOverwritesLocalChanges(testInstance *testing.T) {
	environmentSandbox := newSandbox(testInstance, ignoreDisabledConfigurationConstant)
	environmentSandbox.writeFile(seedFileNameConstant, updatedFileContentConstant)
	environmentSandbox.writeFile("scratch.txt", "temporary\n")

	output, runError := environmentSandbox.runGitpush("C\n", "sync", "--mode", "overwrite")
	require.NoError(testInstance, runError, output)
	require.Contains(testInstance, output, "Sync finished: overwritten (branch main)")

	require.Equal(testInstance, seedFileContentConstant, environmentSandbox.readFile(seedFileNameConstant))
	_, statError := os.Stat(filepath.Join(environmentSandbox.workPath, "scratch.txt"))
	require.True(testInstance, os.IsNotExist(statError))
}

func TestSyncCancelExitsCleanly(testInstance *testing.T) {
	environmentSandbox := newSandbox(testInstance, ignoreDisabledConfigurationConstant)
	environmentSandbox.writeFile(seedFileNameConstant, updatedFileContentConstant)

	output, runError := environmentSandbox.runGitpush("1\n4\n", "sync")
	require.NoError(testInstance, runError, output)
	require.Contains(testInstance, output, "Sync cancelled.")
	require.Equal(testInstance, "main", environmentSandbox.git(environmentSandbox.workPath, "branch", "--show-current"))
	require.Equal(testInstance, updatedFileContentConstant, environmentSandbox.readFile(seedFileNameConstant))
}

func TestBranchesCommandListsRemoteBranches(testInstance *testing.T) {
	environmentSandbox := newSandbox(testInstance, ignoreDisabledConfigurationConstant)

	output, runError := environmentSandbox.runGitpush("", "branches", "--fetch")
	require.NoError(testInstance, runError, output)
	require.Contains(testInstance, output, "dev")
	require.Contains(testInstance, output, "Current branch: main")
}

func TestMissingRepositoryFailsWithoutInitialization(testInstance *testing.T) {
	environmentSandbox := newSandbox(testInstance, "tools:\n  sync:\n    initialize_repository: false\n")
	emptyDirectory := testInstance.TempDir()

	output, runError := environmentSandbox.runGitpush("", "sync", "--repository", emptyDirectory)
	require.Error(testInstance, runError)
	require.Contains(testInstance, output, "git repository not found")
}
