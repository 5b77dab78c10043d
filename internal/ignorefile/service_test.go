package ignorefile_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitpush/internal/filesystem"
	"github.com/temirov/gitpush/internal/ignorefile"
	"github.com/temirov/gitpush/internal/testsupport"
)

var testManagedPaths = []string{"venv/", "dist/", "node_modules/", "auth_info/", "modules/auth_info/", "service-account.json"}

func newIgnoreService(testInstance *testing.T, executor *testsupport.ScriptedGitExecutor) *ignorefile.Service {
	testInstance.Helper()
	service, serviceError := ignorefile.NewService(ignorefile.ServiceDependencies{
		FileSystem:  filesystem.OSFileSystem{},
		GitExecutor: executor,
	})
	require.NoError(testInstance, serviceError)
	return service
}

func createExcludeFile(testInstance *testing.T, repositoryPath string, contents string) string {
	testInstance.Helper()
	infoDirectory := filepath.Join(repositoryPath, ".git", "info")
	require.NoError(testInstance, os.MkdirAll(infoDirectory, 0o755))
	excludePath := filepath.Join(infoDirectory, "exclude")
	require.NoError(testInstance, os.WriteFile(excludePath, []byte(contents), 0o644))
	return excludePath
}

func TestEnsureCreatesIgnoreFileAndPinsExcludesFile(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	executor := testsupport.NewScriptedGitExecutor()
	service := newIgnoreService(testInstance, executor)

	result, ensureError := service.Ensure(context.Background(), ignorefile.Options{
		RepositoryPath: repositoryPath,
		ManagedPaths:   testManagedPaths,
	})
	require.NoError(testInstance, ensureError)
	require.True(testInstance, result.IgnoreFileCreated)
	require.False(testInstance, result.ExcludeFileUpdated)

	contents, readError := os.ReadFile(filepath.Join(repositoryPath, ".gitignore"))
	require.NoError(testInstance, readError)
	require.True(testInstance, strings.HasPrefix(string(contents), "# Managed paths\nvenv/\ndist/\n"))
	require.Contains(testInstance, string(contents), "# Node.js dependencies")
	require.Contains(testInstance, string(contents), ".DS_Store\n")
	require.Equal(testInstance, []string{"config core.excludesfile .gitignore"}, executor.CommandLines())
}

func TestEnsureLeavesExistingIgnoreFileAlone(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	ignorePath := filepath.Join(repositoryPath, ".gitignore")
	require.NoError(testInstance, os.WriteFile(ignorePath, []byte("custom/\n"), 0o644))
	service := newIgnoreService(testInstance, testsupport.NewScriptedGitExecutor())

	result, ensureError := service.Ensure(context.Background(), ignorefile.Options{
		RepositoryPath: repositoryPath,
		ManagedPaths:   testManagedPaths,
	})
	require.NoError(testInstance, ensureError)
	require.False(testInstance, result.IgnoreFileCreated)

	contents, readError := os.ReadFile(ignorePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "custom/\n", string(contents))
}

func TestEnsurePrependsForceIgnoredBlockOnce(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	excludePath := createExcludeFile(testInstance, repositoryPath, "# git ls-files --others --exclude-from=.git/info/exclude\n")
	service := newIgnoreService(testInstance, testsupport.NewScriptedGitExecutor())
	options := ignorefile.Options{RepositoryPath: repositoryPath, ManagedPaths: []string{"venv/", " dist/ ", "venv/"}}

	firstResult, firstError := service.Ensure(context.Background(), options)
	require.NoError(testInstance, firstError)
	require.True(testInstance, firstResult.ExcludeFileUpdated)

	secondResult, secondError := service.Ensure(context.Background(), options)
	require.NoError(testInstance, secondError)
	require.False(testInstance, secondResult.ExcludeFileUpdated)

	contents, readError := os.ReadFile(excludePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "# Force ignored patterns\nvenv/\ndist/\n# git ls-files --others --exclude-from=.git/info/exclude\n", string(contents))
}

func TestEnsureUsesConfiguredFileNameAndRules(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	executor := testsupport.NewScriptedGitExecutor()
	service := newIgnoreService(testInstance, executor)

	_, ensureError := service.Ensure(context.Background(), ignorefile.Options{
		RepositoryPath: repositoryPath,
		FileName:       ".gitpushignore",
		ManagedPaths:   []string{"dist/"},
		Rules:          []string{"*.log"},
	})
	require.NoError(testInstance, ensureError)

	contents, readError := os.ReadFile(filepath.Join(repositoryPath, ".gitpushignore"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "# Managed paths\ndist/\n\n*.log\n", string(contents))
	require.Equal(testInstance, []string{"config core.excludesfile .gitpushignore"}, executor.CommandLines())
}

func TestEnsurePropagatesConfigFailure(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor()
	executor.Fail("config core.excludesfile .gitignore", 255, "error: could not lock config file")
	service := newIgnoreService(testInstance, executor)

	_, ensureError := service.Ensure(context.Background(), ignorefile.Options{RepositoryPath: testInstance.TempDir()})
	require.Error(testInstance, ensureError)
}

func TestDefaultRulesIncludeCommonArtifacts(testInstance *testing.T) {
	rules := ignorefile.DefaultRules()
	require.Contains(testInstance, rules, "node_modules/")
	require.Contains(testInstance, rules, "__pycache__/")
	require.Contains(testInstance, rules, "*.asar")
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	_, fileSystemError := ignorefile.NewService(ignorefile.ServiceDependencies{GitExecutor: testsupport.NewScriptedGitExecutor()})
	require.ErrorIs(testInstance, fileSystemError, ignorefile.ErrFileSystemNotConfigured)

	_, executorError := ignorefile.NewService(ignorefile.ServiceDependencies{FileSystem: filesystem.OSFileSystem{}})
	require.Error(testInstance, executorError)
}
