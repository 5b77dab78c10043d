package tests

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	commandTimeoutConstant        = 30 * time.Second
	seedAuthorNameConstant        = "Seed Author"
	seedAuthorEmailConstant       = "seed@example.com"
	seedFileNameConstant          = "index.html"
	seedFileContentConstant       = "<h1>seed</h1>\n"
	globalConfigFileNameConstant  = "gitconfig"
	gitpushConfigFileNameConstant = "gitpush.yaml"
)

// sandbox is a working clone next to the bare repository it pushes to.
type sandbox struct {
	remotePath   string
	workPath     string
	environment  []string
	configPath   string
	testInstance *testing.T
}

func requireTooling(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath("git"); lookupError != nil {
		testInstance.Skip("git executable not available")
	}
	if binarySetupError != nil {
		testInstance.Skipf("gitpush binary unavailable: %v", binarySetupError)
	}
}

// newSandbox seeds a bare remote with main and dev, then leaves the working clone on main.
func newSandbox(testInstance *testing.T, configuration string) *sandbox {
	testInstance.Helper()
	requireTooling(testInstance)

	rootDirectory := testInstance.TempDir()
	globalConfigPath := filepath.Join(rootDirectory, globalConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(globalConfigPath, nil, 0o600))

	environment := append([]string{}, os.Environ()...)
	environment = append(environment,
		"GIT_CONFIG_GLOBAL="+globalConfigPath,
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_TERMINAL_PROMPT=0",
	)

	configPath := filepath.Join(rootDirectory, gitpushConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configPath, []byte(configuration), 0o600))

	environmentSandbox := &sandbox{
		remotePath:   filepath.Join(rootDirectory, "remote.git"),
		workPath:     filepath.Join(rootDirectory, "work"),
		environment:  environment,
		configPath:   configPath,
		testInstance: testInstance,
	}

	environmentSandbox.git(rootDirectory, "init", "--bare", environmentSandbox.remotePath)
	require.NoError(testInstance, os.MkdirAll(environmentSandbox.workPath, 0o755))
	environmentSandbox.git(environmentSandbox.workPath, "init")
	environmentSandbox.git(environmentSandbox.workPath, "checkout", "-b", "main")
	environmentSandbox.writeFile(seedFileNameConstant, seedFileContentConstant)
	environmentSandbox.git(environmentSandbox.workPath, "add", "-A")
	environmentSandbox.commit("seed")
	environmentSandbox.git(environmentSandbox.workPath, "remote", "add", "origin", environmentSandbox.remotePath)
	environmentSandbox.git(environmentSandbox.workPath, "push", "origin", "main")
	environmentSandbox.git(environmentSandbox.workPath, "push", "origin", "main:dev")
	return environmentSandbox
}

func (environmentSandbox *sandbox) git(workingDirectory string, arguments ...string) string {
	environmentSandbox.testInstance.Helper()
	executionContext, cancel := context.WithTimeout(context.Background(), commandTimeoutConstant)
	defer cancel()

	command := exec.CommandContext(executionContext, "git", arguments...)
	command.Dir = workingDirectory
	command.Env = environmentSandbox.environment
	outputBytes, runError := command.CombinedOutput()
	require.NoError(environmentSandbox.testInstance, runError, string(outputBytes))
	return strings.TrimSpace(string(outputBytes))
}

func (environmentSandbox *sandbox) commit(message string) {
	environmentSandbox.testInstance.Helper()
	environmentSandbox.git(environmentSandbox.workPath,
		"-c", "user.name="+seedAuthorNameConstant,
		"-c", "user.email="+seedAuthorEmailConstant,
		"commit", "-m", message,
	)
}

func (environmentSandbox *sandbox) writeFile(relativePath string, content string) {
	environmentSandbox.testInstance.Helper()
	require.NoError(environmentSandbox.testInstance, os.WriteFile(filepath.Join(environmentSandbox.workPath, relativePath), []byte(content), 0o644))
}

func (environmentSandbox *sandbox) readFile(relativePath string) string {
	environmentSandbox.testInstance.Helper()
	contentBytes, readError := os.ReadFile(filepath.Join(environmentSandbox.workPath, relativePath))
	require.NoError(environmentSandbox.testInstance, readError)
	return string(contentBytes)
}

// runGitpush executes the binary against the working clone and returns combined output.
func (environmentSandbox *sandbox) runGitpush(input string, arguments ...string) (string, error) {
	environmentSandbox.testInstance.Helper()
	executionContext, cancel := context.WithTimeout(context.Background(), commandTimeoutConstant)
	defer cancel()

	fullArguments := append([]string{"--config", environmentSandbox.configPath}, arguments...)
	command := exec.CommandContext(executionContext, gitpushBinaryPath, fullArguments...)
	command.Dir = environmentSandbox.workPath
	command.Env = environmentSandbox.environment
	command.Stdin = strings.NewReader(input)
	outputBytes, runError := command.CombinedOutput()
	return string(outputBytes), runError
}
