// Package testsupport provides scripted collaborators shared by package tests.
package testsupport

import (
	"context"
	"strings"

	"github.com/temirov/gitpush/internal/execshell"
)

const (
	commandKeySeparatorConstant = " "
)

// GitResponse is the scripted reply for one git invocation.
type GitResponse struct {
	Result execshell.ExecutionResult
	Error  error
}

// ScriptedGitExecutor records git invocations and replies from per-command queues.
// Responses are keyed by the space-joined argument list. The last queued response
// for a key is reused once the queue drains; unknown commands succeed with empty output.
type ScriptedGitExecutor struct {
	Responses           map[string][]GitResponse
	ExecutedGitCommands []execshell.CommandDetails
}

// NewScriptedGitExecutor constructs an executor with no scripted responses.
func NewScriptedGitExecutor() *ScriptedGitExecutor {
	return &ScriptedGitExecutor{Responses: map[string][]GitResponse{}}
}

// Respond queues a successful response carrying standard output for the command.
func (executor *ScriptedGitExecutor) Respond(command string, standardOutput string) *ScriptedGitExecutor {
	return executor.Queue(command, GitResponse{Result: execshell.ExecutionResult{StandardOutput: standardOutput}})
}

// Fail queues a non-zero exit for the command.
func (executor *ScriptedGitExecutor) Fail(command string, exitCode int, standardError string) *ScriptedGitExecutor {
	result := execshell.ExecutionResult{StandardError: standardError, ExitCode: exitCode}
	failure := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: strings.Fields(command)}},
		Result:  result,
	}
	return executor.Queue(command, GitResponse{Error: failure})
}

// Queue appends a response for the command.
func (executor *ScriptedGitExecutor) Queue(command string, response GitResponse) *ScriptedGitExecutor {
	if executor.Responses == nil {
		executor.Responses = map[string][]GitResponse{}
	}
	executor.Responses[command] = append(executor.Responses[command], response)
	return executor
}

// ExecuteGit records the invocation and returns the next scripted response.
func (executor *ScriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.ExecutedGitCommands = append(executor.ExecutedGitCommands, details)

	commandKey := strings.Join(details.Arguments, commandKeySeparatorConstant)
	queuedResponses := executor.Responses[commandKey]
	if len(queuedResponses) == 0 {
		return execshell.ExecutionResult{}, nil
	}

	response := queuedResponses[0]
	if len(queuedResponses) > 1 {
		executor.Responses[commandKey] = queuedResponses[1:]
	}
	return response.Result, response.Error
}

// CommandLines returns every recorded invocation as a space-joined argument list.
func (executor *ScriptedGitExecutor) CommandLines() []string {
	commandLines := make([]string, 0, len(executor.ExecutedGitCommands))
	for _, details := range executor.ExecutedGitCommands {
		commandLines = append(commandLines, strings.Join(details.Arguments, commandKeySeparatorConstant))
	}
	return commandLines
}

// CountCommandsWithPrefix counts recorded invocations whose argument list starts with prefix.
func (executor *ScriptedGitExecutor) CountCommandsWithPrefix(prefix string) int {
	matchingCommands := 0
	for _, commandLine := range executor.CommandLines() {
		if strings.HasPrefix(commandLine, prefix) {
			matchingCommands++
		}
	}
	return matchingCommands
}

// WorkingDirectories returns the distinct working directories used by recorded invocations.
func (executor *ScriptedGitExecutor) WorkingDirectories() []string {
	seenDirectories := map[string]struct{}{}
	directories := []string{}
	for _, details := range executor.ExecutedGitCommands {
		if _, seen := seenDirectories[details.WorkingDirectory]; seen {
			continue
		}
		seenDirectories[details.WorkingDirectory] = struct{}{}
		directories = append(directories, details.WorkingDirectory)
	}
	return directories
}
