package ui

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/gitpush/internal/execshell"
)

const (
	elapsedFieldNameConstant    = "elapsed"
	commandKeySeparatorConstant = "\x00"
)

// mutatingSubcommands change the working tree, the index, or a remote. Everything else is a query.
var mutatingSubcommands = map[string]struct{}{
	"add":      {},
	"checkout": {},
	"clean":    {},
	"commit":   {},
	"fetch":    {},
	"init":     {},
	"pull":     {},
	"push":     {},
	"remote":   {},
	"reset":    {},
	"rm":       {},
	"stash":    {},
}

// ProgressReporter renders git lifecycle events as console progress lines.
// Commands that change state are reported at info level, queries at debug level.
type ProgressReporter struct {
	logger    *zap.Logger
	formatter execshell.CommandMessageFormatter
	clock     func() time.Time

	mutex      sync.Mutex
	startTimes map[string]time.Time
}

// NewProgressReporter constructs a ProgressReporter backed by the provided console logger.
func NewProgressReporter(logger *zap.Logger) *ProgressReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressReporter{
		logger:     logger,
		formatter:  execshell.CommandMessageFormatter{},
		clock:      time.Now,
		startTimes: map[string]time.Time{},
	}
}

// CommandStarted records the start time and announces the command.
func (reporter *ProgressReporter) CommandStarted(command execshell.ShellCommand) {
	if reporter == nil {
		return
	}

	reporter.mutex.Lock()
	reporter.startTimes[commandKey(command)] = reporter.clock()
	reporter.mutex.Unlock()

	if isMutatingCommand(command) {
		reporter.logger.Info(reporter.formatter.BuildStartedMessage(command))
		return
	}
	reporter.logger.Debug(reporter.formatter.BuildStartedMessage(command))
}

// CommandCompleted reports the outcome together with the elapsed time.
func (reporter *ProgressReporter) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if reporter == nil {
		return
	}

	elapsedField := zap.Duration(elapsedFieldNameConstant, reporter.elapsed(command))
	switch {
	case result.ExitCode != 0 && command.Details.ExpectsExitCode(result.ExitCode):
		reporter.logger.Debug(reporter.formatter.BuildFailureMessage(command, result), elapsedField)
	case result.ExitCode != 0:
		reporter.logger.Warn(reporter.formatter.BuildFailureMessage(command, result), elapsedField)
	case isMutatingCommand(command):
		reporter.logger.Info(reporter.formatter.BuildSuccessMessage(command, result), elapsedField)
	default:
		reporter.logger.Debug(reporter.formatter.BuildSuccessMessage(command, result), elapsedField)
	}
}

// CommandExecutionFailed reports a command that could not run to completion.
func (reporter *ProgressReporter) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if reporter == nil {
		return
	}
	reporter.logger.Error(
		reporter.formatter.BuildExecutionFailureMessage(command, failure),
		zap.Duration(elapsedFieldNameConstant, reporter.elapsed(command)),
	)
}

func (reporter *ProgressReporter) elapsed(command execshell.ShellCommand) time.Duration {
	key := commandKey(command)

	reporter.mutex.Lock()
	defer reporter.mutex.Unlock()

	startTime, started := reporter.startTimes[key]
	if !started {
		return 0
	}
	delete(reporter.startTimes, key)
	return reporter.clock().Sub(startTime)
}

func commandKey(command execshell.ShellCommand) string {
	return strings.Join(append([]string{command.Details.WorkingDirectory, string(command.Name)}, command.Details.Arguments...), commandKeySeparatorConstant)
}

func isMutatingCommand(command execshell.ShellCommand) bool {
	if len(command.Details.Arguments) == 0 {
		return false
	}
	_, mutating := mutatingSubcommands[command.Details.Arguments[0]]
	return mutating
}
