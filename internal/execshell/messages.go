package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	failureSuffixTemplateConstant           = " (exit code %d%s)"
	executionFailureSuffixTemplateConstant  = ": %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	commandArgumentsJoinSeparatorConstant   = " "
	unknownFailureMessageConstant           = "unknown error"
	defaultWorkingDirectoryLabelConstant    = "current directory"
	unknownValueLabelConstant               = "unknown"
	unsetValueLabelConstant                 = "unset"
	detachedHeadLabelConstant               = "a detached HEAD"
	flagPrefixConstant                      = "-"
)

const (
	gitInitSubcommandConstant       = "init"
	gitConfigSubcommandConstant     = "config"
	gitRemoteSubcommandConstant     = "remote"
	gitFetchSubcommandConstant      = "fetch"
	gitBranchSubcommandConstant     = "branch"
	gitStatusSubcommandConstant     = "status"
	gitDiffSubcommandConstant       = "diff"
	gitLsFilesSubcommandConstant    = "ls-files"
	gitStashSubcommandConstant      = "stash"
	gitResetSubcommandConstant      = "reset"
	gitCleanSubcommandConstant      = "clean"
	gitCheckoutSubcommandConstant   = "checkout"
	gitPullSubcommandConstant       = "pull"
	gitAddSubcommandConstant        = "add"
	gitRmSubcommandConstant         = "rm"
	gitCommitSubcommandConstant     = "commit"
	gitPushSubcommandConstant       = "push"
	gitRemoteSetURLConstant         = "set-url"
	gitRemoteAddConstant            = "add"
	gitRemoteBranchesFlagConstant   = "-r"
	gitShowCurrentFlagConstant      = "--show-current"
	gitListFlagConstant             = "--list"
	gitCachedFlagConstant           = "--cached"
	gitOthersFlagConstant           = "--others"
	gitCreateBranchFlagConstant     = "-b"
	gitResetBranchFlagConstant      = "-B"
	gitMessageFlagConstant          = "-m"
	gitNoThinFlagConstant           = "--no-thin"
	gitSetUpstreamFlagConstant      = "--set-upstream"
	gitGetFlagConstant              = "--get"
	gitConfigValueArgumentsConstant = 2
)

const (
	gitInitStartTemplateConstant                 = "Initializing repository in %s"
	gitInitSuccessTemplateConstant               = "Initialized repository in %s"
	gitConfigReadStartTemplateConstant           = "Reading git setting %s in %s"
	gitConfigReadSuccessTemplateConstant         = "Git setting %s in %s is %s"
	gitConfigWriteStartTemplateConstant          = "Setting git %s to %s in %s"
	gitConfigWriteSuccessTemplateConstant        = "Set git %s to %s in %s"
	gitRemoteSetURLStartTemplateConstant         = "Pointing %s remote at %s in %s"
	gitRemoteSetURLSuccessTemplateConstant       = "%s remote now points at %s in %s"
	gitRemoteAddStartTemplateConstant            = "Adding %s remote %s in %s"
	gitRemoteAddSuccessTemplateConstant          = "Added %s remote %s in %s"
	gitFetchStartTemplateConstant                = "Fetching from %s in %s"
	gitFetchSuccessTemplateConstant              = "Fetched from %s in %s"
	gitRemoteBranchesStartTemplateConstant       = "Listing remote branches in %s"
	gitRemoteBranchesSuccessTemplateConstant     = "Listed remote branches in %s"
	gitCurrentBranchStartTemplateConstant        = "Identifying current branch in %s"
	gitCurrentBranchSuccessTemplateConstant      = "Current branch in %s is %s"
	gitLocalBranchStartTemplateConstant          = "Checking for local branch %s in %s"
	gitLocalBranchSuccessTemplateConstant        = "Checked for local branch %s in %s"
	gitStatusStartTemplateConstant               = "Reviewing working tree status in %s"
	gitStatusSuccessTemplateConstant             = "Collected working tree status for %s"
	gitStagedDiffStartTemplateConstant           = "Listing staged changes in %s"
	gitStagedDiffSuccessTemplateConstant         = "Listed staged changes in %s"
	gitUnstagedDiffStartTemplateConstant         = "Listing unstaged changes in %s"
	gitUnstagedDiffSuccessTemplateConstant       = "Listed unstaged changes in %s"
	gitUntrackedFilesStartTemplateConstant       = "Listing untracked files in %s"
	gitUntrackedFilesSuccessTemplateConstant     = "Listed untracked files in %s"
	gitTrackedFilesStartTemplateConstant         = "Listing tracked files in %s"
	gitTrackedFilesSuccessTemplateConstant       = "Listed tracked files in %s"
	gitStashStartTemplateConstant                = "Stashing changes in %s"
	gitStashSuccessTemplateConstant              = "Stashed changes in %s"
	gitResetStartTemplateConstant                = "Resetting tracked changes in %s"
	gitResetSuccessTemplateConstant              = "Reset tracked changes in %s"
	gitCleanStartTemplateConstant                = "Removing untracked files in %s"
	gitCleanSuccessTemplateConstant              = "Removed untracked files in %s"
	gitCheckoutStartTemplateConstant             = "Switching %s to branch %s"
	gitCheckoutSuccessTemplateConstant           = "%s now on branch %s"
	gitCreateBranchStartTemplateConstant         = "Creating branch %s in %s"
	gitCreateBranchSuccessTemplateConstant       = "Created branch %s in %s"
	gitCreateTrackingBranchStartTemplateConstant = "Creating branch %s from %s in %s"
	gitCreateTrackingSuccessTemplateConstant     = "Created branch %s from %s in %s"
	gitResetBranchStartTemplateConstant          = "Resetting branch %s to %s in %s"
	gitResetBranchSuccessTemplateConstant        = "Reset branch %s to %s in %s"
	gitPullStartTemplateConstant                 = "Pulling %s from %s in %s"
	gitPullSuccessTemplateConstant               = "Pulled %s from %s in %s"
	gitAddStartTemplateConstant                  = "Staging changes in %s"
	gitAddSuccessTemplateConstant                = "Staged changes in %s"
	gitRmStartTemplateConstant                   = "Untracking %s in %s"
	gitRmSuccessTemplateConstant                 = "Untracked %s in %s"
	gitCommitStartTemplateConstant               = "Creating commit in %s with message %q"
	gitCommitSuccessTemplateConstant             = "Created commit in %s with message %q"
	gitPushStartTemplateConstant                 = "Pushing %s to %s from %s"
	gitPushSuccessTemplateConstant               = "Pushed %s to %s from %s"
	gitPushNoThinStartTemplateConstant           = "Pushing %s to %s from %s without thin packs"
	gitPushNoThinSuccessTemplateConstant         = "Pushed %s to %s from %s without thin packs"
)

// messageTemplates pairs the start and success phrasing of one git operation.
// Failure messages reuse the start phrasing with an exit code or cause suffix.
type messageTemplates struct {
	start   string
	success string
}

type gitMessageDescription struct {
	templates         messageTemplates
	arguments         []any
	successArguments  []any
	recognizedCommand bool
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a command that exited with zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	description := formatter.describeGitCommand(command, result)
	if !description.recognizedCommand {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(description.templates.start, description.arguments...)
	case messageStageSuccess:
		successArguments := description.successArguments
		if successArguments == nil {
			successArguments = description.arguments
		}
		return fmt.Sprintf(description.templates.success, successArguments...)
	case messageStageFailure:
		startMessage := fmt.Sprintf(description.templates.start, description.arguments...)
		return startMessage + fmt.Sprintf(failureSuffixTemplateConstant, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		startMessage := fmt.Sprintf(description.templates.start, description.arguments...)
		return startMessage + fmt.Sprintf(executionFailureSuffixTemplateConstant, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCommand(command ShellCommand, result ExecutionResult) gitMessageDescription {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return gitMessageDescription{}
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	positional := positionalArguments(arguments[1:])

	switch strings.TrimSpace(arguments[0]) {
	case gitInitSubcommandConstant:
		return recognized(gitInitStartTemplateConstant, gitInitSuccessTemplateConstant, workingDirectory)
	case gitConfigSubcommandConstant:
		return formatter.describeGitConfig(arguments, positional, workingDirectory, result)
	case gitRemoteSubcommandConstant:
		return formatter.describeGitRemote(positional, workingDirectory)
	case gitFetchSubcommandConstant:
		return recognized(gitFetchStartTemplateConstant, gitFetchSuccessTemplateConstant, formatter.ensureValue(argumentAt(positional, 0)), workingDirectory)
	case gitBranchSubcommandConstant:
		return formatter.describeGitBranch(arguments, positional, workingDirectory, result)
	case gitStatusSubcommandConstant:
		return recognized(gitStatusStartTemplateConstant, gitStatusSuccessTemplateConstant, workingDirectory)
	case gitDiffSubcommandConstant:
		if containsArgument(arguments, gitCachedFlagConstant) {
			return recognized(gitStagedDiffStartTemplateConstant, gitStagedDiffSuccessTemplateConstant, workingDirectory)
		}
		return recognized(gitUnstagedDiffStartTemplateConstant, gitUnstagedDiffSuccessTemplateConstant, workingDirectory)
	case gitLsFilesSubcommandConstant:
		if containsArgument(arguments, gitOthersFlagConstant) {
			return recognized(gitUntrackedFilesStartTemplateConstant, gitUntrackedFilesSuccessTemplateConstant, workingDirectory)
		}
		return recognized(gitTrackedFilesStartTemplateConstant, gitTrackedFilesSuccessTemplateConstant, workingDirectory)
	case gitStashSubcommandConstant:
		return recognized(gitStashStartTemplateConstant, gitStashSuccessTemplateConstant, workingDirectory)
	case gitResetSubcommandConstant:
		return recognized(gitResetStartTemplateConstant, gitResetSuccessTemplateConstant, workingDirectory)
	case gitCleanSubcommandConstant:
		return recognized(gitCleanStartTemplateConstant, gitCleanSuccessTemplateConstant, workingDirectory)
	case gitCheckoutSubcommandConstant:
		return formatter.describeGitCheckout(arguments, workingDirectory)
	case gitPullSubcommandConstant:
		return recognized(gitPullStartTemplateConstant, gitPullSuccessTemplateConstant, formatter.ensureValue(argumentAt(positional, 1)), formatter.ensureValue(argumentAt(positional, 0)), workingDirectory)
	case gitAddSubcommandConstant:
		return recognized(gitAddStartTemplateConstant, gitAddSuccessTemplateConstant, workingDirectory)
	case gitRmSubcommandConstant:
		return recognized(gitRmStartTemplateConstant, gitRmSuccessTemplateConstant, formatter.ensureValue(strings.Join(positional, commandArgumentsJoinSeparatorConstant)), workingDirectory)
	case gitCommitSubcommandConstant:
		return recognized(gitCommitStartTemplateConstant, gitCommitSuccessTemplateConstant, workingDirectory, findFlagValue(arguments, gitMessageFlagConstant))
	case gitPushSubcommandConstant:
		branchName := formatter.ensureValue(argumentAt(positional, 1))
		remoteName := formatter.ensureValue(argumentAt(positional, 0))
		if containsArgument(arguments, gitNoThinFlagConstant) {
			return recognized(gitPushNoThinStartTemplateConstant, gitPushNoThinSuccessTemplateConstant, branchName, remoteName, workingDirectory)
		}
		return recognized(gitPushStartTemplateConstant, gitPushSuccessTemplateConstant, branchName, remoteName, workingDirectory)
	default:
		return gitMessageDescription{}
	}
}

func (formatter CommandMessageFormatter) describeGitConfig(arguments []string, positional []string, workingDirectory string, result ExecutionResult) gitMessageDescription {
	settingName := formatter.ensureValue(argumentAt(positional, 0))
	if len(positional) >= gitConfigValueArgumentsConstant && !containsArgument(arguments, gitGetFlagConstant) {
		return recognized(gitConfigWriteStartTemplateConstant, gitConfigWriteSuccessTemplateConstant, settingName, argumentAt(positional, 1), workingDirectory)
	}

	settingValue := strings.TrimSpace(result.StandardOutput)
	if len(settingValue) == 0 {
		settingValue = unsetValueLabelConstant
	}
	description := recognized(gitConfigReadStartTemplateConstant, gitConfigReadSuccessTemplateConstant, settingName, workingDirectory)
	description.successArguments = []any{settingName, workingDirectory, settingValue}
	return description
}

func (formatter CommandMessageFormatter) describeGitRemote(positional []string, workingDirectory string) gitMessageDescription {
	remoteName := formatter.ensureValue(argumentAt(positional, 1))
	remoteURL := formatter.ensureValue(argumentAt(positional, 2))
	switch argumentAt(positional, 0) {
	case gitRemoteSetURLConstant:
		return recognized(gitRemoteSetURLStartTemplateConstant, gitRemoteSetURLSuccessTemplateConstant, remoteName, remoteURL, workingDirectory)
	case gitRemoteAddConstant:
		return recognized(gitRemoteAddStartTemplateConstant, gitRemoteAddSuccessTemplateConstant, remoteName, remoteURL, workingDirectory)
	default:
		return gitMessageDescription{}
	}
}

func (formatter CommandMessageFormatter) describeGitBranch(arguments []string, positional []string, workingDirectory string, result ExecutionResult) gitMessageDescription {
	switch {
	case containsArgument(arguments, gitShowCurrentFlagConstant):
		currentBranch := strings.TrimSpace(result.StandardOutput)
		if len(currentBranch) == 0 {
			currentBranch = detachedHeadLabelConstant
		}
		description := recognized(gitCurrentBranchStartTemplateConstant, gitCurrentBranchSuccessTemplateConstant, workingDirectory)
		description.successArguments = []any{workingDirectory, currentBranch}
		return description
	case containsArgument(arguments, gitRemoteBranchesFlagConstant):
		return recognized(gitRemoteBranchesStartTemplateConstant, gitRemoteBranchesSuccessTemplateConstant, workingDirectory)
	case containsArgument(arguments, gitListFlagConstant):
		return recognized(gitLocalBranchStartTemplateConstant, gitLocalBranchSuccessTemplateConstant, formatter.ensureValue(argumentAt(positional, 0)), workingDirectory)
	default:
		return gitMessageDescription{}
	}
}

func (formatter CommandMessageFormatter) describeGitCheckout(arguments []string, workingDirectory string) gitMessageDescription {
	if branchName, found := findFlagArgument(arguments, gitResetBranchFlagConstant); found {
		startPoint := formatter.ensureValue(argumentFollowing(arguments, gitResetBranchFlagConstant, 2))
		return recognized(gitResetBranchStartTemplateConstant, gitResetBranchSuccessTemplateConstant, formatter.ensureValue(branchName), startPoint, workingDirectory)
	}

	if branchName, found := findFlagArgument(arguments, gitCreateBranchFlagConstant); found {
		startPoint := argumentFollowing(arguments, gitCreateBranchFlagConstant, 2)
		if len(startPoint) > 0 {
			return recognized(gitCreateTrackingBranchStartTemplateConstant, gitCreateTrackingSuccessTemplateConstant, formatter.ensureValue(branchName), startPoint, workingDirectory)
		}
		return recognized(gitCreateBranchStartTemplateConstant, gitCreateBranchSuccessTemplateConstant, formatter.ensureValue(branchName), workingDirectory)
	}

	branchName := formatter.ensureValue(argumentAt(positionalArguments(arguments[1:]), 0))
	return recognized(gitCheckoutStartTemplateConstant, gitCheckoutSuccessTemplateConstant, workingDirectory, branchName)
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := append([]string{string(command.Name)}, command.Details.Arguments...)
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return commandLabel
	}
	return commandLabel + fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return unknownValueLabelConstant
	}
	return trimmedValue
}

func recognized(startTemplate string, successTemplate string, arguments ...any) gitMessageDescription {
	return gitMessageDescription{
		templates:         messageTemplates{start: startTemplate, success: successTemplate},
		arguments:         arguments,
		recognizedCommand: true,
	}
}

// positionalArguments drops flags and the values of flags that consume one.
func positionalArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	skipNext := false
	for _, argument := range arguments {
		if skipNext {
			skipNext = false
			continue
		}
		if strings.HasPrefix(argument, flagPrefixConstant) {
			if argument == gitMessageFlagConstant {
				skipNext = true
			}
			continue
		}
		positional = append(positional, argument)
	}
	return positional
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func argumentAt(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return ""
	}
	return strings.TrimSpace(arguments[index])
}

func findFlagValue(arguments []string, flag string) string {
	value, _ := findFlagArgument(arguments, flag)
	return value
}

func findFlagArgument(arguments []string, flag string) (string, bool) {
	for index, argument := range arguments {
		if argument == flag {
			return argumentAt(arguments, index+1), true
		}
	}
	return "", false
}

func argumentFollowing(arguments []string, flag string, offset int) string {
	for index, argument := range arguments {
		if argument == flag {
			return argumentAt(arguments, index+offset)
		}
	}
	return ""
}
