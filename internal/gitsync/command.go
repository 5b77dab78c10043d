package gitsync

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitpush/internal/branches"
	"github.com/temirov/gitpush/internal/gitrepo"
	"github.com/temirov/gitpush/internal/ignorefile"
	"github.com/temirov/gitpush/internal/prompt"
	"github.com/temirov/gitpush/internal/utils/flags"
)

const (
	syncCommandUseConstant              = "sync"
	syncCommandShortDescriptionConstant = "Select a branch, then push local changes to it or overwrite the folder with it"
	syncCommandLongDescriptionConstant  = "sync prepares the repository, asks which branch to work on, protects uncommitted changes before switching, and then commits and pushes or replaces the working tree with the remote branch."
	branchesCommandUseConstant          = "branches"
	branchesShortDescriptionConstant    = "List remote branches and the current branch"
	ignoreCommandUseConstant            = "ignore"
	ignoreShortDescriptionConstant      = "Create the ignore file and force-ignore the managed paths"
	repositoryFlagNameConstant          = "repository"
	repositoryFlagUsageConstant         = "Path inside the repository to operate on."
	remoteFlagNameConstant              = "remote"
	remoteFlagUsageConstant             = "Name of the remote to sync with."
	modeFlagNameConstant                = "mode"
	modeFlagDescriptionConstant         = "What to do after the branch is selected."
	fetchFlagNameConstant               = "fetch"
	fetchFlagUsageConstant              = "Fetch from the remote before listing branches."
	outcomeSummaryTemplateConstant      = "Sync finished: %s (branch %s)"
	cancelledSummaryConstant            = "Sync cancelled."
	currentBranchTemplateConstant       = "Current branch: %s"
	detachedHeadLabelConstant           = "(detached HEAD)"
	ignoreFileCreatedTemplateConstant   = "Created %s"
	ignoreFileExistsTemplateConstant    = "%s already exists"
	excludeFileUpdatedTemplateConstant  = "Added force ignored patterns to %s"
	fetchWarningMessageConstant         = "Fetch failed; listing cached remote branches"
)

// SyncCommandBuilder assembles the sync cobra command.
type SyncCommandBuilder struct {
	CommandDependencies
}

// Build constructs the sync command.
func (builder *SyncCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   syncCommandUseConstant,
		Short: syncCommandShortDescriptionConstant,
		Long:  syncCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(repositoryFlagNameConstant, defaults.RepositoryPath, repositoryFlagUsageConstant)
	command.Flags().String(remoteFlagNameConstant, defaults.RemoteName, remoteFlagUsageConstant)
	modeValue := flags.NewChoiceValue(defaults.Mode, ModeChoices())
	command.Flags().Var(modeValue, modeFlagNameConstant, modeValue.Usage(modeFlagDescriptionConstant))

	return command, nil
}

func (builder *SyncCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := applyCommonFlags(command, builder.resolveConfiguration())
	if command.Flags().Changed(modeFlagNameConstant) {
		configuration.Mode = command.Flags().Lookup(modeFlagNameConstant).Value.String()
	}
	if _, modeError := ParseMode(configuration.Mode); modeError != nil {
		return modeError
	}

	repositoryPath, pathError := resolveRepositoryPath(configuration.RepositoryPath)
	if pathError != nil {
		return pathError
	}
	configuration.RepositoryPath = repositoryPath

	logger := builder.resolveLogger()
	gitExecutor, executorError := builder.resolveGitExecutor(logger, configuration.CommandTimeout)
	if executorError != nil {
		return executorError
	}

	prompter := builder.resolvePrompter(command.InOrStdin(), command.OutOrStdout())
	service, serviceError := NewService(ServiceDependencies{
		GitExecutor: gitExecutor,
		Prompter:    prompter,
		FileSystem:  builder.resolveFileSystem(),
		Locator:     builder.resolveLocator(),
		Logger:      logger,
	})
	if serviceError != nil {
		return serviceError
	}

	outcome, runError := service.Run(command.Context(), Options{Configuration: configuration})
	if runError != nil {
		return runError
	}

	if outcome.Status == OutcomeCancelled {
		return prompter.Notify(cancelledSummaryConstant)
	}
	return prompter.Notify(fmt.Sprintf(outcomeSummaryTemplateConstant, outcome.Status, outcome.BranchName))
}

// BranchesCommandBuilder assembles the branches cobra command.
type BranchesCommandBuilder struct {
	CommandDependencies
}

// Build constructs the branches command.
func (builder *BranchesCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   branchesCommandUseConstant,
		Short: branchesShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(repositoryFlagNameConstant, defaults.RepositoryPath, repositoryFlagUsageConstant)
	command.Flags().String(remoteFlagNameConstant, defaults.RemoteName, remoteFlagUsageConstant)
	command.Flags().Bool(fetchFlagNameConstant, false, fetchFlagUsageConstant)

	return command, nil
}

func (builder *BranchesCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := applyCommonFlags(command, builder.resolveConfiguration())
	repositoryPath, pathError := resolveRepositoryPath(configuration.RepositoryPath)
	if pathError != nil {
		return pathError
	}

	location, locateError := builder.resolveLocator().Locate(repositoryPath)
	if locateError != nil {
		return locateError
	}

	logger := builder.resolveLogger()
	gitExecutor, executorError := builder.resolveGitExecutor(logger, configuration.CommandTimeout)
	if executorError != nil {
		return executorError
	}
	repositoryManager, managerError := gitrepo.NewRepositoryManager(gitExecutor)
	if managerError != nil {
		return managerError
	}

	fetchRequested, _ := command.Flags().GetBool(fetchFlagNameConstant)
	if fetchRequested {
		if fetchError := repositoryManager.Fetch(command.Context(), location.RootPath, configuration.RemoteName); fetchError != nil {
			logger.Warn(fetchWarningMessageConstant, zap.Error(fetchError))
		}
	}

	currentBranch, branchSet, discoveryError := DiscoverBranches(command.Context(), repositoryManager, location.RootPath, configuration.RemoteName)
	if discoveryError != nil {
		return discoveryError
	}

	prompter := builder.resolvePrompter(command.InOrStdin(), command.OutOrStdout())
	menu := branches.BuildMenu(branchSet, currentBranch)
	menu.Options = menu.Options[:branchSet.Len()]
	if presentError := prompter.Present(menu); presentError != nil {
		return presentError
	}

	currentLabel := currentBranch
	if len(currentLabel) == 0 {
		currentLabel = detachedHeadLabelConstant
	}
	return prompter.Notify(fmt.Sprintf(currentBranchTemplateConstant, currentLabel))
}

// IgnoreCommandBuilder assembles the ignore cobra command.
type IgnoreCommandBuilder struct {
	CommandDependencies
}

// Build constructs the ignore command.
func (builder *IgnoreCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   ignoreCommandUseConstant,
		Short: ignoreShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().String(repositoryFlagNameConstant, DefaultCommandConfiguration().RepositoryPath, repositoryFlagUsageConstant)

	return command, nil
}

func (builder *IgnoreCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := applyCommonFlags(command, builder.resolveConfiguration())
	repositoryPath, pathError := resolveRepositoryPath(configuration.RepositoryPath)
	if pathError != nil {
		return pathError
	}

	location, locateError := builder.resolveLocator().Locate(repositoryPath)
	if locateError != nil {
		return locateError
	}

	logger := builder.resolveLogger()
	gitExecutor, executorError := builder.resolveGitExecutor(logger, configuration.CommandTimeout)
	if executorError != nil {
		return executorError
	}

	service, serviceError := ignorefile.NewService(ignorefile.ServiceDependencies{
		FileSystem:  builder.resolveFileSystem(),
		GitExecutor: gitExecutor,
		Logger:      logger,
	})
	if serviceError != nil {
		return serviceError
	}

	result, ensureError := service.Ensure(command.Context(), ignorefile.Options{
		RepositoryPath: location.RootPath,
		FileName:       configuration.Ignore.File,
		ManagedPaths:   configuration.Ignore.ManagedPaths,
		Rules:          configuration.Ignore.Rules,
	})
	if ensureError != nil {
		return ensureError
	}

	return reportIgnoreResult(builder.resolvePrompter(command.InOrStdin(), command.OutOrStdout()), result)
}

func reportIgnoreResult(prompter prompt.Prompter, result ignorefile.Result) error {
	ignoreTemplate := ignoreFileExistsTemplateConstant
	if result.IgnoreFileCreated {
		ignoreTemplate = ignoreFileCreatedTemplateConstant
	}
	if notifyError := prompter.Notify(fmt.Sprintf(ignoreTemplate, result.IgnoreFilePath)); notifyError != nil {
		return notifyError
	}
	if !result.ExcludeFileUpdated {
		return nil
	}
	return prompter.Notify(fmt.Sprintf(excludeFileUpdatedTemplateConstant, result.ExcludeFilePath))
}

func applyCommonFlags(command *cobra.Command, configuration CommandConfiguration) CommandConfiguration {
	if flag := command.Flags().Lookup(repositoryFlagNameConstant); flag != nil && flag.Changed {
		configuration.RepositoryPath = strings.TrimSpace(flag.Value.String())
	}
	if flag := command.Flags().Lookup(remoteFlagNameConstant); flag != nil && flag.Changed {
		configuration.RemoteName = strings.TrimSpace(flag.Value.String())
	}
	return configuration.Sanitize()
}
