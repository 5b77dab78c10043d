// Package bootstrap prepares a working tree before branch selection: it locates or
// initializes the repository, fills in a missing commit identity, points the remote
// at the configured URL, and fetches.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitpush/internal/execshell"
	"github.com/temirov/gitpush/internal/gitrepo"
)

const (
	repositoryPathRequiredMessageConstant = "repository path must be provided"
	initializeFailureTemplateConstant     = "initialize repository in %s: %w"
	invalidRemoteURLTemplateConstant      = "invalid remote url for %s: %w"
	defaultRemoteNameConstant             = "origin"
	gitInitSubcommandConstant             = "init"
	userNameSettingConstant               = "user.name"
	userEmailSettingConstant              = "user.email"
	logFieldRepositoryConstant            = "repository"
	logFieldSettingConstant               = "setting"
	logFieldRemoteConstant                = "remote"
	logFieldRemoteURLConstant             = "remote_url"
	repositoryInitializedMessageConstant  = "Initialized git repository"
	identityDefaultedMessageConstant      = "Applied default commit identity"
	identityWarningMessageConstant        = "Failed to apply default commit identity"
	remoteConfiguredMessageConstant       = "Configured remote"
	remoteUnchangedMessageConstant        = "Remote already points at configured url"
	fetchWarningMessageConstant           = "Fetch failed; continuing with cached remote branches"
)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// RepositoryLocator finds the repository containing a path.
type RepositoryLocator interface {
	Locate(candidatePath string) (gitrepo.RepositoryLocation, error)
}

// Identity is the commit author applied when the repository has none.
type Identity struct {
	Name  string
	Email string
}

// ServiceDependencies enumerates collaborators required by the service.
type ServiceDependencies struct {
	GitExecutor gitrepo.GitExecutor
	Locator     RepositoryLocator
	Logger      *zap.Logger
}

// Options configure one bootstrap run.
type Options struct {
	RepositoryPath       string
	RemoteName           string
	RemoteURL            string
	InitializeRepository bool
	FetchOnStart         bool
	Identity             Identity
}

// Result describes the prepared repository.
type Result struct {
	RepositoryRoot   string
	Initialized      bool
	IdentityDefaults []string
	RemoteConfigured bool
	RemoteAvailable  bool
	Fetched          bool
	Warnings         []error
}

// Service prepares repositories.
type Service struct {
	executor          gitrepo.GitExecutor
	repositoryManager *gitrepo.RepositoryManager
	locator           RepositoryLocator
	logger            *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	repositoryManager, managerError := gitrepo.NewRepositoryManager(dependencies.GitExecutor)
	if managerError != nil {
		return nil, managerError
	}
	locator := dependencies.Locator
	if locator == nil {
		locator = gitrepo.NewRepositoryLocator()
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{executor: dependencies.GitExecutor, repositoryManager: repositoryManager, locator: locator, logger: logger}, nil
}

// Bootstrap runs every preparation step. Identity and fetch failures are collected
// as warnings; a missing repository or a bad remote configuration is an error.
func (service *Service) Bootstrap(executionContext context.Context, options Options) (Result, error) {
	repositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(repositoryPath) == 0 {
		return Result{}, ErrRepositoryPathRequired
	}
	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		remoteName = defaultRemoteNameConstant
	}

	result := Result{}
	location, locateError := service.locator.Locate(repositoryPath)
	if locateError != nil {
		if !errors.Is(locateError, gitrepo.ErrRepositoryNotFound) || !options.InitializeRepository {
			return Result{}, locateError
		}
		if _, initError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:        []string{gitInitSubcommandConstant},
			WorkingDirectory: repositoryPath,
		}); initError != nil {
			return Result{}, fmt.Errorf(initializeFailureTemplateConstant, repositoryPath, initError)
		}
		service.logger.Info(repositoryInitializedMessageConstant, zap.String(logFieldRepositoryConstant, repositoryPath))
		result.Initialized = true

		location, locateError = service.locator.Locate(repositoryPath)
		if locateError != nil {
			return Result{}, locateError
		}
	}
	result.RepositoryRoot = location.RootPath

	service.applyIdentity(executionContext, location.RootPath, options.Identity, &result)

	configuredURLs, remoteExists := location.RemoteURLs(remoteName)
	remoteURL := strings.TrimSpace(options.RemoteURL)
	if len(remoteURL) > 0 {
		if _, parseError := gitrepo.ParseRemoteURL(remoteURL); parseError != nil {
			return Result{}, fmt.Errorf(invalidRemoteURLTemplateConstant, remoteName, parseError)
		}
		if slices.Contains(configuredURLs, remoteURL) {
			service.logger.Debug(remoteUnchangedMessageConstant, zap.String(logFieldRemoteConstant, remoteName), zap.String(logFieldRemoteURLConstant, gitrepo.RedactRemoteURL(remoteURL)))
		} else {
			if configureError := service.repositoryManager.ConfigureRemote(executionContext, location.RootPath, remoteName, remoteURL); configureError != nil {
				return Result{}, configureError
			}
			result.RemoteConfigured = true
			service.logger.Info(remoteConfiguredMessageConstant, zap.String(logFieldRemoteConstant, remoteName), zap.String(logFieldRemoteURLConstant, gitrepo.RedactRemoteURL(remoteURL)))
		}
		remoteExists = true
	}
	result.RemoteAvailable = remoteExists

	if options.FetchOnStart && remoteExists {
		if fetchError := service.repositoryManager.Fetch(executionContext, location.RootPath, remoteName); fetchError != nil {
			result.Warnings = append(result.Warnings, fetchError)
			service.logger.Warn(fetchWarningMessageConstant, zap.String(logFieldRemoteConstant, remoteName), zap.Error(fetchError))
		} else {
			result.Fetched = true
		}
	}

	return result, nil
}

func (service *Service) applyIdentity(executionContext context.Context, repositoryPath string, identity Identity, result *Result) {
	defaults := []struct {
		setting string
		value   string
	}{
		{setting: userNameSettingConstant, value: strings.TrimSpace(identity.Name)},
		{setting: userEmailSettingConstant, value: strings.TrimSpace(identity.Email)},
	}

	for _, identityDefault := range defaults {
		if len(identityDefault.value) == 0 {
			continue
		}
		_, found, readError := service.repositoryManager.ConfigValue(executionContext, repositoryPath, identityDefault.setting)
		if readError != nil {
			result.Warnings = append(result.Warnings, readError)
			service.logger.Warn(identityWarningMessageConstant, zap.String(logFieldSettingConstant, identityDefault.setting), zap.Error(readError))
			continue
		}
		if found {
			continue
		}
		if writeError := service.repositoryManager.SetConfigValue(executionContext, repositoryPath, identityDefault.setting, identityDefault.value); writeError != nil {
			result.Warnings = append(result.Warnings, writeError)
			service.logger.Warn(identityWarningMessageConstant, zap.String(logFieldSettingConstant, identityDefault.setting), zap.Error(writeError))
			continue
		}
		result.IdentityDefaults = append(result.IdentityDefaults, identityDefault.setting)
		service.logger.Info(identityDefaultedMessageConstant, zap.String(logFieldRepositoryConstant, repositoryPath), zap.String(logFieldSettingConstant, identityDefault.setting))
	}
}
