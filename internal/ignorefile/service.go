// Package ignorefile maintains the repository ignore file and the local exclusion list
// from the managed path list.
package ignorefile

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitpush/internal/filesystem"
	"github.com/temirov/gitpush/internal/gitrepo"
)

const (
	fileSystemMissingMessageConstant      = "filesystem not configured"
	repositoryPathRequiredMessageConstant = "repository path must be provided"
	ignoreFileInspectTemplateConstant     = "inspect ignore file %s: %w"
	ignoreFileWriteTemplateConstant       = "write ignore file %s: %w"
	excludeFileReadTemplateConstant       = "read exclude file %s: %w"
	excludeFileWriteTemplateConstant      = "write exclude file %s: %w"
	excludesFileSettingConstant           = "core.excludesfile"
	defaultIgnoreFileNameConstant         = ".gitignore"
	gitDirectoryNameConstant              = ".git"
	gitInfoDirectoryNameConstant          = "info"
	excludeFileNameConstant               = "exclude"
	managedSectionHeaderConstant          = "# Managed paths"
	forceIgnoredMarkerConstant            = "# Force ignored patterns"
	lineTerminatorConstant                = "\n"
	ignoreFilePermissionsConstant         = fs.FileMode(0o644)
	logFieldPathConstant                  = "path"
	ignoreFileCreatedMessageConstant      = "Created ignore file"
	ignoreFilePresentMessageConstant      = "Ignore file already exists"
	excludeFileUpdatedMessageConstant     = "Prepended force ignored patterns"
)

//go:embed default_rules.gitignore
var defaultRulesContent string

// ErrFileSystemNotConfigured indicates the filesystem dependency was missing.
var ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ServiceDependencies enumerates collaborators required by the service.
type ServiceDependencies struct {
	FileSystem  filesystem.FileSystem
	GitExecutor gitrepo.GitExecutor
	Logger      *zap.Logger
}

// Options configure one ensure run.
type Options struct {
	RepositoryPath string
	// FileName is relative to the repository root and defaults to .gitignore.
	FileName     string
	ManagedPaths []string
	// Rules replace the built-in rule set when non-empty.
	Rules []string
}

// Result reports which files were touched.
type Result struct {
	IgnoreFilePath     string
	IgnoreFileCreated  bool
	ExcludeFilePath    string
	ExcludeFileUpdated bool
}

// Service ensures ignore rules are in place.
type Service struct {
	fileSystem        filesystem.FileSystem
	repositoryManager *gitrepo.RepositoryManager
	logger            *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	repositoryManager, managerError := gitrepo.NewRepositoryManager(dependencies.GitExecutor)
	if managerError != nil {
		return nil, managerError
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{fileSystem: dependencies.FileSystem, repositoryManager: repositoryManager, logger: logger}, nil
}

// DefaultRules returns the built-in rule set written after the managed section.
func DefaultRules() []string {
	return strings.Split(strings.TrimRight(defaultRulesContent, lineTerminatorConstant), lineTerminatorConstant)
}

// Render builds ignore file contents from the managed paths and rules.
func Render(managedPaths []string, rules []string) string {
	var builder strings.Builder
	builder.WriteString(managedSectionHeaderConstant)
	builder.WriteString(lineTerminatorConstant)
	for _, managedPath := range managedPaths {
		builder.WriteString(managedPath)
		builder.WriteString(lineTerminatorConstant)
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	builder.WriteString(lineTerminatorConstant)
	for _, rule := range rules {
		builder.WriteString(rule)
		builder.WriteString(lineTerminatorConstant)
	}
	return builder.String()
}

// Ensure creates the ignore file when absent, prepends the managed paths to the
// local exclusion file once, and points core.excludesfile at the ignore file.
func (service *Service) Ensure(executionContext context.Context, options Options) (Result, error) {
	repositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(repositoryPath) == 0 {
		return Result{}, ErrRepositoryPathRequired
	}
	fileName := strings.TrimSpace(options.FileName)
	if len(fileName) == 0 {
		fileName = defaultIgnoreFileNameConstant
	}
	managedPaths := normalizePaths(options.ManagedPaths)

	result := Result{
		IgnoreFilePath:  filepath.Join(repositoryPath, fileName),
		ExcludeFilePath: filepath.Join(repositoryPath, gitDirectoryNameConstant, gitInfoDirectoryNameConstant, excludeFileNameConstant),
	}

	created, createError := service.createIgnoreFile(result.IgnoreFilePath, managedPaths, options.Rules)
	if createError != nil {
		return Result{}, createError
	}
	result.IgnoreFileCreated = created

	if configError := service.repositoryManager.SetConfigValue(executionContext, repositoryPath, excludesFileSettingConstant, fileName); configError != nil {
		return Result{}, configError
	}

	updated, excludeError := service.prependForceIgnored(result.ExcludeFilePath, managedPaths)
	if excludeError != nil {
		return Result{}, excludeError
	}
	result.ExcludeFileUpdated = updated
	return result, nil
}

func (service *Service) createIgnoreFile(ignoreFilePath string, managedPaths []string, rules []string) (bool, error) {
	_, statError := service.fileSystem.Stat(ignoreFilePath)
	if statError == nil {
		service.logger.Debug(ignoreFilePresentMessageConstant, zap.String(logFieldPathConstant, ignoreFilePath))
		return false, nil
	}
	if !errors.Is(statError, fs.ErrNotExist) {
		return false, fmt.Errorf(ignoreFileInspectTemplateConstant, ignoreFilePath, statError)
	}

	if writeError := service.fileSystem.WriteFile(ignoreFilePath, []byte(Render(managedPaths, rules)), ignoreFilePermissionsConstant); writeError != nil {
		return false, fmt.Errorf(ignoreFileWriteTemplateConstant, ignoreFilePath, writeError)
	}
	service.logger.Info(ignoreFileCreatedMessageConstant, zap.String(logFieldPathConstant, ignoreFilePath))
	return true, nil
}

func (service *Service) prependForceIgnored(excludeFilePath string, managedPaths []string) (bool, error) {
	existingContent, readError := service.fileSystem.ReadFile(excludeFilePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf(excludeFileReadTemplateConstant, excludeFilePath, readError)
	}
	if strings.Contains(string(existingContent), forceIgnoredMarkerConstant) || len(managedPaths) == 0 {
		return false, nil
	}

	var builder strings.Builder
	builder.WriteString(forceIgnoredMarkerConstant)
	builder.WriteString(lineTerminatorConstant)
	for _, managedPath := range managedPaths {
		builder.WriteString(managedPath)
		builder.WriteString(lineTerminatorConstant)
	}
	builder.Write(existingContent)

	if writeError := service.fileSystem.WriteFile(excludeFilePath, []byte(builder.String()), ignoreFilePermissionsConstant); writeError != nil {
		return false, fmt.Errorf(excludeFileWriteTemplateConstant, excludeFilePath, writeError)
	}
	service.logger.Info(excludeFileUpdatedMessageConstant, zap.String(logFieldPathConstant, excludeFilePath))
	return true, nil
}

func normalizePaths(paths []string) []string {
	seenPaths := map[string]struct{}{}
	normalizedPaths := make([]string, 0, len(paths))
	for _, path := range paths {
		trimmedPath := strings.TrimSpace(path)
		if len(trimmedPath) == 0 {
			continue
		}
		if _, seen := seenPaths[trimmedPath]; seen {
			continue
		}
		seenPaths[trimmedPath] = struct{}{}
		normalizedPaths = append(normalizedPaths, trimmedPath)
	}
	return normalizedPaths
}
