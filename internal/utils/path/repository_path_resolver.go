package pathutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	currentDirectoryPathConstant            = "."
	tildeSymbolConstant                     = "~"
	absolutePathErrorTemplateConstant       = "unable to resolve repository path %q: %w"
	homeDirectoryErrorTemplateConstant      = "unable to expand %q: %w"
	homeDirectoryUnavailableMessageConstant = "home directory unavailable"
)

// ErrHomeDirectoryUnavailable indicates a tilde path could not be expanded.
var ErrHomeDirectoryUnavailable = errors.New(homeDirectoryUnavailableMessageConstant)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// RepositoryPathResolver turns a configured repository path into a clean absolute path.
type RepositoryPathResolver struct {
	homeDirectoryProvider HomeDirectoryProvider
}

// NewRepositoryPathResolver constructs a resolver using the operating system home lookup.
func NewRepositoryPathResolver() RepositoryPathResolver {
	return NewRepositoryPathResolverWithProvider(os.UserHomeDir)
}

// NewRepositoryPathResolverWithProvider constructs a resolver with a custom home directory provider.
func NewRepositoryPathResolverWithProvider(provider HomeDirectoryProvider) RepositoryPathResolver {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return RepositoryPathResolver{homeDirectoryProvider: provider}
}

// Resolve expands a leading tilde and converts the candidate into an absolute path.
// An empty candidate resolves to the current working directory.
func (resolver RepositoryPathResolver) Resolve(candidatePath string) (string, error) {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		trimmedPath = currentDirectoryPathConstant
	}

	expandedPath, expansionError := resolver.expandHome(trimmedPath)
	if expansionError != nil {
		return "", expansionError
	}

	absolutePath, absoluteError := filepath.Abs(expandedPath)
	if absoluteError != nil {
		return "", fmt.Errorf(absolutePathErrorTemplateConstant, candidatePath, absoluteError)
	}
	return filepath.Clean(absolutePath), nil
}

func (resolver RepositoryPathResolver) expandHome(candidatePath string) (string, error) {
	if !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath, nil
	}

	remainder := strings.TrimPrefix(candidatePath, tildeSymbolConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return candidatePath, nil
	}

	provider := resolver.homeDirectoryProvider
	if provider == nil {
		provider = os.UserHomeDir
	}
	homeDirectory, homeError := provider()
	if homeError != nil {
		return "", fmt.Errorf(homeDirectoryErrorTemplateConstant, candidatePath, errors.Join(ErrHomeDirectoryUnavailable, homeError))
	}
	if len(strings.TrimSpace(homeDirectory)) == 0 {
		return "", fmt.Errorf(homeDirectoryErrorTemplateConstant, candidatePath, ErrHomeDirectoryUnavailable)
	}

	return filepath.Join(homeDirectory, strings.TrimLeft(remainder, "/"+string(os.PathSeparator))), nil
}
