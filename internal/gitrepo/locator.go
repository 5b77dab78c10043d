package gitrepo

import (
	"errors"
	"fmt"
	"path/filepath"

	gitlib "github.com/go-git/go-git/v5"
)

const (
	repositoryNotFoundMessageConstant      = "git repository not found"
	bareRepositoryMessageConstant          = "bare repositories have no working tree"
	repositoryOpenErrorTemplateConstant    = "open repository %s: %w"
	repositoryRemotesErrorTemplateConstant = "list remotes of %s: %w"
)

// ErrRepositoryNotFound indicates that no repository contains the requested path.
var ErrRepositoryNotFound = errors.New(repositoryNotFoundMessageConstant)

// ErrBareRepository indicates that the located repository has no working tree.
var ErrBareRepository = errors.New(bareRepositoryMessageConstant)

// RepositoryLocation describes a discovered working tree.
type RepositoryLocation struct {
	RootPath string
	// Remotes maps remote names to their configured fetch URLs.
	Remotes map[string][]string
}

// RemoteURLs returns the URLs configured for the named remote.
func (location RepositoryLocation) RemoteURLs(remoteName string) ([]string, bool) {
	remoteURLs, exists := location.Remotes[remoteName]
	return remoteURLs, exists
}

// RepositoryLocator discovers repositories by walking up from a path until a .git directory is found.
type RepositoryLocator struct{}

// NewRepositoryLocator constructs a RepositoryLocator.
func NewRepositoryLocator() RepositoryLocator {
	return RepositoryLocator{}
}

// Locate opens the repository that contains candidatePath.
func (RepositoryLocator) Locate(candidatePath string) (RepositoryLocation, error) {
	absolutePath, absoluteError := filepath.Abs(candidatePath)
	if absoluteError != nil {
		return RepositoryLocation{}, fmt.Errorf(repositoryOpenErrorTemplateConstant, candidatePath, absoluteError)
	}

	repository, openError := openRepository(absolutePath)
	if openError != nil {
		return RepositoryLocation{}, fmt.Errorf(repositoryOpenErrorTemplateConstant, absolutePath, openError)
	}

	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		if errors.Is(worktreeError, gitlib.ErrIsBareRepository) {
			return RepositoryLocation{}, fmt.Errorf(repositoryOpenErrorTemplateConstant, absolutePath, ErrBareRepository)
		}
		return RepositoryLocation{}, fmt.Errorf(repositoryOpenErrorTemplateConstant, absolutePath, worktreeError)
	}

	remotes, remotesError := repository.Remotes()
	if remotesError != nil {
		return RepositoryLocation{}, fmt.Errorf(repositoryRemotesErrorTemplateConstant, absolutePath, remotesError)
	}

	remoteURLs := make(map[string][]string, len(remotes))
	for _, remote := range remotes {
		remoteConfiguration := remote.Config()
		remoteURLs[remoteConfiguration.Name] = append([]string{}, remoteConfiguration.URLs...)
	}

	return RepositoryLocation{RootPath: worktree.Filesystem.Root(), Remotes: remoteURLs}, nil
}

// openRepository searches upward for a .git directory. Dot-git detection does not
// recognize a bare repository, so the path itself is opened before reporting it missing.
func openRepository(absolutePath string) (*gitlib.Repository, error) {
	repository, openError := gitlib.PlainOpenWithOptions(absolutePath, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if openError == nil {
		return repository, nil
	}
	if !errors.Is(openError, gitlib.ErrRepositoryNotExists) {
		return nil, openError
	}

	bareRepository, bareOpenError := gitlib.PlainOpen(absolutePath)
	if bareOpenError != nil {
		return nil, ErrRepositoryNotFound
	}
	return bareRepository, nil
}
