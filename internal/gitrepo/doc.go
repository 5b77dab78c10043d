// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// RepositoryLocator discovers working trees with go-git, RepositoryManager
// answers branch, configuration, and index questions through the git CLI, and
// ParseRemoteURL validates remote addresses before they are configured.
package gitrepo
