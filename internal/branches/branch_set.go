package branches

import (
	"strings"
)

const (
	symbolicReferenceMarkerConstant  = "->"
	remoteReferenceSeparatorConstant = "/"
)

// BranchSet is an ordered collection of unique remote branch names.
type BranchSet struct {
	names   []string
	members map[string]struct{}
}

// NewBranchSet builds a set from names, keeping the first occurrence of each non-empty name.
func NewBranchSet(names []string) BranchSet {
	set := BranchSet{names: make([]string, 0, len(names)), members: make(map[string]struct{}, len(names))}
	for _, name := range names {
		trimmedName := strings.TrimSpace(name)
		if len(trimmedName) == 0 {
			continue
		}
		if _, exists := set.members[trimmedName]; exists {
			continue
		}
		set.members[trimmedName] = struct{}{}
		set.names = append(set.names, trimmedName)
	}
	return set
}

// ParseRemoteBranches converts `git branch -r` lines into the branch names that live on remoteName.
// Symbolic references such as `origin/HEAD -> origin/main` and other remotes are skipped.
func ParseRemoteBranches(remoteName string, references []string) BranchSet {
	remotePrefix := strings.TrimSpace(remoteName) + remoteReferenceSeparatorConstant
	names := make([]string, 0, len(references))
	for _, reference := range references {
		trimmedReference := strings.TrimSpace(reference)
		if strings.Contains(trimmedReference, symbolicReferenceMarkerConstant) {
			continue
		}
		if !strings.HasPrefix(trimmedReference, remotePrefix) {
			continue
		}
		names = append(names, strings.TrimPrefix(trimmedReference, remotePrefix))
	}
	return NewBranchSet(names)
}

// Names returns the branch names in listing order.
func (set BranchSet) Names() []string {
	return append([]string{}, set.names...)
}

// Contains reports whether name is part of the set.
func (set BranchSet) Contains(name string) bool {
	_, exists := set.members[strings.TrimSpace(name)]
	return exists
}

// Len returns the number of unique names.
func (set BranchSet) Len() int {
	return len(set.names)
}

// At returns the name at the zero-based position in listing order.
func (set BranchSet) At(index int) (string, bool) {
	if index < 0 || index >= len(set.names) {
		return "", false
	}
	return set.names[index], true
}
