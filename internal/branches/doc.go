// Package branches discovers remote branches and resolves which branch an operator wants to work on.
//
// BranchSet collapses the output of `git branch -r` into an ordered, duplicate
// free listing, and Resolver turns that listing into a numbered menu whose
// answer is validated within a bounded number of attempts.
package branches
