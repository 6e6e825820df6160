// Package revision looks up the version control state of the workspace a
// package is built from. It's exposed to revision expressions as
// input.commit and input.branch.
package revision

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Info describes the checked out commit. Both fields are empty outside of a
// git repository or in a repository without commits.
type Info struct {
	Commit string
	Branch string
}

// Lookup returns the HEAD of the git repository containing dir, searching
// parent directories for the .git directory.
func Lookup(dir string) (Info, error) {
	repository, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return Info{}, nil
	} else if err != nil {
		return Info{}, fmt.Errorf("failed to open git repository at %s: %w", dir, err)
	}

	head, err := repository.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return Info{}, nil
	} else if err != nil {
		return Info{}, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	info := Info{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	return info, nil
}

// Input returns the fields of i keyed the way revision expressions refer
// to them.
func (i Info) Input() map[string]any {
	return map[string]any{
		"commit": i.Commit,
		"branch": i.Branch,
	}
}

// IsInput tells if key is one of the fields Input provides.
func IsInput(key string) bool {
	return key == "commit" || key == "branch"
}
