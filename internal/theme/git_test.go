package theme

import (
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Test-only helpers around go-git's plumbing for building fixture repositories.

func gitInit(dir string) (*git.Repository, error) {
	return git.PlainInit(dir, false)
}

func gitCommitAll(repo *git.Repository, message string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	if err := wt.AddGlob("."); err != nil {
		return err
	}
	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "fixture", Email: "fixture@example.com"},
	})
	return err
}
