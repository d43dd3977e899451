// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

/*
Package repository implements the git-backed persistence of the rulings index.

The canonical rulings live in a dedicated git repository as three YAML files
under rulings/: references.yaml, groups.yaml and rulings.yaml. This package
clones (or opens) that repository, loads the files into a [rulings.Index],
and writes an approved index back as a commit pushed upstream.

# Architecture

  - Plumbing: go-git, no git binary required on the host.
  - Format: plain YAML, kept readable without tooling. The files are the
    long-term reference, the service is only a curation front.
  - Serialization: commits are serialized by a process-wide lock, concurrent
    approvals would race on the worktree.
*/
package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/vtes-biased/rulings-website/internal/rulings"
)

// # Definitions & Constructors

// rulingsDir is the directory holding the YAML files inside the repository.
const rulingsDir = "rulings"

const (
	referencesFile = "references.yaml"
	groupsFile     = "groups.yaml"
	rulingsFile    = "rulings.yaml"
)

// commitAuthor signs the commits produced by proposal approvals.
var commitAuthor = object.Signature{
	Name:  "VTES Biased",
	Email: "rulings@vtes-biased.org",
}

// Config holds the settings needed to reach the rulings repository.
type Config struct {
	Remote     string // Git remote URL (ssh or https)
	Branch     string // Branch holding the canonical files
	WorkDir    string // Local checkout location
	SSHKeyPath string // Private key for push access, optional for read-only use
}

// Repository is a handle on the local checkout of the rulings repository.
type Repository struct {
	repo    *git.Repository
	workDir string
	branch  string
	auth    transport.AuthMethod

	// commitMu serializes approvals: concurrent worktree writes would
	// produce broken commits.
	commitMu sync.Mutex
}

/*
Open clones the rulings repository, or opens and refreshes an existing
checkout.

Description: Called once at startup. A pre-existing checkout is pulled
fast-forward so the service always starts from the upstream state.

Parameters:
  - context: context.Context
  - config: Config

Returns:
  - *Repository: Ready-to-use handle
  - error: Clone, open or authentication failures
*/
func Open(ctx context.Context, config Config) (*Repository, error) {
	var auth transport.AuthMethod
	if config.SSHKeyPath != "" {
		keys, err := gitssh.NewPublicKeysFromFile("git", config.SSHKeyPath, "")
		if err != nil {
			return nil, fmt.Errorf("repository_ssh_key_failed: %w", err)
		}
		auth = keys
	}

	repository := &Repository{
		workDir: config.WorkDir,
		branch:  config.Branch,
		auth:    auth,
	}

	if _, err := os.Stat(filepath.Join(config.WorkDir, git.GitDirName)); err == nil {
		repo, err := git.PlainOpen(config.WorkDir)
		if err != nil {
			return nil, fmt.Errorf("repository_open_failed: %w", err)
		}
		repository.repo = repo
		if err := repository.pull(ctx); err != nil {
			return nil, err
		}
		return repository, nil
	}

	repo, err := git.PlainCloneContext(ctx, config.WorkDir, false, &git.CloneOptions{
		URL:           config.Remote,
		ReferenceName: plumbing.NewBranchReferenceName(config.Branch),
		SingleBranch:  true,
		Auth:          auth,
	})
	if err != nil {
		return nil, fmt.Errorf("repository_clone_failed: %w", err)
	}
	repository.repo = repo
	return repository, nil
}

// pull fast-forwards the checkout to the upstream branch head.
func (r *Repository) pull(ctx context.Context) error {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("repository_worktree_failed: %w", err)
	}
	err = worktree.PullContext(ctx, &git.PullOptions{
		ReferenceName: plumbing.NewBranchReferenceName(r.branch),
		SingleBranch:  true,
		Auth:          r.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) &&
		!errors.Is(err, git.ErrRemoteNotFound) {
		return fmt.Errorf("repository_pull_failed: %w", err)
	}
	return nil
}

/*
LoadIndex reads the three YAML files and builds the base rulings index.

Parameters:
  - cards: rulings.CardResolver (the loaded card catalog)

Returns:
  - *rulings.Index: Fully hydrated base index
  - error: Missing files, malformed YAML or unresolvable entries
*/
func (r *Repository) LoadIndex(cards rulings.CardResolver) (*rulings.Index, error) {
	dir := filepath.Join(r.workDir, rulingsDir)

	references, err := loadReferences(filepath.Join(dir, referencesFile))
	if err != nil {
		return nil, err
	}
	groups, err := loadGroups(filepath.Join(dir, groupsFile))
	if err != nil {
		return nil, err
	}
	rulingTexts, err := loadRulings(filepath.Join(dir, rulingsFile))
	if err != nil {
		return nil, err
	}

	index, err := rulings.BuildIndex(cards, references, groups, rulingTexts)
	if err != nil {
		return nil, fmt.Errorf("repository_index_build_failed: %w", err)
	}
	return index, nil
}

/*
CommitIndex serializes a merged index back to the YAML files, commits and
pushes.

Description: Called after a proposal merge, under the caller's merge lock and
this repository's own commit lock. If the repository has no configured
remote (local development, tests) the push step is skipped.

Parameters:
  - context: context.Context
  - index: *rulings.Index (merged, permanent group ids only)
  - message: string (commit message, usually the proposal name and description)

Returns:
  - error: Serialization, commit or push failures
*/
func (r *Repository) CommitIndex(ctx context.Context, index *rulings.Index, message string) error {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	dir := filepath.Join(r.workDir, rulingsDir)
	if err := writeIndexFiles(dir, index); err != nil {
		return err
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("repository_worktree_failed: %w", err)
	}
	for _, name := range []string{referencesFile, groupsFile, rulingsFile} {
		if _, err := worktree.Add(filepath.Join(rulingsDir, name)); err != nil {
			return fmt.Errorf("repository_add_failed: %s: %w", name, err)
		}
	}

	author := commitAuthor
	author.When = time.Now()
	if _, err := worktree.Commit(message, &git.CommitOptions{Author: &author}); err != nil {
		return fmt.Errorf("repository_commit_failed: %w", err)
	}

	remotes, err := r.repo.Remotes()
	if err != nil {
		return fmt.Errorf("repository_remotes_failed: %w", err)
	}
	if len(remotes) == 0 {
		return nil
	}

	err = r.repo.PushContext(ctx, &git.PushOptions{Auth: r.auth})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("repository_push_failed: %w", err)
	}
	return nil
}
