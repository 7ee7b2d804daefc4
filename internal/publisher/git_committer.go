package publisher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNothingToCommit is returned when the output directory has no changes
var ErrNothingToCommit = errors.New("nothing to commit")

// CommitAuthor identifies the author of mirror commits
type CommitAuthor struct {
	Name  string
	Email string
}

//go:generate mockgen -destination=mocks/mock_git_committer.go -package=mocks -source=git_committer.go GitCommitter

// GitCommitter records the output directory in the git repository containing it
type GitCommitter interface {
	// Commit stages every change below the output directory and commits it.
	// It returns the new commit hash, or ErrNothingToCommit when there are no changes.
	Commit(ctx context.Context, message string) (string, error)
}

// defaultGitCommitter implements GitCommitter using go-git
type defaultGitCommitter struct {
	outputDir string
	author    CommitAuthor
	now       func() time.Time
}

var _ GitCommitter = (*defaultGitCommitter)(nil)

// NewDefaultGitCommitter creates a committer for outputDir. The directory must be
// inside an existing repository; it is looked up when Commit runs.
func NewDefaultGitCommitter(outputDir string, author CommitAuthor) GitCommitter {
	return &defaultGitCommitter{
		outputDir: outputDir,
		author:    author,
		now:       time.Now,
	}
}

// Commit stages the published files below the output directory and commits them
func (c *defaultGitCommitter) Commit(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	absDir, err := filepath.Abs(c.outputDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output directory: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(absDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open git repository for %s: %w", absDir, err)
	}

	workTree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	rel, err := filepath.Rel(workTree.Filesystem.Root(), absDir)
	if err != nil {
		return "", fmt.Errorf("failed to locate output directory in worktree: %w", err)
	}

	if err := stageOutput(workTree, absDir, filepath.ToSlash(rel)); err != nil {
		return "", err
	}

	status, err := workTree.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree status: %w", err)
	}
	if !hasStagedChanges(status) {
		slog.Info("Output directory unchanged, skipping commit", "outputDir", absDir)
		return "", ErrNothingToCommit
	}

	hash, err := workTree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  c.author.Name,
			Email: c.author.Email,
			When:  c.now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit output directory: %w", err)
	}

	slog.Info("Committed output directory",
		"outputDir", absDir,
		"commit", hash.String())
	return hash.String(), nil
}

// stageOutput stages published files below absDir together with removals of tracked ones.
// Dot files such as the run lock and temporary files stay out of the index.
func stageOutput(workTree *git.Worktree, absDir, rel string) error {
	status, err := workTree.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	for path, s := range status {
		if s.Worktree != git.Deleted || !inOutputDir(path, rel) {
			continue
		}
		if _, err := workTree.Remove(path); err != nil {
			return fmt.Errorf("failed to stage removal of %s: %w", path, err)
		}
	}

	root := workTree.Filesystem.Root()
	return filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != absDir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), ".tmp") {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to locate %s in worktree: %w", path, err)
		}
		if err := workTree.AddWithOptions(&git.AddOptions{Path: filepath.ToSlash(relPath), SkipStatus: true}); err != nil {
			return fmt.Errorf("failed to stage %s: %w", relPath, err)
		}
		return nil
	})
}

func inOutputDir(path, rel string) bool {
	return rel == "." || path == rel || strings.HasPrefix(path, rel+"/")
}

// hasStagedChanges ignores untracked files outside the output directory
func hasStagedChanges(status git.Status) bool {
	for _, s := range status {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			return true
		}
	}
	return false
}
