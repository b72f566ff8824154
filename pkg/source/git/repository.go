package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"mercator-hq/importcheck/pkg/batch"
	"mercator-hq/importcheck/pkg/config"
)

// ErrNotCloned is returned by operations that need a local clone.
var ErrNotCloned = errors.New("repository not cloned")

// Repository is a local clone of the repository holding export files.
type Repository struct {
	config config.GitConfig
	auth   AuthProvider
	logger *slog.Logger

	mu   sync.RWMutex
	repo *gogit.Repository
}

// NewRepository validates cfg and prepares a repository. Clone or Open
// must be called before any other method.
func NewRepository(cfg config.GitConfig) (*Repository, error) {
	if cfg.Repository == "" {
		return nil, fmt.Errorf("repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		cfg.Branch = config.DefaultGitBranch
	}
	if cfg.LocalPath == "" {
		cfg.LocalPath = config.DefaultGitLocalPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultGitTimeout
	}

	auth, err := NewAuthProvider(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth provider: %w", err)
	}

	return &Repository{
		config: cfg,
		auth:   auth,
		logger: slog.Default().With("component", "source.git"),
	}, nil
}

// Clone opens an existing clone at LocalPath or clones the repository
// there. It reports whether an existing clone was opened.
func (r *Repository) Clone(ctx context.Context) (existing bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(filepath.Join(r.config.LocalPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(r.config.LocalPath)
		if err != nil {
			return false, fmt.Errorf("failed to open existing clone: %w", err)
		}
		r.repo = repo
		return true, nil
	}

	if err := os.MkdirAll(r.config.LocalPath, 0o755); err != nil {
		return false, fmt.Errorf("failed to create clone directory: %w", err)
	}

	auth, err := r.auth.GetAuth()
	if err != nil {
		return false, fmt.Errorf("failed to get auth: %w", err)
	}

	opts := &gogit.CloneOptions{
		URL:           r.config.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(r.config.Branch),
		SingleBranch:  true,
		Auth:          auth,
	}
	if r.config.Depth > 0 {
		opts.Depth = r.config.Depth
	}

	cloneCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	repo, err := gogit.PlainCloneContext(cloneCtx, r.config.LocalPath, false, opts)
	if err != nil {
		return false, fmt.Errorf("failed to clone %s: %w", r.config.Repository, err)
	}
	r.repo = repo

	r.logger.Info("repository cloned",
		"branch", r.config.Branch,
		"path", r.config.LocalPath,
		"auth", r.auth.Type(),
	)
	return false, nil
}

// Pull fast-forwards the clone and lists the files changed by the pull.
func (r *Repository) Pull(ctx context.Context) (*PullResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return nil, ErrNotCloned
	}

	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	fromSHA := head.Hash().String()

	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	auth, err := r.auth.GetAuth()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth: %w", err)
	}

	pullCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	err = worktree.PullContext(pullCtx, &gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(r.config.Branch),
		SingleBranch:  true,
		Auth:          auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil, fmt.Errorf("failed to pull: %w", err)
	}

	head, err = r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get new HEAD: %w", err)
	}

	result := &PullResult{FromSHA: fromSHA, ToSHA: head.Hash().String()}
	result.HadChanges = result.FromSHA != result.ToSHA

	if result.HadChanges {
		files, err := r.changedFiles(result.FromSHA, result.ToSHA)
		if err != nil {
			return nil, fmt.Errorf("failed to get changed files: %w", err)
		}
		result.ChangedFiles = files
	}

	r.logger.Debug("repository pulled",
		"from", result.FromSHA,
		"to", result.ToSHA,
		"changed_files", len(result.ChangedFiles),
	)
	return result, nil
}

// CurrentCommit describes HEAD.
func (r *Repository) CurrentCommit() (*CommitInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.repo == nil {
		return nil, ErrNotCloned
	}

	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}
	return r.commitInfo(commit), nil
}

// CommitHistory returns up to limit commits reachable from HEAD, newest first.
func (r *Repository) CommitHistory(limit int) ([]*CommitInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.repo == nil {
		return nil, ErrNotCloned
	}

	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	iter, err := r.repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("failed to get commit log: %w", err)
	}
	defer iter.Close()

	var history []*CommitInfo
	err = iter.ForEach(func(c *object.Commit) error {
		if len(history) >= limit {
			return storer.ErrStop
		}
		history = append(history, r.commitInfo(c))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate commits: %w", err)
	}
	return history, nil
}

// ChangedFiles returns the paths, relative to the repository root, that
// differ between two commits. Deleted files are included.
func (r *Repository) ChangedFiles(fromSHA, toSHA string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.changedFiles(fromSHA, toSHA)
}

func (r *Repository) changedFiles(fromSHA, toSHA string) ([]string, error) {
	if r.repo == nil {
		return nil, ErrNotCloned
	}

	fromTree, err := r.tree(fromSHA)
	if err != nil {
		return nil, err
	}
	toTree, err := r.tree(toSHA)
	if err != nil {
		return nil, err
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	files := make([]string, 0, len(changes))
	for _, change := range changes {
		if change.To.Name != "" {
			files = append(files, change.To.Name)
		} else if change.From.Name != "" {
			files = append(files, change.From.Name)
		}
	}
	return files, nil
}

func (r *Repository) tree(sha string) (*object.Tree, error) {
	commit, err := r.repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", sha, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree of %s: %w", sha, err)
	}
	return tree, nil
}

// ExportFiles lists the export files under ExportPath.
func (r *Repository) ExportFiles(extensions []string) ([]string, error) {
	root := r.ExportPath()
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("export path does not exist: %w", err)
	}
	return batch.Expand([]string{root}, batch.ExpandOptions{Extensions: extensions, SkipHidden: true})
}

// ExportPath is the directory inside the clone that holds export files.
func (r *Repository) ExportPath() string {
	return filepath.Join(r.config.LocalPath, r.config.Subdir)
}

// LocalPath is the clone directory.
func (r *Repository) LocalPath() string {
	return r.config.LocalPath
}

func (r *Repository) commitInfo(c *object.Commit) *CommitInfo {
	return &CommitInfo{
		SHA:        c.Hash.String(),
		Author:     c.Author.Name,
		Email:      c.Author.Email,
		Timestamp:  c.Author.When,
		Message:    c.Message,
		Branch:     r.config.Branch,
		Repository: r.config.Repository,
	}
}
