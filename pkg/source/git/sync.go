package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mercator-hq/importcheck/pkg/batch"
	"mercator-hq/importcheck/pkg/imports"
)

// SyncOptions controls Sync.
type SyncOptions struct {
	// ChangedOnly validates only files touched by the pull. A fresh clone
	// always validates everything.
	ChangedOnly bool

	// Extensions selects export files. Empty means every supported format.
	Extensions []string

	// Concurrency bounds parallel validations.
	Concurrency int

	Progress batch.ProgressFunc
}

// SyncResult is the outcome of Sync.
type SyncResult struct {
	Commit  *CommitInfo
	Pull    *PullResult // nil after a fresh clone
	Files   []string
	Results []*imports.Result
	Totals  batch.Totals
}

// Sync clones or pulls the repository and validates its export files.
// Every result carries the HEAD commit SHA and the git origin.
func Sync(ctx context.Context, repo *Repository, service *imports.Service, opts SyncOptions) (*SyncResult, error) {
	existing, err := repo.Clone(ctx)
	if err != nil {
		return nil, err
	}

	res := &SyncResult{}
	if existing {
		if res.Pull, err = repo.Pull(ctx); err != nil {
			return nil, err
		}
	}

	if res.Commit, err = repo.CurrentCommit(); err != nil {
		return nil, err
	}

	if opts.ChangedOnly && res.Pull != nil {
		res.Files = repo.changedExportFiles(res.Pull.ChangedFiles, opts.Extensions)
	} else {
		if res.Files, err = repo.ExportFiles(opts.Extensions); err != nil {
			return nil, err
		}
	}

	runner := batch.NewRunner(service,
		batch.WithConcurrency(opts.Concurrency),
		batch.WithOrigin(imports.OriginGit),
		batch.WithCommit(res.Commit.SHA),
		batch.WithProgress(opts.Progress),
	)
	if res.Results, err = runner.Run(ctx, res.Files); err != nil {
		return nil, fmt.Errorf("failed to validate exports: %w", err)
	}
	res.Totals = batch.Tally(res.Results)

	repo.logger.Info("repository synchronized",
		"commit", res.Commit.SHA,
		"files", res.Totals.Files,
		"valid", res.Totals.Valid,
		"invalid", res.Totals.Invalid,
		"errors", res.Totals.Errors,
	)
	return res, nil
}

// changedExportFiles keeps changed paths that still exist, lie under the
// export path and pass the extension filter.
func (r *Repository) changedExportFiles(changed []string, extensions []string) []string {
	filter := batch.ExpandOptions{Extensions: extensions, SkipHidden: true}
	root := filepath.Clean(r.ExportPath())

	var files []string
	for _, rel := range changed {
		path := filepath.Join(r.config.LocalPath, filepath.FromSlash(rel))
		inside, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(inside, "..") {
			continue
		}
		if !filter.Accepts(path) {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		files = append(files, path)
	}
	return files
}
