// Package catalog indexes patch files on disk into a store.Store.
package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codewiresh/gsapi/internal/patch"
	"github.com/codewiresh/gsapi/internal/store"
)

// DefaultWorkers is used when Index is given a non-positive worker count.
const DefaultWorkers = 4

// Failure is a patch file that could not be indexed.
type Failure struct {
	Path string `json:"path" yaml:"path"`
	Err  string `json:"error" yaml:"error"`
}

// Result summarizes one Index run.
type Result struct {
	Indexed  int       `json:"indexed" yaml:"indexed"`
	Pruned   int       `json:"pruned" yaml:"pruned"`
	Failures []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Options tunes Index.
type Options struct {
	Workers int
	// Prune removes records under root whose files no longer exist.
	Prune bool
}

// Index walks root for patch files, parses them concurrently and upserts
// each one into st. Malformed files are reported in Result.Failures and do
// not stop the run; store errors and walk errors do.
func Index(ctx context.Context, st store.Store, root string, opts Options) (Result, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return Result{}, fmt.Errorf("resolving %s: %w", root, err)
	}

	paths, err := findPatches(root)
	if err != nil {
		return Result{}, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var (
		mu  sync.Mutex
		res Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			md, err := patch.ParseFile(path)
			var info os.FileInfo
			if err == nil {
				info, err = os.Stat(path)
			}
			if err != nil {
				mu.Lock()
				res.Failures = append(res.Failures, Failure{Path: path, Err: err.Error()})
				mu.Unlock()
				return nil
			}
			if _, err := st.PatchUpsert(gctx, store.PatchRecord{Metadata: md, ModTime: info.ModTime()}); err != nil {
				return err
			}
			mu.Lock()
			res.Indexed++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("indexing %s: %w", root, err)
	}

	if opts.Prune {
		n, err := prune(ctx, st, root)
		res.Pruned = n
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func findPatches(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && patch.IsPatchFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return paths, nil
}

func prune(ctx context.Context, st store.Store, root string) (int, error) {
	recs, err := st.PatchList(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing catalog: %w", err)
	}
	prefix := root + string(filepath.Separator)
	n := 0
	for _, r := range recs {
		if !strings.HasPrefix(r.FilePath, prefix) {
			continue
		}
		if _, err := os.Stat(r.FilePath); !os.IsNotExist(err) {
			continue
		}
		if err := st.PatchDelete(ctx, r.FilePath); err != nil {
			return n, fmt.Errorf("pruning %s: %w", r.FilePath, err)
		}
		n++
	}
	return n, nil
}
