package main

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/AkatukiSora/hh-replayer/internal/application"
	"github.com/AkatukiSora/hh-replayer/internal/watcher"
)

// ImportCmd stores the hands of files, directories and zip archives.
type ImportCmd struct {
	Paths []string `arg:"" name:"path" help:"Hand-history files, directories of *.txt files or .zip archives" type:"path"`
}

func (cmd ImportCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	svc, err := g.openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	files, archives, err := expandPaths(cmd.Paths)
	if err != nil {
		return err
	}
	results, err := svc.ImportFiles(ctx, files)
	if err != nil {
		return err
	}
	for _, archive := range archives {
		res, err := importArchive(ctx, svc, archive)
		if err != nil {
			return err
		}
		results = append(results, res...)
	}

	printResults(g.stdout(), results)
	return nil
}

func printResults(w io.Writer, results []application.ImportResult) {
	for _, res := range results {
		if res.Unchanged {
			fmt.Fprintf(w, "%s: unchanged\n", res.Source)
			continue
		}
		fmt.Fprintf(w, "%s: %d hands (%d new, %d updated)\n", res.Source, res.Hands, res.Inserted, res.Updated)
	}
}

func importArchive(ctx context.Context, svc application.AppService, path string) ([]application.ImportResult, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer zr.Close()
	return svc.ImportFS(ctx, zr, path)
}

func isArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}

// expandPaths replaces directories by their hand-history files, oldest
// first, and sets zip archives apart.
func expandPaths(paths []string) (files, archives []string, err error) {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case info.IsDir():
			found, err := watcher.DetectHandHistoryFiles(p)
			if err != nil {
				return nil, nil, err
			}
			slices.Reverse(found)
			files = append(files, found...)
		case isArchive(p):
			archives = append(archives, p)
		default:
			files = append(files, p)
		}
	}
	return files, archives, nil
}
