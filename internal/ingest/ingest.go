package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"posebvh/internal/bvh"
	"posebvh/internal/config"
	"posebvh/internal/export"
	"posebvh/internal/parser"
)

type Result struct {
	Converted int
	Skipped   int
	Removed   int
	Errors    []error
}

type Options struct {
	Full bool
}

// Store is the part of the export history used for incremental conversion.
type Store interface {
	GetSourceHashes(ctx context.Context) (map[string]string, error)
	RemoveStaleExports(ctx context.Context, currentSourceFiles []string) (int64, error)
}

type Converter interface {
	Convert(ctx context.Context, frames []bvh.Frame, dest, sourceFile, sourceHash string) (*export.Result, error)
}

type captureFile struct {
	path string
	rel  string
}

// Run converts every capture file under the configured paths into a BVH file.
// Files whose hash matches the last recorded conversion are skipped unless
// options.Full is set. db may be nil, which disables both skipping and stale
// record removal. Per-file failures are collected in Result.Errors.
func Run(ctx context.Context, cfg *config.Config, svc Converter, db Store, options Options) (*Result, error) {
	result := &Result{}

	existingHashes := map[string]string{}
	if db != nil && !options.Full {
		var err error
		existingHashes, err = db.GetSourceHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("get source hashes: %w", err)
		}
	}

	files, err := walkCaptureFiles(cfg.Capture.Paths, cfg.Capture.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking capture files: %w", err)
	}

	current := make([]string, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		current = append(current, file.path)

		hash, err := computeHash(file.path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", file.path, err))
			continue
		}
		if !options.Full {
			if existing, ok := existingHashes[file.path]; ok && existing == hash {
				result.Skipped++
				continue
			}
		}

		capture, err := parser.ParseFile(file.path)
		if err != nil {
			if errors.Is(err, parser.ErrNoFrames) {
				result.Skipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", file.path, err))
			continue
		}

		dest := outputPath(file, cfg.Capture.OutputDir)
		if _, err := svc.Convert(ctx, capture.Frames, dest, file.path, hash); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("converting %s: %w", file.path, err))
			continue
		}
		result.Converted++
	}

	if db != nil {
		deleted, err := db.RemoveStaleExports(ctx, current)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("removing stale exports: %w", err))
		}
		result.Removed = int(deleted)
	}

	return result, nil
}

// outputPath places <name>.bvh next to the capture, or under outputDir
// mirroring the capture's position below its root.
func outputPath(file captureFile, outputDir string) string {
	name := strings.TrimSuffix(file.path, filepath.Ext(file.path)) + ".bvh"
	if outputDir == "" {
		return name
	}
	rel := strings.TrimSuffix(file.rel, filepath.Ext(file.rel)) + ".bvh"
	return filepath.Join(outputDir, rel)
}

func walkCaptureFiles(roots []string, excludes []string) ([]captureFile, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []captureFile
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil || rel == "." {
				rel = d.Name()
			}
			files = append(files, captureFile{path: path, rel: rel})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
