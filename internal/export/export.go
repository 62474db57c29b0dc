package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"posebvh/internal/bvh"
	"posebvh/internal/notify"
	"posebvh/internal/store"
)

var ErrWriteFailure = errors.New("failed to write BVH file")

// Service turns frame sequences into BVH files and keeps the export history.
// The store is optional; notifications default to notify.Nop.
type Service struct {
	encoder  bvh.Encoder
	tempDir  string
	db       store.Store
	notifier notify.Notifier
	now      func() time.Time
}

type Option func(*Service)

func WithStore(db store.Store) Option {
	return func(s *Service) { s.db = db }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithTempDir sets where transient files are written. Empty means os.TempDir.
func WithTempDir(dir string) Option {
	return func(s *Service) { s.tempDir = dir }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(encoder bvh.Encoder, opts ...Option) *Service {
	s := &Service{
		encoder:  encoder,
		notifier: notify.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is a produced document. Path is the file holding it; for Export it
// is transient and must be released with Cleanup.
type Result struct {
	ID        string
	FileName  string
	Path      string
	Frames    int
	SHA256    string
	CreatedAt time.Time
	Document  []byte

	transient bool
}

func (r *Result) Cleanup() {
	if r == nil || !r.transient || r.Path == "" {
		return
	}
	if err := os.Remove(r.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("removing transient export", "path", r.Path, "error", err)
	}
}

// FileName is the download name of a document produced at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("motion_capture_%d.bvh", t.UnixMilli())
}

// Export encodes frames into a transient file named after the current time.
func (s *Service) Export(ctx context.Context, frames []bvh.Frame, source string) (*Result, error) {
	result, err := s.build(frames)
	if err != nil {
		return nil, err
	}
	result.FileName = FileName(result.CreatedAt)

	f, err := os.CreateTemp(s.tempDir, "motion_capture_*.bvh")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	result.Path = f.Name()
	result.transient = true

	if _, err := f.Write(result.Document); err != nil {
		f.Close()
		result.Cleanup()
		return nil, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	if err := f.Close(); err != nil {
		result.Cleanup()
		return nil, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	s.publish(ctx, result, source, "", "")
	return result, nil
}

// Build encodes frames and records the export without writing a file. The
// document is only returned in Result.Document.
func (s *Service) Build(ctx context.Context, frames []bvh.Frame, source string) (*Result, error) {
	result, err := s.build(frames)
	if err != nil {
		return nil, err
	}
	result.FileName = FileName(result.CreatedAt)

	s.publish(ctx, result, source, "", "")
	return result, nil
}

// Save encodes frames into dest, replacing any existing file.
func (s *Service) Save(ctx context.Context, frames []bvh.Frame, dest, source string) (*Result, error) {
	return s.save(ctx, frames, dest, source, "", "")
}

// Convert is Save for batch conversion. It records the source file and its
// hash so unchanged captures can be skipped later.
func (s *Service) Convert(ctx context.Context, frames []bvh.Frame, dest, sourceFile, sourceHash string) (*Result, error) {
	return s.save(ctx, frames, dest, store.SourceConvert, sourceFile, sourceHash)
}

func (s *Service) save(ctx context.Context, frames []bvh.Frame, dest, source, sourceFile, sourceHash string) (*Result, error) {
	result, err := s.build(frames)
	if err != nil {
		return nil, err
	}
	result.FileName = filepath.Base(dest)
	result.Path = dest

	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWriteFailure, err)
		}
	}
	if err := os.WriteFile(dest, result.Document, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	s.publish(ctx, result, source, sourceFile, sourceHash)
	return result, nil
}

func (s *Service) build(frames []bvh.Frame) (*Result, error) {
	doc, err := s.encoder.Encode(frames)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(doc)
	return &Result{
		ID:        uuid.NewString(),
		Frames:    len(frames),
		SHA256:    hex.EncodeToString(sum[:]),
		CreatedAt: s.now().UTC(),
		Document:  doc,
	}, nil
}

// publish records the export and emits its event. Neither failure affects the
// caller.
func (s *Service) publish(ctx context.Context, result *Result, source, sourceFile, sourceHash string) {
	record := store.Export{
		ID:         result.ID,
		FileName:   result.FileName,
		Frames:     result.Frames,
		Bytes:      int64(len(result.Document)),
		SHA256:     result.SHA256,
		Source:     source,
		SourceFile: sourceFile,
		SourceHash: sourceHash,
		CreatedAt:  result.CreatedAt,
		Document:   result.Document,
	}

	if s.db != nil {
		if err := s.db.RecordExport(ctx, record); err != nil {
			slog.Warn("recording export", "id", record.ID, "file_name", record.FileName, "error", err)
		}
	}
	if err := s.notifier.Publish(ctx, notify.EventFromExport(record)); err != nil {
		slog.Warn("publishing export event", "id", record.ID, "error", err)
	}

	slog.Info("bvh exported",
		"id", record.ID,
		"file_name", record.FileName,
		"frames", record.Frames,
		"bytes", record.Bytes,
		"source", source,
	)
}
