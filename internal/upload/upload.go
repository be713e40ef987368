// Package upload sends a batch of image files to the object store, one
// goroutine per file, and reports which of them made it.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/notify"
)

const (
	MaxFiles          = 10
	MaxFileBytes      = 10 << 20
	DefaultClearDelay = 2 * time.Second
)

var allowedExtensions = map[string]bool{
	"jpeg": true,
	"jpg":  true,
	"png":  true,
	"webp": true,
	"gif":  true,
}

var (
	ErrTooManyFiles = fmt.Errorf("at most %d files per batch", MaxFiles)
	ErrFileTooLarge = fmt.Errorf("file larger than %d MiB", MaxFileBytes>>20)
	ErrFileType     = errors.New("file type not accepted")
	ErrBusy         = errors.New("an upload is already in progress")
)

// File is one local file selected for upload.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FromPath describes the file at path without reading it.
func FromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

func FromBytes(name string, data []byte) File {
	return File{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

type Rejection struct {
	File   string
	Reason error
}

// Validate gates a selection before anything is uploaded. More than MaxFiles
// rejects the whole batch with ErrTooManyFiles; otherwise files that are too
// large or of the wrong type are rejected one by one.
func Validate(files []File) ([]File, []Rejection, error) {
	if len(files) > MaxFiles {
		return nil, nil, ErrTooManyFiles
	}
	var accepted []File
	var rejected []Rejection
	for _, f := range files {
		switch {
		case f.Size > MaxFileBytes:
			rejected = append(rejected, Rejection{File: f.Name, Reason: ErrFileTooLarge})
		case !allowedExtensions[extension(f.Name)]:
			rejected = append(rejected, Rejection{File: f.Name, Reason: ErrFileType})
		default:
			accepted = append(accepted, f)
		}
	}
	return accepted, rejected, nil
}

// Key builds the storage path for name:
// inspections/<inspectionID>/<unix millis>-<uuid>.<ext>. A name without an
// extension gets "bin". Keys are not checked for collisions.
func Key(inspectionID, name string, now time.Time) string {
	ext := extension(name)
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s%d-%s.%s", domain.ImagePrefix(inspectionID), now.UnixMilli(), uuid.NewString(), ext)
}

func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

type Status string

const (
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Progress is the state of one file. Percent is 0 until the file is stored,
// then 100; the server reports nothing in between.
type Progress struct {
	File    string
	Percent int
	Status  Status
}

type Failure struct {
	File string
	Err  error
}

// Result splits a finished batch by outcome, each part in input order.
type Result struct {
	Uploaded []domain.Image
	Failed   []Failure
}

// Putter stores one object. *client.Client satisfies it.
type Putter interface {
	PutObject(ctx context.Context, key string, r io.Reader) (domain.Image, error)
}

type Uploader struct {
	putter   Putter
	notifier notify.Notifier
	logger   *slog.Logger

	// ClearDelay is how long progress stays visible after a batch.
	ClearDelay time.Duration
	// OnProgress receives a snapshot after every change, nil once cleared.
	// It is called with the uploader locked and must not call back into it.
	OnProgress func([]Progress)
	Now        func() time.Time

	mu       sync.Mutex
	progress []Progress
	busy     bool
	clear    *time.Timer
}

func NewUploader(putter Putter, notifier notify.Notifier, logger *slog.Logger) *Uploader {
	return &Uploader{
		putter:     putter,
		notifier:   notifier,
		logger:     logger,
		ClearDelay: DefaultClearDelay,
		Now:        time.Now,
	}
}

// Progress returns the current per-file state in input order.
func (u *Uploader) Progress() []Progress {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.progress == nil {
		return nil
	}
	out := make([]Progress, len(u.progress))
	copy(out, u.progress)
	return out
}

func (u *Uploader) Busy() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.busy
}

// Upload starts every file at once and waits for all of them. A failed file
// never stops the others. onUploaded gets the stored images when at least one
// succeeded. Only ErrBusy is returned as an error; per-file failures are in
// the Result.
func (u *Uploader) Upload(ctx context.Context, inspectionID string, files []File, onUploaded func([]domain.Image)) (Result, error) {
	if len(files) == 0 {
		return Result{}, nil
	}
	if err := u.start(files); err != nil {
		return Result{}, err
	}
	defer u.finish()

	images := make([]domain.Image, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	for i, f := range files {
		g.Go(func() error {
			img, err := u.uploadOne(ctx, inspectionID, f)
			if err != nil {
				u.logger.Error("failed to upload image", "file", f.Name, "inspection_id", inspectionID, "error", err)
				errs[i] = err
				u.setStatus(i, StatusError, 0)
				return nil
			}
			images[i] = img
			u.setStatus(i, StatusCompleted, 100)
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for i, f := range files {
		if errs[i] != nil {
			res.Failed = append(res.Failed, Failure{File: f.Name, Err: errs[i]})
			continue
		}
		res.Uploaded = append(res.Uploaded, images[i])
	}

	if len(res.Uploaded) > 0 {
		if onUploaded != nil {
			onUploaded(res.Uploaded)
		}
		u.notifier.Success(fmt.Sprintf("%d image(s) uploaded successfully", len(res.Uploaded)))
	}
	if len(res.Failed) > 0 {
		u.notifier.Error(fmt.Sprintf("%d image(s) failed to upload", len(res.Failed)))
	}
	return res, nil
}

func (u *Uploader) uploadOne(ctx context.Context, inspectionID string, f File) (domain.Image, error) {
	rc, err := f.Open()
	if err != nil {
		return domain.Image{}, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	img, err := u.putter.PutObject(ctx, Key(inspectionID, f.Name, u.Now()), rc)
	if err != nil {
		return domain.Image{}, fmt.Errorf("failed to store %s: %w", f.Name, err)
	}
	return img, nil
}

func (u *Uploader) start(files []File) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.busy {
		return ErrBusy
	}
	u.busy = true
	if u.clear != nil {
		u.clear.Stop()
		u.clear = nil
	}
	u.progress = make([]Progress, len(files))
	for i, f := range files {
		u.progress[i] = Progress{File: f.Name, Status: StatusUploading}
	}
	u.emit()
	return nil
}

func (u *Uploader) setStatus(i int, status Status, percent int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.progress[i].Status = status
	u.progress[i].Percent = percent
	u.emit()
}

// finish releases the uploader and schedules the progress display to clear,
// whatever the outcome.
func (u *Uploader) finish() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.busy = false
	var t *time.Timer
	t = time.AfterFunc(u.ClearDelay, func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		if u.clear != t {
			return
		}
		u.clear = nil
		u.progress = nil
		u.emit()
	})
	u.clear = t
}

func (u *Uploader) emit() {
	if u.OnProgress == nil {
		return
	}
	if u.progress == nil {
		u.OnProgress(nil)
		return
	}
	snapshot := make([]Progress, len(u.progress))
	copy(snapshot, u.progress)
	u.OnProgress(snapshot)
}
