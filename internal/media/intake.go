// Package media stores uploaded interview recordings for the duration of
// one analysis request.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pavelanni/interviewer/internal/model"
)

// DefaultMIMEType is what browser MediaRecorder produces by default.
const DefaultMIMEType = "video/webm"

// ErrTooLarge is wrapped in the intake error when a recording exceeds the limit.
var ErrTooLarge = errors.New("recording exceeds size limit")

// ErrEmpty is wrapped in the intake error when the stream carries no data.
var ErrEmpty = errors.New("recording is empty")

// Handle refers to one stored recording.
type Handle struct {
	ID       string
	Path     string
	MIMEType string
	Size     int64
}

// Open opens the stored recording for reading.
func (h *Handle) Open() (*os.File, error) {
	return os.Open(h.Path)
}

// Release removes the recording. Calling it more than once is harmless.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	if err := os.Remove(h.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove recording", "id", h.ID, "path", h.Path, "error", err)
	}
}

// Intake writes each recording to its own file under dir. Files are named by
// a fresh UUID so concurrent requests never share a slot.
type Intake struct {
	dir      string
	maxBytes int64
}

// NewIntake creates the upload directory if needed. maxBytes <= 0 disables the limit.
func NewIntake(dir string, maxBytes int64) (*Intake, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Intake{dir: dir, maxBytes: maxBytes}, nil
}

// Ingest copies r into a new request-scoped file and returns its handle.
func (in *Intake) Ingest(ctx context.Context, r io.Reader, mimeType string) (*Handle, error) {
	if r == nil {
		return nil, intakeError("no recording supplied", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, intakeError("request cancelled", err)
	}
	mimeType = normalizeMIME(mimeType)

	id := uuid.NewString()
	path := filepath.Join(in.dir, id+extensionFor(mimeType))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, intakeError("create recording file", err)
	}

	src := io.Reader(&ctxReader{ctx: ctx, r: r})
	if in.maxBytes > 0 {
		// One extra byte tells an exact-size upload apart from an oversized one.
		src = io.LimitReader(src, in.maxBytes+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	fail := func(msg string, err error) (*Handle, error) {
		_ = os.Remove(path)
		return nil, intakeError(msg, err)
	}
	switch {
	case copyErr != nil:
		return fail("write recording", copyErr)
	case closeErr != nil:
		return fail("write recording", closeErr)
	case in.maxBytes > 0 && n > in.maxBytes:
		return fail(fmt.Sprintf("limit is %d bytes", in.maxBytes), ErrTooLarge)
	case n == 0:
		return fail("no data received", ErrEmpty)
	}

	slog.Debug("stored recording", "id", id, "bytes", n, "mime", mimeType)
	return &Handle{ID: id, Path: path, MIMEType: mimeType, Size: n}, nil
}

func intakeError(msg string, err error) error {
	return &model.Error{Kind: model.KindIntake, Op: "media.ingest", Msg: msg, Err: err}
}

// normalizeMIME drops codec parameters ("video/webm;codecs=vp9,opus").
func normalizeMIME(mimeType string) string {
	if mimeType == "" || mimeType == "application/octet-stream" {
		return DefaultMIMEType
	}
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return DefaultMIMEType
	}
	return mt
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "video/mp4":
		return ".mp4"
	case "video/quicktime", "audio/mp4":
		// Transcription endpoints accept .mp4 but not .mov or .m4v.
		return ".mp4"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	}
	return ".webm"
}

// ctxReader stops a long upload copy once the request is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
