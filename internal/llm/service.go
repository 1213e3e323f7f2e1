package llm

import (
	"context"

	"github.com/pavelanni/interviewer/internal/media"
)

// AssetState is the processing state of an uploaded recording on the
// remote side.
type AssetState string

const (
	AssetPending AssetState = "pending"
	AssetReady   AssetState = "ready"
	AssetFailed  AssetState = "failed"
)

// Terminal reports whether the remote side has finished processing.
func (s AssetState) Terminal() bool {
	return s == AssetReady || s == AssetFailed
}

// Asset is the remote service's handle to an uploaded recording.
type Asset struct {
	Name     string
	URI      string
	MIMEType string
	State    AssetState
}

// Service is the external generative AI service. Implementations must be
// safe for concurrent use.
type Service interface {
	// Upload registers a stored recording and returns its remote handle.
	Upload(ctx context.Context, h *media.Handle) (Asset, error)
	// Status reports the current processing state of an asset.
	Status(ctx context.Context, a Asset) (AssetState, error)
	// Generate runs the model on prompt plus asset and returns its raw text.
	Generate(ctx context.Context, prompt string, a Asset) (string, error)
	// Delete removes the asset from remote storage.
	Delete(ctx context.Context, a Asset) error
	// Ping checks that the service is reachable and the model exists.
	Ping(ctx context.Context) error
	// AudioOnly reports whether the model sees a transcript instead of the video.
	AudioOnly() bool
	Close() error
}
