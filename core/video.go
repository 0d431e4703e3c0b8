package core

import "context"

// VideoAsset is a video registered with the hosting provider.
type VideoAsset struct {
	AssetID    string
	PlaybackID string
}

// VideoService manages remote video assets created from already uploaded files.
type VideoService interface {
	CreateAsset(ctx context.Context, inputURL string) (VideoAsset, error)
	// DeleteAsset succeeds when the asset is already gone.
	DeleteAsset(ctx context.Context, assetID string) error
}
