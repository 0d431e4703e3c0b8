package videosvc

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/core"
)

// DummyService keeps assets in memory; used in development and tests.
type DummyService struct {
	mu        sync.Mutex
	assets    map[string]string // asset id -> input url
	createErr error
}

var _ core.VideoService = (*DummyService)(nil)

func NewDummyService() *DummyService {
	return &DummyService{assets: make(map[string]string)}
}

func (svc *DummyService) CreateAsset(_ context.Context, inputURL string) (core.VideoAsset, error) {
	svc.mu.Lock()
	err := svc.createErr
	svc.mu.Unlock()
	if err != nil {
		return core.VideoAsset{}, err
	}
	asset := core.VideoAsset{AssetID: uuid.NewString(), PlaybackID: uuid.NewString()}
	svc.mu.Lock()
	svc.assets[asset.AssetID] = inputURL
	svc.mu.Unlock()
	return asset, nil
}

func (svc *DummyService) DeleteAsset(_ context.Context, assetID string) error {
	svc.mu.Lock()
	delete(svc.assets, assetID)
	svc.mu.Unlock()
	return nil
}

// Assets returns the number of live assets.
func (svc *DummyService) Assets() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.assets)
}

// HasAsset reports whether the asset exists.
func (svc *DummyService) HasAsset(assetID string) bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	_, ok := svc.assets[assetID]
	return ok
}

// FailCreate makes the next CreateAsset calls return err, until reset with nil.
func (svc *DummyService) FailCreate(err error) {
	svc.mu.Lock()
	svc.createErr = err
	svc.mu.Unlock()
}
