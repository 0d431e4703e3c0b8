package videosvc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

const assetsPath = "/video/v1/assets"

type muxService struct {
	client *resty.Client
	logger core.Logger
}

var _ core.VideoService = (*muxService)(nil)

// NewMuxService talks to the Mux video API with the configured access token.
func NewMuxService(conf *core.Config, logger core.Logger) *muxService {
	client := resty.New().
		SetBaseURL(conf.Mux.BaseURL).
		SetBasicAuth(conf.Mux.TokenID, conf.Mux.TokenSecret).
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)
	return &muxService{client: client, logger: logger}
}

type muxInput struct {
	URL string `json:"url"`
}

type createAssetRequest struct {
	Input          []muxInput `json:"input"`
	PlaybackPolicy []string   `json:"playback_policy"`
}

type assetResponse struct {
	Data struct {
		ID          string `json:"id"`
		PlaybackIDs []struct {
			ID     string `json:"id"`
			Policy string `json:"policy"`
		} `json:"playback_ids"`
	} `json:"data"`
}

func (svc muxService) CreateAsset(ctx context.Context, inputURL string) (core.VideoAsset, error) {
	var out assetResponse
	resp, err := svc.client.R().
		SetContext(ctx).
		SetBody(createAssetRequest{
			Input:          []muxInput{{URL: inputURL}},
			PlaybackPolicy: []string{"public"},
		}).
		SetResult(&out).
		Post(assetsPath)
	if err != nil {
		return core.VideoAsset{}, errors.Wrap(err, "creating video asset")
	}
	if resp.IsError() {
		return core.VideoAsset{}, fmt.Errorf("creating video asset - status: %d - body: %s", resp.StatusCode(), resp.Body())
	}

	asset := core.VideoAsset{AssetID: out.Data.ID}
	if len(out.Data.PlaybackIDs) > 0 {
		asset.PlaybackID = out.Data.PlaybackIDs[0].ID
	}
	return asset, nil
}

func (svc muxService) DeleteAsset(ctx context.Context, assetID string) error {
	if assetID == "" {
		return nil
	}
	resp, err := svc.client.R().
		SetContext(ctx).
		SetPathParam("id", assetID).
		Delete(assetsPath + "/{id}")
	if err != nil {
		return errors.Wrap(err, "deleting video asset")
	}
	if resp.StatusCode() == http.StatusNotFound {
		svc.logger.Debug(fmt.Sprintf("video asset %s already deleted", assetID))
		return nil
	}
	if resp.IsError() {
		return fmt.Errorf("deleting video asset - status: %d - body: %s", resp.StatusCode(), resp.Body())
	}
	return nil
}
