package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/yudswin/nettube/internal/models"
)

// ListMedia fetches the playable assets of a content via
// GET /api/media/content/:contentId.
func (c *Client) ListMedia(ctx context.Context, contentID string) ([]models.Media, error) {
	return do[[]models.Media](ctx, c, http.MethodGet, "/api/media/content/"+url.PathEscape(contentID), nil, nil)
}

// GetMedia fetches one asset via GET /api/media/:id.
func (c *Client) GetMedia(ctx context.Context, id string) (*models.Media, error) {
	m, err := do[models.Media](ctx, c, http.MethodGet, "/api/media/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMedia replaces asset metadata via PUT /api/media/:id.
func (c *Client) UpdateMedia(ctx context.Context, id string, patch models.MediaPatch) (*models.Media, error) {
	out, err := do[models.Media](ctx, c, http.MethodPut, "/api/media/"+url.PathEscape(id), nil, patch)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMedia removes an asset via DELETE /api/media/:id.
func (c *Client) DeleteMedia(ctx context.Context, id string) error {
	_, err := do[empty](ctx, c, http.MethodDelete, "/api/media/"+url.PathEscape(id), nil, nil)
	return err
}

// UploadMedia streams a video file to POST /api/media/upload/:contentId
// as multipart form data. The upstream transcodes it asynchronously and
// answers with the created media record.
func (c *Client) UploadMedia(ctx context.Context, contentID, filename string, file io.Reader, meta models.Media) (*models.Media, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(fmt.Errorf("create form file: %w", err))
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(fmt.Errorf("copy file: %w", err))
			return
		}
		_ = mw.WriteField("season", fmt.Sprint(meta.Season))
		_ = mw.WriteField("episode", fmt.Sprint(meta.Episode))
		_ = mw.WriteField("audioType", meta.AudioType)
		_ = mw.WriteField("title", meta.Title)
		pw.CloseWithError(mw.Close())
	}()

	u := c.baseURL + "/api/media/upload/" + url.PathEscape(contentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, pr)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	m, err := decode[models.Media](c, resp)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ResolveWatch returns the HLS manifest URL for a media via
// GET /v1/watch/:mediaId. The URL is opaque to this client.
func (c *Client) ResolveWatch(ctx context.Context, mediaID string) (string, error) {
	res, err := do[struct {
		URL string `json:"url"`
	}](ctx, c, http.MethodGet, "/v1/watch/"+url.PathEscape(mediaID), nil, nil)
	if err != nil {
		return "", err
	}
	return res.URL, nil
}
