// Package profile fetches user profile pictures from the Telegram Bot API,
// best-effort: every failure path returns an error the caller may log and
// move on from.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type Client struct {
	Token   string
	BaseURL string
	http    *http.Client
}

func New(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &Client{Token: token, BaseURL: baseURL, http: &http.Client{Timeout: 20 * time.Second}}
}

type photoSize struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ProfilePicture downloads the largest variant of the user's first profile
// photo.
func (c *Client) ProfilePicture(ctx context.Context, userID int64) ([]byte, error) {
	if c.Token == "" {
		return nil, errors.New("missing bot token")
	}

	var photos struct {
		Result struct {
			Photos [][]photoSize `json:"photos"`
		} `json:"result"`
	}
	q := url.Values{"user_id": {strconv.FormatInt(userID, 10)}, "limit": {"1"}}
	if err := c.call(ctx, "getUserProfilePhotos", q, &photos); err != nil {
		return nil, err
	}
	if len(photos.Result.Photos) == 0 || len(photos.Result.Photos[0]) == 0 {
		return nil, fmt.Errorf("user %d has no profile photo", userID)
	}
	// Variants are ordered small to large; take the last.
	sizes := photos.Result.Photos[0]
	fileID := sizes[len(sizes)-1].FileID

	var file struct {
		Result struct {
			FilePath string `json:"file_path"`
		} `json:"result"`
	}
	if err := c.call(ctx, "getFile", url.Values{"file_id": {fileID}}, &file); err != nil {
		return nil, err
	}
	if file.Result.FilePath == "" {
		return nil, errors.New("empty file path")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/file/bot%s/%s", c.BaseURL, c.Token, file.Result.FilePath), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("telegram status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) call(ctx context.Context, method string, q url.Values, out any) error {
	u := fmt.Sprintf("%s/bot%s/%s?%s", c.BaseURL, c.Token, method, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("telegram status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
