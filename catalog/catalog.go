// Package catalog fetches the list of sample scenes and serves it as a
// selectable menu.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxFeedBytes = 4 << 20

var ErrEmptyFeed = errors.New("catalog: feed has no entries")

// SceneInfo is one selectable scene.
type SceneInfo struct {
	Asset       string `json:"asset"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// Fetch downloads and decodes a feed. Entries without an asset are dropped.
func Fetch(ctx context.Context, client *http.Client, url string) ([]SceneInfo, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	var all []SceneInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&all); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	out := all[:0]
	for _, si := range all {
		if si.Asset != "" {
			out = append(out, si)
		}
	}
	return out, nil
}
