package forum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client implements Source over the forum's JSON HTTP API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a forum API client. timeout bounds each request; zero
// means no client-side timeout (callers still control context deadlines).
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Changes returns refs for posts modified after since.
func (c *Client) Changes(ctx context.Context, courseID string, since time.Time) ([]PostRef, error) {
	endpoint := fmt.Sprintf("%s/courses/%s/feed?since=%s",
		c.baseURL, url.PathEscape(courseID), url.QueryEscape(since.UTC().Format(time.RFC3339)))
	var payload struct {
		Posts []PostRef `json:"posts"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("fetch change feed: %w", err)
	}
	return payload.Posts, nil
}

// FullListing returns the complete set of currently accessible post ids.
func (c *Client) FullListing(ctx context.Context, courseID string) (map[int]struct{}, error) {
	endpoint := fmt.Sprintf("%s/courses/%s/posts", c.baseURL, url.PathEscape(courseID))
	var payload struct {
		PostIDs []int `json:"post_ids"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("fetch full listing: %w", err)
	}
	ids := make(map[int]struct{}, len(payload.PostIDs))
	for _, id := range payload.PostIDs {
		ids[id] = struct{}{}
	}
	return ids, nil
}

// PostDetail returns the full post object for one id. Posts reported by the
// source as deleted or private, and 403/404 responses, yield ErrNotAccessible.
func (c *Client) PostDetail(ctx context.Context, courseID string, postID int) (*RawPost, error) {
	endpoint := fmt.Sprintf("%s/courses/%s/posts/%s",
		c.baseURL, url.PathEscape(courseID), strconv.Itoa(postID))
	var post RawPost
	if err := c.getJSON(ctx, endpoint, &post); err != nil {
		return nil, fmt.Errorf("fetch post %d: %w", postID, err)
	}
	if post.Status == "deleted" || post.Status == "private" {
		return nil, fmt.Errorf("post %d is %s: %w", postID, post.Status, ErrNotAccessible)
	}
	return &post, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusNotFound:
		return ErrNotAccessible
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("forum API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
