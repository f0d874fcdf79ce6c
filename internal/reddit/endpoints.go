package reddit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// SearchSubreddits queries /subreddits/search and returns the raw listing.
// NSFW communities are excluded; raw_json avoids HTML-entity escaping in
// descriptions.
func (c *Client) SearchSubreddits(ctx context.Context, query string, limit int) (map[string]any, error) {
	if limit <= 0 {
		limit = 25
	}
	return c.Get(ctx, "/subreddits/search", url.Values{
		"q":               {query},
		"limit":           {strconv.Itoa(limit)},
		"sort":            {"relevance"},
		"include_over_18": {"false"},
		"raw_json":        {"1"},
	})
}

// SubredditAbout returns /r/{name}/about.
func (c *Client) SubredditAbout(ctx context.Context, name string) (map[string]any, error) {
	return c.Get(ctx, fmt.Sprintf("/r/%s/about", name), nil)
}

// SubredditPosts returns one page of a subreddit listing. after is the
// fullname cursor of the last post on the previous page, empty for the first.
func (c *Client) SubredditPosts(ctx context.Context, name, sort string, limit int, after string) (map[string]any, error) {
	if sort == "" {
		sort = "hot"
	}
	if limit <= 0 {
		limit = 25
	}
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	if after != "" {
		params.Set("after", after)
	}
	return c.Get(ctx, fmt.Sprintf("/r/%s/%s", name, sort), params)
}

// TestConnection acquires a token and calls /api/v1/me to verify the stored
// credentials work end to end.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Get(ctx, "/api/v1/me", nil)
	return err
}
