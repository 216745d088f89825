package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client 封装对 blogspot feed 接口的分页读取。
// https://developers.google.com/blogger/docs/2.0/developers_guide_protocol
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a feed client for the given base URL,
// e.g. https://example.blogspot.com/feeds.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// FetchPosts 获取一页博文。startIndex 从 1 开始计数，
// publishedMin 非空时作为服务端过滤的同步断点。
func (c *Client) FetchPosts(ctx context.Context, startIndex, maxResults int, publishedMin string) (*Page, error) {
	params := url.Values{}
	params.Set("alt", "json")
	params.Set("start-index", strconv.Itoa(startIndex))
	params.Set("max-results", strconv.Itoa(maxResults))
	if publishedMin != "" {
		params.Set("published-min", publishedMin)
	}
	params.Set("orderby", "published")
	params.Set("reverse", "true")

	return c.fetch(ctx, "/posts/full", params)
}

// FetchComments 获取一页评论，参数含义与 FetchPosts 相同。
func (c *Client) FetchComments(ctx context.Context, startIndex, maxResults int, publishedMin string) (*Page, error) {
	params := url.Values{}
	params.Set("alt", "json")
	params.Set("v", "2")
	params.Set("start-index", strconv.Itoa(startIndex))
	params.Set("max-results", strconv.Itoa(maxResults))
	if publishedMin != "" {
		params.Set("published-min", publishedMin)
	}
	params.Set("orderby", "published")
	params.Set("reverse", "false")

	return c.fetch(ctx, "/comments/full", params)
}

// fetch 执行一次请求。任何传输错误、非 200 状态码或截断的响应都
// 视为"本页未取到"，由调用方决定重试策略；绝不返回解码了一半的数据。
func (c *Client) fetch(ctx context.Context, resource string, params url.Values) (*Page, error) {
	fullURL := c.baseURL + resource + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal feed: %w", err)
	}

	total, err := strconv.Atoi(strings.TrimSpace(env.Feed.TotalResults.Value))
	if err != nil {
		return nil, fmt.Errorf("parse total results %q: %w", env.Feed.TotalResults.Value, err)
	}

	return &Page{
		Entries:      env.Feed.Entries,
		TotalResults: total,
	}, nil
}
