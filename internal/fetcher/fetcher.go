package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// 部分图床按 UA 过滤请求，这里沿用常见的桌面浏览器标识。
const defaultUserAgent = "Mozilla/5.0 (Windows NT 6.1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/41.0.2228.0 Safari/537.36"

var (
	dispositionPattern = regexp.MustCompile(`filename="(.*?)"`)
	illegalNameChars   = regexp.MustCompile(`[*?:]`)
)

// Fetcher 将远端二进制资源落盘到指定目录。
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewFetcher creates a Fetcher with a browser User-Agent.
func NewFetcher() *Fetcher {
	return NewFetcherWithClient(&http.Client{
		Timeout: 120 * time.Second,
	})
}

// NewFetcherWithClient creates a Fetcher using the given HTTP client.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{
		httpClient: client,
		userAgent:  defaultUserAgent,
	}
}

// Fetch 下载 rawURL 到 destDir，返回落盘后的路径。
// 文件名优先取 Content-Disposition，其次取 URL 最后一段（去掉查询串）。
// 先写临时文件再改名，避免读到写了一半的文件。
func (f *Fetcher) Fetch(ctx context.Context, rawURL, destDir, namePrefix string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", destDir, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	fileName := fileNameFor(rawURL, resp.Header.Get("Content-Disposition"))
	if fileName == "" {
		return "", fmt.Errorf("no usable file name for %s", rawURL)
	}

	path := filepath.Join(destDir, namePrefix+fileName)
	tmpPath := path + ".part-" + uuid.New().String()
	if err := os.WriteFile(tmpPath, body, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("finalize file: %w", err)
	}

	return path, nil
}

// fileNameFor 推导保存用的文件名。Content-Disposition 中的文件名先做
// 百分号解码，再把文件系统不允许的 * ? : 替换成下划线。
func fileNameFor(rawURL, disposition string) string {
	if disposition != "" {
		if match := dispositionPattern.FindStringSubmatch(disposition); match != nil {
			name := match[1]
			if unescaped, err := url.PathUnescape(name); err == nil {
				name = unescaped
			}
			return illegalNameChars.ReplaceAllString(name, "_")
		}
	}

	trimmed := rawURL
	if idx := strings.Index(trimmed, "?"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	trimmed = strings.TrimRight(trimmed, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// NormalizeImageURL 将旧博文配图的 http 链接升级为 https。
func NormalizeImageURL(rawURL string) string {
	if strings.HasPrefix(rawURL, "http:") {
		return "https:" + strings.TrimPrefix(rawURL, "http:")
	}
	return rawURL
}

// NormalizeAvatarURL 补全协议相对链接并重新编码路径。
// 经 url.Parse 往返可以转义非法字符，同时不会对已转义的片段二次转义。
func NormalizeAvatarURL(rawURL string) string {
	if strings.HasPrefix(rawURL, "//") {
		rawURL = "https:" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return parsed.String()
}
