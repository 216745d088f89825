package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetchNameFromContentDisposition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="my%20photo*v2?.png"`)
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	path, err := NewFetcher().Fetch(context.Background(), server.URL+"/whatever", dir, "7-")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	// 百分号解码 + 非法字符替换
	want := filepath.Join(dir, "7-my photo_v2_.png")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("unexpected file content: %q", data)
	}
}

func TestFetchNameFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()

	dir := t.TempDir()
	path, err := NewFetcher().Fetch(context.Background(), server.URL+"/2020/pic.jpg?size=large", dir, "")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	// URL 最后一段去掉查询串
	if filepath.Base(path) != "pic.jpg" {
		t.Errorf("file name = %q, want pic.jpg", filepath.Base(path))
	}
}

func TestFetchCreatesDestinationDir(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "2020-01-01")
	if _, err := NewFetcher().Fetch(context.Background(), server.URL+"/a.png", dir, ""); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("destination directory not created: %v", err)
	}
}

func TestFetchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	dir := t.TempDir()
	if _, err := NewFetcher().Fetch(context.Background(), server.URL+"/gone.png", dir, ""); err == nil {
		t.Fatal("expected error on 404 response")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files after failed fetch, found %d", len(entries))
	}
}

func TestNormalizeImageURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://x/y.png", "https://x/y.png"},
		{"https://x/y.png", "https://x/y.png"},
		{"//x/y.png", "//x/y.png"},
	}
	for _, tc := range tests {
		if got := NormalizeImageURL(tc.in); got != tc.want {
			t.Errorf("NormalizeImageURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeAvatarURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"//x/y.png", "https://x/y.png"},
		{"https://x/y.png", "https://x/y.png"},
		// 空格需要转义
		{"https://x/a b.png", "https://x/a%20b.png"},
		// 已转义的片段不能二次转义
		{"https://x/a%20b.png", "https://x/a%20b.png"},
	}
	for _, tc := range tests {
		if got := NormalizeAvatarURL(tc.in); got != tc.want {
			t.Errorf("NormalizeAvatarURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFileNameFor(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		disposition string
		want        string
	}{
		{"plain url", "https://x/a.png", "", "a.png"},
		{"query stripped", "https://x/a.png?w=100", "", "a.png"},
		{"disposition wins", "https://x/a.png", `attachment; filename="b.png"`, "b.png"},
		{"illegal chars", "https://x/a.png", `attachment; filename="a:b?c*d.png"`, "a_b_c_d.png"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := fileNameFor(tc.url, tc.disposition); got != tc.want {
				t.Errorf("fileNameFor(%q, %q) = %q, want %q", tc.url, tc.disposition, got, tc.want)
			}
		})
	}
}
