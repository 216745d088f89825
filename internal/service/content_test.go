package service

import "testing"

func TestExtractImageURLs(t *testing.T) {
	html := `<p>开头</p>
<img src="https://x/a.png" alt="a">
<div><img width="100" src="http://x/b.jpg"></div>
<img src="https://x/a.png">
<p>没有图片的段落</p>`

	urls := ExtractImageURLs(html)
	want := []string{"https://x/a.png", "http://x/b.jpg", "https://x/a.png"}
	if len(urls) != len(want) {
		t.Fatalf("expected %d urls, got %d: %v", len(want), len(urls), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("url[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestExtractImageURLsNone(t *testing.T) {
	if urls := ExtractImageURLs("<p>纯文字</p>"); urls != nil {
		t.Errorf("expected nil, got %v", urls)
	}
}
