package service

import (
	"strings"
	"testing"

	"github.com/blogmirror/internal/db"
	"gorm.io/gorm"
)

func seedMirrorPosts(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	store := NewStore(gdb)
	posts := []db.Post{
		{ID: 1, Published: "2020-01-01T00:00:00.000+08:00", Title: "一月", Content: "<p>一月的长文内容</p>", Category: "编程|安全", FileName: strPtr("jan.html")},
		{ID: 2, Published: "2020-02-01T00:00:00.000+08:00", Title: "二月", Content: "<p>二月</p>", FileName: strPtr("feb.html")},
		{ID: 3, Published: "2020-03-01T00:00:00.000+08:00", Title: "三月", Content: "<p>三月</p>", FileName: strPtr("mar.html")},
	}
	for i := range posts {
		if err := store.UpsertPost(&posts[i]); err != nil {
			t.Fatalf("seed post: %v", err)
		}
	}

	comments := []db.Comment{
		{ID: 100, Published: "2020-01-02T00:00:00Z", Content: "不错", Author: "甲", AuthorImg: "https://x/face-a.png", PostID: 1},
		{ID: 101, Published: "2020-01-03T00:00:00Z", Content: "同意楼上", Author: "乙", AuthorImg: "https://x/face-b.png", PostID: 1, RelatedID: int64Ptr(100)},
		{ID: 102, Published: "2020-01-04T00:00:00Z", Content: "再顶", Author: "丙", AuthorImg: "https://x/face-c.png", PostID: 1},
	}
	for i := range comments {
		if err := store.UpsertComment(&comments[i]); err != nil {
			t.Fatalf("seed comment: %v", err)
		}
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestListPosts(t *testing.T) {
	gdb := setupTestDB(t)
	seedMirrorPosts(t, gdb)
	mirror := NewMirrorService(gdb, "https://blog.example.com/feeds")

	page, err := mirror.ListPosts("", 2)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(page.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(page.Posts))
	}
	// 按发布时间倒序
	if page.Posts[0].ID != 3 || page.Posts[1].ID != 2 {
		t.Errorf("unexpected order: %d, %d", page.Posts[0].ID, page.Posts[1].ID)
	}
	if page.Posts[0].Link != "/2020/03/mar.html" {
		t.Errorf("unexpected link: %s", page.Posts[0].Link)
	}
	if page.NextPagePublished != "2020-01-01T00:00:00.000+08:00" {
		t.Errorf("unexpected next cursor: %s", page.NextPagePublished)
	}
	if page.PrevPagePublished != "" {
		t.Errorf("first page should have no prev cursor, got %s", page.PrevPagePublished)
	}

	// 第二页
	page, err = mirror.ListPosts(page.NextPagePublished, 2)
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(page.Posts) != 1 || page.Posts[0].ID != 1 {
		t.Fatalf("unexpected second page: %+v", page.Posts)
	}
	if page.Posts[0].CommentTotal != 3 {
		t.Errorf("expected 3 comments, got %d", page.Posts[0].CommentTotal)
	}
	if len(page.Posts[0].Tags) != 2 || page.Posts[0].Tags[0] != "编程" {
		t.Errorf("unexpected tags: %v", page.Posts[0].Tags)
	}
	if page.NextPagePublished != "" {
		t.Errorf("last page should have no next cursor, got %s", page.NextPagePublished)
	}
	if page.PrevPagePublished == "" {
		t.Error("second page should have a prev cursor")
	}
}

func TestListPostsExcerptStripsHTML(t *testing.T) {
	gdb := setupTestDB(t)
	store := NewStore(gdb)
	post := db.Post{
		ID:        1,
		Published: "2020-01-01T00:00:00Z",
		Title:     "长文",
		Content:   "<p>" + strings.Repeat("字", 200) + "</p><img src=\"https://x/a.png\">",
		FileName:  strPtr("long.html"),
	}
	if err := store.UpsertPost(&post); err != nil {
		t.Fatalf("seed post: %v", err)
	}

	mirror := NewMirrorService(gdb, "https://blog.example.com/feeds")
	page, err := mirror.ListPosts("", 10)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}

	excerpt := page.Posts[0].Excerpt
	if strings.Contains(excerpt, "<") {
		t.Errorf("excerpt contains markup: %q", excerpt)
	}
	if !strings.HasSuffix(excerpt, "...") {
		t.Errorf("long excerpt should be truncated: %q", excerpt)
	}
}

func TestPostPage(t *testing.T) {
	gdb := setupTestDB(t)
	seedMirrorPosts(t, gdb)
	store := NewStore(gdb)

	// 一月这篇带一张已落盘的配图和指向本博客的内链
	content := `<p>见 <a href="https://blog.example.com/2020/02/feb.html">二月</a></p><img src="https://x/a.png">`
	post := db.Post{ID: 1, Published: "2020-01-01T00:00:00.000+08:00", Title: "一月", Content: content, FileName: strPtr("jan.html")}
	if err := store.UpsertPost(&post); err != nil {
		t.Fatalf("update post: %v", err)
	}
	if err := store.RecordImage("https://x/a.png", 1); err != nil {
		t.Fatalf("record image: %v", err)
	}
	if err := store.SetImageLocalFile("https://x/a.png", "images/2020-01-01/1-a.png", 3, 2); err != nil {
		t.Fatalf("set local file: %v", err)
	}
	if err := store.RecordAvatar("https://x/face-a.png"); err != nil {
		t.Fatalf("record avatar: %v", err)
	}
	if err := store.SetAvatarLocalFile("https://x/face-a.png", "head_imgs/1/face-a.png"); err != nil {
		t.Fatalf("set avatar local file: %v", err)
	}

	mirror := NewMirrorService(gdb, "https://blog.example.com/feeds")
	page, err := mirror.PostPage("2020", "01", "jan.html")
	if err != nil {
		t.Fatalf("post page: %v", err)
	}

	if page.Title != "一月" {
		t.Errorf("unexpected title: %s", page.Title)
	}
	if page.CommentTotal != 3 {
		t.Errorf("expected 3 comments, got %d", page.CommentTotal)
	}

	rendered := string(page.Content)
	// 配图地址换成本地文件
	if !strings.Contains(rendered, `src="/images/2020-01-01/1-a.png"`) {
		t.Errorf("image not rewritten: %s", rendered)
	}
	// 指向本博客的内链换成本地路径
	if !strings.Contains(rendered, `href="/2020/02/feb.html"`) {
		t.Errorf("internal link not rewritten: %s", rendered)
	}

	// 评论树：两条一级，一条回复
	if len(page.Comments) != 2 {
		t.Fatalf("expected 2 root comments, got %d", len(page.Comments))
	}
	if len(page.Comments[0].Replies) != 1 || page.Comments[0].Replies[0].ID != 101 {
		t.Errorf("expected comment 101 as reply to 100")
	}
	// 已落盘头像换成本地地址，未落盘的保留远端地址
	if page.Comments[0].AuthorImg != "/head_imgs/1/face-a.png" {
		t.Errorf("avatar not rewritten: %s", page.Comments[0].AuthorImg)
	}
	if page.Comments[1].AuthorImg != "https://x/face-c.png" {
		t.Errorf("unresolved avatar should keep remote url: %s", page.Comments[1].AuthorImg)
	}

	// 相邻导航：一月只有更晚的二月
	if page.Prev != nil {
		t.Errorf("expected no older post, got %+v", page.Prev)
	}
	if page.Next == nil || page.Next.Link != "/2020/02/feb.html" {
		t.Errorf("unexpected next ref: %+v", page.Next)
	}
}

func TestPostPageNotFound(t *testing.T) {
	gdb := setupTestDB(t)
	seedMirrorPosts(t, gdb)
	mirror := NewMirrorService(gdb, "https://blog.example.com/feeds")

	if _, err := mirror.PostPage("1999", "01", "nope.html"); err != ErrPostNotFound {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestThreadedCommentsOrphanReplyBecomesRoot(t *testing.T) {
	gdb := setupTestDB(t)
	store := NewStore(gdb)
	post := db.Post{ID: 1, Published: "2020-01-01T00:00:00Z", FileName: strPtr("p.html")}
	if err := store.UpsertPost(&post); err != nil {
		t.Fatalf("seed post: %v", err)
	}
	comment := db.Comment{ID: 100, Published: "2020-01-02T00:00:00Z", Author: "甲", AuthorImg: "https://x/a.png", PostID: 1, RelatedID: int64Ptr(999)}
	if err := store.UpsertComment(&comment); err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	mirror := NewMirrorService(gdb, "https://blog.example.com/feeds")
	page, err := mirror.PostPage("2020", "01", "p.html")
	if err != nil {
		t.Fatalf("post page: %v", err)
	}
	if len(page.Comments) != 1 || page.Comments[0].ID != 100 {
		t.Errorf("orphan reply should surface as root, got %+v", page.Comments)
	}
}
