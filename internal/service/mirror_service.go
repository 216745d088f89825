package service

import (
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/blogmirror/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var ErrPostNotFound = errors.New("post not found")

const excerptRuneLimit = 150

// MirrorService 面向展示层的只读查询：首页列表、博文详情、
// 评论树以及远端地址到本地文件的改写。
type MirrorService struct {
	db       *gorm.DB
	blogHost string
	strip    *bluemonday.Policy
}

// NewMirrorService creates a MirrorService. feedBaseURL 用于识别
// 博文内指向本博客的超链接，以便改写成本地路径。
func NewMirrorService(gdb *gorm.DB, feedBaseURL string) *MirrorService {
	host := ""
	if parsed, err := url.Parse(feedBaseURL); err == nil {
		host = parsed.Host
	}
	return &MirrorService{
		db:       gdb,
		blogHost: host,
		strip:    bluemonday.StrictPolicy(),
	}
}

// PostSummary 是首页列表中的一行。
type PostSummary struct {
	ID           int64
	Published    string
	Title        string
	Excerpt      string
	Link         string
	Tags         []string
	CommentTotal int64
}

// HomePage 聚合首页列表与翻页游标（按 published 降序翻页）。
type HomePage struct {
	Posts             []PostSummary
	NextPagePublished string
	PrevPagePublished string
}

// PostRef 指向相邻博文，用于详情页的上一篇/下一篇导航。
type PostRef struct {
	Title string
	Link  string
}

// CommentView 是渲染用的评论节点，Replies 挂二级回复。
type CommentView struct {
	ID        int64
	Published string
	Content   template.HTML
	Author    string
	AuthorImg string
	Replies   []*CommentView
}

// PostPage 聚合博文详情页需要的全部数据。
type PostPage struct {
	ID           int64
	Published    string
	Title        string
	Content      template.HTML
	CommentTotal int64
	Comments     []*CommentView
	Prev         *PostRef
	Next         *PostRef
}

type postWithCount struct {
	db.Post
	CommentTotal int64
}

// ListPosts 返回一页博文摘要。publishedMax 非空时从该时间点向前翻页。
func (s *MirrorService) ListPosts(publishedMax string, pageSize int) (*HomePage, error) {
	if pageSize <= 0 {
		pageSize = 30
	}

	query := s.db.Table("posts").
		Select("posts.*, (SELECT count(*) FROM comments WHERE comments.post_id = posts.id) AS comment_total").
		Order("published DESC").
		Limit(pageSize)
	if publishedMax != "" {
		query = query.Where("published <= ?", publishedMax)
	}

	var rows []postWithCount
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	page := &HomePage{}
	for _, row := range rows {
		page.Posts = append(page.Posts, PostSummary{
			ID:           row.ID,
			Published:    row.Published,
			Title:        row.Title,
			Excerpt:      s.excerpt(row.Content),
			Link:         postLink(row.Published, row.FileName),
			Tags:         splitTags(row.Category),
			CommentTotal: row.CommentTotal,
		})
	}
	if len(rows) == 0 {
		return page, nil
	}

	// 下一页游标：比本页最后一条更早的第一篇
	var next db.Post
	err := s.db.Where("published < ?", rows[len(rows)-1].Published).
		Order("published DESC").
		First(&next).Error
	if err == nil {
		page.NextPagePublished = next.Published
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 上一页游标：比本页第一条更晚的第 pageSize 篇（不足则取最晚可及的）
	var newer []db.Post
	if err := s.db.Where("published > ?", rows[0].Published).
		Order("published").
		Limit(pageSize).
		Find(&newer).Error; err != nil {
		return nil, err
	}
	if len(newer) > 0 {
		page.PrevPagePublished = newer[len(newer)-1].Published
	}

	return page, nil
}

// PostPage 按 /<year>/<month>/<file_name> 定位博文并组装详情页。
func (s *MirrorService) PostPage(year, month, fileName string) (*PostPage, error) {
	var row postWithCount
	err := s.db.Table("posts").
		Select("posts.*, (SELECT count(*) FROM comments WHERE comments.post_id = posts.id) AS comment_total").
		Where("substr(published, 1, 7) = ? AND file_name = ?", fmt.Sprintf("%s-%s", year, month), fileName).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, ErrPostNotFound
	}

	imgMap, err := s.localImageMap()
	if err != nil {
		return nil, err
	}

	content := s.rewriteLocalLinks(row.Content)
	content = rewriteImageSources(content, imgMap)

	page := &PostPage{
		ID:           row.ID,
		Published:    row.Published,
		Title:        row.Title,
		Content:      template.HTML(content),
		CommentTotal: row.CommentTotal,
	}

	if page.Next, err = s.neighbor(row.Published, true); err != nil {
		return nil, err
	}
	if page.Prev, err = s.neighbor(row.Published, false); err != nil {
		return nil, err
	}
	if page.Comments, err = s.threadedComments(row.ID, imgMap); err != nil {
		return nil, err
	}

	return page, nil
}

// neighbor 返回时间上相邻的博文，newer 为 true 时取更晚的一篇。
func (s *MirrorService) neighbor(published string, newer bool) (*PostRef, error) {
	var post db.Post
	query := s.db.Model(&db.Post{})
	if newer {
		query = query.Where("published > ?", published).Order("published")
	} else {
		query = query.Where("published < ?", published).Order("published DESC")
	}
	err := query.First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &PostRef{Title: post.Title, Link: postLink(post.Published, post.FileName)}, nil
}

// threadedComments 将博文评论组装成两级结构：一级评论按发布顺序，
// 回复挂在对应父评论下。父评论缺失的回复降级为一级评论。
func (s *MirrorService) threadedComments(postID int64, imgMap map[string]string) ([]*CommentView, error) {
	var comments []db.Comment
	if err := s.db.Where("post_id = ?", postID).Order("published").Find(&comments).Error; err != nil {
		return nil, err
	}

	var roots []*CommentView
	byID := make(map[int64]*CommentView, len(comments))
	for _, comment := range comments {
		view := &CommentView{
			ID:        comment.ID,
			Published: comment.Published,
			Content:   template.HTML(s.rewriteLocalLinks(comment.Content)),
			Author:    comment.Author,
			AuthorImg: localOrRemote(imgMap, comment.AuthorImg),
		}
		byID[comment.ID] = view

		if comment.RelatedID != nil {
			if parent, ok := byID[*comment.RelatedID]; ok {
				parent.Replies = append(parent.Replies, view)
				continue
			}
		}
		roots = append(roots, view)
	}

	return roots, nil
}

// localImageMap 返回远端地址到本地文件路径的映射，只含已落盘的资产。
func (s *MirrorService) localImageMap() (map[string]string, error) {
	imgMap := make(map[string]string)

	var images []db.ImageAsset
	if err := s.db.Where("local_file IS NOT NULL").Find(&images).Error; err != nil {
		return nil, err
	}
	for _, img := range images {
		imgMap[img.URL] = "/" + filepath.ToSlash(*img.LocalFile)
	}

	var avatars []db.AvatarAsset
	if err := s.db.Where("local_file IS NOT NULL").Find(&avatars).Error; err != nil {
		return nil, err
	}
	for _, avatar := range avatars {
		imgMap[avatar.URL] = "/" + filepath.ToSlash(*avatar.LocalFile)
	}

	return imgMap, nil
}

// rewriteLocalLinks 将指向本博客的超链接替换为本地路径。
func (s *MirrorService) rewriteLocalLinks(html string) string {
	if s.blogHost == "" {
		return html
	}
	pattern := regexp.MustCompile(`href="https?://` + regexp.QuoteMeta(s.blogHost) + `/(.*?)"`)
	return pattern.ReplaceAllString(html, `href="/$1"`)
}

// rewriteImageSources 将已下载图片的网络地址替换成本地地址。
func rewriteImageSources(html string, imgMap map[string]string) string {
	for _, imgURL := range ExtractImageURLs(html) {
		if local, ok := imgMap[imgURL]; ok {
			html = strings.ReplaceAll(html, imgURL, local)
		}
	}
	return html
}

func localOrRemote(imgMap map[string]string, remoteURL string) string {
	if local, ok := imgMap[remoteURL]; ok {
		return local
	}
	return remoteURL
}

// excerpt 去掉 HTML 标签后截取前若干字符作为摘要。
func (s *MirrorService) excerpt(content string) string {
	plain := strings.TrimSpace(s.strip.Sanitize(content))
	runes := []rune(plain)
	if len(runes) <= excerptRuneLimit {
		return plain
	}
	return string(runes[:excerptRuneLimit]) + "..."
}

func postLink(published string, fileName *string) string {
	if fileName == nil || *fileName == "" || len(published) < 7 {
		return ""
	}
	return fmt.Sprintf("/%s/%s/%s", published[0:4], published[5:7], *fileName)
}

func splitTags(category string) []string {
	if category == "" {
		return nil
	}
	return strings.Split(category, "|")
}
