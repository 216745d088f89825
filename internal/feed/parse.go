package feed

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/blogmirror/internal/db"
)

var (
	// entry id 形如 tag:blogger.com,1999:blog-X.post-1234567890
	entryIDPattern = regexp.MustCompile(`post-(\d+)`)
	// 评论的 replies 链接形如 .../feeds/<blog>/<post>/comments/default/<comment>
	commentRelPattern = regexp.MustCompile(`feeds/(\d+)/(\d+)/comments/default/(\d+)`)
)

// DecodeError 描述 entry 中某个字段缺失或形态不符。
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode entry field %q: %s", e.Field, e.Reason)
}

// ParsePost 将一条 feed entry 转换为博文记录。
// permalink 无法解析出文件名时 FileName 保持为 nil，不报错，
// 展示层对 nil 的处理是不生成链接。
func ParsePost(entry Entry) (db.Post, error) {
	id, err := entryID(entry)
	if err != nil {
		return db.Post{}, err
	}
	if entry.Published.Value == "" {
		return db.Post{}, &DecodeError{Field: "published", Reason: "missing"}
	}

	post := db.Post{
		ID:        id,
		Published: entry.Published.Value,
		Updated:   entry.Updated.Value,
		Category:  joinCategories(entry.Category),
		Title:     entry.Title.Value,
		Content:   entry.Content.Value,
	}

	for _, link := range entry.Links {
		if link.Rel != "alternate" {
			continue
		}
		if idx := strings.LastIndex(link.Href, "/"); idx >= 0 && idx+1 < len(link.Href) {
			name := link.Href[idx+1:]
			post.FileName = &name
		}
	}

	return post, nil
}

// ParseComment 将一条 feed entry 转换为评论记录。
// link 数量达到 4 条时第 4 条编码了父评论关系，否则视为一级评论。
func ParseComment(entry Entry) (db.Comment, error) {
	id, err := entryID(entry)
	if err != nil {
		return db.Comment{}, err
	}
	if entry.Published.Value == "" {
		return db.Comment{}, &DecodeError{Field: "published", Reason: "missing"}
	}
	if len(entry.Authors) == 0 {
		return db.Comment{}, &DecodeError{Field: "author", Reason: "missing"}
	}

	author := entry.Authors[0]
	if author.Image == nil || author.Image.Src == "" {
		return db.Comment{}, &DecodeError{Field: "author.gd$image", Reason: "missing"}
	}

	comment := db.Comment{
		ID:        id,
		Published: entry.Published.Value,
		Updated:   entry.Updated.Value,
		Content:   entry.Content.Value,
		Author:    author.Name.Value,
		AuthorImg: author.Image.Src,
	}
	if author.URI != nil && author.URI.Value != "" {
		uri := author.URI.Value
		comment.AuthorURI = &uri
	}

	if len(entry.Links) == 0 {
		return db.Comment{}, &DecodeError{Field: "link", Reason: "missing"}
	}

	related := entry.Links[0].Href
	isReply := len(entry.Links) >= 4
	if isReply {
		related = entry.Links[3].Href
	}

	match := commentRelPattern.FindStringSubmatch(related)
	if match == nil {
		return db.Comment{}, &DecodeError{Field: "link", Reason: fmt.Sprintf("unrecognized relation href %q", related)}
	}

	postID, err := strconv.ParseInt(match[2], 10, 64)
	if err != nil {
		return db.Comment{}, &DecodeError{Field: "link", Reason: "post id is not numeric"}
	}
	comment.PostID = postID

	if isReply {
		relatedID, err := strconv.ParseInt(match[3], 10, 64)
		if err != nil {
			return db.Comment{}, &DecodeError{Field: "link", Reason: "parent comment id is not numeric"}
		}
		comment.RelatedID = &relatedID
	}

	return comment, nil
}

func entryID(entry Entry) (int64, error) {
	match := entryIDPattern.FindStringSubmatch(entry.ID.Value)
	if match == nil {
		return 0, &DecodeError{Field: "id", Reason: fmt.Sprintf("no post id in %q", entry.ID.Value)}
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, &DecodeError{Field: "id", Reason: "post id is not numeric"}
	}
	return id, nil
}

// joinCategories 将博文标签转成 "|" 隔开的字符串格式。
func joinCategories(categories []Category) string {
	terms := make([]string, 0, len(categories))
	for _, category := range categories {
		terms = append(terms, category.Term)
	}
	return strings.Join(terms, "|")
}
