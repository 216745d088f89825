package search

import (
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/microcosm-cc/bluemonday"

	"github.com/blogmirror/internal/db"
)

// Index 封装镜像博文的 bleve 全文索引。
type Index struct {
	index bleve.Index
	strip *bluemonday.Policy
}

// IndexedPost 是进入索引的博文形态，正文为去掉标签后的纯文本。
type IndexedPost struct {
	ID        string
	Title     string
	Content   string
	Category  string
	Published string
	Link      string
}

// Result 是一条检索命中。
type Result struct {
	ID        string
	Title     string
	Link      string
	Score     float64
	Fragments map[string][]string
}

// Open opens or creates a bleve index at path.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	return &Index{index: idx, strip: bluemonday.StrictPolicy()}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("ID", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Title", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Content", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Category", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Link", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// Rebuild 用当前库内的全部博文重建索引，批量提交。
func (i *Index) Rebuild(posts []db.Post) error {
	batch := i.index.NewBatch()
	for _, post := range posts {
		doc := i.indexedPost(post)
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
	}

	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (i *Index) indexedPost(post db.Post) *IndexedPost {
	link := ""
	if post.FileName != nil && len(post.Published) >= 7 {
		link = fmt.Sprintf("/%s/%s/%s", post.Published[0:4], post.Published[5:7], *post.FileName)
	}
	return &IndexedPost{
		ID:        strconv.FormatInt(post.ID, 10),
		Title:     post.Title,
		Content:   i.strip.Sanitize(post.Content),
		Category:  post.Category,
		Published: post.Published,
		Link:      link,
	}
}

// Search 执行一次查询串检索，返回带高亮片段的命中列表。
func (i *Index) Search(queryStr string, limit int) ([]*Result, error) {
	query := bleve.NewQueryStringQuery(queryStr)

	request := bleve.NewSearchRequestOptions(query, limit, 0, false)
	request.Highlight = bleve.NewHighlightWithStyle("html")
	request.Fields = []string{"Title", "Link"}

	results, err := i.index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var hits []*Result
	for _, hit := range results.Hits {
		result := &Result{
			ID:        hit.ID,
			Score:     hit.Score,
			Fragments: hit.Fragments,
		}
		if title, ok := hit.Fields["Title"].(string); ok {
			result.Title = title
		}
		if link, ok := hit.Fields["Link"].(string); ok {
			result.Link = link
		}
		hits = append(hits, result)
	}

	return hits, nil
}

// Count returns the number of indexed posts.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}
