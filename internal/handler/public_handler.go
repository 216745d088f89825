package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/blogmirror/internal/service"
	"github.com/gin-gonic/gin"
)

// ShowHome 渲染镜像首页，按 published-max 游标向前翻页。
func (a *API) ShowHome(c *gin.Context) {
	publishedMax := strings.TrimSpace(c.Query("published-max"))

	page, err := a.mirror.ListPosts(publishedMax, a.pageSize)
	if err != nil {
		c.String(http.StatusInternalServerError, "获取文章失败")
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"posts":             page.Posts,
		"nextPagePublished": page.NextPagePublished,
		"prevPagePublished": page.PrevPagePublished,
	})
}

// ShowPost 渲染单篇博文及其评论树。
func (a *API) ShowPost(c *gin.Context) {
	year := c.Param("year")
	month := c.Param("month")
	name := c.Param("name")

	page, err := a.mirror.PostPage(year, month, name)
	if errors.Is(err, service.ErrPostNotFound) {
		c.String(http.StatusNotFound, "文章不存在")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "获取文章失败")
		return
	}

	c.HTML(http.StatusOK, "post.html", gin.H{
		"post":     page,
		"comments": page.Comments,
		"prev":     page.Prev,
		"next":     page.Next,
	})
}

// ServeImage 提供本地博文配图。
func (a *API) ServeImage(c *gin.Context) {
	date := filepath.Base(c.Param("date"))
	name := filepath.Base(c.Param("name"))
	c.File(filepath.Join(a.imageDir, date, name))
}

// ServeAvatar 提供本地用户头像。
func (a *API) ServeAvatar(c *gin.Context) {
	id := filepath.Base(c.Param("id"))
	name := filepath.Base(c.Param("name"))
	c.File(filepath.Join(a.avatarDir, id, name))
}

// SearchPosts 全文检索镜像博文，返回带高亮片段的 JSON 结果。
func (a *API) SearchPosts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}

	results, err := a.search.Search(query, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
