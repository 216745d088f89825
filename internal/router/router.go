package router

import (
	"github.com/blogmirror/internal/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API) *gin.Engine {
	r := gin.Default()

	r.LoadHTMLGlob("web/template/*.html")

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	r.GET("/", api.ShowHome)
	r.GET("/search", api.SearchPosts)

	// 本地资产接口
	r.GET("/images/:date/:name", api.ServeImage)
	r.GET("/head_imgs/:id/:name", api.ServeAvatar)

	// 博文详情使用镜像前的原始路径结构
	r.GET("/:year/:month/:name", api.ShowPost)

	return r
}
