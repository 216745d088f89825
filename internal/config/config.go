package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 汇总同步与本地浏览服务所需的基础配置。
type AppConfig struct {
	ListenAddr      string
	Port            string
	DatabasePath    string
	FeedBaseURL     string
	ImageDir        string
	AvatarDir       string
	SearchIndexPath string
	GinMode         string
	PostPageSize    int
	CommentPageSize int
	RetryDelay      time.Duration
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "blog.db"
	}

	feedBaseURL := strings.TrimSpace(os.Getenv("FEED_BASE_URL"))
	if feedBaseURL == "" {
		feedBaseURL = "https://program-think.blogspot.com/feeds"
	}

	imageDir := strings.TrimSpace(os.Getenv("IMAGE_DIR"))
	if imageDir == "" {
		imageDir = "images"
	}

	avatarDir := strings.TrimSpace(os.Getenv("AVATAR_DIR"))
	if avatarDir == "" {
		avatarDir = "head_imgs"
	}

	searchIndexPath := strings.TrimSpace(os.Getenv("SEARCH_INDEX_PATH"))
	if searchIndexPath == "" {
		searchIndexPath = "blog.bleve"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	return AppConfig{
		ListenAddr:      listenAddr,
		Port:            port,
		DatabasePath:    databasePath,
		FeedBaseURL:     feedBaseURL,
		ImageDir:        imageDir,
		AvatarDir:       avatarDir,
		SearchIndexPath: searchIndexPath,
		GinMode:         ginMode,
		PostPageSize:    intFromEnv("POST_PAGE_SIZE", 50),
		CommentPageSize: intFromEnv("COMMENT_PAGE_SIZE", 500),
		RetryDelay:      time.Duration(intFromEnv("RETRY_DELAY_SECONDS", 5)) * time.Second,
	}
}

func intFromEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
