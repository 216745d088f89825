package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/blogmirror/internal/config"
	"github.com/blogmirror/internal/db"
	"github.com/blogmirror/internal/feed"
	"github.com/blogmirror/internal/fetcher"
	"github.com/blogmirror/internal/handler"
	"github.com/blogmirror/internal/router"
	"github.com/blogmirror/internal/search"
	"github.com/blogmirror/internal/service"
)

var errInterrupted = errors.New("任务中断")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	subcommand := os.Args[1]
	if subcommand == "help" || subcommand == "-h" || subcommand == "--help" {
		printUsage()
		return
	}

	cfg := config.Load()

	var err error
	switch subcommand {
	case "sync":
		err = runSync(cfg)
	case "serve":
		err = runServe(cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

// runSync 依次执行博文同步、评论同步、两轮资产下载和索引重建。
// 收到中断信号后不再发起新请求，带着未完成状态退出，
// 已提交的页保证库内状态一致，下次运行从断点继续。
func runSync(cfg config.AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close(gdb)

	store := service.NewStore(gdb)
	syncer := service.NewSyncService(store, feed.NewClient(cfg.FeedBaseURL), service.SyncOptions{
		PostPageSize:    cfg.PostPageSize,
		CommentPageSize: cfg.CommentPageSize,
		RetryDelay:      cfg.RetryDelay,
	})

	postReport, err := syncer.SyncPosts(ctx)
	if err != nil {
		return syncFailure("sync posts", err)
	}
	commentReport, err := syncer.SyncComments(ctx)
	if err != nil {
		return syncFailure("sync comments", err)
	}

	assets := service.NewAssetService(store, fetcher.NewFetcher(), cfg.ImageDir, cfg.AvatarDir)
	imageReport, err := assets.DownloadPostImages(ctx)
	if err != nil {
		return syncFailure("download images", err)
	}
	avatarReport, err := assets.DownloadAvatars(ctx)
	if err != nil {
		return syncFailure("download avatars", err)
	}

	if err := rebuildSearchIndex(cfg.SearchIndexPath, store); err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}

	log.Printf("本次运行：博文 %d 篇（跳过 %d），评论 %d 条（跳过 %d），图片 %d 张，头像 %d 张",
		postReport.Synced, postReport.Skipped,
		commentReport.Synced, commentReport.Skipped,
		imageReport.Downloaded, avatarReport.Downloaded)

	if failed := imageReport.Failed + avatarReport.Failed; failed > 0 {
		return fmt.Errorf("%d 个资产下载失败，请重新运行 sync", failed)
	}
	return nil
}

func rebuildSearchIndex(indexPath string, store *service.Store) error {
	idx, err := search.Open(indexPath)
	if err != nil {
		return err
	}
	defer idx.Close()

	posts, err := store.AllPosts()
	if err != nil {
		return err
	}
	if err := idx.Rebuild(posts); err != nil {
		return err
	}

	log.Printf("搜索索引重建完成，共 %d 篇博文", len(posts))
	return nil
}

// runServe 启动只读浏览服务。
func runServe(cfg config.AppConfig) error {
	gin.SetMode(cfg.GinMode)

	gdb, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close(gdb)

	idx, err := search.Open(cfg.SearchIndexPath)
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	defer idx.Close()

	api := handler.NewAPI(service.NewMirrorService(gdb, cfg.FeedBaseURL), idx, cfg.ImageDir, cfg.AvatarDir, 30)
	r := router.SetupRouter(api)
	return r.Run(cfg.ListenAddr)
}

func syncFailure(step string, err error) error {
	if errors.Is(err, context.Canceled) {
		return errInterrupted
	}
	return fmt.Errorf("%s: %w", step, err)
}

func printUsage() {
	fmt.Println(`blogmirror - 博客本地镜像工具

Usage:
  blogmirror sync    增量同步博文、评论并下载配图和头像
  blogmirror serve   启动本地浏览服务

Configuration via environment variables:
  FEED_BASE_URL, DATABASE_PATH, IMAGE_DIR, AVATAR_DIR,
  SEARCH_INDEX_PATH, LISTEN_ADDR, PORT, GIN_MODE,
  POST_PAGE_SIZE, COMMENT_PAGE_SIZE, RETRY_DELAY_SECONDS`)
}
