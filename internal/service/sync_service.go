package service

import (
	"context"
	"log"
	"time"

	"github.com/blogmirror/internal/feed"
)

// 评论接口 start-index 传 1 时拿不到真实总数，探测请求用一个
// 远离开头的序号换取可靠的 openSearch$totalResults。
const commentProbeIndex = 1000

// SyncOptions 控制分页大小与失败重试间隔。
type SyncOptions struct {
	PostPageSize    int
	CommentPageSize int
	RetryDelay      time.Duration
}

// SyncService 驱动增量同步：从 Store 取同步断点，逐页拉取远端
// feed，按页提交，直到累计处理数达到远端报告的总数。
type SyncService struct {
	store *Store
	feed  *feed.Client
	opts  SyncOptions
}

// SyncReport 汇总一次同步的结果。
type SyncReport struct {
	Synced  int // 成功落库的条数
	Skipped int // 因解码失败跳过的条数
}

// NewSyncService creates a SyncService instance.
func NewSyncService(store *Store, client *feed.Client, opts SyncOptions) *SyncService {
	if opts.PostPageSize <= 0 {
		opts.PostPageSize = 50
	}
	if opts.CommentPageSize <= 0 {
		opts.CommentPageSize = 500
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}
	return &SyncService{store: store, feed: client, opts: opts}
}

// SyncPosts 同步博文到本地数据库。
func (s *SyncService) SyncPosts(ctx context.Context) (SyncReport, error) {
	report := SyncReport{}

	watermark, err := s.store.LastPostPublished()
	if err != nil {
		return report, err
	}
	log.Printf("开始同步博文，本地博文最后更新时间：%q", watermark)

	count := 0
	for {
		page, err := s.fetchWithRetry(ctx, func(ctx context.Context) (*feed.Page, error) {
			return s.feed.FetchPosts(ctx, count+1, s.opts.PostPageSize, watermark)
		})
		if err != nil {
			return report, err
		}

		err = s.store.WithinTx(func(tx *Store) error {
			for _, entry := range page.Entries {
				post, parseErr := feed.ParsePost(entry)
				if parseErr != nil {
					log.Printf("跳过无法解码的博文: %v", parseErr)
					report.Skipped++
					continue
				}

				if err := tx.UpsertPost(&post); err != nil {
					return err
				}
				for _, imgURL := range ExtractImageURLs(post.Content) {
					if err := tx.RecordImage(imgURL, post.ID); err != nil {
						return err
					}
				}
				report.Synced++
			}
			return nil
		})
		if err != nil {
			return report, err
		}

		// start-index 按远端序号推进，跳过的条目同样占位
		count += len(page.Entries)
		if count >= page.TotalResults || len(page.Entries) == 0 {
			break
		}
	}

	log.Printf("同步完成，本次共计更新博文 %d 篇", report.Synced)
	return report, nil
}

// SyncComments 同步评论到本地数据库。
func (s *SyncService) SyncComments(ctx context.Context) (SyncReport, error) {
	report := SyncReport{}

	watermark, err := s.store.LastCommentPublished()
	if err != nil {
		return report, err
	}
	log.Printf("开始同步评论，本地评论最后更新时间：%q", watermark)

	probe, err := s.fetchWithRetry(ctx, func(ctx context.Context) (*feed.Page, error) {
		return s.feed.FetchComments(ctx, commentProbeIndex, 1, watermark)
	})
	if err != nil {
		return report, err
	}
	total := probe.TotalResults
	log.Printf("待导入评论数：%d", total)

	count := 0
	for count < total {
		page, err := s.fetchWithRetry(ctx, func(ctx context.Context) (*feed.Page, error) {
			return s.feed.FetchComments(ctx, count+1, s.opts.CommentPageSize, watermark)
		})
		if err != nil {
			return report, err
		}

		err = s.store.WithinTx(func(tx *Store) error {
			for _, entry := range page.Entries {
				comment, parseErr := feed.ParseComment(entry)
				if parseErr != nil {
					log.Printf("跳过无法解码的评论: %v", parseErr)
					report.Skipped++
					continue
				}

				if err := tx.UpsertComment(&comment); err != nil {
					return err
				}
				if err := tx.RecordAvatar(comment.AuthorImg); err != nil {
					return err
				}
				report.Synced++
			}
			return nil
		})
		if err != nil {
			return report, err
		}

		count += len(page.Entries)
		log.Printf("已导入 %d 条评论", count)
		if len(page.Entries) == 0 {
			break
		}
	}

	log.Printf("同步完成，本次共计更新评论 %d 条", report.Synced)
	return report, nil
}

// fetchWithRetry 在传输失败时固定间隔无限重试，只有取消才放弃。
func (s *SyncService) fetchWithRetry(ctx context.Context, fetch func(context.Context) (*feed.Page, error)) (*feed.Page, error) {
	for {
		page, err := fetch(ctx)
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		log.Printf("下载数据失败（%v），%v 后重试", err, s.opts.RetryDelay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.opts.RetryDelay):
		}
	}
}
