package service

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"

	_ "golang.org/x/image/webp"

	"github.com/blogmirror/internal/fetcher"
)

// AssetService 顺序下载已登记但尚未落盘的配图和头像。
// 串行下载是有意为之，压低对远端的请求频率。
type AssetService struct {
	store     *Store
	fetcher   *fetcher.Fetcher
	imageDir  string
	avatarDir string
}

// DownloadReport 汇总一轮下载的结果，Failed 大于 0 时提示用户稍后重跑。
type DownloadReport struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// NewAssetService creates an AssetService instance.
func NewAssetService(store *Store, f *fetcher.Fetcher, imageDir, avatarDir string) *AssetService {
	return &AssetService{store: store, fetcher: f, imageDir: imageDir, avatarDir: avatarDir}
}

// DownloadPostImages 下载博文配图，按所属博文的发布日期分目录存放。
// 单张失败只记录不中断，整轮结束后一起汇报。
func (a *AssetService) DownloadPostImages(ctx context.Context) (DownloadReport, error) {
	report := DownloadReport{}

	rows, err := a.store.ImageDownloads()
	if err != nil {
		return report, err
	}

	log.Println("开始下载博文配图")
	for _, row := range rows {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if alreadyDownloaded(row.LocalFile) {
			report.Skipped++
			continue
		}

		imgURL := fetcher.NormalizeImageURL(row.URL)
		destDir := filepath.Join(a.imageDir, dateBucket(row.Published))
		path, err := a.fetcher.Fetch(ctx, imgURL, destDir, fmt.Sprintf("%d-", row.ID))
		if err != nil {
			log.Printf("图片下载失败，url=%s: %v", imgURL, err)
			report.Failed++
			continue
		}

		width, height := probeDimensions(path)
		if err := a.store.SetImageLocalFile(row.URL, path, width, height); err != nil {
			return report, err
		}
		report.Downloaded++
		if report.Downloaded%10 == 0 {
			log.Printf("已下载 %d 张图片", report.Downloaded)
		}
	}

	logDownloadResult("图片", report)
	return report, nil
}

// DownloadAvatars 下载评论区用户头像，按资产 id 分目录存放。
func (a *AssetService) DownloadAvatars(ctx context.Context) (DownloadReport, error) {
	report := DownloadReport{}

	rows, err := a.store.AvatarDownloads()
	if err != nil {
		return report, err
	}

	log.Println("开始下载用户头像")
	for _, row := range rows {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if alreadyDownloaded(row.LocalFile) {
			report.Skipped++
			continue
		}

		avatarURL := fetcher.NormalizeAvatarURL(row.URL)
		destDir := filepath.Join(a.avatarDir, strconv.FormatInt(row.ID, 10))
		path, err := a.fetcher.Fetch(ctx, avatarURL, destDir, "")
		if err != nil {
			log.Printf("头像下载失败，url=%s: %v", avatarURL, err)
			report.Failed++
			continue
		}

		if err := a.store.SetAvatarLocalFile(row.URL, path); err != nil {
			return report, err
		}
		report.Downloaded++
		if report.Downloaded%10 == 0 {
			log.Printf("已下载 %d 张头像", report.Downloaded)
		}
	}

	logDownloadResult("头像", report)
	return report, nil
}

// alreadyDownloaded 以磁盘上文件仍然存在为准，记录过但被删掉的会重新下载。
func alreadyDownloaded(localFile *string) bool {
	if localFile == nil || *localFile == "" {
		return false
	}
	_, err := os.Stat(*localFile)
	return err == nil
}

// dateBucket 截取博文发布日期 YYYY-MM-DD 作为配图的存放目录。
func dateBucket(published string) string {
	if len(published) >= 10 {
		return published[:10]
	}
	return published
}

// probeDimensions 读取落盘图片的宽高，解不出来时记 0。
// webp 解码器通过 x/image 注册，blogspot 图床大量使用 webp。
func probeDimensions(path string) (int, int) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func logDownloadResult(kind string, report DownloadReport) {
	if report.Failed > 0 {
		log.Printf("部分%s下载失败（%d 个），请稍后重试", kind, report.Failed)
		return
	}
	log.Printf("下载完成，本次共计下载%s %d 张", kind, report.Downloaded)
}
