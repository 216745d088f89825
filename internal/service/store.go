package service

import (
	"database/sql"

	"github.com/blogmirror/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps mirror persistence. All writes go through keyed upserts so
// re-applying an already-seen page is a no-op.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store instance.
func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// WithinTx 在单个事务中执行 fn，页级提交边界由调用方对齐。
func (s *Store) WithinTx(fn func(tx *Store) error) error {
	return s.db.Transaction(func(txdb *gorm.DB) error {
		return fn(&Store{db: txdb})
	})
}

// UpsertPost 按主键写入博文，已存在时覆盖全部可变字段。
func (s *Store) UpsertPost(post *db.Post) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(post).Error
}

// UpsertComment 按主键写入评论，已存在时覆盖全部可变字段。
func (s *Store) UpsertComment(comment *db.Comment) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(comment).Error
}

// RecordImage 登记一条博文配图，URL 已存在时静默跳过。
func (s *Store) RecordImage(url string, postID int64) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoNothing: true,
	}).Create(&db.ImageAsset{URL: url, PostID: postID}).Error
}

// RecordAvatar 登记一条用户头像，URL 已存在时静默跳过。
func (s *Store) RecordAvatar(url string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoNothing: true,
	}).Create(&db.AvatarAsset{URL: url}).Error
}

// SetImageLocalFile 记录配图落盘路径及探测到的尺寸。
func (s *Store) SetImageLocalFile(url, path string, width, height int) error {
	return s.db.Model(&db.ImageAsset{}).Where("url = ?", url).Updates(map[string]interface{}{
		"local_file": path,
		"width":      width,
		"height":     height,
	}).Error
}

// SetAvatarLocalFile 记录头像落盘路径。
func (s *Store) SetAvatarLocalFile(url, path string) error {
	return s.db.Model(&db.AvatarAsset{}).Where("url = ?", url).Update("local_file", path).Error
}

// LastPostPublished 返回本地最后一篇博文的发布时间，空串表示从头同步。
func (s *Store) LastPostPublished() (string, error) {
	return s.maxPublished(&db.Post{})
}

// LastCommentPublished 返回本地最后一条评论的发布时间，空串表示从头同步。
func (s *Store) LastCommentPublished() (string, error) {
	return s.maxPublished(&db.Comment{})
}

func (s *Store) maxPublished(model interface{}) (string, error) {
	var published sql.NullString
	row := s.db.Model(model).Select("max(published)").Row()
	if err := row.Scan(&published); err != nil {
		return "", err
	}
	return published.String, nil
}

// ImageDownload 是配图下载清单中的一行，Published 来自所属博文，
// 用于决定落盘的日期目录。
type ImageDownload struct {
	ID        int64
	URL       string
	Published string
	LocalFile *string
}

// AvatarDownload 是头像下载清单中的一行。
type AvatarDownload struct {
	ID        int64
	URL       string
	LocalFile *string
}

// ImageDownloads 返回调用时刻的配图清单快照。
func (s *Store) ImageDownloads() ([]ImageDownload, error) {
	var rows []ImageDownload
	err := s.db.Table("image_assets").
		Select("image_assets.id, image_assets.url, posts.published, image_assets.local_file").
		Joins("INNER JOIN posts ON image_assets.post_id = posts.id").
		Order("image_assets.id").
		Scan(&rows).Error
	return rows, err
}

// AvatarDownloads 返回调用时刻的头像清单快照。
func (s *Store) AvatarDownloads() ([]AvatarDownload, error) {
	var rows []AvatarDownload
	err := s.db.Table("avatar_assets").
		Select("id, url, local_file").
		Order("id").
		Scan(&rows).Error
	return rows, err
}

// AllPosts 返回全部博文，重建搜索索引时使用。
func (s *Store) AllPosts() ([]db.Post, error) {
	var posts []db.Post
	err := s.db.Order("published").Find(&posts).Error
	return posts, err
}
