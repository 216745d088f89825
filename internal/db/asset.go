package db

// ImageAsset 记录博文内引用的图片，按 URL 去重。
// LocalFile 为 nil 表示尚未下载，下载过程天然可重试。
type ImageAsset struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	URL       string `gorm:"uniqueIndex;not null"`
	PostID    int64
	LocalFile *string
	Width     int
	Height    int
}

// AvatarAsset 记录评论区用户头像，按 URL 去重。
type AvatarAsset struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	URL       string `gorm:"uniqueIndex;not null"`
	LocalFile *string
}
