package db

// Comment 定义了评论模型。
// PostID 指向评论对应的博文；RelatedID 指出当前评论是否是对其它评论的回复，
// 为 nil 时表示一级评论。博文和评论分开同步，这里不做外键约束。
type Comment struct {
	ID        int64  `gorm:"primaryKey"`
	Published string `gorm:"index"`
	Updated   string
	Content   string
	Author    string
	AuthorURI *string
	AuthorImg string
	PostID    int64 `gorm:"index"`
	RelatedID *int64
}
