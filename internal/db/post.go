package db

// Post 定义了博文模型，主键来自远端 feed 中的数字 id。
// Published/Updated 保存 feed 原始的 ISO-8601 字符串，
// 按字典序比较即为时间序，同步断点直接取该列最大值。
type Post struct {
	ID        int64  `gorm:"primaryKey"`
	Published string `gorm:"index"`
	Updated   string
	Category  string // 标签，用 | 连接
	Title     string
	Content   string // 原始 HTML
	FileName  *string
}
