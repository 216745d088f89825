package feed

// Blogger 的 GData JSON 里所有标量都包在 {"$t": "..."} 中。
type textValue struct {
	Value string `json:"$t"`
}

type envelope struct {
	Feed feedBody `json:"feed"`
}

type feedBody struct {
	TotalResults textValue `json:"openSearch$totalResults"`
	Entries      []Entry   `json:"entry"`
}

// Entry 是 feed 中单条博文或评论的原始形态。
type Entry struct {
	ID        textValue  `json:"id"`
	Published textValue  `json:"published"`
	Updated   textValue  `json:"updated"`
	Title     textValue  `json:"title"`
	Content   textValue  `json:"content"`
	Category  []Category `json:"category"`
	Links     []Link     `json:"link"`
	Authors   []Author   `json:"author"`
}

// Category 是博文的一个标签。
type Category struct {
	Term string `json:"term"`
}

// Link 是 entry 的一条链接关系。
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// Author 是评论作者信息。
type Author struct {
	Name  textValue    `json:"name"`
	URI   *textValue   `json:"uri"`
	Image *authorImage `json:"gd$image"`
}

type authorImage struct {
	Src string `json:"src"`
}

// Page 是一次分页请求解码后的结果。
type Page struct {
	Entries      []Entry
	TotalResults int
}
