package service

import "regexp"

var imgSrcPattern = regexp.MustCompile(`<img[^>]*?src="(.*?)"[^>]*?>`)

// ExtractImageURLs 解析出 HTML 中所有 <img> 标签的图片地址，
// 按出现顺序返回，不做去重（去重由 Store 的 URL 唯一约束保证）。
func ExtractImageURLs(html string) []string {
	matches := imgSrcPattern.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		return nil
	}
	urls := make([]string, 0, len(matches))
	for _, match := range matches {
		urls = append(urls, match[1])
	}
	return urls
}
