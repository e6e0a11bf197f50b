package outline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Slide 大纲中的一页幻灯片
// Description为多行文本，每行是一个要点（• 前缀）、子要点（- 前缀）或普通句子
type Slide struct {
	Title       string `json:"title"`       // 幻灯片标题
	Description string `json:"description"` // 幻灯片内容，换行分隔
}

// Outline 演示文稿大纲
// Slides的顺序即幻灯片顺序
type Outline struct {
	Title  string  `json:"title"`  // 演示文稿标题
	Slides []Slide `json:"slides"` // 幻灯片列表，可能为空
}

// DefaultTitle 标题为空时的占位标题
const DefaultTitle = "Presentation"

var (
	slideCountPattern = regexp.MustCompile(`(?i)(\d+)\s*(slides?|sections?|pages?)`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	filenamePattern   = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

// ExtractSlideCount 从描述文本中提取用户要求的幻灯片数量
// 匹配"12 slides"、"5 sections"等写法；返回内容页数量（总数减去标题页）
// 未指定时返回0
func ExtractSlideCount(description string) int {
	m := slideCountPattern.FindStringSubmatch(description)
	if m == nil {
		return 0
	}

	total, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}

	// 标题页由调用方单独生成，这里扣除一页，至少保留一页内容
	if total <= 1 {
		return 1
	}
	return total - 1
}

// CleanTitle 规范化标题文本
// 去除首尾空白并折叠连续空白；空标题回退为默认占位标题
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return DefaultTitle
	}
	return whitespacePattern.ReplaceAllString(title, " ")
}

// SanitizeFilename 将标题转换为安全的文件名
// [A-Za-z0-9_.-]之外的字符全部替换为下划线
func SanitizeFilename(name string) string {
	return filenamePattern.ReplaceAllString(name, "_")
}

// Serialize 将幻灯片序列还原为"Slide N: 标题"加内容行的文本形式
// 用于构造修订提示词，内容逐字保留
func Serialize(slides []Slide) string {
	var sb strings.Builder
	for i, slide := range slides {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("Slide %d: %s", i+1, slide.Title))
		if slide.Description != "" {
			sb.WriteString("\n")
			sb.WriteString(slide.Description)
		}
	}
	return sb.String()
}
