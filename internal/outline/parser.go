package outline

import (
	"regexp"
	"strings"
)

var (
	// 幻灯片边界行，如"Slide 3: 标题"或"Section 1: 标题"
	// 序号被匹配但不参与输出顺序，输出顺序完全按出现顺序
	slideBoundaryPattern = regexp.MustCompile(`(?i)^\s*(Slide|Section)\s*(\d+)\s*:\s*(.+)$`)

	// 行内的Markdown修饰符号
	markdownMarkPattern = regexp.MustCompile("[#*>`]")
)

// ParsePoints 将模型返回的松散文本解析为幻灯片序列
// 这是一个宽容的逐行状态机：任何畸形输入都不会报错，最坏情况返回空序列
func ParsePoints(raw string) []Slide {
	var (
		slides       []Slide
		currentTitle string
		currentBody  []string
		slideOpen    bool
	)

	flush := func() {
		if slideOpen {
			slides = append(slides, Slide{
				Title:       currentTitle,
				Description: strings.Join(currentBody, "\n"),
			})
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		// 先剥掉Markdown修饰再右侧去空白
		line = strings.TrimRight(markdownMarkPattern.ReplaceAllString(line, ""), " \t\r")

		// 空行和模型追加的客套话直接丢弃
		if line == "" || strings.Contains(line, "Would you like") {
			continue
		}

		// 幻灯片边界：结算上一页，开启新页
		if m := slideBoundaryPattern.FindStringSubmatch(line); m != nil {
			flush()
			currentTitle = strings.TrimSpace(m[3])
			currentBody = nil
			slideOpen = true
			continue
		}

		// 第一个边界出现之前的内容行没有归属，丢弃
		if !slideOpen {
			continue
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "-"):
			// 短横线行规范化为顶层要点
			text := strings.TrimSpace(strings.TrimLeft(trimmed, "-"))
			if text != "" {
				currentBody = append(currentBody, "• "+text)
			}
		case strings.HasPrefix(trimmed, "•"), strings.HasPrefix(trimmed, "*"), strings.HasPrefix(line, "  "):
			// 圆点、星号或缩进行规范化为次级要点
			text := strings.TrimSpace(strings.TrimLeft(trimmed, "•*"))
			if text != "" {
				currentBody = append(currentBody, "- "+text)
			}
		default:
			if trimmed != "" {
				currentBody = append(currentBody, trimmed)
			}
		}
	}

	flush()
	return slides
}
