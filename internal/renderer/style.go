package renderer

import (
	"fmt"
	"strings"
)

// StyleConfig 演示文稿渲染样式配置
type StyleConfig struct {
	FontFamily      string  // 字体名称
	TitleSize       float64 // 标题字号
	TextSize        float64 // 正文字号
	TitleColor      string  // 标题颜色，十六进制
	TextColor       string  // 正文颜色，十六进制
	BackgroundColor string  // 背景颜色，十六进制
}

// DefaultStyle 返回默认渲染样式
func DefaultStyle() StyleConfig {
	return StyleConfig{
		FontFamily:      "Calibri",
		TitleSize:       30,
		TextSize:        22,
		TitleColor:      "#5E2A84",
		TextColor:       "#282828",
		BackgroundColor: "#FFFFFF",
	}
}

// coreFontName 将常见字体名映射到PDF内置字体
// PDF核心字体只有Helvetica、Times和Courier三族
func coreFontName(family string) string {
	switch strings.ToLower(family) {
	case "times", "times new roman", "georgia":
		return "Times"
	case "courier", "courier new", "consolas":
		return "Courier"
	default:
		// Calibri、Arial等无衬线字体统一映射到Helvetica
		return "Helvetica"
	}
}

// hexToRGB 解析十六进制颜色为RGB分量
// 非法输入返回黑色
func hexToRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}

	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return 0, 0, 0
	}
	return r, g, b
}
