package renderer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-ppt-system/internal/outline"
)

// DeckRenderer 演示文稿渲染器
// 将大纲渲染为横版PDF，每张幻灯片占一页
type DeckRenderer struct {
	style     StyleConfig    // 渲染样式
	outputDir string         // 输出目录
	logger    *logrus.Logger // 日志记录器
}

// Option 渲染器配置选项
type Option func(*DeckRenderer)

// WithStyle 设置渲染样式
func WithStyle(style StyleConfig) Option {
	return func(r *DeckRenderer) {
		r.style = style
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) Option {
	return func(r *DeckRenderer) {
		r.logger = logger
	}
}

// NewDeckRenderer 创建演示文稿渲染器
func NewDeckRenderer(outputDir string, opts ...Option) *DeckRenderer {
	r := &DeckRenderer{
		style:     DefaultStyle(),
		outputDir: outputDir,
		logger:    logrus.New(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Render 将大纲渲染为PDF文件，返回文件路径
// 首页为标题页，之后每张幻灯片一页
func (r *DeckRenderer) Render(o *outline.Outline) (string, error) {
	if o == nil || len(o.Slides) == 0 {
		return "", fmt.Errorf("outline has no slides to render")
	}

	title := outline.CleanTitle(o.Title)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	font := coreFontName(r.style.FontFamily)

	// 标题页
	r.addTitlePage(pdf, font, title)

	// 内容页
	for i, slide := range o.Slides {
		r.addSlidePage(pdf, font, i+1, slide)
	}

	// 确保输出目录存在
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %v", err)
	}

	fileName := outline.SanitizeFilename(title) + ".pdf"
	filePath := filepath.Join(r.outputDir, fileName)

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("failed to write deck file: %v", err)
	}

	r.logger.WithFields(logrus.Fields{
		"file":   filePath,
		"slides": len(o.Slides),
	}).Info("Deck rendered successfully")

	return filePath, nil
}

// addTitlePage 渲染标题页
func (r *DeckRenderer) addTitlePage(pdf *gofpdf.Fpdf, font, title string) {
	pdf.AddPage()
	r.fillBackground(pdf)

	pageW, pageH := pdf.GetPageSize()

	tr, tg, tb := hexToRGB(r.style.TitleColor)
	pdf.SetTextColor(tr, tg, tb)
	pdf.SetFont(font, "B", r.style.TitleSize+10)

	// 标题垂直居中
	pdf.SetXY(20, pageH/2-20)
	pdf.MultiCell(pageW-40, 16, title, "", "C", false)
}

// addSlidePage 渲染单张幻灯片
func (r *DeckRenderer) addSlidePage(pdf *gofpdf.Fpdf, font string, number int, slide outline.Slide) {
	pdf.AddPage()
	r.fillBackground(pdf)

	pageW, _ := pdf.GetPageSize()

	// 幻灯片标题
	tr, tg, tb := hexToRGB(r.style.TitleColor)
	pdf.SetTextColor(tr, tg, tb)
	pdf.SetFont(font, "B", r.style.TitleSize)
	pdf.SetXY(15, 15)
	pdf.MultiCell(pageW-30, 13, slide.Title, "", "L", false)

	// 正文内容，缩进区分主子要点
	cr, cg, cb := hexToRGB(r.style.TextColor)
	pdf.SetTextColor(cr, cg, cb)

	y := pdf.GetY() + 8
	for _, line := range strings.Split(slide.Description, "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}

		indent := 20.0
		size := r.style.TextSize
		if strings.HasPrefix(line, "- ") {
			// 子要点缩进并缩小字号
			indent = 32.0
			size = r.style.TextSize - 4
		}

		pdf.SetFont(font, "", size)
		pdf.SetXY(indent, y)
		pdf.MultiCell(pageW-indent-15, size*0.55, line, "", "L", false)
		y = pdf.GetY() + 2
	}
}

// fillBackground 用背景色填充整页
func (r *DeckRenderer) fillBackground(pdf *gofpdf.Fpdf) {
	br, bg, bb := hexToRGB(r.style.BackgroundColor)
	if br == 255 && bg == 255 && bb == 255 {
		// 白色背景无需填充
		return
	}

	pageW, pageH := pdf.GetPageSize()
	pdf.SetFillColor(br, bg, bb)
	pdf.Rect(0, 0, pageW, pageH, "F")
}
