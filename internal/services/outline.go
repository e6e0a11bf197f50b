package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-ppt-system/internal/llm"
	"github.com/fyerfyer/doc-ppt-system/internal/outline"
)

// OutlineService 演示文稿大纲服务
// 负责大纲生成、反馈修订和标题生成
type OutlineService struct {
	client llm.Client     // 大模型客户端
	logger *logrus.Logger // 日志记录器
}

// OutlineOption 大纲服务配置选项
type OutlineOption func(*OutlineService)

// WithOutlineLogger 设置日志记录器
func WithOutlineLogger(logger *logrus.Logger) OutlineOption {
	return func(s *OutlineService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewOutlineService 创建大纲服务
func NewOutlineService(client llm.Client, opts ...OutlineOption) *OutlineService {
	srv := &OutlineService{
		client: client,
		logger: logrus.New(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// GenerateOutline 根据描述生成大纲的幻灯片序列
// 描述中出现明确页数时按固定数量生成，否则开放式生成
// 解析结果为空不重试，由调用方决定如何呈现
func (s *OutlineService) GenerateOutline(ctx context.Context, description string) ([]outline.Slide, error) {
	var prompt string

	if count := outline.ExtractSlideCount(description); count > 0 {
		prompt = fmt.Sprintf(`Create a PowerPoint outline on: %s.
Generate exactly %d content slides (excluding the title slide).
Start from Slide 1 as the first content slide.
Format:
Slide 1: <Title>
- Bullet
- Bullet`, description, count)
	} else {
		prompt = fmt.Sprintf(`Create a PowerPoint outline on: %s.
Each slide should have a short title and 3-4 bullet points.
Format:
Slide 1: <Title>
- Bullet
- Bullet`, description)
	}

	resp, err := s.client.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate outline: %w", err)
	}

	slides := outline.ParsePoints(resp.Text)

	s.logger.WithField("slides", len(slides)).Info("Outline generated")
	return slides, nil
}

// ReviseOutline 根据用户反馈修订大纲
// 整体替换，不与原大纲做差异合并；标题保持原值，除非指定覆盖标题
func (s *OutlineService) ReviseOutline(ctx context.Context, current *outline.Outline, feedback string, titleOverride string) (*outline.Outline, error) {
	if current == nil {
		return nil, fmt.Errorf("current outline cannot be nil")
	}

	prompt := fmt.Sprintf(`You are an assistant improving a PowerPoint outline.

Current Outline:
Title: %s
%s

Feedback:
%s

Task:
- Apply the feedback to refine/improve the outline.
- Return the updated outline with the same format:
  Slide 1: <Title>
  - Bullet
  - Bullet
- Do NOT add a title slide (I will handle it).`, current.Title, outline.Serialize(current.Slides), feedback)

	resp, err := s.client.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to revise outline: %w", err)
	}

	title := current.Title
	if strings.TrimSpace(titleOverride) != "" {
		title = strings.TrimSpace(titleOverride)
	}

	revised := &outline.Outline{
		Title:  title,
		Slides: outline.ParsePoints(resp.Text),
	}

	s.logger.WithFields(logrus.Fields{
		"slides": len(revised.Slides),
		"title":  revised.Title,
	}).Info("Outline revised")

	return revised, nil
}

// GenerateTitle 根据摘要生成演示文稿标题
// 失败时返回错误标记字符串作为降级标题，不向上抛错
func (s *OutlineService) GenerateTitle(ctx context.Context, summary string) string {
	prompt := fmt.Sprintf(`Read the following summary and create a short, clear, presentation-style title.
- Keep it under 10 words
- Do not include birth dates, long sentences, or excessive details
- Just give a clean title, like a presentation heading

Summary:
%s`, summary)

	resp, err := s.client.Generate(ctx, prompt)
	if err != nil {
		s.logger.WithError(err).Warn("Title generation failed")
		return llm.ErrorMarker(err)
	}

	return strings.TrimSpace(resp.Text)
}
