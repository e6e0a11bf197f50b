package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-ppt-system/internal/outline"
)

func TestGenerateOutline_FixedCount(t *testing.T) {
	client := &mockLLM{
		respond: func(prompt string) (string, error) {
			return "Slide 1: Intro\n- point one\nSlide 2: Body\n- point two", nil
		},
	}
	svc := NewOutlineService(client)

	slides, err := svc.GenerateOutline(context.Background(), "make a deck about Go in 12 slides")
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, "Intro", slides[0].Title)
	assert.Equal(t, "• point one", slides[0].Description)

	// 提示词应请求总数减一的内容页
	require.Equal(t, 1, client.callCount())
	assert.Contains(t, client.prompts[0], "exactly 11 content slides")
	assert.Contains(t, client.prompts[0], "excluding the title slide")
}

func TestGenerateOutline_OpenEnded(t *testing.T) {
	client := &mockLLM{
		respond: func(prompt string) (string, error) {
			return "Slide 1: Only\n- bullet", nil
		},
	}
	svc := NewOutlineService(client)

	slides, err := svc.GenerateOutline(context.Background(), "make a deck about Go")
	require.NoError(t, err)
	assert.Len(t, slides, 1)

	// 未指定页数时走开放式提示词
	assert.NotContains(t, client.prompts[0], "exactly")
	assert.Contains(t, client.prompts[0], "3-4 bullet points")
}

func TestGenerateOutline_UnparseableResponse(t *testing.T) {
	client := &mockLLM{
		respond: func(prompt string) (string, error) {
			return "Sorry, I cannot help with that.", nil
		},
	}
	svc := NewOutlineService(client)

	// 无法解析的响应产出空序列，不报错也不重试
	slides, err := svc.GenerateOutline(context.Background(), "make slides")
	require.NoError(t, err)
	assert.Empty(t, slides)
	assert.Equal(t, 1, client.callCount(), "No retry on empty parse result")
}

func TestReviseOutline(t *testing.T) {
	client := &mockLLM{
		respond: func(prompt string) (string, error) {
			return "Slide 1: Revised Intro\n- new point", nil
		},
	}
	svc := NewOutlineService(client)

	current := &outline.Outline{
		Title: "Original Title",
		Slides: []outline.Slide{
			{Title: "Intro", Description: "• old point"},
		},
	}

	revised, err := svc.ReviseOutline(context.Background(), current, "make it punchier", "")
	require.NoError(t, err)

	// 标题保持原值，幻灯片整体替换
	assert.Equal(t, "Original Title", revised.Title)
	require.Len(t, revised.Slides, 1)
	assert.Equal(t, "Revised Intro", revised.Slides[0].Title)

	// 提示词包含序列化的原大纲、反馈和不加标题页的指令
	prompt := client.prompts[0]
	assert.Contains(t, prompt, "Title: Original Title")
	assert.Contains(t, prompt, "Slide 1: Intro")
	assert.Contains(t, prompt, "make it punchier")
	assert.Contains(t, prompt, "Do NOT add a title slide")
}

func TestReviseOutline_TitleOverride(t *testing.T) {
	client := &mockLLM{
		respond: func(prompt string) (string, error) {
			return "Slide 1: Body\n- point", nil
		},
	}
	svc := NewOutlineService(client)

	current := &outline.Outline{
		Title:  "Old",
		Slides: []outline.Slide{{Title: "Body", Description: "• point"}},
	}

	revised, err := svc.ReviseOutline(context.Background(), current, "feedback", "  New Title  ")
	require.NoError(t, err)
	assert.Equal(t, "New Title", revised.Title, "Explicit override should replace the title")
}

func TestReviseOutline_NilOutline(t *testing.T) {
	svc := NewOutlineService(&mockLLM{})

	_, err := svc.ReviseOutline(context.Background(), nil, "feedback", "")
	assert.Error(t, err)
}

func TestGenerateTitle(t *testing.T) {
	client := &mockLLM{
		respond: func(prompt string) (string, error) {
			return "  Machine Learning Basics  ", nil
		},
	}
	svc := NewOutlineService(client)

	title := svc.GenerateTitle(context.Background(), "a summary about ML")
	assert.Equal(t, "Machine Learning Basics", title)
	assert.Contains(t, client.prompts[0], "under 10 words")
}

func TestGenerateTitle_FailureDegrades(t *testing.T) {
	client := &mockLLM{
		respond: func(prompt string) (string, error) {
			return "", errors.New("connection refused")
		},
	}
	svc := NewOutlineService(client)

	// 失败降级为错误标记，不panic不返回空串
	title := svc.GenerateTitle(context.Background(), "some summary")
	assert.True(t, strings.Contains(title, "LLM error"), "Failed title call should yield an error marker")
}
