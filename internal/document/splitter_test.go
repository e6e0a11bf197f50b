package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reassemble 去掉每个后续块的重叠前缀后拼接，应还原原文
func reassemble(chunks []Content, overlap int) string {
	var sb strings.Builder
	for i, c := range chunks {
		runes := []rune(c.Text)
		if i > 0 {
			runes = runes[overlap:]
		}
		sb.WriteString(string(runes))
	}
	return sb.String()
}

// TestSplitterReconstruction 测试分块无损性
func TestSplitterReconstruction(t *testing.T) {
	cases := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
	}{
		{"short text single chunk", strings.Repeat("a", 100), 1000, 200},
		{"exact boundary", strings.Repeat("b", 1000), 1000, 200},
		{"multiple chunks", strings.Repeat("abcdefghij", 350), 1000, 200},
		{"no overlap", strings.Repeat("xyz", 500), 400, 0},
		{"unicode text", strings.Repeat("文档摘要测试。", 800), 1000, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			splitter := NewTextSplitter(SplitterConfig{
				ChunkSize:    tc.chunkSize,
				ChunkOverlap: tc.overlap,
			})

			chunks, err := splitter.Split(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.text, reassemble(chunks, tc.overlap))

			// 索引应与顺序一致
			for i, c := range chunks {
				assert.Equal(t, i, c.Index)
			}
		})
	}
}

// TestSplitterChunkSizes 测试块大小约束
func TestSplitterChunkSizes(t *testing.T) {
	splitter := NewTextSplitter(SplitterConfig{ChunkSize: 100, ChunkOverlap: 20})
	text := strings.Repeat("a", 450)

	chunks, err := splitter.Split(text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, c := range chunks {
		if i < len(chunks)-1 {
			assert.Equal(t, 100, len(c.Text), "非末尾块应为满块")
		} else {
			assert.LessOrEqual(t, len(c.Text), 100)
		}
	}

	// ceil((450-20)/(100-20)) = 6
	assert.Equal(t, 6, len(chunks))
}

// TestSplitterTermination 测试分块终止性
func TestSplitterTermination(t *testing.T) {
	t.Run("overlap equals chunk size", func(t *testing.T) {
		splitter := NewTextSplitter(SplitterConfig{ChunkSize: 10, ChunkOverlap: 10})
		chunks, err := splitter.Split(strings.Repeat("a", 100))
		require.NoError(t, err)
		assert.NotEmpty(t, chunks)
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		splitter := NewTextSplitter(SplitterConfig{ChunkSize: 10, ChunkOverlap: 50})
		chunks, err := splitter.Split(strings.Repeat("a", 100))
		require.NoError(t, err)
		assert.NotEmpty(t, chunks)
	})
}

// TestSplitterEmptyInput 测试空输入
func TestSplitterEmptyInput(t *testing.T) {
	splitter := NewTextSplitter(DefaultSplitterConfig())
	chunks, err := splitter.Split("")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

// TestSplitterMaxChunks 测试最大分块数量限制
func TestSplitterMaxChunks(t *testing.T) {
	splitter := NewTextSplitter(SplitterConfig{ChunkSize: 10, ChunkOverlap: 2, MaxChunks: 3})
	chunks, err := splitter.Split(strings.Repeat("a", 1000))
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}
