package document

// SplitterConfig 分块器配置
type SplitterConfig struct {
	ChunkSize    int // 分块大小（字符数）
	ChunkOverlap int // 相邻块之间的重叠字符数
	MaxChunks    int // 最大分块数量（0表示不限制）
}

// DefaultSplitterConfig 返回默认分块器配置
// 块大小按模型上下文预算取8000字符，重叠400字符避免边界信息丢失
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		ChunkSize:    8000,
		ChunkOverlap: 400,
		MaxChunks:    0,
	}
}

// TextSplitter 固定窗口文本分块器
// 从左到右产生最多ChunkSize字符的窗口，每个后续窗口回退ChunkOverlap字符
type TextSplitter struct {
	config SplitterConfig
}

// NewTextSplitter 创建新的文本分块器
func NewTextSplitter(config SplitterConfig) *TextSplitter {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultSplitterConfig().ChunkSize
	}
	if config.ChunkOverlap < 0 {
		config.ChunkOverlap = 0
	}
	return &TextSplitter{config: config}
}

// Split 将文本切分为带索引的有序块
// 空文本返回空切片；最后一块可能短于ChunkSize
// 即使ChunkOverlap >= ChunkSize也保证终止：起始位置不前进时直接结束
func (s *TextSplitter) Split(text string) ([]Content, error) {
	if text == "" {
		return []Content{}, nil
	}

	runes := []rune(text)
	n := len(runes)

	var contents []Content
	start := 0
	for start < n {
		end := start + s.config.ChunkSize
		if end > n {
			end = n
		}

		contents = append(contents, Content{
			Text:  string(runes[start:end]),
			Index: len(contents),
		})

		if end == n {
			break
		}

		if s.config.MaxChunks > 0 && len(contents) >= s.config.MaxChunks {
			break
		}

		next := end - s.config.ChunkOverlap
		if next < 0 {
			next = 0
		}
		// 防止重叠不小于块大小时原地打转
		if next <= start {
			break
		}
		start = next
	}

	return contents, nil
}
