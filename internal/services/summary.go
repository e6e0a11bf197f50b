package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-ppt-system/internal/cache"
	"github.com/fyerfyer/doc-ppt-system/internal/document"
	"github.com/fyerfyer/doc-ppt-system/internal/llm"
)

// SummaryService 文档摘要服务
// 短文档单次分析，长文档按分块map-reduce合并为统一摘要
type SummaryService struct {
	client     llm.Client        // 大模型客户端
	splitter   document.Splitter // 文本分块器
	cache      cache.Cache       // 摘要缓存，可选
	cacheTTL   time.Duration     // 缓存过期时间
	maxWorkers int               // 分块分析的最大并行数
	logger     *logrus.Logger    // 日志记录器
}

// SummaryOption 摘要服务配置选项
type SummaryOption func(*SummaryService)

// WithSummaryCache 设置摘要缓存
func WithSummaryCache(c cache.Cache, ttl time.Duration) SummaryOption {
	return func(s *SummaryService) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithSummaryWorkers 设置分块分析的最大并行数
func WithSummaryWorkers(workers int) SummaryOption {
	return func(s *SummaryService) {
		if workers > 0 {
			s.maxWorkers = workers
		}
	}
}

// WithSummaryLogger 设置日志记录器
func WithSummaryLogger(logger *logrus.Logger) SummaryOption {
	return func(s *SummaryService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSummaryService 创建文档摘要服务
func NewSummaryService(client llm.Client, splitter document.Splitter, opts ...SummaryOption) *SummaryService {
	srv := &SummaryService{
		client:     client,
		splitter:   splitter,
		cacheTTL:   24 * time.Hour,
		maxWorkers: 4,
		logger:     logrus.New(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// Summarize 生成文档的完整摘要
// 空白输入直接返回空字符串，不调用大模型
func (s *SummaryService) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	// 1. 查询缓存
	cacheKey := cache.GenerateCacheKey("summary", cache.ContentHash(text))
	if s.cache != nil {
		if cached, found, err := s.cache.Get(cacheKey); err == nil && found {
			s.logger.WithField("key", cacheKey).Debug("Summary cache hit")
			return cached, nil
		}
	}

	// 2. 文本分块
	chunks, err := s.splitter.Split(text)
	if err != nil {
		return "", fmt.Errorf("failed to split text: %w", err)
	}
	if len(chunks) == 0 {
		return "", nil
	}

	// 3. 短文档走单次分析，长文档走map-reduce
	var summary string
	if len(chunks) == 1 {
		summary, err = s.summarizeSingle(ctx, text)
	} else {
		summary, err = s.summarizeChunked(ctx, chunks)
	}
	if err != nil {
		return "", err
	}

	// 4. 写入缓存
	if s.cache != nil && summary != "" {
		if err := s.cache.Set(cacheKey, summary, s.cacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache summary")
		}
	}

	return summary, nil
}

// summarizeSingle 对短文档做单次完整分析
func (s *SummaryService) summarizeSingle(ctx context.Context, text string) (string, error) {
	prompt := buildExhaustivePrompt(text)

	resp, err := s.client.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to summarize document: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// summarizeChunked 长文档的map-reduce摘要
// 分块分析并行执行，结果按原始分块顺序重组后再做合并
func (s *SummaryService) summarizeChunked(ctx context.Context, chunks []document.Content) (string, error) {
	s.logger.WithField("chunks", len(chunks)).Info("Summarizing document in chunks")

	// map阶段：每块一次独立分析，失败的块用错误标记占位
	analyses := make([]string, len(chunks))
	wp := workerpool.New(s.maxWorkers)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		wp.Submit(func() {
			idx := i + 1
			var body string
			resp, err := s.client.Generate(ctx, buildChunkPrompt(idx, chunk.Text))
			if err != nil {
				s.logger.WithError(err).WithField("chunk", idx).Warn("Chunk analysis failed")
				body = llm.ErrorMarker(err)
			} else {
				body = strings.TrimSpace(resp.Text)
			}
			// 按下标写入，重组顺序与分块顺序一致
			analyses[i] = fmt.Sprintf("CHUNK %d ANALYSIS:\n%s", idx, body)
		})
	}

	wp.StopWait()

	// reduce阶段：合并所有分块分析为最终摘要
	combinePrompt := buildCombinePrompt(strings.Join(analyses, "\n\n"))
	resp, err := s.client.Generate(ctx, combinePrompt)
	if err != nil {
		return "", fmt.Errorf("failed to combine chunk analyses: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// buildExhaustivePrompt 构造短文档的完整分析提示词
func buildExhaustivePrompt(text string) string {
	return fmt.Sprintf(`Read and analyze the entire document below thoroughly. Produce a comprehensive, detailed, and exhaustive summary that preserves every important point, fact, argument, example, and nuance from the text. Do NOT oversimplify or omit material. The output should include:

1) An Executive Summary (one paragraph) that captures the overall purpose and conclusions.
2) A clear reconstruction of the document's structure with headings (e.g., Introduction, Methods/Body, Results/Arguments, Examples, Discussion, Conclusion).
3) For each section: a long, detailed section-by-section summary with important points, supporting evidence, examples, and any arguments or lines of reasoning fully preserved.
4) A consolidated list of Key Facts & Figures (as bullets), including any numbers, dates, named items, or data points.
5) Notable quotes or short excerpts (if present), labelled with approximate location.
6) Any assumptions, limitations, or open questions raised by the document.
7) A final 'Key takeaways' bullet list summarizing the most critical items.

Be exhaustive but keep the final output readable and well-structured. Document:
----------------
%s
----------------`, text)
}

// buildChunkPrompt 构造单个分块的分析提示词
func buildChunkPrompt(idx int, chunk string) string {
	return fmt.Sprintf(`You will be given CHUNK %d of a larger document. Carefully analyze this chunk and produce:
A) A detailed, exhaustive summary of CHUNK %d that preserves all important points, facts, arguments, examples, and nuance from this chunk.
B) A short heading describing what this chunk contains (e.g., "Introduction", "Methodology", "Case Study", "Analysis", "Conclusion", etc.).
C) A list of Key Facts & Figures found in this chunk (bulleted).
D) Any notable quotes or short excerpts.
E) Any open questions or references that should be cross-referenced with other chunks.

Label the output clearly as "CHUNK %d ANALYSIS".

Chunk content follows:
----------------
%s
----------------`, idx, idx, idx, chunk)
}

// buildCombinePrompt 构造合并所有分块分析的提示词
func buildCombinePrompt(analyses string) string {
	return fmt.Sprintf(`You have a set of detailed chunk analyses from a long document (listed below). Use them to produce ONE unified, coherent, and exhaustive summary of the entire original document. The final output MUST preserve every important point, fact, argument, example, and nuance found across the chunks. DO NOT INVENT new facts.

The final summary should be structured as follows:

1) Executive Summary: One concise paragraph that captures the entire document's purpose and conclusions.
2) Document Structure Reconstruction: Recreate the original document's sections and provide headings (Introduction, Body sections, Results/Arguments, Examples/Case-Studies, Discussion, Conclusion, etc.). For each reconstructed section, provide a thorough, long-form synthesis combining the chunk-level details.
3) Consolidated Key Facts & Figures: A single, deduplicated bulleted list containing all factual items (numbers, dates, names, data points) encountered in the chunks. If a fact appears in multiple chunks, include it once and list chunk locations in parentheses.
4) Important Quotes & Locations: A short list of notable quotes/excerpts and the approximate chunk number where they appear.
5) Assumptions, Limitations, and Open Questions: Combined and organized.
6) Key Takeaways: Clear bulleted summary of the most important conclusions and actionable points.

Below are the chunk analyses. Use them to reconstruct the full document and ensure no detail is lost:

----------------
%s
----------------

Now produce the final unified summary described above.`, analyses)
}
