package generator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chiawen/aiwriter/internal/llm"
	"github.com/chiawen/aiwriter/internal/model"
)

type keywordItem struct {
	Keyword    string `json:"keyword"`
	Difficulty string `json:"difficulty"`
}

// GenerateKeywords asks the completion service for roughly count keyword
// suggestions in the given category, styled for the site's audience. The
// returned length is best-effort, not guaranteed exact. A response that
// does not parse as JSON is a hard error.
func (g *Generator) GenerateKeywords(ctx context.Context, category string, count int, siteSlug string) ([]model.Keyword, error) {
	style := g.styles.For(siteSlug)

	systemPrompt := fmt.Sprintf(`你是一位 SEO 關鍵字研究專家，目標讀者是%s。
只輸出 JSON 陣列，不要任何其他說明文字。`, style.Audience)

	userPrompt := fmt.Sprintf(`請為「%s」這個分類建議 %d 個部落格文章關鍵字。

要求：
- 關鍵字要是目標讀者會實際搜尋的字詞
- 使用繁體中文
- 每個關鍵字標註競爭難度：easy、medium 或 advanced

請用以下 JSON 格式輸出：
[
  {"keyword": "關鍵字", "difficulty": "easy"}
]`, category, count)

	text, err := g.completer.Complete(ctx, systemPrompt, userPrompt, llm.Options{})
	if err != nil {
		return nil, fmt.Errorf("keyword generation: %w", err)
	}

	var items []keywordItem
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &items); err != nil {
		return nil, fmt.Errorf("parsing keyword response: %w", err)
	}

	keywords := make([]model.Keyword, 0, len(items))
	for _, item := range items {
		keywords = append(keywords, model.Keyword{
			Text:       item.Keyword,
			Difficulty: model.Difficulty(item.Difficulty),
			SiteSlug:   siteSlug,
		})
	}
	return keywords, nil
}
