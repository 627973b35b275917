package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chiawen/aiwriter/internal/llm"
)

// TitleSuggestion pairs a source keyword with one proposed title.
type TitleSuggestion struct {
	Keyword string `json:"keyword"`
	Title   string `json:"title"`
}

// GenerateTitles proposes one article title per keyword. existingTitles
// builds an exclusion instruction so repeated runs against the same site
// do not produce near-duplicate titles. The response is best-effort 1:1
// with the input keywords; callers must tolerate a count mismatch. A
// response that does not parse as JSON is a hard error.
func (g *Generator) GenerateTitles(ctx context.Context, keywords []string, existingTitles []string, siteSlug string) ([]TitleSuggestion, error) {
	style := g.styles.For(siteSlug)

	systemPrompt := fmt.Sprintf(`你是一位內容行銷編輯，為%s規劃部落格文章標題。
只輸出 JSON 陣列，不要任何其他說明文字。`, style.Audience)

	var sb strings.Builder
	fmt.Fprintf(&sb, `請為以下每個關鍵字各發想一個吸引人的文章標題：

%s

要求：
- 使用繁體中文
- 標題要讓人想點進來，但不誇大
- 長度 15-30 字`, "- "+strings.Join(keywords, "\n- "))

	if len(existingTitles) > 0 {
		fmt.Fprintf(&sb, `

以下是已經發佈過的標題，請不要產生相同或相似的標題：
%s`, "- "+strings.Join(existingTitles, "\n- "))
	}

	sb.WriteString(`

請用以下 JSON 格式輸出：
[
  {"keyword": "關鍵字", "title": "文章標題"}
]`)

	text, err := g.completer.Complete(ctx, systemPrompt, sb.String(), llm.Options{})
	if err != nil {
		return nil, fmt.Errorf("title generation: %w", err)
	}

	var suggestions []TitleSuggestion
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &suggestions); err != nil {
		return nil, fmt.Errorf("parsing title response: %w", err)
	}
	return suggestions, nil
}
