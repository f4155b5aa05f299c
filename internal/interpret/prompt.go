package interpret

import (
	"fmt"
	"strings"

	"github.com/arcanaland/tarotreading/internal/card"
)

const (
	defaultCategory  = "일반"
	defaultSituation = "전반적인 운세"
)

// describeCards renders one block per drawn card, using the meaning that
// matches the card's orientation.
func describeCards(cards []card.DrawnCard, labels []string) string {
	blocks := make([]string, len(cards))
	for i, c := range cards {
		blocks[i] = fmt.Sprintf("%s: %s (%s) - %s\n키워드: %s\n의미: %s",
			labels[i], c.Name, c.KoreanName, c.Orientation(),
			strings.Join(c.Keywords, ", "),
			c.Meaning())
	}
	return strings.Join(blocks, "\n\n")
}

func buildPrompt(req Request, labels []string) string {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = defaultCategory
	}
	situation := strings.TrimSpace(req.Situation)
	if situation == "" {
		situation = defaultSituation
	}

	template := `
당신은 따뜻하고 통찰력 있는 타로 리더입니다. 아래 고민과 뽑힌 카드를 바탕으로 리딩을 해주세요.

[고민]
카테고리: %s
상황: %s

[뽑힌 카드]
%s

[작성 방법]
- 카드마다 고민 상황과 연결해 2-3문장으로 해석합니다
- 카드의 방향(정방향/역방향)에 맞는 의미를 적용합니다
- 공감하는 말투로, 실천할 수 있는 조언을 담습니다

아래 JSON 형식으로만 답해주세요:
{
  "interpretations": [
    {"position": "카드 위치", "message": "해당 카드의 해석"}
  ],
  "overallMessage": "전체적인 조언 (2-3문장)"
}
`
	return fmt.Sprintf(strings.TrimSpace(template), category, situation, describeCards(req.Cards, labels))
}
