package trainerpresenter

import "strings"

// KakaoTalk folds long messages behind "전체보기" once the first bubble passes a length
// threshold. Padding the header with zero-width spaces keeps only the header visible.
const (
	seeMorePadding = 500
	zeroWidthSpace = "\u200b"
)

func withSeeMore(header, body string) string {
	if strings.TrimSpace(body) == "" {
		return strings.TrimSpace(header)
	}
	header = strings.TrimSpace(header)
	var sb strings.Builder
	sb.Grow(len(header) + seeMorePadding*len(zeroWidthSpace) + len(body) + 1)
	sb.WriteString(header)
	sb.WriteString(strings.Repeat(zeroWidthSpace, seeMorePadding))
	if !strings.HasPrefix(body, "\n") {
		sb.WriteByte('\n')
	}
	sb.WriteString(body)
	return sb.String()
}
