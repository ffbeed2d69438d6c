package guard

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/forPelevin/gomoji"
	"github.com/mtibben/confusables"
	"golang.org/x/text/unicode/norm"
)

// isPreservedRune: 한자, 한글, 가나는 skeleton 변환 없이 그대로 둡니다.
func isPreservedRune(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hangul, unicode.Hiragana, unicode.Katakana)
}

// isControl 은 지울 제어/서식 문자인지 본다. 공백류는 남겨 두고 나중에 접는다.
func isControl(r rune) bool {
	return (unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cf, r)) && !unicode.IsSpace(r)
}

func stripControlChars(text string) string {
	if strings.IndexFunc(text, isControl) < 0 {
		return text
	}
	return strings.Map(func(r rune) rune {
		if isControl(r) {
			return -1
		}
		return r
	}, text)
}

// normalizeText 는 규칙 매칭 전에 입력을 비교 가능한 형태로 바꾼다.
// ASCII 는 그대로 두고, 그 외에는 NFC 로 맞춘 뒤 CJK 가 아닌 구간만 skeleton + NFKC 로 접는다.
func normalizeText(text string) string {
	if isASCII(text) {
		return stripControlChars(text)
	}

	text = norm.NFC.String(text)
	var out strings.Builder
	out.Grow(len(text))

	runStart := -1
	flush := func(end int) {
		if runStart < 0 {
			return
		}
		out.WriteString(norm.NFKC.String(confusables.Skeleton(text[runStart:end])))
		runStart = -1
	}
	for i, r := range text {
		if isPreservedRune(r) {
			flush(i)
			out.WriteRune(r)
			continue
		}
		if runStart < 0 {
			runStart = i
		}
	}
	flush(len(text))

	return stripControlChars(out.String())
}

func isASCII(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func containsEmoji(text string) bool {
	return gomoji.ContainsEmoji(text)
}

// cleanText: 프롬프트에 넣을 자유 입력을 정리합니다.
// 이모지와 제어 문자를 지우고 NFC 로 맞춘 뒤 공백을 하나로 접고 maxRunes 로 자릅니다.
func cleanText(text string, maxRunes int) string {
	if containsEmoji(text) {
		text = gomoji.RemoveEmojis(text)
	}
	text = stripControlChars(norm.NFC.String(text))
	text = strings.Join(strings.Fields(text), " ")
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	cut := 0
	for count := 0; count < maxRunes; count++ {
		_, size := utf8.DecodeRuneInString(text[cut:])
		cut += size
	}
	return strings.TrimSpace(text[:cut])
}
