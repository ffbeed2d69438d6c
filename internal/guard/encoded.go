package guard

import (
	"encoding/base64"
	"strings"
	"unicode"
	"unicode/utf8"
)

// minEncodedLength 보다 짧은 토큰은 base64 로 보지 않는다.
const minEncodedLength = 20

// readableRatio: 디코딩 결과 중 출력 가능한 문자가 이 비율(%)을 넘어야 숨겨진 지시문으로 본다.
const readableRatio = 90

// urlSafeToStd 는 URL-safe 알파벳을 표준 알파벳으로 바꾼다.
var urlSafeToStd = strings.NewReplacer("-", "+", "_", "/")

func isBase64Rune(r rune) bool {
	return r < utf8.RuneSelf && (r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' ||
		r == '+' || r == '/' || r == '-' || r == '_' || r == '=')
}

// containsSuspiciousBase64 는 입력 속 base64 토큰 중 디코딩하면 읽을 수 있는 글이 되는 것이 있는지 본다.
// 바이너리나 우연히 알파벳만 맞는 토큰은 통과시킨다.
func containsSuspiciousBase64(input string) bool {
	for _, token := range strings.FieldsFunc(input, func(r rune) bool { return !isBase64Rune(r) }) {
		if len(token) < minEncodedLength {
			continue
		}
		decoded, ok := decodeBase64Token(token)
		if ok && isReadableText(decoded) {
			return true
		}
	}
	return false
}

// decodeBase64Token: 패딩 유무와 URL-safe 알파벳을 모두 받아 디코딩합니다.
func decodeBase64Token(token string) ([]byte, bool) {
	token = strings.TrimRight(urlSafeToStd.Replace(token), "=")
	if token == "" || strings.Contains(token, "=") {
		return nil, false
	}
	decoded, err := base64.RawStdEncoding.DecodeString(token)
	if err != nil {
		return nil, false
	}
	return decoded, true
}

func isReadableText(data []byte) bool {
	if len(data) == 0 || !utf8.Valid(data) {
		return false
	}
	printable, total := 0, 0
	for _, r := range string(data) {
		total++
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	return printable*100 > total*readableRatio
}
