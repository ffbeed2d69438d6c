// Package extract 는 LLM 응답 텍스트에서 JSON 객체 하나를 찾아낸다.
package extract

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	json "github.com/goccy/go-json"
)

// ErrNoObject 는 응답에서 JSON 객체를 찾지 못했을 때 반환된다.
var ErrNoObject = errors.New("could not extract valid JSON object from response")

var (
	lineCommentPattern = regexp.MustCompile(`(?m)^\s*//.*$`)
	fencedPattern      = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
)

// Object: 텍스트에서 첫 번째로 해석 가능한 JSON 객체를 반환합니다.
//
// 순서는 다음과 같습니다.
//  1. `//` 로 시작하는 줄 주석 제거
//  2. 코드 펜스 내부
//  3. `{"` 로 시작하는 위치부터 뒤쪽 `}` 를 하나씩 줄여가며 시도
//  4. 첫 `{` 부터 마지막 `}` 까지 한 번 시도
func Object(text string) (map[string]any, error) {
	clean := lineCommentPattern.ReplaceAllString(text, "")

	if match := fencedPattern.FindStringSubmatch(clean); match != nil {
		if obj, ok := decodeObject(match[1]); ok {
			return obj, nil
		}
	}

	if start := objectStart(clean); start >= 0 {
		end := strings.LastIndexByte(clean, '}')
		for end > start {
			if obj, ok := decodeObject(clean[start : end+1]); ok {
				return obj, nil
			}
			end = strings.LastIndexByte(clean[:end], '}')
		}
	}

	first := strings.IndexByte(clean, '{')
	last := strings.LastIndexByte(clean, '}')
	if first >= 0 && last > first {
		if obj, ok := decodeObject(clean[first : last+1]); ok {
			return obj, nil
		}
	}

	return nil, ErrNoObject
}

// objectStart 는 다음 공백이 아닌 문자가 '"' 인 첫 '{' 위치를 찾는다.
func objectStart(text string) int {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		rest := strings.TrimLeftFunc(text[i+1:], unicode.IsSpace)
		if strings.HasPrefix(rest, `"`) {
			return i
		}
	}
	return -1
}

func decodeObject(candidate string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, false
	}
	if obj == nil {
		return nil, false
	}
	return obj, true
}
