package prompt

import (
	"fmt"
	"strings"
)

type segment struct {
	text  string
	isKey bool
}

// Template: 미리 파싱된 프롬프트 템플릿입니다.
// 문법 오류는 Compile 시점에만 발생하고 Execute 는 실패하지 않습니다.
type Template struct {
	segments []segment
	keys     []string
}

// Compile: `{key}` 자리표시자와 `{{`/`}}` 이스케이프를 해석합니다.
func Compile(template string) (*Template, error) {
	compiled := &Template{}
	seen := make(map[string]struct{})
	var literal strings.Builder

	flush := func() {
		if literal.Len() == 0 {
			return
		}
		compiled.segments = append(compiled.segments, segment{text: literal.String()})
		literal.Reset()
	}

	for i := 0; i < len(template); {
		switch template[i] {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				literal.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("invalid template: missing '}'")
			}
			key := template[i+1 : i+1+end]
			if strings.TrimSpace(key) == "" || strings.ContainsAny(key, "{\n") {
				return nil, fmt.Errorf("invalid template key %q", key)
			}
			flush()
			compiled.segments = append(compiled.segments, segment{text: key, isKey: true})
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				compiled.keys = append(compiled.keys, key)
			}
			i += end + 2
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				literal.WriteByte('}')
				i += 2
				continue
			}
			return nil, fmt.Errorf("invalid template: unexpected '}'")
		default:
			literal.WriteByte(template[i])
			i++
		}
	}
	flush()

	return compiled, nil
}

// Keys: 템플릿이 참조하는 키 목록을 등장 순서대로 반환합니다.
func (t *Template) Keys() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.keys...)
}

// Missing: values 에 없는 키를 반환합니다.
func (t *Template) Missing(values map[string]string) []string {
	var missing []string
	for _, key := range t.Keys() {
		if _, ok := values[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Execute: 값을 치환합니다. 없는 키는 빈 문자열로 채웁니다.
func (t *Template) Execute(values map[string]string) string {
	if t == nil {
		return ""
	}
	var builder strings.Builder
	for _, seg := range t.segments {
		if seg.isKey {
			builder.WriteString(values[seg.text])
			continue
		}
		builder.WriteString(seg.text)
	}
	return builder.String()
}

// FormatTemplate: 템플릿 문자열을 값으로 치환합니다.
func FormatTemplate(template string, values map[string]string) (string, error) {
	compiled, err := Compile(template)
	if err != nil {
		return "", err
	}
	if missing := compiled.Missing(values); len(missing) > 0 {
		return "", fmt.Errorf("missing template value for %q", missing[0])
	}
	return compiled.Execute(values), nil
}

// ValidateSystemStatic: 시스템 프롬프트의 템플릿 사용 여부를 검사합니다.
func ValidateSystemStatic(name string, system string) error {
	compiled, err := Compile(system)
	if err != nil {
		return fmt.Errorf("%s: invalid system prompt template syntax", name)
	}
	if keys := compiled.Keys(); len(keys) > 0 {
		return fmt.Errorf("%s: system prompt must not contain template variables %q", name, keys[0])
	}
	return nil
}
