package prompt

import (
	"fmt"
	"io/fs"
	"sort"
)

// Bundle: 도메인별 YAML 프롬프트 모음입니다. 이름은 파일명(확장자 제외)입니다.
type Bundle struct {
	label   string
	prompts map[string]map[string]string
}

// LoadBundle: fs 내 dir 디렉터리의 YAML 프롬프트들을 로드하여 Bundle로 반환합니다.
func LoadBundle(fsys fs.FS, dir string, label string) (*Bundle, error) {
	loaded, err := LoadYAMLDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("load %s prompts: %w", label, err)
	}
	if len(loaded) == 0 {
		return nil, fmt.Errorf("load %s prompts: no prompt files in %s", label, dir)
	}
	return &Bundle{label: label, prompts: loaded}, nil
}

// Names: 로드된 프롬프트 이름을 정렬해 반환합니다.
func (b *Bundle) Names() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.prompts))
	for name := range b.prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Field: 프롬프트 name 의 key 필드를 조회합니다.
func (b *Bundle) Field(name string, key string) (string, error) {
	if b == nil || b.prompts == nil {
		return "", fmt.Errorf("prompts not initialized")
	}
	data, ok := b.prompts[name]
	if !ok {
		return "", fmt.Errorf("%s prompt not found: %s", b.label, name)
	}
	value, ok := data[key]
	if !ok {
		return "", fmt.Errorf("%s prompt field missing: %s.%s", b.label, name, key)
	}
	return value, nil
}

// Template: 프롬프트 필드를 템플릿으로 컴파일합니다.
func (b *Bundle) Template(name string, key string) (*Template, error) {
	raw, err := b.Field(name, key)
	if err != nil {
		return nil, err
	}
	compiled, err := Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("%s prompt %s.%s: %w", b.label, name, key, err)
	}
	return compiled, nil
}
