package prompt

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadYAMLMapping 는 프롬프트 YAML 파일을 평면 문자열 맵으로 로드한다.
// 값은 스칼라만 허용한다.
func LoadYAMLMapping(fsys fs.FS, filePath string) (map[string]string, error) {
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse prompt yaml %s: %w", filePath, err)
	}

	mapping := make(map[string]string, len(raw))
	for key, value := range raw {
		switch typed := value.(type) {
		case nil:
			mapping[key] = ""
		case map[string]any, []any:
			return nil, fmt.Errorf("%s: field %q must be a scalar", filePath, key)
		case string:
			mapping[key] = strings.TrimRight(typed, "\n")
		default:
			mapping[key] = fmt.Sprint(typed)
		}
	}

	if system, ok := mapping["system"]; ok && strings.TrimSpace(system) != "" {
		if err := ValidateSystemStatic(filePath, system); err != nil {
			return nil, err
		}
	}

	return mapping, nil
}

// LoadYAMLDir 는 디렉터리의 프롬프트 YAML 을 로드한다.
func LoadYAMLDir(fsys fs.FS, dir string) (map[string]map[string]string, error) {
	var paths []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := fs.Glob(fsys, path.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob prompt dir: %w", err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	prompts := make(map[string]map[string]string, len(paths))
	for _, filePath := range paths {
		promptName := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
		if _, dup := prompts[promptName]; dup {
			return nil, fmt.Errorf("duplicate prompt name: %s", promptName)
		}
		mapping, err := LoadYAMLMapping(fsys, filePath)
		if err != nil {
			return nil, err
		}
		prompts[promptName] = mapping
	}
	return prompts, nil
}
