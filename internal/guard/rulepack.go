package guard

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"gopkg.in/yaml.v3"
)

//go:embed rulepacks/*.yml
var builtinRulepacks embed.FS

// 룰 종류.
const (
	ruleTypeRegex   = "regex"
	ruleTypePhrases = "phrases"
)

// rulepackFile 은 YAML 룰팩 파일 형식이다.
type rulepackFile struct {
	Version   int        `yaml:"version"`
	Threshold float64    `yaml:"threshold"`
	Rules     []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	ID      string   `yaml:"id"`
	Type    string   `yaml:"type"`
	Pattern string   `yaml:"pattern"`
	Phrases []string `yaml:"phrases"`
	Weight  float64  `yaml:"weight"`
}

type regexRule struct {
	id      string
	pattern *regexp.Regexp
	weight  float64
}

// phraseEntry 는 ahocorasick 사전 항목 하나가 어느 룰에 속하는지 기록한다.
type phraseEntry struct {
	ruleID string
	weight float64
}

// rulepack 은 컴파일된 룰팩이다. 점수는 맞은 룰의 가중치 합이다.
// 구문 룰은 여러 구문이 맞아도 룰마다 한 번만 더한다.
type rulepack struct {
	threshold float64
	regexes   []regexRule
	matcher   *ahocorasick.Matcher
	phrases   []phraseEntry
}

// score 는 정규화된 입력에 대한 점수와 맞은 룰 목록을 돌려준다.
func (p rulepack) score(text string) (float64, []Match) {
	var (
		total float64
		hits  []Match
	)
	for _, rule := range p.regexes {
		if rule.pattern.MatchString(text) {
			total += rule.weight
			hits = append(hits, Match{ID: rule.id, Kind: MatchRegex, Weight: rule.weight})
		}
	}

	if p.matcher == nil {
		return total, hits
	}
	seen := make(map[string]struct{})
	for _, index := range p.matcher.MatchThreadSafe([]byte(strings.ToLower(text))) {
		if index < 0 || index >= len(p.phrases) {
			continue
		}
		entry := p.phrases[index]
		if _, dup := seen[entry.ruleID]; dup || entry.weight <= 0 {
			continue
		}
		seen[entry.ruleID] = struct{}{}
		total += entry.weight
		hits = append(hits, Match{ID: entry.ruleID, Kind: MatchPhrase, Weight: entry.weight})
	}
	return total, hits
}

// rulepackSource: 디렉터리에 룰팩이 있으면 그것을, 없으면 내장 룰팩을 고릅니다.
func rulepackSource(dir string) (fs.FS, string) {
	if dir = strings.TrimSpace(dir); dir != "" {
		dirFS := os.DirFS(dir)
		if len(rulepackFiles(dirFS)) > 0 {
			return dirFS, dir
		}
	}
	sub, err := fs.Sub(builtinRulepacks, "rulepacks")
	if err != nil {
		return builtinRulepacks, "builtin"
	}
	return sub, "builtin"
}

// loadRulepacks 는 fsys 의 모든 룰팩을 읽는다. 읽거나 컴파일하지 못한 파일은 경고만 남기고 건너뛴다.
func loadRulepacks(fsys fs.FS, logger *slog.Logger) []rulepack {
	paths := rulepackFiles(fsys)
	if len(paths) == 0 {
		logger.Warn("rulepacks_not_found")
		return nil
	}

	packs := make([]rulepack, 0, len(paths))
	for _, path := range paths {
		pack, err := readRulepack(fsys, path, logger)
		if err != nil {
			logger.Warn("rulepack_load_failed", "path", path, "err", err)
			continue
		}
		packs = append(packs, pack)
	}
	return packs
}

func readRulepack(fsys fs.FS, path string, logger *slog.Logger) (rulepack, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return rulepack{}, fmt.Errorf("read rulepack: %w", err)
	}
	var file rulepackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return rulepack{}, fmt.Errorf("parse rulepack: %w", err)
	}
	return compileRulepack(file, logger)
}

func rulepackFiles(fsys fs.FS) []string {
	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := fs.Glob(fsys, pattern)
		if err == nil {
			files = append(files, matches...)
		}
	}
	slices.Sort(files)
	return files
}

// compileRulepack 은 룰팩 파일을 컴파일한다.
// 형식이 잘못된 룰은 룰팩 전체를 거부하고, 패턴만 깨진 정규식 룰은 건너뛴다.
func compileRulepack(file rulepackFile, logger *slog.Logger) (rulepack, error) {
	pack := rulepack{threshold: file.Threshold}
	if pack.threshold <= 0 {
		pack.threshold = defaultThreshold
	}

	var patterns [][]byte
	for _, rule := range file.Rules {
		if rule.ID == "" {
			return rulepack{}, errors.New("rule without id")
		}
		switch strings.ToLower(strings.TrimSpace(rule.Type)) {
		case ruleTypeRegex:
			if rule.Pattern == "" {
				return rulepack{}, fmt.Errorf("regex rule %s has no pattern", rule.ID)
			}
			pattern, err := regexp.Compile("(?i)" + rule.Pattern)
			if err != nil {
				logger.Warn("rulepack_regex_invalid", "rule_id", rule.ID, "err", err)
				continue
			}
			pack.regexes = append(pack.regexes, regexRule{id: rule.ID, pattern: pattern, weight: rule.Weight})
		case ruleTypePhrases:
			if len(rule.Phrases) == 0 {
				return rulepack{}, fmt.Errorf("phrases rule %s has no phrases", rule.ID)
			}
			for _, phrase := range rule.Phrases {
				patterns = append(patterns, []byte(strings.ToLower(phrase)))
				pack.phrases = append(pack.phrases, phraseEntry{ruleID: rule.ID, weight: rule.Weight})
			}
		default:
			return rulepack{}, fmt.Errorf("unknown rule type: %s", rule.Type)
		}
	}

	if len(patterns) > 0 {
		pack.matcher = ahocorasick.NewMatcher(patterns)
	}
	return pack, nil
}
