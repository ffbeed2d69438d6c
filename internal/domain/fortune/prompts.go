package fortune

import (
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/prompt"
)

//go:embed prompts/*.yml
var promptFS embed.FS

// NowLayout 은 프롬프트의 "当前时间" 표기 형식이다.
const NowLayout = "2006/1/2 15:04:05"

const (
	defaultName        = "善信"
	defaultZiWeiIntent = "紫微流年运势"
	defaultDailyIntent = "今日运势"
)

// PromptPair 는 한 번의 호출에 쓰는 system/user 프롬프트다.
type PromptPair struct {
	System string
	User   string
}

// Prompts 는 방식별로 미리 컴파일된 프롬프트 묶음이다.
type Prompts struct {
	system map[Mode]string
	user   map[Mode]*prompt.Template
}

// NewPrompts 는 내장 YAML 프롬프트를 로드하고 모든 템플릿을 컴파일한다.
// 템플릿 오류는 여기서만 발생하며 Build 는 실패하지 않는다.
func NewPrompts() (*Prompts, error) {
	bundle, err := prompt.LoadBundle(promptFS, "prompts", "fortune")
	if err != nil {
		return nil, err
	}

	base, err := bundle.Field("system", "base")
	if err != nil {
		return nil, err
	}

	p := &Prompts{
		system: make(map[Mode]string, len(Modes)),
		user:   make(map[Mode]*prompt.Template, len(Modes)),
	}
	for _, mode := range Modes {
		addendum, err := bundle.Field("system", mode.String())
		if err != nil {
			return nil, err
		}
		if err := prompt.ValidateSystemStatic("system."+mode.String(), addendum); err != nil {
			return nil, err
		}
		p.system[mode] = strings.TrimSpace(base) + "\n" + strings.TrimSpace(addendum)

		tmpl, err := bundle.Template(mode.String(), "user")
		if err != nil {
			return nil, err
		}
		if missing := tmpl.Missing(userValues(Profile{Mode: mode}, time.Time{})); len(missing) > 0 {
			return nil, fmt.Errorf("fortune prompt %s.user: unknown key %q", mode, missing[0])
		}
		p.user[mode] = tmpl
	}
	return p, nil
}

// Build 는 프로필과 현재 시각으로 프롬프트를 만든다.
// 알 수 없는 방식은 daily 로 취급한다.
func (p *Prompts) Build(profile Profile, now time.Time) PromptPair {
	mode := profile.Mode
	if !mode.Valid() {
		mode = ModeDaily
		profile.Mode = mode
	}
	return PromptPair{
		System: p.system[mode],
		User:   p.user[mode].Execute(userValues(profile, now)),
	}
}

func userValues(profile Profile, now time.Time) map[string]string {
	intent := strings.TrimSpace(profile.Intent)
	if intent == "" {
		if profile.Mode == ModeZiWei {
			intent = defaultZiWeiIntent
		} else {
			intent = defaultDailyIntent
		}
	}
	return map[string]string{
		"name":         orDefault(profile.Name, defaultName),
		"gender":       strings.TrimSpace(profile.Gender),
		"age":          strings.TrimSpace(profile.Age),
		"zodiac":       strings.TrimSpace(profile.Zodiac),
		"birthHour":    profile.BirthHourLabel(),
		"now":          now.Format(NowLayout),
		"intent":       intent,
		"dreamContent": strings.TrimSpace(profile.DreamContent),
	}
}
