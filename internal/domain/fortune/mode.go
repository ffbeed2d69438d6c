package fortune

import "strings"

// Mode 는 점술 방식이다. 프롬프트 템플릿과 응답 형태를 결정한다.
type Mode string

const (
	// ModeDaily 는 사주(四柱八字)와 매화역수 기반 오늘의 운세다.
	ModeDaily Mode = "daily"
	// ModeZiWei 는 자미두수(紫微斗数) 명반 분석이다.
	ModeZiWei Mode = "ziwei"
	// ModeDream 은 주공해몽(周公解梦) 꿈 해석이다.
	ModeDream Mode = "dream"
)

// Modes 는 지원하는 모든 점술 방식이다.
var Modes = []Mode{ModeDaily, ModeZiWei, ModeDream}

// ParseMode 는 문자열을 점술 방식으로 변환한다.
// 알 수 없는 값은 ModeDaily 와 false 를 반환한다.
func ParseMode(value string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeDaily:
		return ModeDaily, true
	case ModeZiWei:
		return ModeZiWei, true
	case ModeDream:
		return ModeDream, true
	default:
		return ModeDaily, false
	}
}

// Valid 는 지원하는 방식인지 반환한다.
func (m Mode) Valid() bool {
	switch m {
	case ModeDaily, ModeZiWei, ModeDream:
		return true
	default:
		return false
	}
}

func (m Mode) String() string {
	return string(m)
}
