package fortune

import "strings"

// Omen 은 꿈의 길흉이다.
type Omen string

const (
	OmenAuspicious   Omen = "吉"
	OmenInauspicious Omen = "凶"
	OmenNeutral      Omen = "平"
)

// ParseOmen 은 모델이 쓴 길흉 표기를 정규화한다.
// 吉 과 凶 이 함께 있거나 판별할 수 없으면 平 이다.
func ParseOmen(value string) Omen {
	value = strings.ToLower(strings.TrimSpace(value))
	good := strings.Contains(value, "吉") || value == "auspicious" || value == "good"
	bad := strings.Contains(value, "凶") || value == "inauspicious" || value == "bad"
	switch {
	case good && !bad:
		return OmenAuspicious
	case bad && !good:
		return OmenInauspicious
	default:
		return OmenNeutral
	}
}

// Label 은 화면 표시용 문구다.
func (o Omen) Label() string {
	switch o {
	case OmenAuspicious:
		return "大吉"
	case OmenInauspicious:
		return "警示"
	default:
		return "平顺"
	}
}
