package fortune

import (
	"strings"
	"time"
)

// BirthHourUnknown 은 출생 시진을 모르는 경우의 값이다.
const BirthHourUnknown = "unknown"

// Shichen 은 하루를 12개로 나눈 2시간 단위 시진이다.
type Shichen struct {
	Key   string
	Name  string
	Range string
}

// Label 은 프롬프트에 쓰이는 표시 문자열이다.
func (s Shichen) Label() string {
	return s.Name + " (" + s.Range + ")"
}

// Shichens 는 자시부터 해시까지의 시진 표다. Key 는 입력 폼 값과 같다.
var Shichens = []Shichen{
	{Key: "23-1", Name: "子时", Range: "23:00-01:00"},
	{Key: "1-3", Name: "丑时", Range: "01:00-03:00"},
	{Key: "3-5", Name: "寅时", Range: "03:00-05:00"},
	{Key: "5-7", Name: "卯时", Range: "05:00-07:00"},
	{Key: "7-9", Name: "辰时", Range: "07:00-09:00"},
	{Key: "9-11", Name: "巳时", Range: "09:00-11:00"},
	{Key: "11-13", Name: "午时", Range: "11:00-13:00"},
	{Key: "13-15", Name: "未时", Range: "13:00-15:00"},
	{Key: "15-17", Name: "申时", Range: "15:00-17:00"},
	{Key: "17-19", Name: "酉时", Range: "17:00-19:00"},
	{Key: "19-21", Name: "戌时", Range: "19:00-21:00"},
	{Key: "21-23", Name: "亥时", Range: "21:00-23:00"},
}

// LookupShichen 은 폼 값 또는 시진 이름으로 시진을 찾는다.
func LookupShichen(value string) (Shichen, bool) {
	value = strings.TrimSpace(value)
	for _, s := range Shichens {
		if s.Key == value || s.Name == value {
			return s, true
		}
	}
	return Shichen{}, false
}

// ShichenAt 은 시각이 속한 시진을 반환한다.
func ShichenAt(t time.Time) Shichen {
	// 子时 는 23시에 시작한다.
	return Shichens[((t.Hour()+1)/2)%12]
}

// ValidBirthHour 는 시진 키 또는 unknown 인지 검사한다.
func ValidBirthHour(value string) bool {
	if strings.TrimSpace(value) == "" || value == BirthHourUnknown {
		return true
	}
	_, ok := LookupShichen(value)
	return ok
}

// Profile 은 점을 보는 사용자의 입력이다. 제출 후에는 변경하지 않는다.
type Profile struct {
	Name         string `json:"name"`
	Gender       string `json:"gender"`
	Age          string `json:"age"`
	Zodiac       string `json:"zodiac"`
	Intent       string `json:"intent"`
	DreamContent string `json:"dreamContent,omitempty"`
	BirthHour    string `json:"birthHour"`
	Mode         Mode   `json:"mode"`
}

// BirthHourLabel 은 출생 시진 표시 문자열을 반환한다.
func (p Profile) BirthHourLabel() string {
	value := strings.TrimSpace(p.BirthHour)
	if value == "" || value == BirthHourUnknown {
		return "时辰不详"
	}
	if s, ok := LookupShichen(value); ok {
		return s.Label()
	}
	return value
}

// Zodiacs 는 서양 별자리 목록이다.
var Zodiacs = []string{
	"白羊座", "金牛座", "双子座", "巨蟹座",
	"狮子座", "处女座", "天秤座", "天蝎座",
	"射手座", "摩羯座", "水瓶座", "双鱼座",
}

// 월별로 다음 별자리가 시작되는 날짜.
var zodiacCutoffs = [12]int{20, 19, 21, 20, 21, 22, 23, 23, 23, 24, 23, 22}

var zodiacBeforeCutoff = [12]string{
	"摩羯座", "水瓶座", "双鱼座", "白羊座", "金牛座", "双子座",
	"巨蟹座", "狮子座", "处女座", "天秤座", "天蝎座", "射手座",
}

// ZodiacFor 는 생일로 별자리를 계산한다.
func ZodiacFor(birth time.Time) string {
	idx := int(birth.Month()) - 1
	if birth.Day() < zodiacCutoffs[idx] {
		return zodiacBeforeCutoff[idx]
	}
	return zodiacBeforeCutoff[(idx+1)%12]
}

// AgeOn 은 now 기준 만 나이를 계산한다. 미래 생일은 0 이다.
func AgeOn(birth time.Time, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
