package fortune

import (
	"strconv"
	"time"
)

// SolarTerms 는 입춘부터 대한까지의 24절기다.
var SolarTerms = [24]string{
	"立春", "雨水", "惊蛰", "春分", "清明", "谷雨",
	"立夏", "小满", "芒种", "夏至", "小暑", "大暑",
	"立秋", "处暑", "白露", "秋分", "寒露", "霜降",
	"立冬", "小雪", "大雪", "冬至", "小寒", "大寒",
}

// ApproxSolarTerm 은 양력 날짜로 근사한 절기 이름이다.
// 월마다 두 절기를 배정하고 16일부터 뒤 절기를 쓴다.
func ApproxSolarTerm(t time.Time) string {
	idx := (int(t.Month()) - 1) * 2
	if t.Day() > 15 {
		idx++
	}
	return SolarTerms[idx%len(SolarTerms)]
}

// LunarDateLabel 은 대체 결과에 쓰는 음력 표기 라벨이다. 실제 음력 변환은 하지 않는다.
func LunarDateLabel(t time.Time) string {
	return "农历" + strconv.Itoa(int(t.Month())) + "月" + strconv.Itoa(t.Day()) + "日"
}
