package fortune

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// 응답 판정에 쓰는 최상위 키. 하나도 없으면 점괘로 쓸 수 없다.
var usableKeys = []string{
	"luckyColor", "reminder", "hexagramName", "hexagramCode", "scores", "ziwei", "dream",
}

// Usable 은 추출된 객체가 점괘 형태를 갖췄는지 검사한다.
func Usable(raw map[string]any) bool {
	if len(raw) == 0 {
		return false
	}
	for _, key := range usableKeys {
		if value, ok := raw[key]; ok && value != nil {
			return true
		}
	}
	return false
}

type rawResult struct {
	LuckyColor            string         `json:"luckyColor"`
	ColorExplanation      string         `json:"colorExplanation"`
	LuckyNumbers          any            `json:"luckyNumbers"`
	Direction             string         `json:"direction"`
	DirectionSignificance string         `json:"directionSignificance"`
	Reminder              string         `json:"reminder"`
	Rating                any            `json:"rating"`
	HexagramCode          string         `json:"hexagramCode"`
	HexagramName          string         `json:"hexagramName"`
	LuckyTime             string         `json:"luckyTime"`
	LunarDate             string         `json:"lunarDate"`
	SolarTerm             string         `json:"solarTerm"`
	Yi                    any            `json:"yi"`
	Ji                    any            `json:"ji"`
	LuckyStars            any            `json:"luckyStars"`
	Scores                map[string]any `json:"scores"`
	ZiWei                 *rawZiWei      `json:"ziwei"`
	Dream                 *rawDream      `json:"dream"`
	BaZi                  *BaZiChart     `json:"bazi"`
	FiveElements          map[string]any `json:"fiveElements"`
	Advice                *Advice        `json:"advice"`
	CurrentHour           *HourAnalysis  `json:"currentHourAnalysis"`
}

type rawZiWei struct {
	LifePalace   string `json:"lifePalace"`
	BodyPalace   string `json:"bodyPalace"`
	LuckyStars   any    `json:"luckyStars"`
	UnluckyStars any    `json:"unluckyStars"`
	Decade       string `json:"decade"`
	Analysis     string `json:"analysis"`
}

type rawDream struct {
	Title          string `json:"title"`
	Elements       any    `json:"elements"`
	Interpretation string `json:"interpretation"`
	Omen           string `json:"omen"`
	Action         string `json:"action"`
}

// Normalize 는 추출 직후 한 번 실행되는 기본값 채우기 단계다.
// 디코딩할 수 없는 필드는 기본값으로 남고 실패하지 않는다.
// 점수는 없으면 50, 괘 코드는 6자리, 방식에 맞지 않는 페이로드는 버린다.
func Normalize(raw map[string]any, mode Mode, now time.Time) Result {
	if !mode.Valid() {
		mode = ModeDaily
	}
	base := Fallback(mode, now, "")

	var decoded rawResult
	decodeLoose(raw, &decoded)

	result := Result{
		Mode:                  mode,
		Source:                SourceOracle,
		CreatedAt:             now,
		LuckyColor:            orDefault(decoded.LuckyColor, base.LuckyColor),
		ColorExplanation:      orDefault(decoded.ColorExplanation, base.ColorExplanation),
		LuckyNumbers:          toIntList(decoded.LuckyNumbers),
		Direction:             orDefault(decoded.Direction, base.Direction),
		DirectionSignificance: orDefault(decoded.DirectionSignificance, base.DirectionSignificance),
		Reminder:              orDefault(decoded.Reminder, base.Reminder),
		Rating:                normalizeRating(decoded.Rating),
		HexagramCode:          PadHexagram(decoded.HexagramCode),
		LuckyTime:             orDefault(decoded.LuckyTime, base.LuckyTime),
		LunarDate:             orDefault(decoded.LunarDate, base.LunarDate),
		SolarTerm:             orDefault(decoded.SolarTerm, base.SolarTerm),
		Yi:                    toStringList(decoded.Yi),
		Ji:                    toStringList(decoded.Ji),
		LuckyStars:            toStringList(decoded.LuckyStars),
		Scores:                normalizeScores(decoded.Scores),
		BaZi:                  decoded.BaZi,
		Advice:                decoded.Advice,
		CurrentHour:           decoded.CurrentHour,
	}
	result.HexagramName = orDefault(decoded.HexagramName, DecodeHexagram(result.HexagramCode).Name)
	if len(result.LuckyNumbers) == 0 {
		result.LuckyNumbers = base.LuckyNumbers
	}
	if decoded.FiveElements != nil {
		result.FiveElements = normalizeFiveElements(decoded.FiveElements)
	}

	switch mode {
	case ModeZiWei:
		result.ZiWei = normalizeZiWei(decoded.ZiWei, base.ZiWei)
	case ModeDream:
		result.Dream = normalizeDream(decoded.Dream, base.Dream)
	}

	return result
}

func decodeLoose(input map[string]any, out any) {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return
	}
	// 필드별 오류는 무시한다. 성공한 필드는 그대로 남는다.
	_ = decoder.Decode(input)
}

func normalizeZiWei(raw *rawZiWei, base *ZiWeiData) *ZiWeiData {
	if raw == nil {
		copied := *base
		return &copied
	}
	data := &ZiWeiData{
		LifePalace:   orDefault(raw.LifePalace, base.LifePalace),
		BodyPalace:   orDefault(raw.BodyPalace, base.BodyPalace),
		LuckyStars:   toStringList(raw.LuckyStars),
		UnluckyStars: toStringList(raw.UnluckyStars),
		Decade:       orDefault(raw.Decade, base.Decade),
		Analysis:     orDefault(raw.Analysis, base.Analysis),
	}
	return data
}

func normalizeDream(raw *rawDream, base *DreamData) *DreamData {
	if raw == nil {
		copied := *base
		return &copied
	}
	return &DreamData{
		Title:          orDefault(raw.Title, base.Title),
		Elements:       toStringList(raw.Elements),
		Interpretation: orDefault(raw.Interpretation, base.Interpretation),
		Omen:           ParseOmen(raw.Omen),
		Action:         orDefault(raw.Action, base.Action),
	}
}

func normalizeScores(raw map[string]any) Scores {
	scores := DefaultScores()
	if raw == nil {
		return scores
	}
	assign := func(key string, target *int) {
		if value, ok := toFloat(raw[key]); ok {
			*target = clampInt(int(math.Round(value)), 0, 100)
		}
	}
	assign("wealth", &scores.Wealth)
	assign("career", &scores.Career)
	assign("love", &scores.Love)
	assign("health", &scores.Health)
	return scores
}

// 평점은 1..5 별점이다. 없으면 중간값 3.
func normalizeRating(raw any) int {
	value, ok := toFloat(raw)
	if !ok {
		return 3
	}
	return clampInt(int(math.Round(value)), 1, 5)
}

func normalizeFiveElements(raw map[string]any) *FiveElements {
	value := func(key string) float64 {
		v, ok := toFloat(raw[key])
		if !ok || v < 0 {
			return 0
		}
		return v
	}
	return &FiveElements{
		Metal: value("metal"),
		Wood:  value("wood"),
		Water: value("water"),
		Fire:  value("fire"),
		Earth: value("earth"),
	}
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case interface{ Float64() (float64, error) }:
		f, err := v.Float64()
		return f, err == nil
	case string:
		text := strings.TrimSpace(v)
		text = strings.TrimSuffix(text, "%")
		text = strings.TrimSuffix(text, "分")
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toIntList(raw any) []int {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case string:
		for _, part := range splitList(v) {
			items = append(items, part)
		}
	default:
		if value, ok := toFloat(raw); ok {
			items = []any{value}
		}
	}

	numbers := make([]int, 0, len(items))
	for _, item := range items {
		if value, ok := toFloat(item); ok {
			numbers = append(numbers, int(math.Round(value)))
		}
	}
	return numbers
}

func toStringList(raw any) []string {
	switch v := raw.(type) {
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			switch text := item.(type) {
			case string:
				if trimmed := strings.TrimSpace(text); trimmed != "" {
					items = append(items, trimmed)
				}
			case float64, int, bool:
				items = append(items, strings.TrimSpace(toText(text)))
			}
		}
		return items
	case []string:
		return splitList(strings.Join(v, ","))
	case string:
		return splitList(v)
	default:
		return []string{}
	}
}

func toText(value any) string {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// 쉼표, 전각 쉼표, 모점, 세미콜론으로 나눈다.
func splitList(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		switch r {
		case ',', '，', '、', ';', '；', '\n':
			return true
		default:
			return false
		}
	})
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func orDefault(value string, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func clampInt(value int, lo int, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
