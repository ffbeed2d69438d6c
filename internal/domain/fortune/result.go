package fortune

import "time"

// Source 는 결과가 어디서 왔는지 나타낸다.
type Source string

const (
	// SourceOracle 은 LLM 응답을 정규화한 결과다.
	SourceOracle Source = "oracle"
	// SourceFallback 은 실패 시 대체한 고정 결과다.
	SourceFallback Source = "fallback"
)

// DefaultScore 는 점수 필드가 없을 때 쓰는 중립값이다.
const DefaultScore = 50

// Scores 는 재물/사업/연애/건강 4축 점수다. 각 값은 [0,100].
type Scores struct {
	Wealth int `json:"wealth"`
	Career int `json:"career"`
	Love   int `json:"love"`
	Health int `json:"health"`
}

// DefaultScores 는 모든 축이 50 인 점수를 반환한다.
func DefaultScores() Scores {
	return Scores{Wealth: DefaultScore, Career: DefaultScore, Love: DefaultScore, Health: DefaultScore}
}

// ZiWeiData 는 자미두수 명반 요약이다.
type ZiWeiData struct {
	LifePalace   string   `json:"lifePalace"`
	BodyPalace   string   `json:"bodyPalace"`
	LuckyStars   []string `json:"luckyStars"`
	UnluckyStars []string `json:"unluckyStars"`
	Decade       string   `json:"decade"`
	Analysis     string   `json:"analysis"`
}

// DreamData 는 해몽 결과다.
type DreamData struct {
	Title          string   `json:"title"`
	Elements       []string `json:"elements"`
	Interpretation string   `json:"interpretation"`
	Omen           Omen     `json:"omen"`
	Action         string   `json:"action"`
}

// BaZiChart 는 사주 팔자 명식이다.
type BaZiChart struct {
	Year              string `json:"year"`
	Month             string `json:"month"`
	Day               string `json:"day"`
	Hour              string `json:"hour"`
	DayMaster         string `json:"dayMaster"`
	DayMasterStrength string `json:"dayMasterStrength"`
}

// FiveElements 는 오행 비율이다. 합이 100 일 필요는 없다.
type FiveElements struct {
	Metal float64 `json:"metal"`
	Wood  float64 `json:"wood"`
	Water float64 `json:"water"`
	Fire  float64 `json:"fire"`
	Earth float64 `json:"earth"`
}

// Advice 는 생활/사업/관계 조언이다.
type Advice struct {
	Life          string `json:"life"`
	Career        string `json:"career"`
	Relationships string `json:"relationships"`
}

// HourAnalysis 는 현재 시진 분석이다.
type HourAnalysis struct {
	Shichen        string `json:"shichen"`
	BaguaDirection string `json:"baguaDirection"`
	Element        string `json:"element"`
	Emotion        string `json:"emotion"`
	Health         string `json:"health"`
	Decision       string `json:"decision"`
}

// Result 는 한 번의 점괘 결과다.
// ZiWei 와 Dream 은 동시에 채워지지 않는다. LuckyImage 는 이미지 생성이 끝난 뒤 채워진다.
type Result struct {
	ID        string    `json:"id,omitempty"`
	Mode      Mode      `json:"mode"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`

	LuckyColor            string   `json:"luckyColor"`
	ColorExplanation      string   `json:"colorExplanation"`
	LuckyNumbers          []int    `json:"luckyNumbers"`
	Direction             string   `json:"direction"`
	DirectionSignificance string   `json:"directionSignificance"`
	Reminder              string   `json:"reminder"`
	Rating                int      `json:"rating"`
	LuckyImage            string   `json:"luckyImage,omitempty"`
	HexagramCode          string   `json:"hexagramCode"`
	HexagramName          string   `json:"hexagramName"`
	LuckyTime             string   `json:"luckyTime"`
	LunarDate             string   `json:"lunarDate"`
	SolarTerm             string   `json:"solarTerm"`
	Yi                    []string `json:"yi"`
	Ji                    []string `json:"ji"`
	LuckyStars            []string `json:"luckyStars"`
	Scores                Scores   `json:"scores"`

	ZiWei *ZiWeiData `json:"ziwei,omitempty"`
	Dream *DreamData `json:"dream,omitempty"`

	BaZi         *BaZiChart    `json:"bazi,omitempty"`
	FiveElements *FiveElements `json:"fiveElements,omitempty"`
	Advice       *Advice       `json:"advice,omitempty"`
	CurrentHour  *HourAnalysis `json:"currentHourAnalysis,omitempty"`
}

// WithImage 는 이미지가 채워진 사본을 반환한다.
func (r Result) WithImage(url string) Result {
	r.LuckyImage = url
	return r
}

// Hexagram 은 괘 코드를 해석한 결과를 반환한다.
func (r Result) Hexagram() Hexagram {
	return DecodeHexagram(r.HexagramCode)
}
