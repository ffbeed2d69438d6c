package fortune

import "strings"

// HexagramLength 는 괘 코드 길이다.
const HexagramLength = 6

// Trigram 은 팔괘 중 하나다. Lines 는 아래에서 위 순서이고 1 이 양효다.
type Trigram struct {
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Nature    string    `json:"nature"`
	Symbol    string    `json:"symbol"`
	Lines     [3]int    `json:"lines"`
	Mountains [3]string `json:"mountains"`
	LoShu     int       `json:"loShuNumber"`
	Element   string    `json:"element"`
	Quote     string    `json:"quote"`
}

// Trigrams 는 후천팔괘 배열 순서(离 에서 시작해 시계 방향)다.
var Trigrams = []Trigram{
	{Name: "离", Image: "火", Nature: "火", Symbol: "☲", Lines: [3]int{1, 0, 1}, Mountains: [3]string{"丙", "午", "丁"}, LoShu: 9, Element: "Fire", Quote: "日月丽乎天，百谷草木丽乎土。"},
	{Name: "坤", Image: "地", Nature: "土", Symbol: "☷", Lines: [3]int{0, 0, 0}, Mountains: [3]string{"未", "坤", "申"}, LoShu: 2, Element: "Earth", Quote: "地势坤，君子以厚德载物。"},
	{Name: "兑", Image: "泽", Nature: "金", Symbol: "☱", Lines: [3]int{1, 1, 0}, Mountains: [3]string{"庚", "酉", "辛"}, LoShu: 7, Element: "Metal", Quote: "丽泽兑，君子以朋友讲习。"},
	{Name: "乾", Image: "天", Nature: "金", Symbol: "☰", Lines: [3]int{1, 1, 1}, Mountains: [3]string{"戌", "乾", "亥"}, LoShu: 6, Element: "Metal", Quote: "天行健，君子以自强不息。"},
	{Name: "坎", Image: "水", Nature: "水", Symbol: "☵", Lines: [3]int{0, 1, 0}, Mountains: [3]string{"壬", "子", "癸"}, LoShu: 1, Element: "Water", Quote: "水流而不盈，行险而不失其信。"},
	{Name: "艮", Image: "山", Nature: "土", Symbol: "☶", Lines: [3]int{0, 0, 1}, Mountains: [3]string{"丑", "艮", "寅"}, LoShu: 8, Element: "Earth", Quote: "艮其背，不获其身，行其庭，不见其人。"},
	{Name: "震", Image: "雷", Nature: "木", Symbol: "☳", Lines: [3]int{1, 0, 0}, Mountains: [3]string{"甲", "卯", "乙"}, LoShu: 3, Element: "Wood", Quote: "震惊百里，不丧匕鬯。"},
	{Name: "巽", Image: "风", Nature: "木", Symbol: "☴", Lines: [3]int{0, 1, 1}, Mountains: [3]string{"辰", "巽", "巳"}, LoShu: 4, Element: "Wood", Quote: "随风巽，君子以申命行事。"},
}

// hexagramNames 는 "상괘+하괘" 이름을 괘명으로 매핑한다.
var hexagramNames = map[string]string{
	"乾乾": "乾为天", "乾坤": "天地否", "乾震": "天雷无妄", "乾巽": "天风姤",
	"乾坎": "天水讼", "乾离": "天火同人", "乾艮": "天山遁", "乾兑": "天泽履",
	"坤乾": "地天泰", "坤坤": "坤为地", "坤震": "地雷复", "坤巽": "地风升",
	"坤坎": "地水师", "坤离": "地火明夷", "坤艮": "地山谦", "坤兑": "地泽临",
	"震乾": "雷天大壮", "震坤": "雷地豫", "震震": "震为雷", "震巽": "雷风恒",
	"震坎": "雷水解", "震离": "雷火丰", "震艮": "雷山小过", "震兑": "雷泽归妹",
	"巽乾": "风天小畜", "巽坤": "风地观", "巽震": "风雷益", "巽巽": "巽为风",
	"巽坎": "风水涣", "巽离": "风火家人", "巽艮": "风山渐", "巽兑": "风泽中孚",
	"坎乾": "水天需", "坎坤": "水地比", "坎震": "水雷屯", "坎巽": "水风井",
	"坎坎": "坎为水", "坎离": "水火既济", "坎艮": "水山蹇", "坎兑": "水泽节",
	"离乾": "火天大有", "离坤": "火地晋", "离震": "火雷噬嗑", "离巽": "火风鼎",
	"离坎": "火水未济", "离离": "离为火", "离艮": "火山旅", "离兑": "火泽睽",
	"艮乾": "山天大畜", "艮坤": "山地剥", "艮震": "山雷颐", "艮巽": "山风蛊",
	"艮坎": "山水蒙", "艮离": "山火贲", "艮艮": "艮为山", "艮兑": "山泽损",
	"兑乾": "泽天夬", "兑坤": "泽地萃", "兑震": "泽雷随", "兑巽": "泽风大过",
	"兑坎": "泽水困", "兑离": "泽火革", "兑艮": "泽山咸", "兑兑": "兑为泽",
}

// Hexagram 은 괘 코드를 해석한 결과다.
type Hexagram struct {
	Code  string  `json:"code"`
	Lines [6]int  `json:"lines"`
	Lower Trigram `json:"lower"`
	Upper Trigram `json:"upper"`
	Name  string  `json:"name"`
}

// PadHexagram 은 괘 코드를 정확히 6자리 0/1 문자열로 맞춘다.
// 0/1 이 아닌 문자는 버리고, 짧으면 오른쪽을 '0' 으로 채우고, 길면 자른다.
func PadHexagram(code string) string {
	var b strings.Builder
	b.Grow(HexagramLength)
	for _, r := range code {
		if b.Len() == HexagramLength {
			break
		}
		if r == '0' || r == '1' {
			b.WriteRune(r)
		}
	}
	for b.Len() < HexagramLength {
		b.WriteByte('0')
	}
	return b.String()
}

// DecodeHexagram 은 괘 코드를 효와 상하괘로 분해한다. 코드는 먼저 PadHexagram 으로 정규화된다.
func DecodeHexagram(code string) Hexagram {
	padded := PadHexagram(code)
	var lines [6]int
	for i := 0; i < HexagramLength; i++ {
		if padded[i] == '1' {
			lines[i] = 1
		}
	}
	lower := trigramFor([3]int{lines[0], lines[1], lines[2]})
	upper := trigramFor([3]int{lines[3], lines[4], lines[5]})
	return Hexagram{
		Code:  padded,
		Lines: lines,
		Lower: lower,
		Upper: upper,
		Name:  hexagramNames[upper.Name+lower.Name],
	}
}

func trigramFor(lines [3]int) Trigram {
	for _, t := range Trigrams {
		if t.Lines == lines {
			return t
		}
	}
	// 8 개 조합이 모두 표에 있으므로 도달하지 않는다.
	return Trigrams[1]
}
