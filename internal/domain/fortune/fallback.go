package fortune

import "time"

// Fallback 은 호출 실패 시 돌려줄 고정 결과를 만든다.
// 날짜 라벨은 now 로, 이미지는 호출자가 고른 image 로 채운다.
func Fallback(mode Mode, now time.Time, image string) Result {
	if !mode.Valid() {
		mode = ModeDaily
	}

	result := Result{
		Mode:                  mode,
		Source:                SourceFallback,
		CreatedAt:             now,
		LuckyColor:            "🍂 玄黄",
		ColorExplanation:      "天地玄黄，宇宙洪荒，积蓄力量。",
		LuckyNumbers:          []int{1, 6, 8},
		Direction:             "正南",
		DirectionSignificance: "离火生财，光明普照。",
		Reminder:              "🍵 静坐常思己过，闲谈莫论人非，心如止水，万事皆安。",
		Rating:                4,
		LuckyImage:            image,
		HexagramCode:          "000000",
		HexagramName:          "坤为地",
		LuckyTime:             "巳时",
		LunarDate:             LunarDateLabel(now),
		SolarTerm:             ApproxSolarTerm(now),
		Yi:                    []string{"静修", "读书"},
		Ji:                    []string{"远行", "动土"},
		LuckyStars:            []string{"福星"},
		Scores:                Scores{Wealth: 70, Career: 75, Love: 60, Health: 85},
	}

	switch mode {
	case ModeZiWei:
		result.HexagramName = "紫微星拱照"
		result.ZiWei = &ZiWeiData{
			LifePalace:   "紫微",
			BodyPalace:   "天府",
			LuckyStars:   []string{"左辅", "文曲"},
			UnluckyStars: []string{"地劫"},
			Decade:       "暂无数据，需精确时辰",
			Analysis:     "紫微星坐命，气宇轩昂，但也需注意人际关系的和谐。",
		}
	case ModeDream:
		result.HexagramName = "梦兆"
		result.Dream = &DreamData{
			Title:          "吉梦",
			Elements:       []string{"云雾", "登山"},
			Interpretation: "梦见登山，主步步高升。",
			Omen:           OmenAuspicious,
			Action:         "把握机会，勇往直前。",
		}
	default:
		result.BaZi = &BaZiChart{
			Year:              "甲辰",
			Month:             "未知",
			Day:               "未知",
			Hour:              "未知",
			DayMaster:         "未知",
			DayMasterStrength: "平",
		}
		result.FiveElements = &FiveElements{Metal: 20, Wood: 20, Water: 20, Fire: 20, Earth: 20}
		result.Advice = &Advice{Life: "宜静", Career: "守成", Relationships: "和睦"}
		result.CurrentHour = &HourAnalysis{
			Shichen:        "未知",
			BaguaDirection: "中",
			Element:        "土",
			Emotion:        "平",
			Health:         "安",
			Decision:       "缓",
		}
	}

	return result
}
