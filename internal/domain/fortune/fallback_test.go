package fortune

import (
	"testing"
	"time"
)

func TestFallbackIsModeScoped(t *testing.T) {
	now := time.Date(2025, time.August, 20, 12, 0, 0, 0, time.UTC)
	for _, mode := range Modes {
		result := Fallback(mode, now, "img")
		if result.Mode != mode || result.Source != SourceFallback {
			t.Fatalf("unexpected mode/source: %s %s", result.Mode, result.Source)
		}
		if result.LuckyImage != "img" {
			t.Fatalf("unexpected image: %s", result.LuckyImage)
		}
		if (result.ZiWei != nil) != (mode == ModeZiWei) {
			t.Fatalf("%s: ziwei payload mismatch", mode)
		}
		if (result.Dream != nil) != (mode == ModeDream) {
			t.Fatalf("%s: dream payload mismatch", mode)
		}
		if (result.BaZi != nil) != (mode == ModeDaily) {
			t.Fatalf("%s: bazi payload mismatch", mode)
		}
	}
}

func TestFallbackValues(t *testing.T) {
	now := time.Date(2025, time.August, 20, 12, 0, 0, 0, time.UTC)

	daily := Fallback(ModeDaily, now, "")
	if daily.HexagramName != "坤为地" || daily.HexagramCode != "000000" || daily.Rating != 4 {
		t.Fatalf("unexpected base record: %+v", daily)
	}
	if daily.Scores != (Scores{Wealth: 70, Career: 75, Love: 60, Health: 85}) {
		t.Fatalf("unexpected scores: %+v", daily.Scores)
	}
	if daily.LunarDate != "农历8月20日" {
		t.Fatalf("unexpected lunar date: %s", daily.LunarDate)
	}
	// 8월 후반은 index 15
	if daily.SolarTerm != "秋分" {
		t.Fatalf("unexpected solar term: %s", daily.SolarTerm)
	}
	if daily.FiveElements.Earth != 20 || daily.Advice.Career != "守成" || daily.CurrentHour.Element != "土" {
		t.Fatalf("unexpected daily auxiliaries: %+v", daily)
	}

	if got := Fallback(ModeZiWei, now, "").HexagramName; got != "紫微星拱照" {
		t.Fatalf("unexpected ziwei hexagram name: %s", got)
	}
	dream := Fallback(ModeDream, now, "")
	if dream.HexagramName != "梦兆" || dream.Dream.Omen != OmenAuspicious {
		t.Fatalf("unexpected dream fallback: %+v", dream.Dream)
	}
}

func TestFallbackUnknownModeIsDaily(t *testing.T) {
	result := Fallback(Mode("tarot"), time.Now(), "")
	if result.Mode != ModeDaily {
		t.Fatalf("unexpected mode: %s", result.Mode)
	}
}
