package fortune

import "fmt"

// ImagePrompt 는 결과에 맞는 수묵화 이미지 프롬프트를 만든다.
func ImagePrompt(r Result) string {
	theme := fmt.Sprintf("抽象表现\"%s\"与\"%s\"的意境", r.HexagramName, r.Reminder)
	switch {
	case r.Dream != nil:
		theme = fmt.Sprintf("超现实主义梦境，%s，神秘，心理学隐喻", r.Dream.Title)
	case r.ZiWei != nil:
		theme = fmt.Sprintf("紫微斗数，星象，宇宙，命运之轮，%s", r.ZiWei.LifePalace)
	}
	return fmt.Sprintf("中国水墨画风格，禅意，%s，高质量，极简主义。主要色调：%s与水墨黑。", theme, r.LuckyColor)
}
