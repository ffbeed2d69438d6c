package fortune

import (
	"slices"
	"strings"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/randx"
)

// StockImages 는 이미지 생성 실패 시 쓰는 고정 이미지 목록이다.
type StockImages struct {
	urls []string
	rnd  *randx.LockedRand
}

// NewStockImages 는 목록에서 균등하게 고르는 picker 를 만든다.
// rnd 가 nil 이면 현재 시각으로 시드한다. 목록이 비면 기본 목록을 쓴다.
func NewStockImages(urls []string, rnd *randx.LockedRand) *StockImages {
	cleaned := make([]string, 0, len(urls))
	for _, url := range urls {
		if trimmed := strings.TrimSpace(url); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, config.DefaultFallbackImages...)
	}
	if rnd == nil {
		rnd = randx.NewSeeded()
	}
	return &StockImages{urls: cleaned, rnd: rnd}
}

// Pick 은 목록에서 하나를 고른다.
func (s *StockImages) Pick() string {
	url, _ := randx.Pick(s.rnd, s.urls)
	return url
}

// Contains 는 url 이 목록에 있는지 확인한다.
func (s *StockImages) Contains(url string) bool {
	return slices.Contains(s.urls, url)
}
