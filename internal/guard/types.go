package guard

import "fmt"

// 점수에 기여한 규칙 종류.
const (
	MatchRegex     = "regex"
	MatchPhrase    = "phrase"
	MatchHeuristic = "heuristic"
)

// Match 는 점수에 기여한 규칙 하나다.
type Match struct {
	ID     string  `json:"id"`
	Kind   string  `json:"kind"`
	Weight float64 `json:"weight"`
}

// Evaluation 은 입력 하나의 누적 점수와 기여 규칙이다.
type Evaluation struct {
	Score     float64 `json:"score"`
	Hits      []Match `json:"hits"`
	Threshold float64 `json:"threshold"`
}

// Malicious 는 점수가 임계값 이상인지 반환한다. 임계값이 0 이하이면 항상 false 다.
func (e Evaluation) Malicious() bool {
	return e.Threshold > 0 && e.Score >= e.Threshold
}

// BlockedError: 가드가 거부한 자유 입력입니다. Field 는 호출자가 채운다.
type BlockedError struct {
	Field     string
	Score     float64
	Threshold float64
}

func (e *BlockedError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("input blocked by injection guard (score=%.2f, threshold=%.2f)", e.Score, e.Threshold)
	}
	return fmt.Sprintf("%s blocked by injection guard (score=%.2f, threshold=%.2f)", e.Field, e.Score, e.Threshold)
}
