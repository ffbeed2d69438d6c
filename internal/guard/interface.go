package guard

import "errors"

// Checker 는 입력 하나를 받아 막을지 결정하는 최소 표면이다.
type Checker interface {
	EnsureSafe(input string) error
}

// Guard 는 점괘 요청의 자유 입력을 평가하고 정리하는 인터페이스다.
type Guard interface {
	Checker
	Evaluate(input string) Evaluation
	IsMalicious(input string) bool
	// Clean 은 프롬프트에 넣을 수 있게 입력을 정리한다.
	Clean(input string) string
}

var _ Guard = (*InjectionGuard)(nil)

// Field 는 검사할 입력 필드 하나다. Name 은 응답에 실리는 JSON 필드명이다.
type Field struct {
	Name  string
	Value string
}

// FieldEvaluation: 필드 하나의 평가 결과입니다.
type FieldEvaluation struct {
	Field string
	Evaluation
}

// EnsureFieldsSafe 는 필드를 순서대로 검사하고, 처음 막힌 필드의 이름을 BlockedError 에 채워 돌려준다.
// 빈 값은 건너뛴다.
func EnsureFieldsSafe(checker Checker, fields []Field) error {
	if checker == nil {
		return nil
	}
	for _, field := range fields {
		if field.Value == "" {
			continue
		}
		err := checker.EnsureSafe(field.Value)
		if err == nil {
			continue
		}
		var blocked *BlockedError
		if errors.As(err, &blocked) {
			blocked.Field = field.Name
		}
		return err
	}
	return nil
}

// EvaluateFields 는 비어 있지 않은 필드마다 평가 결과를 만든다.
func EvaluateFields(g Guard, fields []Field) []FieldEvaluation {
	results := make([]FieldEvaluation, 0, len(fields))
	for _, field := range fields {
		if field.Value == "" {
			continue
		}
		results = append(results, FieldEvaluation{Field: field.Name, Evaluation: g.Evaluate(field.Value)})
	}
	return results
}
