package shared

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// marshalNoEscapeHTML 는 '&' 등을 이스케이프하지 않는 JSON 을 만든다.
// 이미지 URL 의 쿼리 문자열을 그대로 내보내기 위해 쓴다.
func marshalNoEscapeHTML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
