package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
)

// 저장 페이로드의 첫 바이트 형식 표식.
const (
	formatJSON byte = 'j'
	formatZstd byte = 'z'
)

type zstdCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// loadZstd 는 프로세스 전체에서 공유하는 encoder/decoder 를 처음 쓸 때 만든다.
// EncodeAll/DecodeAll 은 동시 호출에 안전하다.
var loadZstd = sync.OnceValues(func() (zstdCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return zstdCodec{}, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return zstdCodec{}, fmt.Errorf("create zstd decoder: %w", err)
	}
	return zstdCodec{encoder: encoder, decoder: decoder}, nil
})

// encodeResult: 결과를 JSON 으로 직렬화하고, threshold 를 넘으면 zstd 로 압축합니다.
// threshold 가 0 이하이면 압축하지 않습니다.
func encodeResult(result fortune.Result, threshold int) ([]byte, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal fortune result: %w", err)
	}
	if threshold <= 0 || len(data) <= threshold {
		return append([]byte{formatJSON}, data...), nil
	}

	codec, err := loadZstd()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 1, 1+len(data)/2)
	out[0] = formatZstd
	return codec.encoder.EncodeAll(data, out), nil
}

// decodeResult 는 encodeResult 의 역이다. 알 수 없는 형식 표식은 오류다.
func decodeResult(payload []byte) (fortune.Result, error) {
	var result fortune.Result
	if len(payload) == 0 {
		return result, errors.New("empty fortune payload")
	}

	body := payload[1:]
	switch payload[0] {
	case formatJSON:
	case formatZstd:
		codec, err := loadZstd()
		if err != nil {
			return result, err
		}
		if body, err = codec.decoder.DecodeAll(body, nil); err != nil {
			return result, fmt.Errorf("zstd decompress: %w", err)
		}
	default:
		return result, fmt.Errorf("unknown fortune payload format %q", payload[0])
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return result, fmt.Errorf("unmarshal fortune result: %w", err)
	}
	return result, nil
}
