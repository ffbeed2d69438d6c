package di

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	fortunedomain "github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/logging"
)

const generatedImageURL = "https://images.example.com/ink.png"

func testConfig(baseURL string, apiKey string) *config.Config {
	return &config.Config{
		Oracle: config.OracleConfig{
			Provider:            "openai",
			BaseURL:             baseURL,
			APIKey:              apiKey,
			TextModel:           "glm-4-flash",
			ImageModel:          "cogview-3",
			Temperature:         0.7,
			TopP:                0.9,
			MaxTokens:           2000,
			TextTimeoutSeconds:  5,
			ImageTimeoutSeconds: 5,
			ImageEnabled:        true,
			ImageWorkers:        1,
			ImageQueueSize:      4,
			FallbackImages:      []string{"https://stock.example.com/a.jpg"},
		},
		Store: config.StoreConfig{TTLSeconds: 60},
		Guard: config.GuardConfig{
			Enabled:       true,
			Threshold:     0.85,
			MaxInputRunes: 500,
			CacheMaxSize:  100,
		},
		Database: config.DatabaseConfig{Driver: "sqlite"},
	}
}

func fakeOracleServer(t *testing.T) *httptest.Server {
	t.Helper()
	content := "```json\n" + `{"luckyColor":"朱红","reminder":"守静","hexagramCode":"111111","rating":4,"luckyNumbers":[3,8]}` + "\n```"
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-1",
			"model": "glm-4-flash",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 80, "total_tokens": 200},
		})
	})
	mux.HandleFunc("/images/generations", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": time.Now().Unix(),
			"data":    []map[string]any{{"url": generatedImageURL}},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestInitializeOracleDivinesAndAttachesImage(t *testing.T) {
	server := fakeOracleServer(t)
	ctx := context.Background()

	oracle, err := InitializeOracle(ctx, testConfig(server.URL, "test-key"), logging.Discard())
	if err != nil {
		t.Fatalf("initialize oracle: %v", err)
	}
	if oracle.Dispatcher == nil {
		t.Fatalf("expected image dispatcher")
	}

	result := oracle.Service.Divine(ctx, fortunedomain.Profile{Name: "张三", Mode: fortunedomain.ModeDaily})
	if result.Source != fortunedomain.SourceOracle {
		t.Fatalf("expected oracle result, got %s", result.Source)
	}
	if result.HexagramName != "乾为天" {
		t.Fatalf("unexpected hexagram name: %q", result.HexagramName)
	}
	if result.LuckyImage != "" {
		t.Fatalf("image should arrive asynchronously, got %q", result.LuckyImage)
	}

	oracle.Dispatcher.Close()
	stored, err := oracle.Service.Get(ctx, result.ID)
	if err != nil {
		t.Fatalf("get stored result: %v", err)
	}
	if stored.LuckyImage != generatedImageURL {
		t.Fatalf("expected generated image, got %q", stored.LuckyImage)
	}
	oracle.Close()
}

func TestInitializeOracleWithoutAPIKeyFallsBack(t *testing.T) {
	ctx := context.Background()
	oracle, err := InitializeOracle(ctx, testConfig("http://127.0.0.1:1", ""), logging.Discard())
	if err != nil {
		t.Fatalf("initialize oracle: %v", err)
	}
	defer oracle.Close()

	if oracle.Dispatcher != nil {
		t.Fatalf("dispatcher should be off without a backend")
	}
	result := oracle.Service.Divine(ctx, fortunedomain.Profile{Mode: fortunedomain.ModeDream, DreamContent: "飞"})
	if result.Source != fortunedomain.SourceFallback || result.Mode != fortunedomain.ModeDream {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.HasPrefix(result.LuckyImage, "https://stock.example.com/") {
		t.Fatalf("expected stock image, got %q", result.LuckyImage)
	}
	if _, err := oracle.Service.Readings(ctx, "", 10); err == nil {
		t.Fatalf("expected readings to be disabled")
	}
}

func TestOracleCloseIsIdempotent(t *testing.T) {
	oracle, err := InitializeOracle(context.Background(), testConfig("http://127.0.0.1:1", ""), logging.Discard())
	if err != nil {
		t.Fatalf("initialize oracle: %v", err)
	}
	oracle.Close()
	oracle.Close()
}
