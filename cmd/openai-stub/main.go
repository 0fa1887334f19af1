package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

var methods = []string{"数字冲击", "反差对比", "悬念好奇", "情绪共鸣", "身份代入", "利益承诺", "权威背书", "反常识", "紧迫感", "口语化"}

var englishMethods = []string{"Numbers", "Contrast", "Curiosity gap", "Emotion", "Identification", "Benefit", "Authority", "Counterintuitive", "Urgency", "Conversational"}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "deepseek-chat"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}
	// FORMAT selects the answer layout: structured (default), numbered or quoted.
	format := strings.ToLower(strings.TrimSpace(os.Getenv("FORMAT")))

	log.Info().Str("addr", addr).Str("model", model).Str("format", format).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model, format)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

// newMux answers both with and without the /v1 prefix since DeepSeek accepts
// either base URL.
func newMux(model, format string) *http.ServeMux {
	mux := http.NewServeMux()
	models := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	}
	chat := func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer sk-") {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			writeError(w, http.StatusBadRequest, "messages required")
			return
		}
		prompt := req.Messages[len(req.Messages)-1].Content
		content := answer(prompt, format)
		log.Debug().Int("prompt_chars", utf8.RuneCountInString(prompt)).Msg("chat completion")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-stub",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   model,
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}
	mux.HandleFunc("GET /v1/models", models)
	mux.HandleFunc("GET /models", models)
	mux.HandleFunc("POST /v1/chat/completions", chat)
	mux.HandleFunc("POST /chat/completions", chat)
	return mux
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"message": msg, "type": "invalid_request_error"},
	})
}

// answer builds ten headlines around a topic lifted from the article.
func answer(prompt, format string) string {
	english := strings.Contains(prompt, "**Title 1:")
	topic := topicOf(prompt, english)
	var b strings.Builder
	for i := 0; i < 10; i++ {
		n := i + 1
		switch {
		case format == "numbered" && english:
			fmt.Fprintf(&b, "Option %d. %s, take %d\n", n, topic, n)
		case format == "numbered":
			fmt.Fprintf(&b, "候选 %d、《%s的第%d个真相》\n", n, topic, n)
		case format == "quoted" && english:
			fmt.Fprintf(&b, "Try this: \"%s, take %d\"\n", topic, n)
		case format == "quoted":
			fmt.Fprintf(&b, "候选%d 《关于%s，第%d件事》\n", n, topic, n)
		case english:
			fmt.Fprintf(&b, "**Title %d: %s, take %d**\nMethod: %s\nAnalysis: Stub analysis for headline %d\n\n", n, topic, n, englishMethods[i], n)
		default:
			fmt.Fprintf(&b, "**标题%d:《%s的第%d个真相》**\n法则: %s\n分析: 第%d个标题的示例分析\n\n", n, topic, n, methods[i], n)
		}
	}
	return b.String()
}

// topicOf returns the first words of the article part of the prompt.
func topicOf(prompt string, english bool) string {
	marker, fallback, limit := "文章内容：", "这篇文章", 8
	if english {
		marker, fallback, limit = "Article:", "This article", 40
	}
	body := prompt
	if i := strings.LastIndex(prompt, marker); i >= 0 {
		body = prompt[i+len(marker):]
	}
	body = strings.Join(strings.Fields(body), " ")
	if body == "" {
		return fallback
	}
	if utf8.RuneCountInString(body) > limit {
		body = string([]rune(body)[:limit])
	}
	return strings.TrimSpace(body)
}
