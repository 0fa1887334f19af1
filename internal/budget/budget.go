package budget

import (
    "math"
    "strings"
    "unicode/utf8"
)

// EstimateTokensFromChars converts an ASCII character count into an estimated
// token count using a conservative heuristic (~4 chars per token in English).
// The result is always at least 1 when chars > 0.
func EstimateTokensFromChars(charCount int) int {
    if charCount <= 0 {
        return 0
    }
    return int(math.Ceil(float64(charCount) / 4.0))
}

// EstimateTokens returns the estimated token count of a string. ASCII runs
// are counted at ~4 chars per token; every other rune (CJK in practice)
// counts as one token, which overestimates slightly for most tokenizers.
func EstimateTokens(s string) int {
    ascii, other := 0, 0
    for _, r := range s {
        if r < utf8.RuneSelf {
            ascii++
        } else {
            other++
        }
    }
    return EstimateTokensFromChars(ascii) + other
}

// EstimatePromptTokens estimates the total tokens for a prompt composed of
// a fixed template part and the article content.
func EstimatePromptTokens(template string, content string) int {
    return EstimateTokens(template) + EstimateTokens(content)
}

// ModelContextTokens returns an estimated maximum context window for a given
// model name. Unknown models fall back to a sensible default.
func ModelContextTokens(modelName string) int {
    name := strings.ToLower(strings.TrimSpace(modelName))
    if name == "" {
        return 8192
    }
    if v, ok := knownModelMax[name]; ok {
        return v
    }
    if strings.HasSuffix(name, "1m") {
        return 1_000_000
    }
    if strings.HasSuffix(name, "128k") {
        return 128_000
    }
    if strings.HasSuffix(name, "64k") {
        return 64_000
    }
    if strings.HasSuffix(name, "32k") {
        return 32_000
    }
    if strings.HasPrefix(name, "deepseek") {
        return 64_000
    }
    if strings.Contains(name, "-mini") {
        return 128_000
    }
    return 8192
}

// RemainingContext computes the remaining input token budget given a model,
// a desired reservation for output generation, and the estimated prompt tokens.
// The result is never negative.
func RemainingContext(modelName string, reservedForOutput int, promptTokens int) int {
    maxCtx := ModelContextTokens(modelName)
    if reservedForOutput < 0 {
        reservedForOutput = 0
    }
    remaining := maxCtx - reservedForOutput - promptTokens
    if remaining < 0 {
        return 0
    }
    return remaining
}

// FitsInContext reports whether the prompt can fit into the model's context
// window when reserving the specified number of output tokens.
func FitsInContext(modelName string, reservedForOutput int, promptTokens int) bool {
    return RemainingContext(modelName, reservedForOutput, promptTokens) > 0
}

// HeadroomTokens returns a safety headroom to subtract from the model context:
// the larger of 5% of the context or 512 tokens.
func HeadroomTokens(modelName string) int {
    max := ModelContextTokens(modelName)
    dyn := int(math.Ceil(float64(max) * 0.05))
    if dyn < 512 {
        return 512
    }
    return dyn
}

// RemainingContextWithHeadroom computes remaining tokens after accounting for
// output reservation and a conservative headroom for the given model.
func RemainingContextWithHeadroom(modelName string, reservedForOutput int, promptTokens int) int {
    headroom := HeadroomTokens(modelName)
    return RemainingContext(modelName, reservedForOutput+headroom, promptTokens)
}

// FitContent trims content so that template+content fits the model context
// after reserving output tokens and headroom. It cuts on a rune boundary and
// reports whether anything was removed.
func FitContent(modelName string, reservedForOutput int, template string, content string) (string, bool) {
    avail := ModelContextTokens(modelName) - reservedForOutput - HeadroomTokens(modelName) - EstimateTokens(template)
    if avail <= 0 {
        return "", content != ""
    }
    if EstimateTokens(content) <= avail {
        return content, false
    }
    used, ascii := 0, 0
    for i, r := range content {
        cost := 0
        if r < utf8.RuneSelf {
            ascii++
            // every fourth ASCII rune opens a new token
            if ascii%4 == 1 {
                cost = 1
            }
        } else {
            cost = 1
        }
        if used+cost > avail {
            return content[:i], true
        }
        used += cost
    }
    return content, false
}

// knownModelMax contains rough context sizes for common model identifiers.
// These are best-effort and do not need to be exhaustive.
var knownModelMax = map[string]int{
    "deepseek-chat":     64_000,
    "deepseek-reasoner": 64_000,

    "gpt-4o":        128_000,
    "gpt-4o-mini":   128_000,
    "gpt-4-turbo":   128_000,
    "gpt-3.5-turbo": 16_384,

    "qwen-plus":  128_000,
    "qwen-turbo": 128_000,
    "moonshot-v1-8k": 8_192,

    "llama-3":   8_192,
    "llama-3.1": 128_000,
}
