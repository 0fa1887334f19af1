package budget

import (
    "strings"
    "testing"
    "unicode/utf8"
)

func TestEstimateTokensFromChars(t *testing.T) {
    cases := []struct{
        in int
        want int
    }{
        {0, 0},
        {1, 1},
        {3, 1},
        {4, 1},
        {5, 2},
        {400, 100},
    }
    for _, c := range cases {
        got := EstimateTokensFromChars(c.in)
        if got != c.want {
            t.Fatalf("EstimateTokensFromChars(%d) = %d, want %d", c.in, got, c.want)
        }
    }
}

func TestEstimateTokens_MixedScripts(t *testing.T) {
    // "abcd" -> 1, "中文" -> 2
    if got := EstimateTokens("abcd中文"); got != 3 {
        t.Fatalf("EstimateTokens = %d, want 3", got)
    }
    if got := EstimatePromptTokens("prompt", "正文"); got != 2+2 {
        t.Fatalf("EstimatePromptTokens = %d, want 4", got)
    }
}

func TestModelContextTokens(t *testing.T) {
    if ModelContextTokens("") != 8192 {
        t.Fatal("empty model should default to 8192")
    }
    if ModelContextTokens("deepseek-chat") != 64_000 {
        t.Fatal("deepseek-chat should be 64k")
    }
    if ModelContextTokens("DeepSeek-V3") != 64_000 {
        t.Fatal("deepseek prefix should map to 64k")
    }
    if ModelContextTokens("LLAMA-3.1") < 100_000 {
        t.Fatal("case-insensitive match for llama-3.1 should be ~128k")
    }
    if ModelContextTokens("mystery-32k") != 32_000 {
        t.Fatal("numeric suffix heuristic 32k should map to 32k tokens")
    }
}

func TestRemainingAndFits(t *testing.T) {
    model := "gpt-4o"
    max := ModelContextTokens(model)
    prompt := max / 2
    if rem := RemainingContext(model, 2000, prompt); rem <= 0 {
        t.Fatalf("remaining should be positive, got %d", rem)
    }
    if !FitsInContext(model, 2000, prompt) {
        t.Fatal("prompt should fit when remaining is positive")
    }
    prompt = max
    if rem := RemainingContext(model, 1, prompt); rem != 0 {
        t.Fatalf("remaining should clamp at 0 on overflow, got %d", rem)
    }
    if FitsInContext(model, 1, prompt) {
        t.Fatal("prompt should not fit when overflowed")
    }
}

func TestHeadroomTokens(t *testing.T) {
    if h := HeadroomTokens("deepseek-chat"); h < 3200 || h > 3201 {
        t.Fatalf("headroom for 64k should be 5%%")
    }
    if HeadroomTokens("") != 512 {
        t.Fatalf("default model headroom should floor to 512")
    }
}

func TestFitContent(t *testing.T) {
    short := strings.Repeat("中", 100)
    got, cut := FitContent("deepseek-chat", 2000, "写标题", short)
    if cut || got != short {
        t.Fatal("short content must pass through unchanged")
    }

    // 8192 - 2000 - 512 - 1 leaves 5679 tokens for CJK content.
    long := strings.Repeat("中", 10_000)
    got, cut = FitContent("", 2000, "x", long)
    if !cut {
        t.Fatal("long content should be trimmed")
    }
    if !utf8.ValidString(got) {
        t.Fatal("trimmed content must stay valid UTF-8")
    }
    if n := utf8.RuneCountInString(got); n != 5679 {
        t.Fatalf("trimmed rune count = %d, want 5679", n)
    }
    if EstimateTokens(got) > 5679 {
        t.Fatal("trimmed content exceeds the available budget")
    }
}

func TestFitContent_ASCIIBudget(t *testing.T) {
    long := strings.Repeat("a", 40_000)
    got, cut := FitContent("", 2000, "", long)
    if !cut {
        t.Fatal("expected trim")
    }
    if EstimateTokens(got) != 5680 {
        t.Fatalf("EstimateTokens(trimmed) = %d, want 5680", EstimateTokens(got))
    }
}
