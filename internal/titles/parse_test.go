package titles

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParse_StructuredBlock(t *testing.T) {
	raw := "**标题1:《如何一天赚一万》**\n法则: 数字冲击力\n分析: 利用具体金额制造好奇"
	got, tier, err := ParseTiered(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Record{{Rank: 1, Title: "如何一天赚一万", Method: "数字冲击力", Analysis: "利用具体金额制造好奇"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if tier != TierStructured {
		t.Fatalf("tier = %v, want structured", tier)
	}
}

func TestParse_NumberedLinesGetDefaults(t *testing.T) {
	raw := "1. 震惊！这件事改变了所有人\n2. 专家警告：千万别这样做"
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(got), got)
	}
	wantTitles := []string{"震惊！这件事改变了所有人", "专家警告：千万别这样做"}
	for i, r := range got {
		if r.Rank != i+1 {
			t.Fatalf("record %d rank = %d", i, r.Rank)
		}
		if r.Title != wantTitles[i] {
			t.Fatalf("record %d title = %q, want %q", i, r.Title, wantTitles[i])
		}
		if r.Method == "" || r.Analysis == "" {
			t.Fatalf("record %d has blank method/analysis: %+v", i, r)
		}
	}
}

func TestParse_TooShortFails(t *testing.T) {
	_, err := Parse("ok")
	if !errors.Is(err, ErrParseFailure) {
		t.Fatalf("expected ErrParseFailure, got %v", err)
	}
}

func TestParse_NoMatchesFails(t *testing.T) {
	for _, raw := range []string{"", "   \n\n", "短\n也短\n很短的"} {
		if _, err := Parse(raw); !errors.Is(err, ErrParseFailure) {
			t.Fatalf("Parse(%q): expected ErrParseFailure, got %v", raw, err)
		}
	}
}

func structuredBlocks(n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "**标题%d:《第%d个足够长的测试标题》**\n法则: 法则%d\n分析: 分析%d\n\n", i, i, i, i)
	}
	return sb.String()
}

func TestParse_TruncatesToTen(t *testing.T) {
	got, err := Parse(structuredBlocks(15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != MaxRecords {
		t.Fatalf("expected %d records, got %d", MaxRecords, len(got))
	}
	for i, r := range got {
		if r.Rank != i+1 {
			t.Fatalf("record %d rank = %d", i, r.Rank)
		}
		if want := fmt.Sprintf("第%d个足够长的测试标题", i+1); r.Title != want {
			t.Fatalf("record %d title = %q, want %q", i, r.Title, want)
		}
	}
}

func TestParse_StructuredBlocksKeepOrder(t *testing.T) {
	for n := 1; n <= MaxRecords; n++ {
		got, err := Parse(structuredBlocks(n))
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(got) != n {
			t.Fatalf("n=%d: got %d records", n, len(got))
		}
		for i, r := range got {
			if r.Rank != i+1 || r.Method != fmt.Sprintf("法则%d", i+1) || r.Analysis != fmt.Sprintf("分析%d", i+1) {
				t.Fatalf("n=%d: record %d = %+v", n, i, r)
			}
		}
	}
}

func TestParse_SourceRanksAreDiscarded(t *testing.T) {
	raw := "标题7：《排在第一位的标题文本》\n标题3：《排在第二位的标题文本》\n标题9：《排在第三位的标题文本》"
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i, r := range got {
		if r.Rank != i+1 {
			t.Fatalf("record %d rank = %d, want positional %d", i, r.Rank, i+1)
		}
	}
	if got[0].Title != "排在第一位的标题文本" {
		t.Fatalf("unexpected first title %q", got[0].Title)
	}
}

func TestParse_Idempotent(t *testing.T) {
	inputs := []string{
		structuredBlocks(4),
		"1. 震惊！这件事改变了所有人\n2. 专家警告：千万别这样做",
		"随便说点什么：“这是一个非常吸引人的好标题啊”",
	}
	for _, raw := range inputs {
		a, errA := Parse(raw)
		b, errB := Parse(raw)
		if !reflect.DeepEqual(a, b) || errA != errB {
			t.Fatalf("Parse not deterministic for %q", raw)
		}
	}
}

func TestParse_ValidationBounds(t *testing.T) {
	raw := strings.Join([]string{
		"1. 一二三四五",
		"2. 一二三四五六",
		"3. " + strings.Repeat("长", 100),
		"4. " + strings.Repeat("长", 99),
	}, "\n")
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 surviving records, got %d: %+v", len(got), got)
	}
	if got[0].Title != "一二三四五六" {
		t.Fatalf("unexpected first title %q", got[0].Title)
	}
	for i, r := range got {
		n := utf8.RuneCountInString(r.Title)
		if n < 6 || n >= 100 {
			t.Fatalf("record %d title length %d out of bounds", i, n)
		}
		if r.Rank != i+1 {
			t.Fatalf("record %d rank = %d", i, r.Rank)
		}
		if r.Method != DefaultMethod || r.Analysis != DefaultAnalysis {
			t.Fatalf("record %d defaults not applied: %+v", i, r)
		}
	}
}

func TestParse_LabelVariants(t *testing.T) {
	raw := strings.Join([]string{
		"### 标题1：《月薪三千和月薪三万的区别》",
		"- **法则**：对比反差",
		"* **分析**：**制造强烈对比**引发好奇",
		"",
		"**Title 2: The one habit that changed my life**",
		"Method: curiosity gap",
		"Analysis: promises a personal transformation",
	}, "\n")
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Record{
		{Rank: 1, Title: "月薪三千和月薪三万的区别", Method: "对比反差", Analysis: "制造强烈对比引发好奇"},
		{Rank: 2, Title: "The one habit that changed my life", Method: "curiosity gap", Analysis: "promises a personal transformation"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestParse_ContinuationLine(t *testing.T) {
	raw := strings.Join([]string{
		"标题1：《为什么聪明人都在早睡》",
		"法则：反常识",
		"**这一行加粗，应当忽略**",
		"这个标题利用了反差",
		"颠覆常识引起读者点击",
		"标题2：《你的努力正在毁掉你》",
		"这一行会成为分析内容",
	}, "\n")
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	// the line mentioning 标题 is skipped, the next one becomes the analysis
	if got[0].Analysis != "颠覆常识引起读者点击" {
		t.Fatalf("unexpected analysis %q", got[0].Analysis)
	}
	if got[1].Analysis != "这一行会成为分析内容" || got[1].Method != DefaultMethod {
		t.Fatalf("unexpected second record %+v", got[1])
	}
}

func TestParse_DecimalIsNotHeader(t *testing.T) {
	raw := "**标题1:《如何一天赚一万块钱》**\n3.5亿人都在看这个现象"
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Analysis != "3.5亿人都在看这个现象" {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestParse_CRLF(t *testing.T) {
	raw := "**标题1:《如何一天赚一万》**\r\n法则: 数字冲击力\r\n分析: 利用具体金额制造好奇\r\n"
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Analysis != "利用具体金额制造好奇" {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestParse_NumberedFallback(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		titles []string
	}{
		{"enumeration comma and quotes", "候选一 1、震惊！这件事改变了所有人\n候选二 2、“专家警告：千万别这样做”",
			[]string{"震惊！这件事改变了所有人", "专家警告：千万别这样做"}},
		{"full-width comma", "1，震惊！这件事改变了所有人\n2，专家警告千万别这样做",
			[]string{"震惊！这件事改变了所有人", "专家警告千万别这样做"}},
		{"decimal is not a list number", "候选：1.5亿人都在看这篇文章的标题\n候选二 2、专家警告千万别这样做",
			[]string{"专家警告千万别这样做"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, tier, err := ParseTiered(tc.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tier != TierNumbered {
				t.Fatalf("tier = %v, want numbered", tier)
			}
			var want []Record
			for i, title := range tc.titles {
				want = append(want, Record{Rank: i + 1, Title: title, Method: numberedMethod, Analysis: numberedAnalysis})
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestParse_DecimalLeadKeepsWholeLine(t *testing.T) {
	got, tier, err := ParseTiered("1.5亿人都在看这篇文章的标题")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierQuoted {
		t.Fatalf("tier = %v, want quoted", tier)
	}
	if len(got) != 1 || got[0].Title != "1.5亿人都在看这篇文章的标题" {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestParse_QuotedFallback(t *testing.T) {
	raw := "我推荐这些：“这是一个非常吸引人的好标题啊”，还有《另一个同样非常吸引眼球的标题》。"
	got, tier, err := ParseTiered(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierQuoted {
		t.Fatalf("tier = %v, want quoted", tier)
	}
	want := []Record{
		{Rank: 1, Title: "这是一个非常吸引人的好标题啊", Method: quotedMethod, Analysis: quotedAnalysis},
		{Rank: 2, Title: "另一个同样非常吸引眼球的标题", Method: quotedMethod, Analysis: quotedAnalysis},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestParse_ShortLineFallback(t *testing.T) {
	raw := "这是一行足够长的候选标题文本\nok"
	got, tier, err := ParseTiered(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierQuoted || len(got) != 1 || got[0].Title != "这是一行足够长的候选标题文本" {
		t.Fatalf("unexpected result tier=%v records=%+v", tier, got)
	}
}

func TestParse_QuotedFallbackCapsCandidates(t *testing.T) {
	var lines []string
	for i := 0; i < 14; i++ {
		lines = append(lines, fmt.Sprintf("候选标题第%c条足够长的文本", 'A'+i))
	}
	got, err := Parse(strings.Join(lines, "\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != MaxRecords {
		t.Fatalf("expected %d records, got %d", MaxRecords, len(got))
	}
}

func TestParse_InvalidTierFallsThrough(t *testing.T) {
	raw := "1. 短\n“这是一个非常吸引人的好标题啊”"
	got, tier, err := ParseTiered(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierQuoted || len(got) != 1 {
		t.Fatalf("unexpected result tier=%v records=%+v", tier, got)
	}
}

func TestTierString(t *testing.T) {
	cases := map[Tier]string{TierNone: "none", TierStructured: "structured", TierNumbered: "numbered", TierQuoted: "quoted"}
	for tier, want := range cases {
		if tier.String() != want {
			t.Fatalf("Tier(%d).String() = %q, want %q", tier, tier.String(), want)
		}
	}
}
