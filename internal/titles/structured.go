package titles

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// **标题1:《…》**, Title 2. …, ### 3、…
	titleHeaderRe = regexp.MustCompile(`(?i)^(?:#{1,6}\s*)?(?:\*\*)?(?:(?:标题|title)\s*)?(\d+)\s*[:：.、]\s*(?:\*\*)?\s*(?:《(.+?)》|(.+?))\s*(?:\*\*)?$`)
	// 3.5亿… is a number, not a list item.
	decimalRe = regexp.MustCompile(`^(?:\*\*)?\d+\.\d`)

	methodLineRe   = regexp.MustCompile(`(?i)^[-*•]?\s*(?:\*\*)?(?:法则|方法|method|rule)(?:\*\*)?\s*[:：]\s*(.+)$`)
	analysisLineRe = regexp.MustCompile(`(?i)^[-*•]?\s*(?:\*\*)?(?:分析|analysis)(?:\*\*)?\s*[:：]\s*(.+)$`)
)

// scanState is the state of the structured line scanner.
type scanState int

const (
	seekingTitle scanState = iota
	accumulating
)

// lineScanner turns "title / method / analysis" blocks into records.
// A title header always starts a new record; the other line kinds only
// apply while a record is being accumulated.
type lineScanner struct {
	state   scanState
	current Record
	out     []Record
}

func scanStructured(text string) []Record {
	s := &lineScanner{}
	for _, line := range strings.Split(text, "\n") {
		s.feed(strings.TrimSpace(line))
	}
	s.flush()
	return s.out
}

// feed applies the first matching transition, in priority order:
// title header, method line, analysis line, continuation.
func (s *lineScanner) feed(line string) {
	if rank, title, ok := titleHeader(line); ok {
		s.flush()
		s.current = Record{Rank: rank, Title: title}
		s.state = accumulating
		return
	}
	if s.state != accumulating {
		return
	}
	if v, ok := methodLine(line); ok {
		s.current.Method = v
		return
	}
	if v, ok := analysisLine(line); ok {
		s.current.Analysis = v
		return
	}
	if continuation(line, s.current) {
		s.current.Analysis = line
	}
}

func (s *lineScanner) flush() {
	if s.state == accumulating {
		s.out = append(s.out, s.current)
	}
	s.current = Record{}
	s.state = seekingTitle
}

// titleHeader reports whether line opens a new title block and returns the
// rank stated in the text together with the cleaned title.
func titleHeader(line string) (int, string, bool) {
	if decimalRe.MatchString(line) {
		return 0, "", false
	}
	m := titleHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	rank, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	title := m[2]
	if title == "" {
		title = m[3]
	}
	return rank, cleanTitle(title), true
}

func methodLine(line string) (string, bool) {
	return labeledValue(methodLineRe, line)
}

func analysisLine(line string) (string, bool) {
	return labeledValue(analysisLineRe, line)
}

func labeledValue(re *regexp.Regexp, line string) (string, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(strings.ReplaceAll(m[1], "**", "")), true
}

// continuation reports whether an unlabeled line should be taken as the
// analysis of the current record.
func continuation(line string, cur Record) bool {
	if cur.Analysis != "" || line == "" {
		return false
	}
	return !strings.HasPrefix(line, "**") && !mentionsTitle(line)
}

func mentionsTitle(line string) bool {
	return strings.Contains(line, "标题") || strings.Contains(strings.ToLower(line), "title")
}
