// Package titles recovers structured headline candidates from the free-form
// text a language model returns.
//
// Model output is only loosely formatted, so parsing runs through three tiers
// of decreasing structure: a line-oriented scan for "title / method /
// analysis" blocks, a numbered-list scan, and finally a scan for quoted spans
// or short standalone lines. Each tier's output goes through the same
// validation pass and the first tier that yields at least one valid record
// wins. Tiers are never blended.
package titles

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Record is one generated headline candidate with its supporting rationale.
type Record struct {
	Rank     int    `json:"rank"`
	Title    string `json:"title"`
	Method   string `json:"method"`
	Analysis string `json:"analysis"`
}

// ErrParseFailure is returned when no tier yields a valid record.
var ErrParseFailure = errors.New("no valid titles recoverable")

const (
	// MaxRecords caps the number of records returned by Parse.
	MaxRecords = 10

	// Title length bounds in characters; the upper bound is exclusive.
	minTitleChars = 6
	maxTitleChars = 100

	// DefaultMethod and DefaultAnalysis fill blank fields after validation.
	DefaultMethod   = "咪蒙标题方法论"
	DefaultAnalysis = "运用咪蒙方法论生成的吸引眼球标题"
)

// validate trims titles, drops records whose title length is out of bounds,
// keeps at most MaxRecords in input order, re-ranks them 1..N and fills blank
// method/analysis fields.
func validate(in []Record) []Record {
	out := make([]Record, 0, min(len(in), MaxRecords))
	for _, r := range in {
		r.Title = strings.TrimSpace(r.Title)
		if n := utf8.RuneCountInString(r.Title); n < minTitleChars || n >= maxTitleChars {
			continue
		}
		r.Method = strings.TrimSpace(r.Method)
		if r.Method == "" {
			r.Method = DefaultMethod
		}
		r.Analysis = strings.TrimSpace(r.Analysis)
		if r.Analysis == "" {
			r.Analysis = DefaultAnalysis
		}
		out = append(out, r)
		if len(out) == MaxRecords {
			break
		}
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
