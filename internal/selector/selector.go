// Package selector parses menu selections such as "1,3,5-7" or "all" into
// sorted, deduplicated 0-based indices.
package selector

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Kind distinguishes parse failures so callers can re-prompt precisely.
type Kind int

const (
	EmptyInput Kind = iota + 1
	MalformedToken
	InvalidRange
	OutOfRange
	KeywordOutOfRange
)

func (k Kind) String() string {
	switch k {
	case EmptyInput:
		return "empty input"
	case MalformedToken:
		return "malformed token"
	case InvalidRange:
		return "invalid range"
	case OutOfRange:
		return "out of range"
	case KeywordOutOfRange:
		return "keyword out of range"
	}
	return "unknown"
}

// ParseError reports why a selection was rejected. Value is the offending
// 1-based number where one applies; Max is the item count.
type ParseError struct {
	Kind  Kind
	Token string
	Value int
	Max   int
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case EmptyInput:
		return "no selection entered"
	case MalformedToken:
		if e.Token == "" {
			return "empty entry in selection"
		}
		return fmt.Sprintf("invalid selection %q", e.Token)
	case InvalidRange:
		return fmt.Sprintf("invalid range %q: start is greater than end", e.Token)
	case OutOfRange:
		return fmt.Sprintf("%q is out of range (valid: 1-%d)", e.Token, e.Max)
	case KeywordOutOfRange:
		return fmt.Sprintf("keyword %q refers to item %d, valid range is 1-%d", e.Token, e.Value, e.Max)
	}
	return "invalid selection"
}

// Parse expands raw against count items. A keyword match takes precedence
// over numeric parsing; keywords map to 0-based indices.
func Parse(raw string, count int, keywords map[string][]int) ([]int, error) {
	input := strings.ToLower(strings.TrimSpace(raw))
	if input == "" {
		return nil, &ParseError{Kind: EmptyInput, Max: count}
	}

	set := mapset.NewThreadUnsafeSet[int]()

	if indices, ok := keywords[input]; ok {
		for _, idx := range indices {
			if idx < 0 || idx >= count {
				return nil, &ParseError{Kind: KeywordOutOfRange, Token: input, Value: idx + 1, Max: count}
			}
			set.Add(idx)
		}
		return sorted(set), nil
	}

	for _, tok := range strings.Split(input, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, &ParseError{Kind: MalformedToken, Max: count}
		}
		if strings.Contains(tok, "-") {
			if err := addRange(set, tok, count); err != nil {
				return nil, err
			}
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, &ParseError{Kind: MalformedToken, Token: tok, Max: count}
		}
		if n < 1 || n > count {
			return nil, &ParseError{Kind: OutOfRange, Token: tok, Value: n, Max: count}
		}
		set.Add(n - 1)
	}
	return sorted(set), nil
}

func addRange(set mapset.Set[int], tok string, count int) error {
	parts := strings.Split(tok, "-")
	if len(parts) != 2 {
		return &ParseError{Kind: MalformedToken, Token: tok, Max: count}
	}
	lo, hi := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if lo == "" || hi == "" {
		return &ParseError{Kind: MalformedToken, Token: tok, Max: count}
	}
	start, err := strconv.Atoi(lo)
	if err != nil {
		return &ParseError{Kind: MalformedToken, Token: tok, Max: count}
	}
	end, err := strconv.Atoi(hi)
	if err != nil {
		return &ParseError{Kind: MalformedToken, Token: tok, Max: count}
	}
	if start > end {
		return &ParseError{Kind: InvalidRange, Token: tok, Value: start, Max: count}
	}
	if start < 1 || end > count {
		value := start
		if start >= 1 {
			value = end
		}
		return &ParseError{Kind: OutOfRange, Token: tok, Value: value, Max: count}
	}
	for i := start; i <= end; i++ {
		set.Add(i - 1)
	}
	return nil
}

func sorted(set mapset.Set[int]) []int {
	out := set.ToSlice()
	slices.Sort(out)
	return out
}

// Keywords builds the standard keyword table: "all" and "*" select every
// item, "missing" and "m" select the given not-installed indices.
func Keywords(count int, missing []int) map[string][]int {
	all := make([]int, count)
	for i := range all {
		all[i] = i
	}
	m := append([]int(nil), missing...)
	return map[string][]int{
		"all":     all,
		"*":       all,
		"missing": m,
		"m":       m,
	}
}
