package index

import "strings"

// Token is one emitted unit from a TokenStream (§3 "Token stream contract").
// PositionIncrement defaults to 1; a value of 0 means a synonym sharing the
// previous token's position, matching the teacher's attribute semantics.
type Token struct {
	Term              string
	StartOffset       int
	EndOffset         int
	PositionIncrement int
	Payload           []byte
	Type              string
}

// TokenStream is a stateful iterator: Reset, then repeated IncrementToken
// until it reports no more tokens, then End (§3).
type TokenStream interface {
	Reset(text string)
	IncrementToken() (Token, bool)
	End()
}

// Analyzer is the only contract the core depends on for turning field text
// into tokens — concrete tokenizer/stemmer implementations are named OUT of
// scope by §1's Non-goals, but the whitespace+lowercase analyzer and
// StopFilter are exercised directly by §8's literal scenarios, so both are
// provided here as the minimal reference implementation of the contract.
type Analyzer interface {
	TokenStream(text string) TokenStream
}

// WhitespaceLowercaseAnalyzer splits on whitespace and lowercases each
// token, the analyzer named by scenario #1.
type WhitespaceLowercaseAnalyzer struct{}

func (WhitespaceLowercaseAnalyzer) TokenStream(text string) TokenStream {
	return &whitespaceTokenStream{text: text}
}

type whitespaceTokenStream struct {
	text string
	pos  int
}

func (ts *whitespaceTokenStream) Reset(text string) { ts.text = text; ts.pos = 0 }

func (ts *whitespaceTokenStream) IncrementToken() (Token, bool) {
	n := len(ts.text)
	for ts.pos < n && isSpace(ts.text[ts.pos]) {
		ts.pos++
	}
	if ts.pos >= n {
		return Token{}, false
	}
	start := ts.pos
	for ts.pos < n && !isSpace(ts.text[ts.pos]) {
		ts.pos++
	}
	end := ts.pos
	return Token{
		Term:              strings.ToLower(ts.text[start:end]),
		StartOffset:       start,
		EndOffset:         end,
		PositionIncrement: 1,
	}, true
}

func (ts *whitespaceTokenStream) End() {}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

// StopFilter drops tokens present in a stop-word set. When
// EnablePositionIncrements is true, a dropped token's position is folded
// into the next surviving token's PositionIncrement instead of collapsing
// the sequence, so position numbering reflects the original text (§8
// scenario #3: "verify that the term six emerges at position 6, not 2").
type StopFilter struct {
	Input                   TokenStream
	StopWords               map[string]bool
	EnablePositionIncrements bool

	pendingSkip int
}

func NewStopFilter(input TokenStream, stopWords map[string]bool, enablePositionIncrements bool) *StopFilter {
	return &StopFilter{Input: input, StopWords: stopWords, EnablePositionIncrements: enablePositionIncrements}
}

func (f *StopFilter) Reset(text string) { f.Input.Reset(text); f.pendingSkip = 0 }

func (f *StopFilter) IncrementToken() (Token, bool) {
	for {
		tok, ok := f.Input.IncrementToken()
		if !ok {
			return Token{}, false
		}
		if f.StopWords[tok.Term] {
			if f.EnablePositionIncrements {
				f.pendingSkip += tok.PositionIncrement
			}
			continue
		}
		if f.EnablePositionIncrements {
			tok.PositionIncrement += f.pendingSkip
			f.pendingSkip = 0
		}
		return tok, true
	}
}

func (f *StopFilter) End() { f.Input.End() }

// analyzeField drives an Analyzer's TokenStream to completion, returning
// each surviving token's term and absolute position (the running sum of
// PositionIncrement, starting at 0) — the value the indexing chain and
// phrase queries key on (§3 "position" in the postings model).
func analyzeField(a Analyzer, text string) []struct {
	Term    string
	Pos     int
	Payload []byte
} {
	ts := a.TokenStream(text)
	ts.Reset(text)
	var out []struct {
		Term    string
		Pos     int
		Payload []byte
	}
	pos := -1
	for {
		tok, ok := ts.IncrementToken()
		if !ok {
			break
		}
		pos += tok.PositionIncrement
		out = append(out, struct {
			Term    string
			Pos     int
			Payload []byte
		}{Term: tok.Term, Pos: pos, Payload: tok.Payload})
	}
	ts.End()
	return out
}
