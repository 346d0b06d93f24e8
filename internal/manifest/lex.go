package manifest

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	whitespaceToken = iota
	starToken
	atToken
	ltToken
	gtToken
	commaToken
	lparenToken
	rparenToken
	arrowToken
	questionToken
	colonToken
	ampToken
	inToken
	outToken
	spreadToken
	reifiedToken
	nameToken
)

var whitespaceMatcher = parsly.NewToken(whitespaceToken, "Whitespace", matcher.NewWhiteSpace())
var starMatcher = parsly.NewToken(starToken, "*", matcher.NewByte('*'))
var atMatcher = parsly.NewToken(atToken, "@", matcher.NewByte('@'))
var ltMatcher = parsly.NewToken(ltToken, "<", matcher.NewByte('<'))
var gtMatcher = parsly.NewToken(gtToken, ">", matcher.NewByte('>'))
var commaMatcher = parsly.NewToken(commaToken, ",", matcher.NewByte(','))
var lparenMatcher = parsly.NewToken(lparenToken, "(", matcher.NewByte('('))
var rparenMatcher = parsly.NewToken(rparenToken, ")", matcher.NewByte(')'))
var arrowMatcher = parsly.NewToken(arrowToken, "->", matcher.NewFragment("->"))
var questionMatcher = parsly.NewToken(questionToken, "?", matcher.NewByte('?'))
var colonMatcher = parsly.NewToken(colonToken, ":", matcher.NewByte(':'))
var ampMatcher = parsly.NewToken(ampToken, "&", matcher.NewByte('&'))

// Modifiers need trailing whitespace so names like "inner" or "output" stay names.
var inMatcher = parsly.NewToken(inToken, "in", &keywordMatch{word: "in"})
var outMatcher = parsly.NewToken(outToken, "out", &keywordMatch{word: "out"})
var spreadMatcher = parsly.NewToken(spreadToken, "@spread", &keywordMatch{word: "@spread"})
var reifiedMatcher = parsly.NewToken(reifiedToken, "reified", &keywordMatch{word: "reified"})

var nameMatcher = parsly.NewToken(nameToken, "Name", &qualifiedNameMatch{})

type keywordMatch struct{ word string }

func (k *keywordMatch) Match(cursor *parsly.Cursor) int {
	end := cursor.Pos + len(k.word)
	if end >= cursor.InputSize || string(cursor.Input[cursor.Pos:end]) != k.word {
		return 0
	}
	switch cursor.Input[end] {
	case ' ', '\t', '\n', '\r':
		return len(k.word)
	}
	return 0
}

// qualifiedNameMatch matches dot-separated identifiers. Bytes above 0x7f are
// accepted as identifier parts so normalized non-ASCII names pass through.
type qualifiedNameMatch struct{}

func (q *qualifiedNameMatch) Match(cursor *parsly.Cursor) int {
	pos := cursor.Pos
	for {
		if pos >= cursor.InputSize || !isNameStart(cursor.Input[pos]) {
			return 0
		}
		pos++
		for pos < cursor.InputSize && isNamePart(cursor.Input[pos]) {
			pos++
		}
		if pos+1 < cursor.InputSize && cursor.Input[pos] == '.' && isNameStart(cursor.Input[pos+1]) {
			pos++
			continue
		}
		return pos - cursor.Pos
	}
}

func isNameStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' || b == '$' || b >= 0x80
}

func isNamePart(b byte) bool {
	return isNameStart(b) || (b >= '0' && b <= '9')
}
