package langroute

import (
	"strings"
	"unicode"
)

// englishShortTokens short-circuits common greetings to English before any
// script or stopword analysis runs.
var englishShortTokens = []string{
	" hello ", " hi ", " hey ", " thanks ", " thank you ", " goodbye ", " bye ",
}

type scriptRange struct {
	code   Code
	ranges *unicode.RangeTable
}

// scriptRanges are checked in order; the first one any rune in the text
// falls into wins. Order matters only in that it matches the order the
// product's heuristic has always checked them in.
var scriptRanges = []scriptRange{
	{code: "zh", ranges: unicodeRange(0x4e00, 0x9fff)},
	{code: "ja", ranges: unicodeRangeUnion(unicodeRange(0x3040, 0x309f), unicodeRange(0x30a0, 0x30ff))},
	{code: "ko", ranges: unicodeRange(0xac00, 0xd7af)},
	{code: "ar", ranges: unicodeRange(0x0600, 0x06ff)},
	{code: "he", ranges: unicodeRange(0x0590, 0x05ff)},
	{code: "ru", ranges: unicodeRange(0x0400, 0x04ff)},
	{code: "hi", ranges: unicodeRange(0x0900, 0x097f)},
	{code: "el", ranges: unicodeRange(0x0370, 0x03ff)},
	{code: "th", ranges: unicodeRange(0x0e00, 0x0e7f)},
}

func unicodeRange(lo, hi rune) *unicode.RangeTable {
	return &unicode.RangeTable{
		R32: []unicode.Range32{{Lo: uint32(lo), Hi: uint32(hi), Stride: 1}},
	}
}

func unicodeRangeUnion(a, b *unicode.RangeTable) *unicode.RangeTable {
	return &unicode.RangeTable{R32: append(append([]unicode.Range32{}, a.R32...), b.R32...)}
}

// latinStopwords holds, per Latin-script language, a handful of
// space-padded stopwords used to score which language a text is most likely
// written in. A language needs at least two hits to be declared confident.
// Ordered (not a map) so a tied score deterministically favors the earlier
// entry, matching Python's insertion-ordered max() behavior.
var latinStopwords = []struct {
	code  Code
	words []string
}{
	{"en", []string{" the ", " and ", " what ", " is ", " of ", " to ", " in "}},
	{"es", []string{" el ", " la ", " los ", " las ", " de ", " del ", " que ", " por ", " para ", " es ", " qué "}},
	{"fr", []string{" le ", " la ", " les ", " des ", " du ", " est ", " que ", " pour ", " avec ", " sur "}},
	{"de", []string{" der ", " die ", " das ", " und ", " ist ", " nicht ", " mit ", " auf "}},
	{"it", []string{" il ", " lo ", " la ", " gli ", " le ", " che ", " per ", " con ", " non ", " è "}},
	{"pt", []string{" o ", " a ", " os ", " as ", " de ", " do ", " da ", " que ", " para ", " com ", " não "}},
}

// DetectSimple is a lightweight, dependency-free language guess used only
// for mismatch detection. It returns Unknown when it isn't confident.
func DetectSimple(text string) Code {
	if strings.TrimSpace(text) == "" {
		return Unknown
	}
	padded := " " + strings.ToLower(text) + " "

	for _, token := range englishShortTokens {
		if strings.Contains(padded, token) {
			return English
		}
	}

	for _, sr := range scriptRanges {
		if containsRuneIn(text, sr.ranges) {
			return sr.code
		}
	}

	bestCode := Unknown
	bestScore := 0
	for _, entry := range latinStopwords {
		score := 0
		for _, w := range entry.words {
			if strings.Contains(padded, w) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestCode = entry.code
		}
	}
	if bestScore >= 2 {
		return bestCode
	}
	return Unknown
}

func containsRuneIn(text string, table *unicode.RangeTable) bool {
	for _, r := range text {
		if unicode.Is(table, r) {
			return true
		}
	}
	return false
}
