// Package tagger provides a part-of-speech tagger used for keyword extraction.
package tagger

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// POS is a coarse part-of-speech tag
type POS string

const (
	NOUN  POS = "NOUN"
	PROPN POS = "PROPN"
	VERB  POS = "VERB"
	AUX   POS = "AUX"
	ADJ   POS = "ADJ"
	ADV   POS = "ADV"
	ADP   POS = "ADP"
	DET   POS = "DET"
	PRON  POS = "PRON"
	CCONJ POS = "CCONJ"
	SCONJ POS = "SCONJ"
	PART  POS = "PART"
	NUM   POS = "NUM"
	PUNCT POS = "PUNCT"
	SYM   POS = "SYM"
	SPACE POS = "SPACE"
	X     POS = "X"
)

var knownPOS = map[POS]bool{
	NOUN: true, PROPN: true, VERB: true, AUX: true, ADJ: true, ADV: true, ADP: true, DET: true,
	PRON: true, CCONJ: true, SCONJ: true, PART: true, NUM: true, PUNCT: true, SYM: true, SPACE: true, X: true,
}

// Token is a tagged token
type Token struct {
	Text string
	POS  POS
}

// IsContent reports whether the token is a noun or proper noun
func (t Token) IsContent() bool {
	return t.POS == NOUN || t.POS == PROPN
}

// Tagger splits text into tagged tokens. Implementations must be safe for concurrent use.
type Tagger interface {
	Tag(text string) []Token
}

// ErrTaggerUnavailable is returned when a tagger cannot be loaded
var ErrTaggerUnavailable = errors.New("tagger unavailable")

//go:embed lexicon.txt
var defaultLexicon string

// LexicalTagger tags tokens using a closed-class lexicon and suffix rules
type LexicalTagger struct {
	lexicon map[string]POS
}

// NewLexicalTagger returns a tagger backed by the built-in lexicon
func NewLexicalTagger() *LexicalTagger {
	lex, err := parseLexicon(strings.NewReader(defaultLexicon))
	if err != nil {
		panic(fmt.Sprintf("built-in lexicon is invalid: %v", err))
	}
	return &LexicalTagger{lexicon: lex}
}

// LoadLexicalTagger returns a tagger with the built-in lexicon extended by the file at path.
// An empty path yields the built-in tagger.
func LoadLexicalTagger(path string) (*LexicalTagger, error) {
	t := NewLexicalTagger()
	if path == "" {
		return t, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTaggerUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	extra, err := parseLexicon(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTaggerUnavailable, path, err)
	}
	for word, pos := range extra {
		t.lexicon[word] = pos
	}
	return t, nil
}

func parseLexicon(r io.Reader) (map[string]POS, error) {
	lex := make(map[string]POS)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected 'word POS', got %q", lineNo, line)
		}
		pos := POS(strings.ToUpper(fields[1]))
		if !knownPOS[pos] {
			return nil, fmt.Errorf("line %d: unknown tag %q", lineNo, fields[1])
		}
		lex[strings.ToLower(fields[0])] = pos
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lex, nil
}

// Tag tokenizes text and assigns a tag to every token
func (t *LexicalTagger) Tag(text string) []Token {
	raw := Tokenize(text)
	tokens := make([]Token, 0, len(raw))
	sentenceStart := true
	for _, tok := range raw {
		pos := t.classify(tok, sentenceStart)
		tokens = append(tokens, Token{Text: tok, POS: pos})
		switch {
		case pos == SPACE, tok == "." || tok == "!" || tok == "?" || tok == "•":
			sentenceStart = true
		default:
			sentenceStart = false
		}
	}
	return tokens
}

func (t *LexicalTagger) classify(tok string, sentenceStart bool) POS {
	first := []rune(tok)[0]
	switch {
	case unicode.IsSpace(first):
		return SPACE
	case !isWordRune(first):
		if unicode.IsSymbol(first) {
			return SYM
		}
		return PUNCT
	}

	lower := strings.ToLower(tok)
	if pos, ok := t.lexicon[lower]; ok {
		return pos
	}
	if isNumeric(lower) {
		return NUM
	}
	if pos, ok := suffixPOS(lower); ok {
		return pos
	}
	if unicode.IsUpper(first) && !sentenceStart {
		return PROPN
	}
	return NOUN
}

var suffixRules = []struct {
	suffix string
	pos    POS
}{
	{"ly", ADV},
	{"ing", VERB},
	{"ed", VERB},
	{"ous", ADJ},
	{"ful", ADJ},
	{"ive", ADJ},
	{"able", ADJ},
	{"ible", ADJ},
	{"less", ADJ},
	{"ical", ADJ},
}

func suffixPOS(word string) (POS, bool) {
	n := len([]rune(word))
	for _, rule := range suffixRules {
		// short words such as "bed" or "fly" are left to the noun default
		if n > len(rule.suffix)+2 && strings.HasSuffix(word, rule.suffix) {
			return rule.pos, true
		}
	}
	return "", false
}

func isNumeric(word string) bool {
	digits := 0
	for _, r := range word {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '.' || r == ',' || r == '-' || r == '%' || r == '+' || r == 'x' || r == 'k' || r == 'm':
		default:
			return false
		}
	}
	return digits > 0
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// Tokenize splits text into word, punctuation and line-break tokens. Runs of
// whitespace containing a newline become a single "\n" token; other whitespace
// is dropped. Tech terms such as c++, c#, node.js and ci/cd stay whole.
func Tokenize(text string) []string {
	runes := []rune(norm.NFKC.String(strings.ToValidUTF8(text, "")))
	var tokens []string

	for i := 0; i < len(runes); {
		r := runes[i]

		if unicode.IsSpace(r) {
			j := i
			newline := false
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				if runes[j] == '\n' {
					newline = true
				}
				j++
			}
			if newline {
				tokens = append(tokens, "\n")
			}
			i = j
			continue
		}

		if !isWordRune(r) {
			if !unicode.IsControl(r) {
				tokens = append(tokens, string(r))
			}
			i++
			continue
		}

		j := i + 1
		for j < len(runes) {
			c := runes[j]
			if isWordRune(c) {
				j++
				continue
			}
			// inner joiners: node.js, ci/cd, e-commerce, o'brien
			if (c == '.' || c == '/' || c == '-' || c == '\'') && j+1 < len(runes) && isWordRune(runes[j+1]) {
				j += 2
				continue
			}
			// trailing operators: c++, c#, f#
			if c == '+' || c == '#' {
				for j < len(runes) && (runes[j] == '+' || runes[j] == '#') {
					j++
				}
			}
			break
		}
		tokens = append(tokens, string(runes[i:j]))
		i = j
	}
	return tokens
}
