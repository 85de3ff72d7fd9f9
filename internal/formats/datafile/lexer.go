package datafile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"energymodel-convert/internal/formats"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokQuoted
	tokAssign // :=
	tokColon
	tokSemi
	tokLBracket
	tokRBracket
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of file"
	}
	return t.text
}

// lex splits a datafile into tokens. Comments run from # to end of line.
func lex(in io.Reader) ([]token, error) {
	reader := bufio.NewReader(in)
	var tokens []token
	line := 1
	var word strings.Builder
	wordLine := 0

	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, token{kind: tokWord, text: word.String(), line: wordLine})
			word.Reset()
		}
	}

	for {
		r, _, err := reader.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("datafile: read: %w", err)
		}
		switch {
		case r == '\n':
			flush()
			line++
		case unicode.IsSpace(r):
			flush()
		case r == '#':
			flush()
			for {
				c, _, err := reader.ReadRune()
				if err != nil || c == '\n' {
					line++
					break
				}
			}
		case r == '\'' || r == '"':
			flush()
			start := line
			var quoted strings.Builder
			for {
				c, _, err := reader.ReadRune()
				if err != nil {
					return nil, &formats.FormatError{Location: fmt.Sprintf("line %d", start), Reason: "unterminated quoted member"}
				}
				if c == r {
					// A doubled quote stands for one literal quote.
					next, _, err := reader.ReadRune()
					if err == nil && next == r {
						quoted.WriteRune(c)
						continue
					}
					if err == nil {
						_ = reader.UnreadRune()
					}
					break
				}
				if c == '\n' {
					line++
				}
				quoted.WriteRune(c)
			}
			tokens = append(tokens, token{kind: tokQuoted, text: quoted.String(), line: start})
		case r == ':':
			flush()
			next, _, err := reader.ReadRune()
			if err == nil && next == '=' {
				tokens = append(tokens, token{kind: tokAssign, text: ":=", line: line})
				continue
			}
			if err == nil {
				_ = reader.UnreadRune()
			}
			tokens = append(tokens, token{kind: tokColon, text: ":", line: line})
		case r == ';':
			flush()
			tokens = append(tokens, token{kind: tokSemi, text: ";", line: line})
		case r == '[':
			flush()
			tokens = append(tokens, token{kind: tokLBracket, text: "[", line: line})
		case r == ']':
			flush()
			tokens = append(tokens, token{kind: tokRBracket, text: "]", line: line})
		case r == ',':
			flush()
			tokens = append(tokens, token{kind: tokComma, text: ",", line: line})
		default:
			if word.Len() == 0 {
				wordLine = line
			}
			word.WriteRune(r)
		}
	}
	flush()
	tokens = append(tokens, token{kind: tokEOF, line: line})
	return tokens, nil
}
