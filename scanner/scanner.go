// Package scanner converts Lox source text into a sequence of tokens.
package scanner

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"lox/loxerr"
	"lox/token"
)

const eof = -1

// Scan tokenizes source and returns the resulting tokens, terminated by an EOF token.
//
// The scanner surfaces the first lexical fault it hits and stops scanning; it does not attempt to recover and
// collect further errors, matching the propagation policy of spec.md's §7.
func Scan(source string) ([]token.Token, error) {
	s := &scanner{src: []byte(source), line: 1}
	s.next()

	var tokens []token.Token
	for {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens, nil
		}
	}
}

type scanner struct {
	src []byte

	ch         rune
	line       int
	col        int // column of ch
	readOffset int
	lastSize   int
}

func (s *scanner) nextToken() (token.Token, error) {
	s.skipWhitespaceAndComments()

	line, col := s.line, s.col
	newTok := func(kind token.Kind, lexeme string, literal any) token.Token {
		return token.Token{Kind: kind, Lexeme: lexeme, Literal: literal, Line: line, Col: col}
	}

	switch ch := s.ch; {
	case ch == eof:
		return newTok(token.EOF, "", nil), nil
	case ch == '(':
		s.next()
		return newTok(token.LeftParen, "(", nil), nil
	case ch == ')':
		s.next()
		return newTok(token.RightParen, ")", nil), nil
	case ch == '{':
		s.next()
		return newTok(token.LeftBrace, "{", nil), nil
	case ch == '}':
		s.next()
		return newTok(token.RightBrace, "}", nil), nil
	case ch == ',':
		s.next()
		return newTok(token.Comma, ",", nil), nil
	case ch == '.':
		s.next()
		return newTok(token.Dot, ".", nil), nil
	case ch == '-':
		s.next()
		return newTok(token.Minus, "-", nil), nil
	case ch == '+':
		s.next()
		return newTok(token.Plus, "+", nil), nil
	case ch == ';':
		s.next()
		return newTok(token.Semicolon, ";", nil), nil
	case ch == '*':
		s.next()
		return newTok(token.Star, "*", nil), nil
	case ch == '/':
		s.next()
		return newTok(token.Slash, "/", nil), nil
	case ch == '!':
		s.next()
		if s.ch == '=' {
			s.next()
			return newTok(token.BangEqual, "!=", nil), nil
		}
		return newTok(token.Bang, "!", nil), nil
	case ch == '=':
		s.next()
		if s.ch == '=' {
			s.next()
			return newTok(token.EqualEqual, "==", nil), nil
		}
		return newTok(token.Equal, "=", nil), nil
	case ch == '<':
		s.next()
		if s.ch == '=' {
			s.next()
			return newTok(token.LessEqual, "<=", nil), nil
		}
		return newTok(token.Less, "<", nil), nil
	case ch == '>':
		s.next()
		if s.ch == '=' {
			s.next()
			return newTok(token.GreaterEqual, ">=", nil), nil
		}
		return newTok(token.Greater, ">", nil), nil
	case ch == '"':
		return s.scanString(line, col)
	case isDigit(ch):
		return s.scanNumber(line, col), nil
	case isAlpha(ch):
		return s.scanIdentifier(line, col), nil
	default:
		msg := fmt.Sprintf("Unexpected character: %c", ch)
		s.next()
		return token.Token{}, &loxerr.LexError{Msg: msg, Line: line}
	}
}

func (s *scanner) skipWhitespaceAndComments() {
	for {
		switch s.ch {
		case ' ', '\t', '\r', '\n':
			s.next()
		case '/':
			if s.peek() != '/' {
				return
			}
			for s.ch != '\n' && s.ch != eof {
				s.next()
			}
		default:
			return
		}
	}
}

func (s *scanner) scanString(startLine, startCol int) (token.Token, error) {
	s.next() // consume opening quote
	start := s.readOffset - s.lastSize
	for s.ch != '"' {
		if s.ch == eof {
			return token.Token{}, &loxerr.LexError{Msg: "Unterminated string", Line: startLine}
		}
		s.next()
	}
	value := string(s.src[start : s.readOffset-s.lastSize])
	s.next() // consume closing quote
	lexeme := `"` + value + `"`
	return token.Token{Kind: token.String, Lexeme: lexeme, Literal: value, Line: startLine, Col: startCol}, nil
}

func (s *scanner) scanNumber(startLine, startCol int) token.Token {
	start := s.readOffset - s.lastSize
	for isDigit(s.ch) {
		s.next()
	}
	if s.ch == '.' && isDigit(s.peek()) {
		s.next()
		for isDigit(s.ch) {
			s.next()
		}
	}
	lexeme := string(s.src[start : s.readOffset-s.lastSize])
	value, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		panic(fmt.Sprintf("scanning number literal %q: %s", lexeme, err))
	}
	return token.Token{Kind: token.Number, Lexeme: lexeme, Literal: value, Line: startLine, Col: startCol}
}

func (s *scanner) scanIdentifier(startLine, startCol int) token.Token {
	start := s.readOffset - s.lastSize
	for isAlphaNumeric(s.ch) {
		s.next()
	}
	lexeme := string(s.src[start : s.readOffset-s.lastSize])
	if kind, ok := token.Keywords[lexeme]; ok {
		return token.Token{Kind: kind, Lexeme: lexeme, Line: startLine, Col: startCol}
	}
	return token.Token{Kind: token.Identifier, Lexeme: lexeme, Line: startLine, Col: startCol}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isAlpha(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isAlphaNumeric(r rune) bool { return isAlpha(r) || isDigit(r) }

// next reads the next character into s.ch, advancing the cursor and updating line/col bookkeeping.
func (s *scanner) next() {
	if s.ch == '\n' {
		s.line++
		s.col = 0
	} else if s.ch != 0 {
		s.col += s.lastSize
	}

	if s.readOffset >= len(s.src) {
		s.ch = eof
		s.lastSize = 0
		return
	}

	r, size := utf8.DecodeRune(s.src[s.readOffset:])
	s.ch = r
	s.lastSize = size
	s.readOffset += size
}

// peek returns the next character without advancing the cursor.
func (s *scanner) peek() rune {
	if s.readOffset >= len(s.src) {
		return eof
	}
	r, _ := utf8.DecodeRune(s.src[s.readOffset:])
	return r
}
