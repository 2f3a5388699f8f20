package errors

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"unicode/utf8"
)

const (
	// fmt prefixes every formatting complaint with this marker
	badVerbMarker = "%!"
	// fmt rejects widths, precisions and indexes beyond this bound
	maxFormatNum = 1e6
)

// render formats the message and reports whether the template could be
// applied to args without a formatting error.
func render(format string, args []any) (string, bool) {
	p := &templateParser{format: format, args: args}
	directives, ok := p.parse()
	if !ok {
		return "", false
	}

	for _, d := range directives {
		if !argFits(d, args[d.arg]) {
			return "", false
		}
	}

	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		return "", false
	}

	return msg, true
}

// directive is a conversion in the template that consumes an argument
type directive struct {
	verb  rune
	sharp bool
	arg   int
}

// templateParser walks a template the way fmt does and fails wherever fmt
// would emit a complaint about the template itself.
type templateParser struct {
	format    string
	args      []any
	argNum    int
	reordered bool
	goodArg   bool
}

func (p *templateParser) parse() ([]directive, bool) {
	var directives []directive
	end := len(p.format)

	for i := 0; i < end; {
		for i < end && p.format[i] != '%' {
			i++
		}
		if i >= end {
			break
		}
		i++

		p.goodArg = true
		sharp := false
	flags:
		for ; i < end; i++ {
			switch p.format[i] {
			case '#':
				sharp = true
			case '0', '+', '-', ' ':
			default:
				break flags
			}
		}

		var afterIndex bool
		i, afterIndex = p.argNumber(i)

		// Width
		if i < end && p.format[i] == '*' {
			i++
			if _, ok := p.intArg(); !ok {
				return nil, false
			}
			afterIndex = false
		} else {
			var present bool
			present, i = skipNum(p.format, i)
			if afterIndex && present {
				p.goodArg = false
			}
		}

		// Precision
		if i+1 < end && p.format[i] == '.' {
			i++
			if afterIndex {
				p.goodArg = false
			}
			i, afterIndex = p.argNumber(i)
			if i < end && p.format[i] == '*' {
				i++
				if prec, ok := p.intArg(); !ok || prec < 0 {
					return nil, false
				}
				afterIndex = false
			} else {
				_, i = skipNum(p.format, i)
			}
		}

		if !afterIndex {
			i, _ = p.argNumber(i)
		}

		if i >= end {
			return nil, false
		}

		verb, size := utf8.DecodeRuneInString(p.format[i:])
		i += size

		switch {
		case verb == '%':
		case !p.goodArg, p.argNum >= len(p.args):
			return nil, false
		default:
			directives = append(directives, directive{verb: verb, sharp: sharp, arg: p.argNum})
			p.argNum++
		}
	}

	// fmt only reports unused arguments when none were indexed explicitly
	if !p.reordered && p.argNum < len(p.args) {
		return nil, false
	}

	return directives, true
}

// argNumber consumes an explicit [n] argument index at i, if present
func (p *templateParser) argNumber(i int) (int, bool) {
	if i >= len(p.format) || p.format[i] != '[' {
		return i, false
	}
	p.reordered = true

	index, width, ok := parseArgIndex(p.format[i:])
	if ok && index >= 0 && index < len(p.args) {
		p.argNum = index
		return i + width, true
	}

	p.goodArg = false
	return i + width, ok
}

// intArg consumes the argument of a '*' width or precision
func (p *templateParser) intArg() (int, bool) {
	if p.argNum >= len(p.args) {
		return 0, false
	}
	v := reflect.ValueOf(p.args[p.argNum])
	p.argNum++

	var n int64
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > maxFormatNum {
			return 0, false
		}
		n = int64(u)
	default:
		return 0, false
	}

	if n > maxFormatNum || n < -maxFormatNum {
		return 0, false
	}

	return int(n), true
}

// parseArgIndex parses "[n]" at the start of s and returns the zero-based
// index and the number of bytes consumed.
func parseArgIndex(s string) (int, int, bool) {
	if len(s) < 3 {
		return 0, 1, false
	}

	for i := 1; i < len(s); i++ {
		if s[i] == ']' {
			n := 0
			for j := 1; j < i; j++ {
				c := s[j]
				if c < '0' || c > '9' || n > maxFormatNum {
					return 0, i + 1, false
				}
				n = n*10 + int(c-'0')
			}
			if i == 1 {
				return 0, i + 1, false
			}
			return n - 1, i + 1, true
		}
	}

	return 0, 1, false
}

// skipNum skips a run of digits starting at i. An overlong number makes fmt
// give up on the rest of the template.
func skipNum(s string, i int) (bool, int) {
	start := i
	n := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n > maxFormatNum {
			return false, len(s)
		}
		n = n*10 + int(s[i]-'0')
	}

	return i > start, i
}

// argFits reports whether arg can be rendered by the directive's verb.
// The verb's rendering may not carry more fmt complaints than the argument's
// plain text already does.
func argFits(d directive, arg any) bool {
	if methodPanics(arg, d.verb, d.sharp) {
		return false
	}
	if d.verb == 'v' || d.verb == 'T' {
		return true
	}

	rendered := fmt.Sprintf("%"+string(d.verb), arg)

	return strings.Count(rendered, badVerbMarker) <= strings.Count(plainText(arg), badVerbMarker)
}

func plainText(arg any) string {
	v := reflect.ValueOf(arg)
	if (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && v.Type().Elem().Kind() == reflect.Uint8 {
		return fmt.Sprintf("%s", arg)
	}

	return fmt.Sprint(arg)
}

// methodPanics calls the formatting method fmt would call for verb and
// reports whether it panicked. fmt prints nil pointer receivers as <nil>.
func methodPanics(arg any, verb rune, sharp bool) (panicked bool) {
	if verb == 'T' || verb == 'p' {
		return false
	}
	if v := reflect.ValueOf(arg); v.Kind() == reflect.Pointer && v.IsNil() {
		return false
	}

	defer func() {
		if recover() != nil {
			panicked = true
		}
	}()

	if f, ok := arg.(fmt.Formatter); ok {
		f.Format(discardState{}, verb)
		return false
	}

	if sharp && verb == 'v' {
		if g, ok := arg.(fmt.GoStringer); ok {
			_ = g.GoString()
		}
		return false
	}

	switch verb {
	case 'v', 's', 'x', 'X', 'q':
		switch v := arg.(type) {
		case error:
			_ = v.Error()
		case fmt.Stringer:
			_ = v.String()
		}
	}

	return false
}

// discardState is the fmt.State handed to Formatter arguments during checks
type discardState struct{}

func (discardState) Write(b []byte) (int, error) { return io.Discard.Write(b) }
func (discardState) Width() (int, bool)          { return 0, false }
func (discardState) Precision() (int, bool)      { return 0, false }
func (discardState) Flag(int) bool               { return false }
