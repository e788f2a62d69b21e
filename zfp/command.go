package zfp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// A request is one protocol command under construction: the command name
// plus its ordered parameter list. Parameter values are validated against
// their logical constraints while being added; the first violation sticks
// and fails the call before anything touches the wire. Omitted optional
// parameters are simply absent, never rendered as zero or "".
type request struct {
	name string
	toks []token
	err  error
}

// token is one rendered Name=value pair. Text tokens are re-encoded to
// the session codepage when the frame is built; the rest is plain ASCII.
type token struct {
	name  string
	value string
	text  bool
}

func newRequest(name string) *request {
	return &request{name: name}
}

func (r *request) fail(format string, args ...interface{}) *request {
	if r.err == nil {
		r.err = fmt.Errorf("%s: %s", r.name, fmt.Sprintf(format, args...))
	}
	return r
}

// str adds a bounded-length text parameter.
func (r *request) str(name, v string, max int) *request {
	if r.err != nil {
		return r
	}
	if len([]rune(v)) > max {
		return r.fail("%s is longer than %d symbols", name, max)
	}
	r.toks = append(r.toks, token{name: name, value: v, text: true})
	return r
}

func (r *request) optStr(name, v string, max int) *request {
	if v == "" {
		return r
	}
	return r.str(name, v, max)
}

// num adds a fixed-format numeric parameter. The format is the protocol's
// own notation: '#' per digit, an optional '.' for the decimal point, e.g.
// "####" or "####.##". The integer part is zero-padded to the full width.
func (r *request) num(name string, v float64, format string) *request {
	if r.err != nil {
		return r
	}
	s, err := formatNumber(v, format)
	if err != nil {
		return r.fail("%s: %v", name, err)
	}
	r.toks = append(r.toks, token{name: name, value: s})
	return r
}

// dec adds a variable-width decimal parameter of 1 to max symbols, two
// decimals, minus sign allowed (storno prices and quantities are negative).
func (r *request) dec(name string, v float64, max int) *request {
	if r.err != nil {
		return r
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if len(s) > max {
		return r.fail("%s value %s exceeds %d symbols", name, s, max)
	}
	r.toks = append(r.toks, token{name: name, value: s})
	return r
}

// qty adds a quantity parameter: up to three decimals, trailing zeros
// trimmed, minus sign allowed.
func (r *request) qty(name string, v float64, max int) *request {
	if r.err != nil {
		return r
	}
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if len(s) > max {
		return r.fail("%s value %s exceeds %d symbols", name, s, max)
	}
	r.toks = append(r.toks, token{name: name, value: s})
	return r
}

func (r *request) optDec(name string, v *float64, max int) *request {
	if v == nil {
		return r
	}
	return r.dec(name, *v, max)
}

// enum adds a single-character enumerated parameter. The option's own
// valid() already ran by the time we get here; this keeps the check close
// to the wire for values built from raw bytes.
func (r *request) enum(name string, v byte, validate func() error) *request {
	if r.err != nil {
		return r
	}
	if err := validate(); err != nil {
		return r.fail("%s: %v", name, err)
	}
	r.toks = append(r.toks, token{name: name, value: string(v)})
	return r
}

// date adds a date/time parameter rendered with a fixed layout.
func (r *request) date(name string, t time.Time, layout string) *request {
	if r.err != nil {
		return r
	}
	r.toks = append(r.toks, token{name: name, value: t.Format(layout)})
	return r
}

// payload renders the request as the frame payload: command name and
// Name=value pairs, TAB-terminated, text values in the device codepage.
func (r *request) payload(enc Encoding) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []byte
	out = append(out, []byte(r.name)...)
	out = append(out, tab)
	for _, t := range r.toks {
		out = append(out, []byte(t.name)...)
		out = append(out, '=')
		if t.text {
			vb, err := encodeText(enc, t.value)
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", r.name, t.name, err)
			}
			out = append(out, vb...)
		} else {
			out = append(out, []byte(t.value)...)
		}
		out = append(out, tab)
	}
	return out, nil
}

// formatNumber renders v against a '#' format. "####" gives a zero-padded
// 4-digit integer, "####.##" a 7-symbol fixed-point value. The value must
// be non-negative and fit the digit budget.
func formatNumber(v float64, format string) (string, error) {
	intDigits := 0
	fracDigits := 0
	seenDot := false
	for _, c := range format {
		switch {
		case c == '.':
			seenDot = true
		case c == '#' && seenDot:
			fracDigits++
		case c == '#':
			intDigits++
		default:
			return "", fmt.Errorf("bad number format %q", format)
		}
	}
	if v < 0 {
		return "", fmt.Errorf("value %v must not be negative for format %q", v, format)
	}
	limit := math.Pow(10, float64(intDigits))
	if v >= limit {
		return "", fmt.Errorf("value %v does not fit format %q", v, format)
	}
	if fracDigits == 0 {
		return fmt.Sprintf("%0*d", intDigits, int64(math.Round(v))), nil
	}
	width := intDigits + 1 + fracDigits
	return fmt.Sprintf("%0*.*f", width, fracDigits, v), nil
}
