package translator

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/chazu/pipes/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// Argument grammar shared by the decoder and the encoder.
//
//	true, false          Boolean
//	12                   Integer
//	12l  12f  12d  1.5   Long, Float, Double, Double
//	'text'               String
//	`name                Enum
//	>25  <='a'           Predicate
//	anything else        String (raw identifier)
// ---------------------------------------------------------------------------

var bareString = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// ParseArgument classifies one literal. A malformed numeric literal yields
// the raw text as a String together with an *ArgumentError; callers decide
// whether the error is fatal.
func ParseArgument(text string) (bytecode.Argument, error) {
	s := strings.TrimSpace(text)
	switch {
	case s == "true":
		return bytecode.Boolean(true), nil
	case s == "false":
		return bytecode.Boolean(false), nil
	case isNumeric(s):
		return parseNumber(s)
	case len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'':
		return bytecode.String(s[1 : len(s)-1]), nil
	case strings.HasPrefix(s, "`"):
		return bytecode.Enum(s[1:]), nil
	}

	if c, rest, ok := bytecode.CutComparator(s); ok && rest != "" {
		operand, err := ParseArgument(rest)
		if _, nested := operand.(bytecode.Predicate); !nested {
			return bytecode.P(c, operand), err
		}
	}
	return bytecode.String(s), nil
}

// ParseArguments splits a comma-separated argument list and parses each
// element. Blank input yields no arguments. Every element is returned even
// when some are malformed; the error is the first *ArgumentError seen.
func ParseArguments(text string) ([]bytecode.Argument, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var args []bytecode.Argument
	var first error
	for _, part := range strings.Split(text, ",") {
		a, err := ParseArgument(part)
		if err != nil && first == nil {
			first = err
		}
		args = append(args, a)
	}
	return args, first
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func parseNumber(s string) (bytecode.Argument, error) {
	body := s[:len(s)-1]
	var (
		arg bytecode.Argument
		err error
	)
	switch s[len(s)-1] {
	case 'l', 'L':
		var n int64
		n, err = strconv.ParseInt(body, 10, 64)
		arg = bytecode.Long(n)
	case 'f', 'F':
		var f float64
		f, err = strconv.ParseFloat(body, 32)
		arg = bytecode.Float(f)
	case 'd', 'D':
		var f float64
		f, err = strconv.ParseFloat(body, 64)
		arg = bytecode.Double(f)
	default:
		if strings.Contains(s, ".") {
			var f float64
			f, err = strconv.ParseFloat(s, 64)
			arg = bytecode.Double(f)
		} else {
			var n int64
			n, err = strconv.ParseInt(s, 10, 32)
			arg = bytecode.Integer(n)
		}
	}
	if err != nil {
		return bytecode.String(s), &ArgumentError{Literal: s, Reason: numError(err)}
	}
	return arg, nil
}

func numError(err error) string {
	if errors.Is(err, strconv.ErrRange) {
		return "numeric literal out of range"
	}
	return "malformed numeric literal"
}

// FormatArgument renders an argument in diagram form. Bindings render as
// their resolved value.
func FormatArgument(a bytecode.Argument) (string, error) {
	switch v := bytecode.Resolve(a).(type) {
	case bytecode.Integer:
		return strconv.FormatInt(int64(v), 10), nil
	case bytecode.Long:
		return strconv.FormatInt(int64(v), 10) + "l", nil
	case bytecode.Float:
		if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
			return "", fmt.Errorf("non-finite float %v", float64(v))
		}
		return strconv.FormatFloat(float64(v), 'f', -1, 32) + "f", nil
	case bytecode.Double:
		if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
			return "", fmt.Errorf("non-finite double %v", float64(v))
		}
		return strconv.FormatFloat(float64(v), 'f', -1, 64) + "d", nil
	case bytecode.Boolean:
		return strconv.FormatBool(bool(v)), nil
	case bytecode.String:
		return formatString(string(v))
	case bytecode.Enum:
		if !bareString.MatchString(string(v)) {
			return "", fmt.Errorf("enum %q is not an identifier", string(v))
		}
		return "`" + string(v), nil
	case bytecode.Predicate:
		if !v.Comparator.Valid() {
			return "", fmt.Errorf("invalid comparator %d", v.Comparator)
		}
		switch bytecode.Resolve(v.Value).(type) {
		case bytecode.Predicate, *bytecode.Bytecode, nil:
			return "", fmt.Errorf("predicate operand must be a literal")
		}
		operand, err := FormatArgument(v.Value)
		if err != nil {
			return "", err
		}
		return v.Comparator.Symbol() + operand, nil
	case *bytecode.Bytecode:
		return "", fmt.Errorf("nested bytecode cannot be written inline")
	case nil:
		return "", fmt.Errorf("nil argument")
	default:
		return "", fmt.Errorf("unsupported argument %T", a)
	}
}

func formatString(s string) (string, error) {
	if strings.ContainsAny(s, ",'\n") {
		return "", fmt.Errorf("string %q contains a comma, quote or newline", s)
	}
	if bareString.MatchString(s) && s != "true" && s != "false" {
		return s, nil
	}
	return "'" + s + "'", nil
}

// FormatArguments renders a comma-separated argument list.
func FormatArguments(args []bytecode.Argument) (string, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		s, err := FormatArgument(a)
		if err != nil {
			return "", fmt.Errorf("argument %d: %w", i, err)
		}
		parts[i] = s
	}
	return strings.Join(parts, ","), nil
}
