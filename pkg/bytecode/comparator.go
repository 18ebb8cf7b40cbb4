package bytecode

import "fmt"

// Comparator is the operator of a Predicate.
type Comparator uint8

const (
	Eq Comparator = iota + 1
	Neq
	Lt
	Lte
	Gt
	Gte
)

// Comparators lists every comparator in symbol-matching order: two-rune
// symbols come before their one-rune prefixes.
var Comparators = []Comparator{Eq, Neq, Lte, Gte, Lt, Gt}

var comparatorNames = [...]string{
	Eq:  "eq",
	Neq: "neq",
	Lt:  "lt",
	Lte: "lte",
	Gt:  "gt",
	Gte: "gte",
}

var comparatorSymbols = [...]string{
	Eq:  "==",
	Neq: "!=",
	Lt:  "<",
	Lte: "<=",
	Gt:  ">",
	Gte: ">=",
}

// String returns the comparator name (eq, gt, ...).
func (c Comparator) String() string {
	if c.Valid() {
		return comparatorNames[c]
	}
	return fmt.Sprintf("comparator(%d)", uint8(c))
}

// Symbol returns the diagram symbol (==, >, ...).
func (c Comparator) Symbol() string {
	if c.Valid() {
		return comparatorSymbols[c]
	}
	return ""
}

// Valid reports whether c is one of the defined comparators.
func (c Comparator) Valid() bool {
	return c >= Eq && c <= Gte
}

// ComparatorBySymbol looks up a comparator from its diagram symbol.
func ComparatorBySymbol(sym string) (Comparator, bool) {
	for _, c := range Comparators {
		if comparatorSymbols[c] == sym {
			return c, true
		}
	}
	return 0, false
}

// ComparatorByName looks up a comparator from its name.
func ComparatorByName(name string) (Comparator, bool) {
	for _, c := range Comparators {
		if comparatorNames[c] == name {
			return c, true
		}
	}
	return 0, false
}

// CutComparator splits a leading comparator symbol off s. The longest
// symbol wins, so "<=5" yields Lte and "5".
func CutComparator(s string) (Comparator, string, bool) {
	for _, c := range Comparators {
		sym := comparatorSymbols[c]
		if len(s) >= len(sym) && s[:len(sym)] == sym {
			return c, s[len(sym):], true
		}
	}
	return 0, s, false
}
