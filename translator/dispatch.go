package translator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/chazu/pipes/pkg/bytecode"
)

// RuleKind says how a matched token becomes instructions.
type RuleKind uint8

const (
	// RuleStep decodes a single token into one instruction.
	RuleStep RuleKind = iota
	// RuleChildren is a sigil followed by [ whose branches become nested
	// bytecode arguments.
	RuleChildren
	// RuleLoop is the [^ marker that opens a repeat body.
	RuleLoop
)

func (k RuleKind) String() string {
	switch k {
	case RuleStep:
		return "step"
	case RuleChildren:
		return "children"
	case RuleLoop:
		return "loop"
	}
	return "unknown"
}

// Rule is one dispatch table entry. Decode turns the pattern submatches of
// a token into an instruction; Render is its inverse and reports false when
// the rule cannot express the instruction.
type Rule struct {
	Name     string
	Operator string
	Kind     RuleKind
	Pattern  *regexp.Regexp
	Example  string
	Decode   func(m []string) (bytecode.Instruction, error)
	Render   func(ins bytecode.Instruction) (string, bool)
}

// Table is an ordered rule list. The first matching rule wins, so a rule
// listed after a more general overlapping one is unreachable for the tokens
// they share.
type Table []Rule

// Match returns the first rule whose pattern matches text, with its
// submatches. Children rules only apply when a [ follows the token.
func (t Table) Match(text string, branchFollows bool) (*Rule, []string) {
	for i := range t {
		r := &t[i]
		if r.Kind == RuleChildren && !branchFollows {
			continue
		}
		if m := r.Pattern.FindStringSubmatch(text); m != nil {
			return r, m
		}
	}
	return nil, nil
}

// Renderers returns the rules able to render op, in table order.
func (t Table) Renderers(op string) []*Rule {
	var out []*Rule
	for i := range t {
		r := &t[i]
		if r.Render == nil || r.Kind != RuleStep {
			continue
		}
		if r.Operator == op || r.Operator == "" {
			out = append(out, r)
		}
	}
	return out
}

// Sigil returns the children rule for op, if op draws branches.
func (t Table) Sigil(op string) (*Rule, bool) {
	for i := range t {
		if t[i].Kind == RuleChildren && t[i].Operator == op {
			return &t[i], true
		}
	}
	return nil, false
}

// DefaultTable returns a copy of the built-in dispatch table.
func DefaultTable() Table {
	return append(Table(nil), defaultTable...)
}

const comparatorGroup = `(==|!=|<=|>=|<|>)`

var defaultTable = Table{
	{
		Name: "loop", Operator: "repeat", Kind: RuleLoop,
		Pattern: regexp.MustCompile(`^\[\^$`), Example: "[^-~~>-]",
	},

	directional("bothE", `^<<~(.*)~>>$`, "<<~", "~>>"),
	directional("inE", `^<<~(.*)~$`, "<<~", "~"),
	directional("outE", `^~(.*)~>>$`, "~", "~>>"),
	directional("both", `^<~(.*)~>$`, "<~", "~>"),
	directional("in", `^<~(.*)~$`, "<~", "~"),
	directional("out", `^~(.*)~>$`, "~", "~>"),

	fixed("bothV", "<<>>"),
	fixed("inV", "<<"),
	fixed("outV", ">>"),

	prefixed("values", `^~(.+)$`, "~"),
	prefixed("as", `^@(.+)$`, "@"),
	prefixed("select", `^\*(.+)$`, "*"),

	fixed("count", "}$"),
	fixed("sum", "}+"),
	fixed("groupCount", "}%$"),
	fixed("group", "}%"),
	fixed("barrier", "}{"),
	{
		Name: "barrier(n)", Operator: "barrier",
		Pattern: regexp.MustCompile(`^\}([0-9][^{}]*)\{$`), Example: "}2500{",
		Decode: argsFromGroup("barrier", 1),
		Render: func(ins bytecode.Instruction) (string, bool) {
			if len(ins.Arguments) != 1 {
				return "", false
			}
			return wrapArgs(ins, "}", "{")
		},
	},
	{
		Name: "aggregate", Operator: "aggregate",
		Pattern: regexp.MustCompile(`^\}(.+)\{$`), Example: "}x{",
		Decode: argsFromGroup("aggregate", 1),
		Render: func(ins bytecode.Instruction) (string, bool) {
			if len(ins.Arguments) == 0 {
				return "", false
			}
			return wrapArgs(ins, "}", "{")
		},
	},

	{
		Name: "where", Operator: "where",
		Pattern: regexp.MustCompile(`^#\*([^=!<>]+)` + comparatorGroup + `\*(.+)$`), Example: "#*a==*b",
		Decode: func(m []string) (bytecode.Instruction, error) {
			c, _ := bytecode.ComparatorBySymbol(m[2])
			return bytecode.NewInstruction("where", bytecode.String(m[1]), bytecode.P(c, bytecode.String(m[3]))), nil
		},
		Render: func(ins bytecode.Instruction) (string, bool) {
			if len(ins.Arguments) != 2 {
				return "", false
			}
			left, ok := labelOf(ins.Arguments[0])
			if !ok {
				return "", false
			}
			p, ok := bytecode.Resolve(ins.Arguments[1]).(bytecode.Predicate)
			if !ok {
				return "", false
			}
			right, ok := labelOf(p.Value)
			if !ok || !p.Comparator.Valid() {
				return "", false
			}
			return "#*" + left + p.Comparator.Symbol() + "*" + right, true
		},
	},
	{
		Name: "where(P)", Operator: "where",
		Pattern: regexp.MustCompile(`^#` + comparatorGroup + `\*(.+)$`), Example: "#<*b",
		Decode: func(m []string) (bytecode.Instruction, error) {
			c, _ := bytecode.ComparatorBySymbol(m[1])
			return bytecode.NewInstruction("where", bytecode.P(c, bytecode.String(m[2]))), nil
		},
		Render: func(ins bytecode.Instruction) (string, bool) {
			if len(ins.Arguments) != 1 {
				return "", false
			}
			p, ok := bytecode.Resolve(ins.Arguments[0]).(bytecode.Predicate)
			if !ok || !p.Comparator.Valid() {
				return "", false
			}
			right, ok := labelOf(p.Value)
			if !ok {
				return "", false
			}
			return "#" + p.Comparator.Symbol() + "*" + right, true
		},
	},
	{
		Name: "has(P)", Operator: "has",
		Pattern: regexp.MustCompile(`^#([^*,=!<>][^,=!<>]*)` + comparatorGroup + `(.+)$`), Example: "#age>25",
		Decode: func(m []string) (bytecode.Instruction, error) {
			c, _ := bytecode.ComparatorBySymbol(m[2])
			operand, err := ParseArgument(m[3])
			return bytecode.NewInstruction("has", bytecode.String(m[1]), bytecode.P(c, operand)), err
		},
		Render: func(ins bytecode.Instruction) (string, bool) {
			if len(ins.Arguments) != 2 {
				return "", false
			}
			key, ok := labelOf(ins.Arguments[0])
			if !ok {
				return "", false
			}
			if _, ok := bytecode.Resolve(ins.Arguments[1]).(bytecode.Predicate); !ok {
				return "", false
			}
			p, err := FormatArgument(ins.Arguments[1])
			if err != nil {
				return "", false
			}
			return "#" + key + p, true
		},
	},
	prefixed("has", `^#([^*].*)$`, "#"),

	{
		Name: "times", Operator: "times",
		Pattern: regexp.MustCompile(`^x([0-9]+)$`), Example: "x3",
		Decode: argsFromGroup("times", 1),
		Render: func(ins bytecode.Instruction) (string, bool) {
			if len(ins.Arguments) != 1 {
				return "", false
			}
			n, ok := bytecode.Resolve(ins.Arguments[0]).(bytecode.Integer)
			if !ok || n < 0 {
				return "", false
			}
			return "x" + strconv.Itoa(int(n)), true
		},
	},
	fixed("identity", "i"),

	{
		Name: "call", Kind: RuleStep,
		Pattern: regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\((.*)\)$`), Example: "limit(10)",
		Decode: func(m []string) (bytecode.Instruction, error) {
			args, err := ParseArguments(m[2])
			return bytecode.NewInstruction(m[1], args...), err
		},
		Render: renderCall,
	},

	children("union", "U"),
	children("match", "M"),
	children("and", "A"),
	children("or", "O"),
	children("not", "N"),
	children("local", "L"),
	children("coalesce", "C"),
	children("until", "T"),
}

var callName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// renderCall writes the generic op(args) form. It serves every operator.
func renderCall(ins bytecode.Instruction) (string, bool) {
	if !callName.MatchString(ins.Operator) {
		return "", false
	}
	args, err := FormatArguments(ins.Arguments)
	if err != nil {
		return "", false
	}
	return ins.Operator + "(" + args + ")", true
}

// directional builds an edge or vertex step written between two arrows.
func directional(op, pattern, open, close string) Rule {
	return Rule{
		Name: op, Operator: op,
		Pattern: regexp.MustCompile(pattern), Example: open + "knows" + close,
		Decode:  argsFromGroup(op, 1),
		Render: func(ins bytecode.Instruction) (string, bool) {
			return wrapArgs(ins, open, close)
		},
	}
}

// prefixed builds a step written as a sigil followed by at least one argument.
func prefixed(op, pattern, sigil string) Rule {
	return Rule{
		Name: op, Operator: op,
		Pattern: regexp.MustCompile(pattern), Example: sigil + "name",
		Decode:  argsFromGroup(op, 1),
		Render: func(ins bytecode.Instruction) (string, bool) {
			if len(ins.Arguments) == 0 {
				return "", false
			}
			return wrapArgs(ins, sigil, "")
		},
	}
}

// fixed builds a zero-argument step written as literal glyphs.
func fixed(op, glyphs string) Rule {
	return Rule{
		Name: op, Operator: op,
		Pattern: regexp.MustCompile("^" + regexp.QuoteMeta(glyphs) + "$"), Example: glyphs,
		Decode: func([]string) (bytecode.Instruction, error) {
			return bytecode.NewInstruction(op), nil
		},
		Render: func(ins bytecode.Instruction) (string, bool) {
			return glyphs, len(ins.Arguments) == 0
		},
	}
}

func children(op, sigil string) Rule {
	return Rule{
		Name: op, Operator: op, Kind: RuleChildren,
		Pattern: regexp.MustCompile("^" + regexp.QuoteMeta(sigil) + "$"), Example: sigil + "[ ]",
		Render: func(bytecode.Instruction) (string, bool) {
			return sigil, true
		},
	}
}

func argsFromGroup(op string, group int) func([]string) (bytecode.Instruction, error) {
	return func(m []string) (bytecode.Instruction, error) {
		args, err := ParseArguments(m[group])
		return bytecode.NewInstruction(op, args...), err
	}
}

func wrapArgs(ins bytecode.Instruction, open, close string) (string, bool) {
	args, err := FormatArguments(ins.Arguments)
	if err != nil {
		return "", false
	}
	return open + args + close, true
}

// labelOf returns the text of a String argument usable as a step label.
func labelOf(a bytecode.Argument) (string, bool) {
	s, ok := bytecode.Resolve(a).(bytecode.String)
	if !ok || s == "" || strings.ContainsAny(string(s), "=!<>*,'") {
		return "", false
	}
	return string(s), true
}

// fallbackInstruction decodes a token no rule matched: the first
// comma-separated element is the operator, the rest are arguments.
func fallbackInstruction(text string) (bytecode.Instruction, error) {
	parts := strings.SplitN(text, ",", 2)
	ins := bytecode.NewInstruction(strings.TrimSpace(parts[0]))
	if len(parts) == 2 {
		args, err := ParseArguments(parts[1])
		ins.Arguments = args
		return ins, err
	}
	return ins, nil
}
