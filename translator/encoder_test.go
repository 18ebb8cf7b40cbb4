package translator

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bc "github.com/chazu/pipes/pkg/bytecode"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		in   *bc.Bytecode
		want string
	}{
		{
			name: "linear",
			in: bc.New().Add("out").
				Add("in", bc.String("created"), bc.String("knows")).
				Add("values", bc.String("name")).
				Add("count"),
			want: "g-~~>-<~created,knows~-~name-}$",
		},
		{
			name: "empty",
			in:   bc.New(),
			want: "g",
		},
		{
			name: "nil",
			in:   nil,
			want: "g",
		},
		{
			name: "union",
			in:   bc.New().Add("union", bc.New().Add("out"), bc.New().Add("in")),
			want: lines(
				"g-U[     ]",
				"   |\\-~~>",
				"   \\-<~~",
			),
		},
		{
			name: "four branches",
			in: bc.New().Add("union",
				bc.New().Add("values", bc.String("a")),
				bc.New().Add("values", bc.String("b")),
				bc.New().Add("values", bc.String("c")),
				bc.New().Add("values", bc.String("d"))),
			want: lines(
				"   /-~a",
				"   |/-~b",
				"g-U[    ]",
				"   |\\-~c",
				"   \\-~d",
			),
		},
		{
			name: "no branches",
			in:   bc.New().Add("union"),
			want: "g-U[]",
		},
		{
			name: "empty branch",
			in:   bc.New().Add("not", bc.New()),
			want: lines("g-N[ ]", "    \\"),
		},
		{
			name: "loop",
			in:   bc.New().Add("repeat", bc.New().Add("out")).Add("times", bc.Integer(2)),
			want: lines("g-[^-~~>-]", "    \\-x2"),
		},
		{
			name: "loop without continuation",
			in:   bc.New().Add("repeat", bc.New().Add("out")),
			want: "g-[^-~~>-]",
		},
		{
			name: "nested loop",
			in: bc.New().Add("repeat",
				bc.New().Add("repeat", bc.New().Add("out")).Add("times", bc.Integer(2))),
			want: lines("g-[^--[^-~~>-]-]", "        \\-x2"),
		},
		{
			name: "call form",
			in:   bc.New().Add("limit", bc.Integer(-5)).Add("values", bc.Integer(-5)),
			want: "g-limit(-5)-values(-5)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	out := func() *bc.Bytecode { return bc.New().Add("out") }
	tests := []struct {
		name string
		in   *bc.Bytecode
	}{
		{"union then count", bc.New().Add("union", out(), bc.New().Add("in")).Add("count")},
		{"three branches", bc.New().Add("match",
			bc.New().Add("as", bc.String("a")).Add("out", bc.String("knows")).Add("as", bc.String("b")),
			bc.New().Add("as", bc.String("b")).Add("union", out(), bc.New().Add("in")),
			bc.New().Add("as", bc.String("a")).Add("has", bc.String("age"), bc.P(bc.Gt, bc.Integer(30))))},
		{"nested branches", bc.New().Add("union",
			bc.New().Add("union", out(), bc.New().Add("in"), bc.New().Add("both")),
			bc.New().Add("or", out(), bc.New().Add("not", out())),
			bc.New().Add("local", bc.New().Add("values", bc.String("name"))),
			bc.New().Add("and", out(), bc.New().Add("in"), bc.New().Add("both"), bc.New().Add("identity"))).
			Add("count")},
		{"branch before and after", bc.New().Add("out").
			Add("coalesce", bc.New(), out()).
			Add("until", bc.New().Add("has", bc.String("name"), bc.P(bc.Eq, bc.String("marko")))).
			Add("values", bc.String("name"))},
		{"loop with branching body", bc.New().
			Add("repeat", bc.New().Add("union", out(), bc.New().Add("in"))).
			Add("times", bc.Integer(3)).
			Add("count")},
		{"loop then branches above", bc.New().
			Add("repeat", out()).
			Add("union", out(), bc.New().Add("in"), bc.New().Add("both"), bc.New().Add("bothE"))},
		{"loop in branch with sibling below", bc.New().Add("union",
			bc.New().Add("repeat", out()),
			bc.New().Add("in").Add("out").Add("out").Add("out"))},
		{"loop in branch with continuation", bc.New().Add("union",
			bc.New().Add("repeat", out()).Add("times", bc.Integer(2)),
			bc.New().Add("in").Add("out").Add("out").Add("out"),
			bc.New().Add("both"))},
		{"consecutive loops", bc.New().
			Add("repeat", out()).
			Add("repeat", bc.New().Add("in")).
			Add("times", bc.Integer(4))},
		{"empty loop", bc.New().Add("repeat", bc.New()).Add("identity")},
		{"quoted source label in upper branch", bc.New().Add("union",
			bc.New().Add("values", bc.String(" g ")), out(), bc.New().Add("in"))},
		{"quoted backslash below a loop", bc.New().Add("union",
			bc.New().Add("repeat", out()),
			bc.New().Add("values", bc.String("a\\-x3")))},
		{"quoted glyphs in a loop body", bc.New().
			Add("repeat", bc.New().Add("values", bc.String("x]y")).Add("as", bc.String("p/q|r"))).
			Add("times", bc.Integer(2))},
		{"arguments", bc.New().
			Add("has", bc.String("first name"), bc.P(bc.Lte, bc.Double(1.5))).
			Add("has", bc.String("first-name"), bc.P(bc.Eq, bc.String("x"))).
			Add("values", bc.String("with space"), bc.Long(3), bc.Float(0.5), bc.Enum("id")).
			Add("where", bc.String("a"), bc.P(bc.Neq, bc.String("b"))).
			Add("where", bc.P(bc.Gte, bc.String("c"))).
			Add("barrier", bc.Integer(100)).
			Add("aggregate", bc.String("x")).
			Add("select", bc.Boolean(true)).
			Add("limit", bc.Long(10))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Encode(tt.in)
			require.NoError(t, err)

			got, err := Decode(text)
			require.NoError(t, err, "diagram:\n%s", text)
			if !got.Equal(tt.in) {
				t.Fatalf("round trip mismatch\ndiagram:\n%s\n got  %s\n want %s", text, got, tt.in)
			}

			again, err := Encode(got)
			require.NoError(t, err)
			assert.Equal(t, text, again)
		})
	}
}

func TestEveryRuleRoundTrips(t *testing.T) {
	for _, rule := range DefaultTable() {
		t.Run(rule.Name, func(t *testing.T) {
			switch rule.Kind {
			case RuleStep:
				text := "g-" + rule.Example
				b, err := Decode(text)
				require.NoError(t, err)
				require.Equal(t, 1, b.Len())

				got, err := Encode(b)
				require.NoError(t, err)
				assert.Equal(t, text, got)

			case RuleChildren:
				in := bc.New().Add(rule.Operator, bc.New().Add("out"))
				text, err := Encode(in)
				require.NoError(t, err)
				assert.Contains(t, text, "g-"+rule.Example[:len(rule.Example)-3]+"[")

				got, err := Decode(text)
				require.NoError(t, err)
				assert.True(t, got.Equal(in), "got %s", got)

			case RuleLoop:
				in := bc.New().Add(rule.Operator, bc.New().Add("out"))
				text, err := Encode(in)
				require.NoError(t, err)
				assert.Equal(t, "g-"+rule.Example, text)
			}
		})
	}
}

func TestEncodeResolvesBindings(t *testing.T) {
	in := bc.New().Add("has",
		bc.Binding{Name: "k", Value: bc.String("age")},
		bc.P(bc.Gt, bc.Binding{Name: "x", Value: bc.Integer(25)}))

	text, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, "g-#age>25", text)

	got, err := Decode(text)
	require.NoError(t, err)
	assert.True(t, got.Equal(bc.New().Add("has", bc.String("age"), bc.P(bc.Gt, bc.Integer(25)))))
}

func TestEncodeReadsBack(t *testing.T) {
	e := NewEncoder()
	has := bc.New().Add("has",
		bc.String("age"),
		bc.P(bc.Gt, bc.Binding{Name: "x", Value: bc.Integer(25)}))
	assert.NoError(t, e.readsBack("g-#age>25", has))
	assert.NoError(t, e.readsBack("g-L[ ]\n    \\-#age>25",
		bc.New().Add("local", bc.Binding{Name: "b", Value: has})))

	var ue *UnsupportedError
	err := e.readsBack("g-~~>", bc.New().Add("in"))
	require.True(t, errors.As(err, &ue), "got %v", err)
	assert.Equal(t, "diagram", ue.Operator)
	assert.Contains(t, ue.Reason, "reads back as [out()]")

	err = e.readsBack("g-U[-~~>", bc.New())
	require.True(t, errors.As(err, &ue), "got %v", err)
	assert.Contains(t, ue.Reason, "does not decode")
}

func TestEncodeCustomSource(t *testing.T) {
	text, err := Encode(bc.New().Add("out"), WithSource("social"))
	require.NoError(t, err)
	assert.Equal(t, "social-~~>", text)
}

func TestEncodeCanvasOverflow(t *testing.T) {
	wide := bc.New().Add("out").
		Add("in", bc.String("created"), bc.String("knows")).
		Add("values", bc.String("name"))

	_, err := Encode(wide, WithCanvas(10, DefaultCanvasHeight))
	var oe *CanvasOverflowError
	require.True(t, errors.As(err, &oe), "got %v", err)
	assert.Equal(t, 0, oe.Row)
	assert.Equal(t, 10, oe.Col)

	tall := bc.New().Add("union", bc.New().Add("out"), bc.New().Add("in"))
	_, err = Encode(tall, WithCanvas(DefaultCanvasWidth, 2))
	require.True(t, errors.As(err, &oe), "got %v", err)
	assert.Equal(t, 2, oe.Row)
	assert.Equal(t, 3, oe.Col)

	text, err := Encode(wide, WithCanvas(DefaultCanvasWidth, DefaultCanvasHeight))
	require.NoError(t, err)
	assert.Equal(t, "g-~~>-<~created,knows~-~name", text)
}

func TestEncodeUnsupported(t *testing.T) {
	five := bc.New().Add("union", bc.New(), bc.New(), bc.New(), bc.New(), bc.New())
	tests := []struct {
		name string
		in   *bc.Bytecode
		op   string
	}{
		{"too many branches", five, "union"},
		{"too many branches deep", bc.New().Add("local", five), "union"},
		{"nested bytecode in a step", bc.New().Add("where", bc.New().Add("out")), "where"},
		{"repeat with extra argument", bc.New().Add("repeat", bc.New(), bc.Integer(2)), "repeat"},
		{"non-finite", bc.New().Add("limit", bc.Double(math.NaN())), "limit"},
		{"comma in string", bc.New().Add("values", bc.String("a,b")), "values"},
		{"operator not an identifier", bc.New().Add("two words"), "two words"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.in)
			var ue *UnsupportedError
			require.True(t, errors.As(err, &ue), "got %v", err)
			assert.Equal(t, tt.op, ue.Operator)
			assert.NotEmpty(t, ue.Reason)
		})
	}
}

func TestFormat(t *testing.T) {
	got, err := Format("g----~~>---}$\n\n\n")
	require.NoError(t, err)
	assert.Equal(t, "g-~~>-}$\n", got)

	got, err = Format(lines("g-[^---~~>---]", "    \\---x2"))
	require.NoError(t, err)
	assert.Equal(t, "g-[^-~~>-]\n    \\-x2\n", got)

	again, err := Format(got)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	_, err = Format("g-U[-~~>")
	var se *StructuralError
	assert.True(t, errors.As(err, &se))
}

// randomBytecode builds a traversal from a fixed vocabulary of drawable
// instructions.
func randomBytecode(r *rand.Rand, depth, maxLen int) *bc.Bytecode {
	leaves := []bc.Instruction{
		bc.NewInstruction("out"),
		bc.NewInstruction("out", bc.String("knows")),
		bc.NewInstruction("in", bc.String("created"), bc.String("knows")),
		bc.NewInstruction("bothE"),
		bc.NewInstruction("outV"),
		bc.NewInstruction("values", bc.String("name")),
		bc.NewInstruction("as", bc.String("a")),
		bc.NewInstruction("select", bc.String("a"), bc.String("b")),
		bc.NewInstruction("count"),
		bc.NewInstruction("groupCount"),
		bc.NewInstruction("has", bc.String("age"), bc.P(bc.Gt, bc.Integer(25))),
		bc.NewInstruction("has", bc.String("name")),
		bc.NewInstruction("where", bc.String("a"), bc.P(bc.Eq, bc.String("b"))),
		bc.NewInstruction("times", bc.Integer(3)),
		bc.NewInstruction("identity"),
		bc.NewInstruction("limit", bc.Long(10)),
		bc.NewInstruction("math", bc.String("_ + 1")),
		bc.NewInstruction("values", bc.String(" g ")),
		bc.NewInstruction("values", bc.String("a\\-x3")),
		bc.NewInstruction("values", bc.String("x]y")),
		bc.NewInstruction("as", bc.String("p/q|r")),
	}
	branching := []string{"union", "match", "and", "or", "not", "local", "coalesce", "until"}

	b := bc.New()
	for i, n := 0, r.Intn(maxLen+1); i < n; i++ {
		switch {
		case depth < 3 && r.Intn(5) == 0:
			kids := make([]bc.Argument, 1+r.Intn(4))
			for k := range kids {
				kids[k] = randomBytecode(r, depth+1, 3)
			}
			b.Add(branching[r.Intn(len(branching))], kids...)
		case depth < 3 && r.Intn(6) == 0:
			b.Add("repeat", randomBytecode(r, depth+1, 3))
		default:
			b.Append(leaves[r.Intn(len(leaves))])
		}
	}
	return b
}

func TestRandomRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		in := randomBytecode(r, 0, 6)
		text, err := Encode(in)
		require.NoError(t, err, "encode %s", in)

		got, err := Decode(text)
		require.NoError(t, err, "decode diagram:\n%s", text)
		if !got.Equal(in) {
			t.Fatalf("round trip mismatch\ndiagram:\n%s\n got  %s\n want %s", text, got, in)
		}
	}
}
