package bytecode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Bytecode {
	return New().
		Add("out").
		Add("in", String("created"), String("knows")).
		Add("has", String("age"), P(Gt, Integer(25))).
		Add("union", New().Add("out"), New().Add("in").Add("count")).
		Add("limit", Long(10)).
		Add("math", Double(1.5), Float(2.25), Boolean(true), Enum("id")).
		Add("where", Binding{Name: "x", Value: String("a")})
}

func TestBytecodeString(t *testing.T) {
	b := New().Add("out").Add("in", String("created"), String("knows")).Add("count")
	if got, want := b.String(), "[out(), in(created, knows), count()]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := New().String(); got != "[]" {
		t.Errorf("empty String() = %q, want []", got)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Argument
		want bool
	}{
		{"same int", Integer(1), Integer(1), true},
		{"int vs long", Integer(1), Long(1), false},
		{"string vs enum", String("id"), Enum("id"), false},
		{"predicate", P(Gt, Integer(25)), P(Gt, Integer(25)), true},
		{"predicate comparator", P(Gt, Integer(25)), P(Gte, Integer(25)), false},
		{"predicate operand", P(Gt, Integer(25)), P(Gt, Integer(26)), false},
		{"nested bytecode", New().Add("out"), New().Add("out"), true},
		{"nested bytecode differs", New().Add("out"), New().Add("in"), false},
		{"binding", Binding{"x", Integer(1)}, Binding{"x", Integer(1)}, true},
		{"binding name", Binding{"x", Integer(1)}, Binding{"y", Integer(1)}, false},
		{"nil both", nil, nil, true},
		{"nil one", nil, Integer(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestBytecodeEqualNilAndEmpty(t *testing.T) {
	var nilBC *Bytecode
	assert.True(t, nilBC.Equal(New()))
	assert.True(t, New().Equal(nilBC))
	assert.False(t, New().Add("out").Equal(New()))
	assert.True(t, sample().Equal(sample()))
}

func TestResolve(t *testing.T) {
	b := Binding{Name: "outer", Value: Binding{Name: "inner", Value: Integer(7)}}
	assert.Equal(t, Argument(Integer(7)), Resolve(b))
	assert.Equal(t, Argument(String("x")), Resolve(String("x")))
}

func TestChildren(t *testing.T) {
	ins := NewInstruction("union", New().Add("out"), String("skip"), New().Add("in"))
	children := ins.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "out", children[0].Instructions[0].Operator)
	assert.Equal(t, "in", children[1].Instructions[0].Operator)
}

func TestComparatorTable(t *testing.T) {
	tests := []struct {
		sym  string
		want Comparator
		name string
	}{
		{"==", Eq, "eq"},
		{"!=", Neq, "neq"},
		{"<", Lt, "lt"},
		{"<=", Lte, "lte"},
		{">", Gt, "gt"},
		{">=", Gte, "gte"},
	}
	for _, tt := range tests {
		c, ok := ComparatorBySymbol(tt.sym)
		if !ok || c != tt.want {
			t.Errorf("ComparatorBySymbol(%q) = %v, %v, want %v", tt.sym, c, ok, tt.want)
		}
		if c.Symbol() != tt.sym {
			t.Errorf("%v.Symbol() = %q, want %q", c, c.Symbol(), tt.sym)
		}
		if c.String() != tt.name {
			t.Errorf("%v.String() = %q, want %q", c, c.String(), tt.name)
		}
		byName, ok := ComparatorByName(tt.name)
		if !ok || byName != tt.want {
			t.Errorf("ComparatorByName(%q) = %v, %v", tt.name, byName, ok)
		}
	}
	if _, ok := ComparatorBySymbol("=<"); ok {
		t.Error("ComparatorBySymbol(=<) should fail")
	}
}

func TestCutComparator(t *testing.T) {
	tests := []struct {
		in   string
		c    Comparator
		rest string
		ok   bool
	}{
		{"<=5", Lte, "5", true},
		{"<5", Lt, "5", true},
		{">=x", Gte, "x", true},
		{"==1", Eq, "1", true},
		{"!=a", Neq, "a", true},
		{"abc", 0, "abc", false},
	}
	for _, tt := range tests {
		c, rest, ok := CutComparator(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.c, c, tt.in)
		assert.Equal(t, tt.rest, rest, tt.in)
	}
}

func TestHashStable(t *testing.T) {
	a := sample()
	b := sample()
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Len(t, a.HashString(), 64)

	changed := sample()
	changed.Instructions[0].Operator = "both"
	assert.NotEqual(t, a.Hash(), changed.Hash())

	// Kinds are part of the hash.
	assert.NotEqual(t,
		New().Add("limit", Integer(1)).Hash(),
		New().Add("limit", Long(1)).Hash())
}

func TestHashNilEqualsEmpty(t *testing.T) {
	var nilBC *Bytecode
	assert.Equal(t, New().Hash(), nilBC.Hash())
}

func TestHashSignedZero(t *testing.T) {
	negDouble := New().Add("math", Double(math.Copysign(0, -1)))
	negFloat := New().Add("math", Float(float32(math.Copysign(0, -1))))

	require.True(t, negDouble.Equal(New().Add("math", Double(0))))
	assert.Equal(t, New().Add("math", Double(0)).Hash(), negDouble.Hash())

	require.True(t, negFloat.Equal(New().Add("math", Float(0))))
	assert.Equal(t, New().Add("math", Float(0)).Hash(), negFloat.Hash())
}
