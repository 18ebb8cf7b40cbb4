package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/pipes/pkg/grid"
	"github.com/chazu/pipes/translator"
)

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func TestDiagnose_Clean(t *testing.T) {
	s := NewLSP()
	diags := s.diagnose("g-~~>-}$")
	assert.Empty(t, diags)
}

func TestDiagnose_StructuralError(t *testing.T) {
	s := NewLSP()
	diags := s.diagnose("g-U[-~~>")
	require.Len(t, diags, 1)

	d := diags[0]
	require.NotNil(t, d.Severity)
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	assert.Equal(t, protocol.Position{Line: 0, Character: 3}, d.Range.Start)
	assert.Equal(t, protocol.Position{Line: 0, Character: 4}, d.Range.End)
	assert.Contains(t, d.Message, "no closing ]")
}

func TestDiagnose_MissingSource(t *testing.T) {
	s := NewLSP()
	diags := s.diagnose("-~~>")
	require.Len(t, diags, 1)
	assert.Equal(t, protocol.Range{}, diags[0].Range)
	assert.Contains(t, diags[0].Message, "traversal source")
}

func TestDiagnose_FallbackWarnings(t *testing.T) {
	s := NewLSP()
	diags := s.diagnose("g-~~>-foo,1")
	require.Len(t, diags, 1)

	d := diags[0]
	require.NotNil(t, d.Severity)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *d.Severity)
	assert.Equal(t, protocol.Position{Line: 0, Character: 6}, d.Range.Start)
	assert.Equal(t, protocol.Position{Line: 0, Character: 11}, d.Range.End)
	assert.Contains(t, d.Message, "foo,1")
}

func TestDiagnose_StrictArgument(t *testing.T) {
	s := NewLSP(translator.WithStrictArguments(true))
	diags := s.diagnose("g-~~>\n\n")
	assert.Empty(t, diags)

	diags = s.diagnose("g-limit(1.2.3)")
	require.Len(t, diags, 1)
	assert.Equal(t, protocol.DiagnosticSeverityError, *diags[0].Severity)
	assert.Equal(t, protocol.Position{Line: 0, Character: 2}, diags[0].Range.Start)
	assert.Contains(t, diags[0].Message, "1.2.3")
}

// ---------------------------------------------------------------------------
// Hover
// ---------------------------------------------------------------------------

func TestHover_StepToken(t *testing.T) {
	s := NewLSP()
	h := s.hover("g-<~created,knows~-}$", protocol.Position{Line: 0, Character: 5})
	require.NotNil(t, h)

	content := h.Contents.(protocol.MarkupContent)
	assert.Contains(t, content.Value, "`in`")
	assert.Contains(t, content.Value, "in(created, knows)")
	assert.Contains(t, content.Value, "; Instructions: 2")

	require.NotNil(t, h.Range)
	assert.Equal(t, protocol.UInteger(2), h.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(18), h.Range.End.Character)
}

func TestHover_BranchSigil(t *testing.T) {
	s := NewLSP()
	text := "g-U[     ]\n   |\\-~~>\n   \\-<~~"
	h := s.hover(text, protocol.Position{Line: 0, Character: 2})
	require.NotNil(t, h)
	content := h.Contents.(protocol.MarkupContent)
	assert.True(t, strings.HasPrefix(content.Value, "**children** `union`"), content.Value)
}

func TestHover_Fallback(t *testing.T) {
	s := NewLSP()
	h := s.hover("g-foo,1", protocol.Position{Line: 0, Character: 3})
	require.NotNil(t, h)
	content := h.Contents.(protocol.MarkupContent)
	assert.Contains(t, content.Value, "**fallback** `foo,1`")
}

func TestHover_Nothing(t *testing.T) {
	s := NewLSP()
	assert.Nil(t, s.hover("g-~~>", protocol.Position{Line: 0, Character: 1}))
	assert.Nil(t, s.hover("g-~~>", protocol.Position{Line: 4, Character: 0}))
}

// ---------------------------------------------------------------------------
// Completion and formatting
// ---------------------------------------------------------------------------

func TestComplete_Prefix(t *testing.T) {
	s := NewLSP()
	items := s.complete("}")
	var labels []string
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	assert.Contains(t, labels, "}$")
	assert.Contains(t, labels, "}2500{")
	assert.NotContains(t, labels, "~name")
}

func TestComplete_OperatorName(t *testing.T) {
	s := NewLSP()
	items := s.complete("uni")
	require.Len(t, items, 1)
	assert.Equal(t, "U[ ]", items[0].Label)
	require.NotNil(t, items[0].Detail)
	assert.Equal(t, "union (children)", *items[0].Detail)
}

func TestFormat(t *testing.T) {
	s := NewLSP()
	edits, err := s.format("g----~~>\n")
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, "g-~~>\n", edits[0].NewText)
	assert.Equal(t, protocol.Position{Line: 1, Character: 0}, edits[0].Range.End)

	edits, err = s.format("g-~~>\n")
	require.NoError(t, err)
	assert.Empty(t, edits)

	_, err = s.format("g-[^")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Text helpers
// ---------------------------------------------------------------------------

func TestTokenAt(t *testing.T) {
	g := grid.New("g-math('a - b')-~~>")
	tok, ok := tokenAt(g, grid.Pos(9, 0))
	require.True(t, ok)
	assert.Equal(t, "math('a - b')", tok.Text)
	assert.Equal(t, grid.Pos(2, 0), tok.Pos)

	_, ok = tokenAt(g, grid.Pos(15, 0))
	assert.False(t, ok)
}

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		text string
		pos  protocol.Position
		want string
	}{
		{"g-~~", protocol.Position{Line: 0, Character: 4}, "~~"},
		{"g-", protocol.Position{Line: 0, Character: 2}, ""},
		{"g-U[", protocol.Position{Line: 0, Character: 4}, ""},
		{"g-~~>\n  \\-}", protocol.Position{Line: 1, Character: 5}, "}"},
		{"", protocol.Position{Line: 0, Character: 0}, ""},
		{"single", protocol.Position{Line: 5, Character: 0}, ""},
		{"g-}$", protocol.Position{Line: 0, Character: 99}, "}$"},
	}
	for _, tt := range tests {
		got := extractPrefix(tt.text, tt.pos)
		if got != tt.want {
			t.Errorf("extractPrefix(%q, %v) = %q, want %q", tt.text, tt.pos, got, tt.want)
		}
	}
}
