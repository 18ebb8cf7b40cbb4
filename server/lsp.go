// Package server exposes the translator to editors over the Language
// Server Protocol.
package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/pipes/pkg/grid"
	"github.com/chazu/pipes/translator"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "pipes-lsp"

var log = commonlog.GetLogger("pipes.server")

// LspServer publishes decode diagnostics for open diagrams and answers
// hover, completion and formatting requests. Positions are counted in runes,
// which matches UTF-16 offsets for the ASCII glyph vocabulary.
type LspServer struct {
	opts  []translator.Option
	table translator.Table

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server that decodes and encodes with opts.
func NewLSP(opts ...translator.Option) *LspServer {
	s := &LspServer{
		opts:    opts,
		table:   translator.DefaultTable(),
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentFormatting: s.textDocumentFormatting,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Infof("%s %s initializing", lspName, s.version)

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"-"},
	}

	capabilities.HoverProvider = true
	capabilities.DocumentFormattingProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.mu.Lock()
	s.docs = make(map[string]string)
	s.mu.Unlock()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			text := whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return s.complete(extractPrefix(text, params.Position)), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return s.hover(text, params.Position), nil
}

func (s *LspServer) textDocumentFormatting(ctx *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return s.format(text)
}

// complete lists the dispatch rules whose example glyphs or operator name
// start with prefix. An empty prefix lists every rule.
func (s *LspServer) complete(prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	seen := make(map[string]bool)
	for _, rule := range s.table {
		if rule.Example == "" || seen[rule.Example] {
			continue
		}
		if !strings.HasPrefix(rule.Example, prefix) && !strings.HasPrefix(rule.Operator, prefix) {
			continue
		}
		seen[rule.Example] = true

		kind := protocol.CompletionItemKindOperator
		if rule.Kind == translator.RuleStep && rule.Operator == "" {
			kind = protocol.CompletionItemKindFunction
		}
		detail := fmt.Sprintf("%s (%s)", ruleOperator(rule), rule.Kind)
		insert := rule.Example
		items = append(items, protocol.CompletionItem{
			Label:      rule.Example,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &insert,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

func ruleOperator(rule translator.Rule) string {
	if rule.Operator == "" {
		return "any operator"
	}
	return rule.Operator
}

// hover describes the token under the cursor and, when the document
// decodes, the whole traversal.
func (s *LspServer) hover(text string, pos protocol.Position) *protocol.Hover {
	g := grid.New(text)
	tok, ok := tokenAt(g, grid.Pos(int(pos.Character), int(pos.Line)))
	if !ok {
		return nil
	}

	var sb strings.Builder
	w := grid.NewWalker(g, tok.Pos)
	w.ReadToken()
	branchFollows := w.Read() == grid.BranchOpen
	if rule, m := s.table.Match(tok.Text, branchFollows); rule != nil {
		fmt.Fprintf(&sb, "**%s** `%s`", rule.Kind, rule.Name)
		if rule.Kind == translator.RuleStep {
			if ins, err := rule.Decode(m); err == nil {
				fmt.Fprintf(&sb, " → `%s`", ins)
			}
		}
		sb.WriteString("\n\n")
	} else if tok.Text != string(grid.BranchOpen) {
		fmt.Fprintf(&sb, "**fallback** `%s`\n\n", tok.Text)
	}

	if b, err := translator.Decode(text, s.opts...); err == nil {
		fmt.Fprintf(&sb, "```\n%s```\n", b.Disassemble())
	}

	r := tokenRange(tok)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: sb.String(),
		},
		Range: &r,
	}
}

// format replaces the whole document with its canonical drawing.
func (s *LspServer) format(text string) ([]protocol.TextEdit, error) {
	formatted, err := translator.Format(text, s.opts...)
	if err != nil {
		return nil, err
	}
	if formatted == text {
		return []protocol.TextEdit{}, nil
	}
	lines := strings.Split(text, "\n")
	end := protocol.Position{
		Line:      protocol.UInteger(len(lines) - 1),
		Character: protocol.UInteger(len([]rune(lines[len(lines)-1]))),
	}
	return []protocol.TextEdit{{
		Range:   protocol.Range{Start: protocol.Position{}, End: end},
		NewText: formatted,
	}}, nil
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := s.diagnose(text)
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnose decodes text and reports the decode error, if any, as an error
// and every fallback token as a warning.
func (s *LspServer) diagnose(text string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	source := lspName

	opts := append(append([]translator.Option(nil), s.opts...),
		translator.WithFallbackHandler(func(f translator.Fallback) {
			severity := protocol.DiagnosticSeverityWarning
			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range:    tokenRange(f.Token),
				Severity: &severity,
				Source:   &source,
				Message:  fmt.Sprintf("no rule matches %q; read as %s", f.Token.Text, f.Instruction),
			})
		}))

	_, err := translator.Decode(text, opts...)
	if err == nil {
		return diagnostics
	}

	log.Debugf("decode failed: %s", err)
	// Errors without a cell, such as a missing source label, mark the
	// document start.
	var r protocol.Range
	if p, ok := translator.ErrorPosition(err); ok {
		r = cellRange(p)
	}
	severity := protocol.DiagnosticSeverityError
	return append(diagnostics, protocol.Diagnostic{
		Range:    r,
		Severity: &severity,
		Source:   &source,
		Message:  err.Error(),
	})
}

// --- Grid helpers ---

// tokenAt returns the token covering p, scanning its row from the left so
// quoted and parenthesized text is read as one token.
func tokenAt(g *grid.Grid, p grid.Position) (grid.Token, bool) {
	for x := 0; x < g.Width() && x <= p.X; {
		if !grid.StartsToken(g.Get(x, p.Y)) {
			x++
			continue
		}
		w := grid.NewWalker(g, grid.Pos(x, p.Y))
		tok, ok := w.ReadToken()
		end := w.Pos().X
		if ok && p.X >= x && p.X < end {
			return tok, true
		}
		x = max(end, x+1)
	}
	return grid.Token{}, false
}

func tokenRange(tok grid.Token) protocol.Range {
	n := len([]rune(tok.Text))
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(tok.Pos.Y), Character: protocol.UInteger(tok.Pos.X)},
		End:   protocol.Position{Line: protocol.UInteger(tok.Pos.Y), Character: protocol.UInteger(tok.Pos.X + n)},
	}
}

func cellRange(p grid.Position) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(p.Y), Character: protocol.UInteger(p.X)},
		End:   protocol.Position{Line: protocol.UInteger(p.Y), Character: protocol.UInteger(p.X + 1)},
	}
}

// --- Text extraction helpers ---

// extractPrefix returns the glyph run before the cursor for completion. A
// connector or blank ends the run.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := []rune(lines[pos.Line])
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the token
	start := col
	for start > 0 && grid.StartsToken(line[start-1]) && line[start-1] != grid.BranchOpen {
		start--
	}

	return string(line[start:col])
}

func boolPtr(b bool) *bool {
	return &b
}
