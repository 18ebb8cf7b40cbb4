package translator

// DefaultSource is the traversal source label every diagram starts from.
const DefaultSource = "g"

// Canvas dimensions of the original fixed-size renderer. Encoders grow the
// canvas on demand unless WithCanvas sets a fixed size.
const (
	DefaultCanvasWidth  = 100
	DefaultCanvasHeight = 25
)

type options struct {
	source     string
	table      Table
	strict     bool
	onFallback func(Fallback)
	width      int
	height     int
}

// Option configures a Decoder or an Encoder.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{source: DefaultSource, table: defaultTable}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithSource sets the traversal source label (default "g").
func WithSource(name string) Option {
	return func(o *options) {
		if name != "" {
			o.source = name
		}
	}
}

// WithTable replaces the dispatch table.
func WithTable(t Table) Option {
	return func(o *options) { o.table = t }
}

// WithStrictArguments makes malformed literals abort decoding with an
// *ArgumentError instead of falling back to a raw String.
func WithStrictArguments(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithFallbackHandler registers a callback invoked for every token decoded
// through the lenient operator-call fallback.
func WithFallbackHandler(fn func(Fallback)) Option {
	return func(o *options) { o.onFallback = fn }
}

// WithCanvas fixes the encoder canvas size. A zero dimension grows on
// demand.
func WithCanvas(width, height int) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// Source returns the traversal source label.
func (o options) Source() string { return o.source }

// Table returns the dispatch table in use.
func (o options) Table() Table { return o.table }

// Config is the serializable form of the translator options, loaded from
// pipes.toml.
type Config struct {
	Source       string
	Strict       bool
	CanvasWidth  int
	CanvasHeight int
}

// Options converts the config to translator options.
func (c Config) Options() []Option {
	return []Option{
		WithSource(c.Source),
		WithStrictArguments(c.Strict),
		WithCanvas(c.CanvasWidth, c.CanvasHeight),
	}
}
