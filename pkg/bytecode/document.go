package bytecode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// MarshalYAML renders a bytecode as an editable YAML document: a list of
// steps, each with an op and optional typed args.
//
//	- op: out
//	- op: has
//	  args:
//	    - string: age
//	    - predicate: {op: gt, value: {int: 25}}
func MarshalYAML(b *Bytecode) ([]byte, error) {
	w, err := toWire(b)
	if err != nil {
		return nil, fmt.Errorf("bytecode: marshal yaml: %w", err)
	}
	steps := w.Steps
	if steps == nil {
		steps = []wireInstruction{}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(steps); err != nil {
		return nil, fmt.Errorf("bytecode: marshal yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("bytecode: marshal yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML parses a document produced by MarshalYAML.
func UnmarshalYAML(data []byte) (*Bytecode, error) {
	var steps []wireInstruction
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&steps); err != nil {
		// An empty document decodes to no steps.
		if errors.Is(err, io.EOF) {
			return New(), nil
		}
		return nil, fmt.Errorf("bytecode: unmarshal yaml: %w", err)
	}
	b, err := fromWire(&wireBytecode{Steps: steps})
	if err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal yaml: %w", err)
	}
	return b, nil
}
