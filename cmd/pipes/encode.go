package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/pipes/pkg/bytecode"
	"github.com/chazu/pipes/translator"
)

type encodeOpts struct {
	from string
}

var encodeOpt encodeOpts

var encodeCmd = &cobra.Command{
	Use:   "encode [FILE]",
	Short: "draw a bytecode document as a pipe diagram",
	Args:  cobra.MaximumNArgs(1),
	Example: `pipes encode query.yaml
pipes decode query.pipe --format cbor | pipes encode --from cbor`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := translatorOptions()
		if err != nil {
			return err
		}
		name := inputName(args)
		data, err := readInput(cmd, name)
		if err != nil {
			return err
		}
		b, err := readBytecode(data, encodeOpt.from)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		diagram, err := translator.Encode(b, opts...)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(diagram, "\n"))
		return err
	},
}

func readBytecode(data []byte, from string) (*bytecode.Bytecode, error) {
	switch from {
	case "yaml":
		return bytecode.UnmarshalYAML(data)
	case "cbor":
		return bytecode.UnmarshalCBOR(data)
	}
	return nil, fmt.Errorf("unknown input format %q (want yaml or cbor)", from)
}

func init() {
	encodeCmd.Flags().StringVar(&encodeOpt.from, "from", "yaml", "input format: yaml or cbor")
	rootCmd.AddCommand(encodeCmd)
}
