package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/pipes/pkg/bytecode"
	"github.com/chazu/pipes/translator"
)

type decodeOpts struct {
	format string
}

var decodeOpt decodeOpts

var decodeCmd = &cobra.Command{
	Use:   "decode [FILE]",
	Short: "read a pipe diagram and print its bytecode",
	Args:  cobra.MaximumNArgs(1),
	Example: `pipes decode query.pipe
echo 'g-~~>-}$' | pipes decode --format disasm
pipes decode query.pipe --format cbor > query.cbor`,
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
		b, err := translator.Decode(string(data), opts...)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return writeBytecode(cmd, b, decodeOpt.format)
	},
}

func writeBytecode(cmd *cobra.Command, b *bytecode.Bytecode, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "text":
		_, err := fmt.Fprintln(out, b)
		return err
	case "disasm":
		_, err := fmt.Fprint(out, b.Disassemble())
		return err
	case "hash":
		_, err := fmt.Fprintln(out, b.HashString())
		return err
	case "yaml":
		data, err := bytecode.MarshalYAML(b)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "cbor":
		data, err := bytecode.MarshalCBOR(b)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
	return fmt.Errorf("unknown format %q (want text, disasm, yaml, cbor or hash)", format)
}

func init() {
	decodeCmd.Flags().StringVarP(&decodeOpt.format, "format", "f", "text", "output format: text, disasm, yaml, cbor or hash")
	rootCmd.AddCommand(decodeCmd)
}
