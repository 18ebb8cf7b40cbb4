package main

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/chazu/pipes/translator"
)

var checkCmd = &cobra.Command{
	Use:     "check FILE...",
	Short:   "verify that diagrams decode and redraw to the same bytecode",
	Args:    cobra.MinimumNArgs(1),
	Example: `pipes check queries/*.pipe`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := translatorOptions()
		if err != nil {
			return err
		}
		var errs *multierror.Error
		for _, name := range args {
			if err := checkFile(cmd, name, opts); err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok  %s\n", name)
		}
		return errs.ErrorOrNil()
	},
}

func checkFile(cmd *cobra.Command, name string, opts []translator.Option) error {
	data, err := readInput(cmd, name)
	if err != nil {
		return err
	}
	b, err := translator.Decode(string(data), opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	diagram, err := translator.Encode(b, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	again, err := translator.Decode(diagram, opts...)
	if err != nil {
		return fmt.Errorf("%s: redrawn diagram does not decode: %w", name, err)
	}
	if !again.Equal(b) {
		return fmt.Errorf("%s: redrawn diagram reads as %s, want %s", name, again, b)
	}
	log.Debugf("%s: %s", name, b.HashString())
	return nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
