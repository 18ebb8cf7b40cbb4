package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/pipes/translator"
)

type fmtOpts struct {
	write bool
}

var fmtOpt fmtOpts

var fmtCmd = &cobra.Command{
	Use:   "fmt [FILE...]",
	Short: "redraw pipe diagrams in canonical layout",
	Long: `fmt decodes each diagram and draws it again. Without -w the result is
printed; with -w files whose layout changed are rewritten in place.`,
	Example: `pipes fmt query.pipe
pipes fmt -w *.pipe`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := translatorOptions()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			if fmtOpt.write {
				return fmt.Errorf("-w needs file arguments")
			}
			args = []string{"-"}
		}
		for _, name := range args {
			if err := formatFile(cmd, name, opts); err != nil {
				return err
			}
		}
		return nil
	},
}

func formatFile(cmd *cobra.Command, name string, opts []translator.Option) error {
	data, err := readInput(cmd, name)
	if err != nil {
		return err
	}
	formatted, err := translator.Format(string(data), opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	if !fmtOpt.write {
		_, err := fmt.Fprint(cmd.OutOrStdout(), formatted)
		return err
	}
	if formatted == string(data) {
		return nil
	}
	info, err := os.Stat(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(name, []byte(formatted), info.Mode().Perm()); err != nil {
		return fmt.Errorf("cannot write %s: %w", name, err)
	}
	log.Infof("formatted %s", name)
	return nil
}

func init() {
	fmtCmd.Flags().BoolVarP(&fmtOpt.write, "write", "w", false, "write result to the source file instead of stdout")
	rootCmd.AddCommand(fmtCmd)
}
