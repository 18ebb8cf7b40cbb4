package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/chazu/pipes/manifest"
	"github.com/chazu/pipes/translator"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("pipes.cli")

type rootOpts struct {
	configDir string
	verbosity int
}

var rootOpt rootOpts

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pipes",
	Short: "translate traversal bytecode to and from pipe diagrams",
	Long: `pipes reads pipe diagrams such as

  g-~~>-<~created,knows~-~name-}$

and turns them into traversal bytecode, or draws bytecode back as a diagram.
Settings are read from the nearest pipes.toml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commonlog.Configure(rootOpt.verbosity, nil)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootOpt.configDir, "config", "", "directory holding pipes.toml (default: search upward from the working directory)")
	rootCmd.PersistentFlags().CountVarP(&rootOpt.verbosity, "verbose", "v", "log verbosity, repeat for more")
	rootCmd.DisableAutoGenTag = true
}

// loadManifest resolves the configuration for this invocation. An explicit
// --config directory must contain a pipes.toml; otherwise the nearest one
// above the working directory is used, falling back to defaults.
func loadManifest() (*manifest.Manifest, error) {
	if rootOpt.configDir != "" {
		return manifest.Load(rootOpt.configDir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, err := manifest.FindAndLoad(wd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return manifest.Default(), nil
	}
	log.Debugf("using %s/%s", m.Dir, manifest.FileName)
	return m, nil
}

// translatorOptions returns the configured translator options. Fallback
// tokens are reported as warnings.
func translatorOptions() ([]translator.Option, error) {
	m, err := loadManifest()
	if err != nil {
		return nil, err
	}
	opts := m.TranslatorConfig().Options()
	opts = append(opts, translator.WithFallbackHandler(func(fb translator.Fallback) {
		log.Warningf("token %q at %s decoded as %s", fb.Token.Text, fb.Token.Pos, fb.Instruction)
	}))
	return opts, nil
}

// readInput reads the named file, or standard input for "" and "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", name, err)
	}
	return data, nil
}

func inputName(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}
