// Command rdl-elab is the elaboration CLI collaborator (§6): it parses a
// SystemRDL file, runs the elaboration core, and prints (or writes, with
// -j) the elaborated model as JSON, or a textual Describe() of the root
// and every diagnostic otherwise. Exit code 0 on success, 1 on any error
// (syntax, elaboration, or I/O), per §6/§7.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdldiag"
	"github.com/vowstar/systemrdl-toolkit/rdlelaborate"
	"github.com/vowstar/systemrdl-toolkit/rdljson"
	"github.com/vowstar/systemrdl-toolkit/rdlparse"
	"github.com/vowstar/systemrdl-toolkit/rdlvalidate"
)

var jsonOut string

var rootCmd = &cobra.Command{
	Use:   "rdl-elab <file>",
	Short: "Elaborate a SystemRDL file into a fully resolved address map",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
}

func init() {
	rootCmd.Flags().StringVarP(&jsonOut, "json", "j", "", "write elaborated-model JSON to file (default <input-stem>_elaborated.json)")
	rootCmd.Flags().Lookup("json").NoOptDefVal = "-"
}

func run(path string) error {
	jsonRequested := rootCmd.Flags().Changed("json")

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		os.Exit(1)
	}

	tree, err := rdlparse.ParseFile(path, string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	file, err := rdlast.Build(tree)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	elab := rdlelaborate.New()
	root, diags := elab.Elaborate(file)

	printDiagnostics(diags)

	if root == nil {
		os.Exit(1)
	}
	rdlvalidate.Finalize(root)

	if !jsonRequested {
		fmt.Print(root.Describe())
		return nil
	}

	data, err := rdljson.Marshal(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: marshalling elaborated model: %v\n", path, err)
		os.Exit(1)
	}

	out := jsonOut
	if out == "" || out == "-" {
		out = defaultJSONName(path, "_elaborated.json")
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", out, err)
		os.Exit(1)
	}
	return nil
}

// printDiagnostics prints each diagnostic on its own line per §7's
// "path:line:col: <kind>: <message>" user-visible format.
func printDiagnostics(diags rdldiag.List) {
	for _, d := range diags.All() {
		fmt.Fprintln(os.Stderr, d.String())
	}
}

func defaultJSONName(inputPath, suffix string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + suffix
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
