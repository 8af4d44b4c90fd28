// Command rdl-ast is the AST-dump CLI collaborator (§6): it parses a
// single SystemRDL file and prints (or writes, with -j) its ptree.Node
// syntax tree as the AST JSON document. Grounded on the teacher's
// cmd/sdl/commands root/describe command pair: a cobra root command, a
// positional file argument, and a JSON output flag.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vowstar/systemrdl-toolkit/rdljson"
	"github.com/vowstar/systemrdl-toolkit/rdlparse"
)

var jsonOut string
var jsonRequested bool

var rootCmd = &cobra.Command{
	Use:   "rdl-ast <file>",
	Short: "Dump the parsed syntax tree of a SystemRDL file as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
}

func init() {
	rootCmd.Flags().StringVarP(&jsonOut, "json", "j", "", "write AST JSON to file (default <input-stem>_ast.json)")
	rootCmd.Flags().Lookup("json").NoOptDefVal = "-"
}

func run(path string) error {
	jsonRequested = rootCmd.Flags().Changed("json")

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

	data, err := rdljson.MarshalAst(tree)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: marshalling AST: %v\n", path, err)
		os.Exit(1)
	}

	if !jsonRequested {
		fmt.Println(string(data))
		return nil
	}

	out := jsonOut
	if out == "" || out == "-" {
		out = defaultJSONName(path, "_ast.json")
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", out, err)
		os.Exit(1)
	}
	return nil
}

// defaultJSONName implements §6's "Default JSON filename: <input-stem>_ast.json".
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
