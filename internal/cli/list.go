package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/devkit-labs/devkit/internal/render"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [family]",
	Short: "List bundled template families",
	Long: `List the template families bundled with this binary. With a family name,
show its templates, where each one is written and the variables it uses.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return listFamily(cmd, args[0])
	}

	families, err := templates.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESTINATION\tFILES\tVARIABLES\tDESCRIPTION")
	for _, f := range families {
		names, err := f.Templates()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", f.Name, f.Destination, len(names),
			strings.Join(f.VariableNames(), ","), f.Description)
	}
	return w.Flush()
}

func listFamily(cmd *cobra.Command, name string) error {
	families, err := lookupFamilies([]string{name})
	if err != nil {
		return err
	}
	f := families[0]
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s: %s\n", f.Name, f.Description)
	if f.Executable {
		fmt.Fprintln(out, "Files are written executable.")
	}
	fmt.Fprintln(out)

	names, err := f.Templates()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TEMPLATE\tTARGET\tPLACEHOLDERS")
	for _, n := range names {
		body, err := f.Read(n)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", n, f.Target(n), strings.Join(render.Placeholders(body), ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(f.Variables) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIABLE\tDEFAULT\tDESCRIPTION")
	for _, v := range f.Variables {
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.Name, v.Default, v.Description)
	}
	return w.Flush()
}
