package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/devkit-labs/devkit/internal/branding"
	"github.com/devkit-labs/devkit/internal/catalog"
	"github.com/devkit-labs/devkit/internal/manifest"
	"github.com/devkit-labs/devkit/internal/project"
	"github.com/devkit-labs/devkit/internal/prompt"
	"github.com/devkit-labs/devkit/internal/reconcile"
)

var (
	initFamilies []string
	initYes      bool
)

func init() {
	initCmd.Flags().StringSliceVar(&initFamilies, "family", nil, "Family to install (repeatable or comma-separated; default: ask, or all)")
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Accept defaults without prompting")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a project and write its template families",
	Long: `Initialize the project: choose template families, answer their variables,
create .devkit/project.yaml and write every template that does not exist yet.

Existing files are never touched by init. Use "sync --update" afterwards to
bring them in line with the templates.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	configPath := project.Path(root)
	if exists, _ := afero.Exists(appFs, configPath); exists {
		return fmt.Errorf("project already initialized: %s exists", configPath)
	}

	ask := isInteractive() && !initYes
	console := prompt.NewConsole(stdin, out)

	names := parseFamilyList(initFamilies)
	if len(names) == 0 {
		all, err := templates.List()
		if err != nil {
			return err
		}
		if ask {
			if names, err = console.SelectFamilies(all); err != nil {
				return err
			}
		} else {
			for _, f := range all {
				names = append(names, f.Name)
			}
		}
	}

	families, err := lookupFamilies(names)
	if err != nil {
		return err
	}

	store := newStore(root)
	stored := store.Variables()
	answered := make(map[string]string)
	vars := make(map[*catalog.Family]map[string]string, len(families))
	for _, f := range families {
		current := resolveVariables(f, stored)
		if ask {
			if err := askVariables(console, f, current, answered); err != nil {
				return err
			}
		}
		for k := range current {
			if v, ok := answered[k]; ok {
				current[k] = v
			}
		}
		vars[f] = current
	}

	fmt.Fprintf(out, "Initializing %s project in %s\n", branding.DisplayName(), root)
	fmt.Fprintf(out, "Families: %s\n", strings.Join(names, ", "))

	if _, err := project.Init(appFs, root, names); err != nil {
		return fmt.Errorf("initializing project: %w", err)
	}

	// Update is off, so nothing existing is rewritten and no conflict can arise.
	if err := syncFamilies(out, store, families, vars, false, prompt.Fixed(reconcile.DecisionSkip), true); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nProject initialized. Created %s\n", configPath)
	fmt.Fprintf(out, "Use '%s sync --update' to pull template changes later.\n", branding.CLIName())
	return nil
}

// askVariables prompts for f's variables that an earlier family has not
// already answered, recording the answers in answered.
func askVariables(console *prompt.Console, f *catalog.Family, current, answered map[string]string) error {
	var pending []manifest.Variable
	for _, v := range f.Variables {
		if _, ok := answered[v.Name]; !ok {
			pending = append(pending, v)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	got, err := console.CollectVariables(pending, current)
	if err != nil {
		return fmt.Errorf("collecting variables for %s: %w", f.Name, err)
	}
	for k, v := range got {
		answered[k] = v
	}
	return nil
}

func parseFamilyList(values []string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" && !seen[trimmed] {
				seen[trimmed] = true
				names = append(names, trimmed)
			}
		}
	}
	return names
}
