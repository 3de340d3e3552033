package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/devkit-labs/devkit/internal/branding"
	"github.com/devkit-labs/devkit/internal/catalog"
	"github.com/devkit-labs/devkit/internal/config"
	"github.com/devkit-labs/devkit/internal/ledger"
	"github.com/devkit-labs/devkit/internal/logging"
	"github.com/devkit-labs/devkit/internal/project"
	"github.com/devkit-labs/devkit/internal/prompt"
	"github.com/devkit-labs/devkit/internal/reconcile"
)

var (
	syncUpdate           bool
	syncOnConflict       string
	syncClobberUntracked bool
)

func init() {
	syncCmd.Flags().BoolVar(&syncUpdate, "update", false, "Rewrite files that already exist (implied by the update alias)")
	syncCmd.Flags().StringVar(&syncOnConflict, "on-conflict", "", "Decision for locally edited files: skip, overwrite or backup (default: ask, or the conflict setting when not interactive)")
	syncCmd.Flags().BoolVar(&syncClobberUntracked, "clobber-untracked", false, "Overwrite existing files that were never synced without asking")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:     "sync [family...]",
	Aliases: []string{"update"},
	Short:   "Sync template families into the project",
	Long: `Sync the project's template families, or only the named ones.

Without --update, only files that do not exist yet are written. With --update
(or when invoked as "update"), unchanged files are refreshed and files you
edited since the last sync are resolved interactively, or with --on-conflict.
Naming a family that is not installed adds it to .devkit/project.yaml.`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	cfg, err := project.Load(appFs, root)
	if err != nil {
		return err
	}

	names := cfg.Families
	if len(args) > 0 {
		names = args
	}
	families, err := lookupFamilies(names)
	if err != nil {
		return err
	}

	changed := false
	for _, f := range families {
		if cfg.AddFamily(f.Name) {
			changed = true
		}
	}
	if changed {
		if err := project.Save(appFs, root, cfg); err != nil {
			return fmt.Errorf("recording families: %w", err)
		}
	}

	resolver, err := conflictResolver(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	store := newStore(root)
	stored := store.Variables()
	vars := make(map[*catalog.Family]map[string]string, len(families))
	for _, f := range families {
		vars[f] = resolveVariables(f, stored)
	}

	update := syncUpdate || cmd.CalledAs() == "update"
	protect := cfg.Protects() && !syncClobberUntracked
	return syncFamilies(cmd.OutOrStdout(), store, families, vars, update, resolver, protect)
}

// lookupFamilies resolves family names against the bundled catalog.
func lookupFamilies(names []string) ([]*catalog.Family, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no families selected (run `%s list` to see them)", branding.CLIName())
	}
	families := make([]*catalog.Family, 0, len(names))
	for _, name := range names {
		f, err := templates.Get(name)
		if errors.Is(err, catalog.ErrUnknownFamily) {
			return nil, fmt.Errorf("%w (run `%s list` to see them)", err, branding.CLIName())
		}
		if err != nil {
			return nil, err
		}
		families = append(families, f)
	}
	return families, nil
}

// resolveVariables picks a value for each declared variable: the value
// stored in the ledger, then the user config, then the family default.
func resolveVariables(f *catalog.Family, stored map[string]string) map[string]string {
	out := make(map[string]string, len(f.Variables))
	for _, v := range f.Variables {
		if val, ok := stored[v.Name]; ok {
			out[v.Name] = val
			continue
		}
		if val, ok := config.Variable(v.Name); ok {
			out[v.Name] = val
			continue
		}
		out[v.Name] = v.Default
	}
	return out
}

// conflictResolver picks how conflicts are answered: --on-conflict first,
// then an interactive prompt, then the configured conflict setting.
func conflictResolver(out io.Writer) (reconcile.Resolver, error) {
	if syncOnConflict != "" {
		d, err := reconcile.ParseDecision(syncOnConflict)
		if err != nil {
			return nil, fmt.Errorf("--on-conflict: %w", err)
		}
		return prompt.Fixed(d), nil
	}
	if isInteractive() {
		return prompt.NewConsole(stdin, out), nil
	}
	d, err := reconcile.ParseDecision(config.Get(config.KeyConflict))
	if err != nil {
		return nil, fmt.Errorf("config key %s: %w", config.KeyConflict, err)
	}
	return prompt.Fixed(d), nil
}

func newStore(root string) *ledger.Store {
	return ledger.NewStore(appFs, root, buildVersion, ledger.WithLogger(logging.GetLogger("ledger")))
}

// syncFamilies runs each family through the engine in order and prints a
// line per written or backed-up file plus a summary per family. It stops at
// the first failing family.
func syncFamilies(out io.Writer, store *ledger.Store, families []*catalog.Family, vars map[*catalog.Family]map[string]string,
	update bool, resolver reconcile.Resolver, protect bool) error {
	engine := reconcile.New(appFs, store, resolver,
		reconcile.WithLogger(logging.GetLogger("reconcile")),
		reconcile.WithProtectUntracked(protect),
	)

	for _, f := range families {
		names, err := f.Templates()
		if err != nil {
			return err
		}

		result, err := engine.Run(reconcile.Job{
			Family:      f.Name,
			Source:      f.Files(),
			Templates:   names,
			Destination: f.Target,
			Variables:   vars[f],
			Update:      update,
			Executable:  f.Executable,
		})
		printOutcomes(out, result)
		if err != nil {
			return fmt.Errorf("family %s: %w", f.Name, err)
		}
		fmt.Fprintf(out, "%s: %d synced, %d skipped", f.Name, result.Synced(), result.Skipped())
		if n := result.BackedUp(); n > 0 {
			fmt.Fprintf(out, ", %d backed up", n)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func printOutcomes(out io.Writer, result *reconcile.Result) {
	if result == nil {
		return
	}
	for _, o := range result.Outcomes {
		switch {
		case o.Backup != "":
			fmt.Fprintf(out, "  backed up %s -> %s\n", o.Path, o.Backup)
		case o.Action == reconcile.ActionSynced:
			fmt.Fprintf(out, "  wrote     %s (%s)\n", o.Path, o.State)
		case o.State == reconcile.StateSyncedModified || o.State == reconcile.StatePresentUnsynced:
			fmt.Fprintf(out, "  kept      %s (%s)\n", o.Path, o.State)
		}
	}
}
