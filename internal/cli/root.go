package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/devkit-labs/devkit/internal/branding"
	"github.com/devkit-labs/devkit/internal/catalog"
	"github.com/devkit-labs/devkit/internal/config"
	"github.com/devkit-labs/devkit/internal/logging"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	rootDir   string
	verbosity int
)

// Process-level dependencies, replaced in tests.
var (
	appFs     afero.Fs  = afero.NewOsFs()
	stdin     io.Reader = os.Stdin
	templates           = catalog.Default()

	setupLogging  = logging.Setup
	isInteractive = func() bool {
		fd := os.Stdin.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "C", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` copies shared tooling files (AI assistant commands, lint and format
configs, CI workflows, editor hooks) into a project and keeps them in sync with
the templates bundled in this binary, without clobbering local edits.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(verbosity)
		config.Load()
	},
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}

// projectRoot returns the absolute project root selected by --dir.
func projectRoot() (string, error) {
	dir := rootDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving project root %s: %w", dir, err)
	}
	return abs, nil
}
