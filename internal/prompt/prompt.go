package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/devkit-labs/devkit/internal/catalog"
	"github.com/devkit-labs/devkit/internal/manifest"
	"github.com/devkit-labs/devkit/internal/reconcile"
)

// ErrInvalidChoice is returned for a selection that matches no option.
var ErrInvalidChoice = errors.New("invalid choice")

var decisionHelp = map[reconcile.Decision]string{
	reconcile.DecisionSkip:      "keep your version",
	reconcile.DecisionOverwrite: "replace it with the latest template",
	reconcile.DecisionBackup:    "save your version as " + reconcile.BackupSuffix + ", then replace it",
}

// Console prompts on a line-oriented reader and writer.
type Console struct {
	reader *bufio.Reader
	w      io.Writer
}

// NewConsole returns a Console reading answers from r and writing prompts to w.
func NewConsole(r io.Reader, w io.Writer) *Console {
	return &Console{reader: bufio.NewReader(r), w: w}
}

// Resolve asks what to do with a locally modified file. It asks again until
// the answer is a valid number or decision name.
func (c *Console) Resolve(path string) (reconcile.Decision, error) {
	fmt.Fprintf(c.w, "\n%s has local changes since it was last synced.\n", path)
	for i, d := range reconcile.Decisions {
		fmt.Fprintf(c.w, "  %d) %-10s %s\n", i+1, d, decisionHelp[d])
	}

	for {
		fmt.Fprintf(c.w, "Enter number [1-%d]: ", len(reconcile.Decisions))
		line, err := c.readLine()
		if err != nil {
			return reconcile.DecisionSkip, fmt.Errorf("reading decision for %s: %w", path, err)
		}

		if d, ok := parseChoice(line); ok {
			return d, nil
		}
		fmt.Fprintf(c.w, "Invalid choice %q.\n", line)
	}
}

func parseChoice(line string) (reconcile.Decision, bool) {
	if n, err := strconv.Atoi(line); err == nil {
		if n >= 1 && n <= len(reconcile.Decisions) {
			return reconcile.Decisions[n-1], true
		}
		return reconcile.DecisionSkip, false
	}
	d, err := reconcile.ParseDecision(line)
	return d, err == nil
}

// SelectFamilies shows a numbered list and returns the chosen family names.
// The answer is a comma-separated list of numbers; an empty answer or "all"
// selects every family.
func (c *Console) SelectFamilies(families []*catalog.Family) ([]string, error) {
	fmt.Fprintln(c.w, "\nSelect template families:")
	for i, f := range families {
		fmt.Fprintf(c.w, "  %d) %-10s %s\n", i+1, f.Name, f.Description)
	}
	fmt.Fprintf(c.w, "Enter numbers separated by commas [all]: ")

	line, err := c.readLine()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading selection: %w", err)
	}

	all := make([]string, len(families))
	for i, f := range families {
		all[i] = f.Name
	}
	if line == "" || strings.EqualFold(line, "all") {
		return all, nil
	}

	seen := make(map[int]bool)
	var names []string
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > len(families) {
			return nil, fmt.Errorf("%w %q: choose 1-%d", ErrInvalidChoice, part, len(families))
		}
		if !seen[n] {
			seen[n] = true
			names = append(names, all[n-1])
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w %q: no family selected", ErrInvalidChoice, line)
	}
	return names, nil
}

// CollectVariables asks for a value for every variable. The default shown is
// the current value when there is one, otherwise the documented default; an
// empty answer (or end of input) accepts it.
func (c *Console) CollectVariables(vars []manifest.Variable, current map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(vars))
	for _, v := range vars {
		def := v.Default
		if cur, ok := current[v.Name]; ok {
			def = cur
		}

		if v.Description != "" {
			fmt.Fprintf(c.w, "%s (%s) [%s]: ", v.Name, v.Description, def)
		} else {
			fmt.Fprintf(c.w, "%s [%s]: ", v.Name, def)
		}

		line, err := c.readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading %s: %w", v.Name, err)
		}
		if line == "" {
			line = def
		}
		out[v.Name] = line
	}
	return out, nil
}

// readLine returns the next trimmed line. A final line without a newline is
// returned with a nil error; io.EOF is returned only when nothing was read.
func (c *Console) readLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Fixed returns a resolver that always answers d, for non-interactive runs.
func Fixed(d reconcile.Decision) reconcile.Resolver {
	return reconcile.ResolverFunc(func(string) (reconcile.Decision, error) {
		return d, nil
	})
}
