package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/vaudio/internal/presentation/graph"
	"github.com/aretw0/vaudio/internal/validator"
	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/input"
)

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func crawl(ctx context.Context, opts Options) (*validator.Report, error) {
	p, err := OpenProject(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	initial := p.Config.Initial
	if opts.Initial != "" {
		initial = opts.Initial
	}
	return validator.Validate(ctx, p.Engine.Loader(), initial)
}

// Validate crawls the project from its initial menu and prints a summary to w.
// The returned error lists every broken target.
func Validate(ctx context.Context, opts Options, w io.Writer) error {
	report, err := crawl(ctx, opts)
	if err != nil {
		return err
	}
	printSystemMessage(w, "%d programs, %d games, %d scenes, %d extra frames reachable.",
		report.Programs, report.Games, report.Scenes, report.Extras)
	for _, p := range report.Unreached {
		printSystemMessage(w, "Unreachable: %s", p)
	}
	return report.Err()
}

// Graph prints the reachable content as a Mermaid flowchart.
func Graph(ctx context.Context, opts Options, w io.Writer) error {
	report, err := crawl(ctx, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, graph.GenerateMermaid(report.Map, nil))
	return err
}

// Keys prints the effective trigger table of every device, overrides from the
// project file included.
func Keys(opts Options, w io.Writer) error {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	cfg, err := LoadConfig(dir)
	if err != nil {
		return err
	}

	tables := input.NewSet(cfg.Inputs).Tables()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tSIGNAL\tTRIGGERS")
	for _, device := range input.Devices {
		table := tables[device]
		for _, s := range domain.Signals {
			triggers := table.Triggers(s)
			if len(triggers) == 0 {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", device, s, strings.Join(triggers, ", "))
		}
	}
	return tw.Flush()
}
