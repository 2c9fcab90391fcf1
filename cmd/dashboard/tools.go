package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/matthewjablack/dynamicdashboard/internal/config"
	"github.com/matthewjablack/dynamicdashboard/internal/gateway"
	"github.com/matthewjablack/dynamicdashboard/internal/grid"
	"github.com/matthewjablack/dynamicdashboard/internal/model"
	"github.com/matthewjablack/dynamicdashboard/internal/widget"
)

func newWidgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "widgets",
		Short: "List the widget catalogue with size presets",
		Args:  cobra.NoArgs,
		RunE:  runWidgets,
	}
}

func runWidgets(cmd *cobra.Command, _ []string) error {
	policy := grid.NewPolicy(widget.MustBuiltin())
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tPRESET\tSIZE\tMIN")
	for _, info := range policy.Registry().ListTypes() {
		s := policy.MinSize(info.Type)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%sx%s\t%sx%s\n",
			info.Type, info.DisplayName, policy.Registry().PresetOf(info.Type),
			units(s.W), units(s.H), units(s.MinW), units(s.MinH))
	}
	return tw.Flush()
}

func units(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project <file|->",
		Short: "Repair a dashboard document and print its layout on every breakpoint",
		Args:  cobra.ExactArgs(1),
		RunE:  runProject,
	}
	cmd.Flags().Bool("json", false, "Print the repaired dashboard as JSON")
	return cmd
}

func runProject(cmd *cobra.Command, args []string) error {
	d, err := readDashboard(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	policy := grid.NewPolicy(widget.MustBuiltin())

	for _, p := range d.CheckIntegrity() {
		fmt.Fprintf(cmd.ErrOrStderr(), "problem: %s\n", p)
	}
	repaired, fixed := policy.Repair(d)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(repaired)
	}

	fmt.Fprintf(out, "%s: %d widgets, %d entries repaired\n", repaired.Name, len(repaired.Components), fixed)
	types := grid.TypesOf(repaired.Components)
	for _, bp := range model.Breakpoints() {
		fmt.Fprintf(out, "\n[%s] %d columns, from %dpx\n", bp, bp.Columns(), bp.Threshold())
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tX\tY\tW\tH\tMIN")
		for _, e := range repaired.Layouts[bp] {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%sx%s\n",
				e.WidgetID, types[e.WidgetID], e.X, e.Y,
				units(e.W), units(e.H), units(e.MinW), units(e.MinH))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func readDashboard(stdin io.Reader, path string) (model.Dashboard, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return model.Dashboard{}, err
	}
	var d model.Dashboard
	if err := json.Unmarshal(data, &d); err != nil {
		return model.Dashboard{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Check the dashboards stored on a running service for layout problems",
		Args:  cobra.NoArgs,
		RunE:  runInspect,
	}
	cmd.Flags().Bool("repair", false, "Write repaired layouts back to the service")
	return cmd
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	client, err := gateway.New(cfg.Gateway.URL, cfg.Gateway.Token, cfg.Gateway.Timeout)
	if err != nil {
		return err
	}
	repair, _ := cmd.Flags().GetBool("repair")
	return inspect(cmd, client, grid.NewPolicy(widget.MustBuiltin()), repair)
}

func inspect(cmd *cobra.Command, client *gateway.Client, policy *grid.Policy, repair bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	list, err := client.List(ctx)
	if err != nil {
		return fmt.Errorf("list dashboards: %w", err)
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "no dashboards")
		return nil
	}

	for _, d := range list {
		if d.ID == nil {
			continue
		}
		problems := d.CheckIntegrity()
		if len(problems) == 0 {
			fmt.Fprintf(out, "#%d %s: ok\n", *d.ID, d.Name)
			continue
		}
		fmt.Fprintf(out, "#%d %s: %d problems\n", *d.ID, d.Name, len(problems))
		for _, p := range problems {
			fmt.Fprintf(out, "  %s\n", p)
		}
		if !repair {
			continue
		}
		fixed, n := policy.Repair(d)
		if err := client.Update(ctx, *d.ID, fixed); err != nil {
			return fmt.Errorf("update dashboard %d: %w", *d.ID, err)
		}
		fmt.Fprintf(out, "  repaired %d entries\n", n)
	}
	return nil
}
