package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/activity"
	"github.com/msalah0e/zappy/internal/catalog"
	"github.com/msalah0e/zappy/internal/hooks"
	"github.com/msalah0e/zappy/internal/installer"
	"github.com/msalah0e/zappy/internal/planner"
	"github.com/msalah0e/zappy/internal/selector"
	"github.com/msalah0e/zappy/internal/state"
	"github.com/msalah0e/zappy/internal/tui"
	"github.com/msalah0e/zappy/internal/ui"
)

func toolsInstallCmd() *cobra.Command {
	var (
		yes        bool
		skipUpdate bool
	)

	cmd := &cobra.Command{
		Use:     "install [selector | tool...]",
		Aliases: []string{"i", "add"},
		Short:   "Install tools by name or selector (1,3-5, all, missing)",
		Long: `Install catalog tools. Arguments are either tool names or a selector
against the numbered list shown by "zappy tools list".

  zappy tools install                # pick interactively
  zappy tools install git htop       # by name
  zappy tools install 1,3-5          # by number
  zappy tools install missing        # everything not yet installed`,
		Annotations:       needsSudo,
		ValidArgsFunction: toolCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := mustApp()
			ctx := cmd.Context()
			if skipUpdate {
				a.cfg.Install.UpdateIndex = false
			}

			if len(args) == 0 {
				a.toolsInteractive(ctx)
				return nil
			}

			names, err := a.resolveArgs(ctx, args)
			if err != nil {
				return err
			}
			res, ok := a.installNames(ctx, names, yes)
			if ok && !res.OK() {
				return fmt.Errorf("%d of %d tools failed", len(res.Failed), len(res.Outcomes))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Install without asking for confirmation")
	cmd.Flags().BoolVar(&skipUpdate, "skip-update", false, "Do not refresh the package index first")
	return cmd
}

func (a *app) detector() catalog.Detector {
	return catalog.Detector{Runner: a.run, Platform: a.plat}
}

// resolveArgs accepts either tool names or one selector split across args.
func (a *app) resolveArgs(ctx context.Context, args []string) ([]string, error) {
	byName := true
	for _, arg := range args {
		if a.cat.Get(arg) == nil {
			byName = false
			break
		}
	}
	if byName {
		return args, nil
	}
	return a.selectNames(ctx, strings.Join(args, ","), nil)
}

// selectNames parses raw against the catalog. missing, when nil, is
// detected only if the input is a "missing" keyword.
func (a *app) selectNames(ctx context.Context, raw string, missing []int) ([]string, error) {
	if missing == nil {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "missing", "m":
			missing = a.detector().Missing(ctx, a.cat)
		}
	}
	n := a.cat.Len()
	idx, err := selector.Parse(raw, n, selector.Keywords(n, missing))
	if err != nil {
		return nil, err
	}
	return a.cat.Names(idx), nil
}

// toolsInteractive lists the catalog with install status and installs
// the user's selection, re-prompting on selector errors.
func (a *app) toolsInteractive(ctx context.Context) {
	ui.PrintHeader("Install Common Tools", "Package manager: "+a.plat.Manager.String())

	detected := a.detector().Detect(ctx, a.cat.All())
	missing := printCatalog(detected)
	if len(missing) == 0 {
		ui.Success("All tools are already installed!")
		return
	}

	fmt.Fprintln(ui.Out)
	ui.Dim("Enter numbers or ranges (1,3,5-7), 'all' or 'missing'. Empty input goes back.")
	for {
		raw, err := a.prompt.Ask("Select tools", "")
		if err != nil || raw == "" || strings.EqualFold(raw, "b") {
			return
		}
		names, err := a.selectNames(ctx, raw, missing)
		var pe *selector.ParseError
		if errors.As(err, &pe) {
			ui.Error("%v", pe)
			continue
		}
		if err != nil {
			ui.Error("%v", err)
			return
		}
		a.installNames(ctx, names, false)
		return
	}
}

// printCatalog prints the numbered tool table and returns the indices of
// tools that are not installed.
func printCatalog(detected []catalog.Detected) []int {
	var missing []int
	var rows [][]string
	for i, dt := range detected {
		status := ui.PendingIcon()
		if dt.Installed {
			status = ui.StatusIcon(true)
		} else {
			missing = append(missing, i)
		}
		ver := dt.Version
		if ver == "" {
			ver = "-"
		}
		name := dt.Tool.Name
		if state.IsInstalled(name) {
			name += ui.Subtle.Sprint(" *")
		}
		rows = append(rows, []string{fmt.Sprintf("%2d", i+1), status, name, string(dt.Tool.Kind), ver, dt.Tool.Description})
	}
	ui.Table([]string{"#", " ", "TOOL", "KIND", "VERSION", "DESCRIPTION"}, rows)
	return missing
}

// installNames plans the selection and, after confirmation, runs the
// batch. ok is false when nothing ran.
func (a *app) installNames(ctx context.Context, names []string, yes bool) (installer.Result, bool) {
	det := a.detector()
	plan := planner.Build(names, func(name string) bool {
		t := a.cat.Get(name)
		return t != nil && det.IsInstalled(ctx, *t)
	})

	fmt.Fprintln(ui.Out)
	for _, name := range plan.AlreadySatisfied {
		ui.Note("%s is already installed", name)
	}
	if plan.Empty() {
		ui.Success("Nothing to install.")
		return installer.Result{}, false
	}

	ui.KeyValue("To install", strings.Join(plan.PendingInstall, ", "))
	if !yes && !a.prompt.Confirm(fmt.Sprintf("Install %d tool(s)?", len(plan.PendingInstall)), true) {
		return installer.Result{}, false
	}

	res, err := a.runBatch(ctx, plan.PendingInstall)
	if err != nil {
		ui.Warning("progress display failed: %v", err)
	}
	for _, o := range res.Outcomes {
		_ = activity.Record("install", o.Name, o.Err)
	}
	printSummary(res)
	return res, true
}

func (a *app) batch(ctx context.Context) *installer.Batch {
	env := installer.DetectEnv(ctx, a.run)
	env.NodeTarball = a.cfg.Install.NodeTarball
	return &installer.Batch{
		Runner:          a.run,
		Platform:        a.plat,
		Catalog:         a.cat,
		Detector:        a.detector(),
		Env:             env,
		Hooks:           &hooks.Hooks{Runner: a.run, Config: a.cfg.Hooks},
		Timeout:         a.cfg.Install.Timeout(),
		SkipIndexUpdate: !a.cfg.Install.UpdateIndex,
		Record: func(t catalog.Tool, version string) error {
			method, pkg := installer.Method(t, a.plat.Manager)
			return state.Record(t.Name, version, method, pkg)
		},
	}
}

func (a *app) runBatch(ctx context.Context, pending []string) (installer.Result, error) {
	b := a.batch(ctx)
	tools := make([]catalog.Tool, 0, len(pending))
	for _, name := range pending {
		if t := a.cat.Get(name); t != nil {
			tools = append(tools, *t)
		}
	}

	mode := a.progressMode()
	out := ui.Out
	if mode == tui.ModeTUI {
		out = os.Stdout
	}
	return tui.Install(out, mode, ui.Bolt+" Installing tools", tools, func(rep installer.Reporter) installer.Result {
		b.Reporter = rep
		return b.Execute(ctx, pending)
	})
}

// printSummary always prints the succeeded/failed breakdown.
func printSummary(res installer.Result) {
	total := len(res.Outcomes)
	fmt.Fprintln(ui.Out)
	if res.OK() {
		ui.Success("Installed %d/%d tools.", len(res.Succeeded), total)
		return
	}
	ui.Warning("Installed %d/%d tools, %d failed:", len(res.Succeeded), total, len(res.Failed))
	for _, o := range res.Outcomes {
		if o.Status == installer.Failed {
			fmt.Fprintf(ui.Out, "    %s %s: %v\n", ui.StatusIcon(false), o.Label, o.Err)
		}
	}
}
