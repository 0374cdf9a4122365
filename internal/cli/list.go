package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/controller"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

const (
	descWidth = 40
	barWidth  = 28
)

func newListCmd(app *App) *cobra.Command {
	var (
		filter string
		column string
		asc    bool
		group  bool
	)
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List items",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := app.cfg.Filter()
			if cmd.Flags().Changed("filter") {
				f.FilterText = filter
			}
			if cmd.Flags().Changed("sort") {
				c, err := parseColumn(column)
				if err != nil {
					return err
				}
				f.ColumnName = c
			}
			if cmd.Flags().Changed("asc") {
				f.SortAscending = asc
			}

			ctrl, err := app.controller(cmd, f)
			if err != nil {
				return err
			}
			ctrl.Settle(ctrl.Init())
			if err := alertsErr(ctrl); err != nil {
				return err
			}
			ui.Panel(listLines(ctrl, group))
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "Only items whose description matches")
	cmd.Flags().StringVar(&column, "sort", "", "Sort column: Description|DueDate|IsDone")
	cmd.Flags().BoolVar(&asc, "asc", false, "Sort ascending")
	cmd.Flags().BoolVar(&group, "group", false, "Group output by pending/done")
	return cmd
}

// parseColumn accepts a column name in any case, or a header label.
func parseColumn(s string) (string, error) {
	for _, h := range tui.Headers {
		if strings.EqualFold(s, h.Column) || strings.EqualFold(s, h.Label) {
			return h.Column, nil
		}
	}
	return "", usagef("unknown sort column %q (want Description, DueDate or IsDone)", s)
}

func listLines(ctrl *controller.Controller, group bool) []string {
	t := ui.Current()
	items := ctrl.Items()
	d, p := model.Stats(items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(t.Title, "Todos"),
		ui.C(t.Success, t.SymDone), d,
		ui.C(t.Pending, t.SymUnchecked), p,
		ui.C(t.Accent, "Total"), len(items),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(t.Muted, ui.ProgressBar(d, d+p, barWidth)))
	if ft := ctrl.Filter().FilterText; ft != "" {
		lines = append(lines, ui.C(t.Muted, "filter: "+ft))
	}
	lines = append(lines, "")
	lines = append(lines, headerRow(ctrl.Filter()))

	if group {
		lines = append(lines, groupLines(ctrl, items)...)
	} else {
		lines = append(lines, flatLines(ctrl, items)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `tada add \"Buy milk\" --due 2024-05-01`"))
	return lines
}

func headerRow(f model.Filter) string {
	cells := make([]string, 0, len(tui.Headers))
	for i, h := range tui.Headers {
		cell := h.Plain(f.ColumnName, f.SortAscending)
		if i == 0 {
			// line up with the description column: id + box
			cell = strings.Repeat(" ", 6) + ui.Pad(cell, descWidth)
		}
		cells = append(cells, cell)
	}
	return strings.Join(cells, "  ")
}

func flatLines(ctrl *controller.Controller, items []model.Item) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{ui.C(t.Muted, "no items")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		id := fmt.Sprintf("%3d.", it.Id)
		box, color := t.BoxUnchecked, t.Muted
		if it.IsDone {
			box, color = t.BoxChecked, t.Success
		}
		desc := it.Description
		if r := []rune(desc); len(r) > descWidth {
			desc = string(r[:descWidth-3]) + "..."
		}
		due := ui.C(t.Muted, it.DueDate)
		if !it.IsDone && ctrl.Overdue(it) {
			due = ui.C(t.Error, it.DueDate+" !")
		}
		out = append(out, fmt.Sprintf("%s %s %s  %s",
			ui.Dim(id), ui.C(color, box), ui.Pad(desc, descWidth), due))
	}
	return out
}

func groupLines(ctrl *controller.Controller, items []model.Item) []string {
	t := ui.Current()
	var pend, done []model.Item
	for _, it := range items {
		if it.IsDone {
			done = append(done, it)
		} else {
			pend = append(pend, it)
		}
	}
	var lines []string
	lines = append(lines, ui.C(t.Accent, "Pending"))
	if len(pend) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(ctrl, pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Accent, "Done"))
	if len(done) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(ctrl, done)...)
	}
	return lines
}
