package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/controller"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

func newAddCmd(app *App) *cobra.Command {
	var due string
	cmd := &cobra.Command{
		Use:   "add <description...>",
		Short: "Add a new item (description can be multiple words)",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc := strings.TrimSpace(strings.Join(args, " "))
			if desc == "" {
				return usagef("add: empty description")
			}
			due = strings.TrimSpace(due)
			if due != "" {
				if _, ok := (model.Item{DueDate: due}).Due(); !ok {
					return usagef("add: not a date: %s (want YYYY-MM-DD)", due)
				}
			}
			ctrl, err := app.controller(cmd, app.cfg.Filter())
			if err != nil {
				return err
			}
			ctrl.Settle(ctrl.Add(desc, due))
			if err := alertsErr(ctrl); err != nil {
				return err
			}
			ui.OK("added")
			return nil
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	return cmd
}

func newDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle done for the item with this id",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, idx, err := app.loadItem(cmd, "done", args[0])
			if err != nil {
				return err
			}
			ctrl.Settle(ctrl.ToggleDone(idx))
			if err := alertsErr(ctrl); err != nil {
				return err
			}
			if ctrl.Items()[idx].IsDone {
				ui.OK("marked done")
			} else {
				ui.OK("marked pending")
			}
			return nil
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove the item with this id",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, idx, err := app.loadItem(cmd, "rm", args[0])
			if err != nil {
				return err
			}
			ctrl.Settle(ctrl.Remove(ctrl.Items()[idx]))
			if err := alertsErr(ctrl); err != nil {
				return err
			}
			ui.OK("removed")
			return nil
		},
	}
}

func newClearCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every completed item",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.controller(cmd, app.cfg.Filter())
			if err != nil {
				return err
			}
			ctrl.Settle(ctrl.Init())
			if err := alertsErr(ctrl); err != nil {
				return err
			}
			if ctrl.NoCompleted() {
				ui.OK("nothing to clear")
				return nil
			}

			n, _ := model.Stats(ctrl.Items())
			confirmed := yes
			if !confirmed {
				confirmed = confirm(cmd, fmt.Sprintf("Remove %d completed item(s)? [y/N] ", n))
			}
			ctrl.Settle(ctrl.RemoveCompleted(confirmed))
			if !confirmed {
				fmt.Fprintln(cmd.OutOrStdout(), ui.C(ui.Current().Muted, "cancelled"))
				return nil
			}
			if removed := n - len(ctrl.FailedRemovals()); removed > 0 {
				ui.OK(fmt.Sprintf("removed %d item(s)", removed))
			}
			return alertsErr(ctrl)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// loadItem refreshes with the configured filter and finds the item named by arg.
func (app *App) loadItem(cmd *cobra.Command, op, arg string) (*controller.Controller, int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return nil, 0, usagef("%s: not a number: %s", op, arg)
	}
	ctrl, err := app.controller(cmd, app.cfg.Filter())
	if err != nil {
		return nil, 0, err
	}
	ctrl.Settle(ctrl.Init())
	if err := alertsErr(ctrl); err != nil {
		return nil, 0, err
	}
	_, idx, ok := ctrl.Find(id)
	if !ok {
		return nil, 0, usagef("%s: no item with id %d (run `tada ls` to see ids)", op, id)
	}
	return ctrl, idx, nil
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
