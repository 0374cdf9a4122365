package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Makepad-fr/tada/internal/controller"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Execute runs the command line and returns an exit code (0 ok, 1 error, 2 usage).
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ui.SetOutput(stdout, stderr)

	app := &App{}
	defer app.close()

	root := NewRootCmd(app)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}
	for _, line := range strings.Split(err.Error(), "\n") {
		ui.Fail(line)
	}
	if exitCode(err) == 2 {
		fmt.Fprintln(stderr, ui.C(ui.Current().Muted, "Run `tada --help` for usage"))
	}
	return exitCode(err)
}

// alertsErr turns the controller's undismissed failures into one error.
func alertsErr(ctrl *controller.Controller) error {
	return errors.Join(ctrl.Alerts()...)
}
