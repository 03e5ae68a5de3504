package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// confirm prompts for confirmation before a destructive operation and
// returns nil when it should proceed. The prompt is skipped when
// --assume-yes is set; non-interactive sessions must pass it explicitly
// and get a non-nil error otherwise, so scripted refusals fail loudly.
func confirm(cmd *cli.Command, operation string) error {
	if cmd.Bool("assume-yes") {
		return nil
	}

	if stat, err := os.Stdin.Stat(); err != nil || stat.Mode()&os.ModeCharDevice == 0 {
		return errors.Errorf("refusing to %s without --assume-yes in a non-interactive session", operation)
	}

	fmt.Fprintf(cmd.Writer, "The %s operation cannot be undone. Are you sure? [y/N] ", operation)

	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return errors.Wrap(err, "failed to read confirmation")
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return errors.Errorf("%s aborted", operation)
	}
}
