package cli

import (
	"bufio"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/ui"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the bearer token sent to the server",
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthWhoamiCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [token]",
		Short: "Save a token (read from stdin when omitted)",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				fmt.Fprint(cmd.OutOrStdout(), "Token: ")
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				token = strings.TrimSpace(line)
			}
			if token == "" {
				return usagef("login: empty token")
			}
			if err := auth.SetToken(token, nil); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			ui.OK("token saved")
			return nil
		},
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.DeleteToken(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			ui.OK("logged out")
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from and when it expires",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, err := auth.GetToken()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ti == nil {
				fmt.Fprintln(out, ui.C(ui.Current().Muted, "not logged in"))
				return nil
			}
			fmt.Fprintf(out, "token: %s (from %s)\n", mask(ti.Token), ti.Source)
			if ti.ExpiresAt != nil {
				state := "valid"
				if time.Now().After(*ti.ExpiresAt) {
					state = ui.C(ui.Current().Error, "expired")
				}
				fmt.Fprintf(out, "expires: %s (%s)\n", ti.ExpiresAt.Format(time.RFC3339), state)
			}
			return nil
		},
	}
}

func newAuthWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the claims of a JWT token (signature not verified)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, err := auth.GetToken()
			if err != nil {
				return err
			}
			if ti == nil {
				return errors.New("whoami: not logged in")
			}
			claims, err := auth.Claims(ti.Token)
			if err != nil {
				return fmt.Errorf("whoami: %w", err)
			}
			keys := make([]string, 0, len(claims))
			for k := range claims {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			out := cmd.OutOrStdout()
			for _, k := range keys {
				switch v := claims[k].(type) {
				case float64:
					fmt.Fprintf(out, "%s: %s\n", k, strconv.FormatFloat(v, 'f', -1, 64))
				default:
					fmt.Fprintf(out, "%s: %v\n", k, v)
				}
			}
			return nil
		},
	}
}

// mask keeps the first and last four characters of long tokens.
func mask(token string) string {
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + "..." + token[len(token)-4:]
}
