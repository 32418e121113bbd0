package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-chat/internal"
	"github.com/spf13/cobra"
)

var (
	loginURLStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Underline(true)

	loginSuccessStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42")).
				Bold(true)
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in via the hosted login page",
	Long: `Sign in against the identity provider.

Opens no browser itself: visit the printed URL, complete the login, and
paste the authorization code from the redirect URL back here. The exchanged
tokens are stored locally and refreshed silently until they expire.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}

		fmt.Println("Open this URL in your browser and sign in:")
		fmt.Println()
		fmt.Println("  " + loginURLStyle.Render(env.auth.SignInURL()))
		fmt.Println()
		fmt.Print("Paste the authorization code: ")

		reader := bufio.NewReader(os.Stdin)
		code, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read authorization code: %w", err)
		}
		code = strings.TrimSpace(code)
		if code == "" {
			return fmt.Errorf("no authorization code provided")
		}

		ctx := cmd.Context()
		if err := env.auth.ExchangeCode(ctx, code); err != nil {
			return fmt.Errorf("sign-in failed: %w", err)
		}

		// Verify the full chain up front so a broken identity pool setup
		// surfaces here instead of on the first chat.
		identityID, _, err := env.establishIdentity(ctx)
		if err != nil {
			return fmt.Errorf("signed in, but identity exchange failed: %w", err)
		}

		internal.LogDebug("Resolved identity %s", identityID)
		fmt.Println(loginSuccessStyle.Render("Signed in."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
