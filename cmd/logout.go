package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear stored credentials",
	Long: `Clear locally stored tokens and print the hosted logout URL.

The provider-side session is only ended once you visit the printed URL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}

		env.auth.SignOut()

		fmt.Println("Local credentials cleared.")
		fmt.Println("To end the provider session, visit:")
		fmt.Println()
		fmt.Println("  " + loginURLStyle.Render(env.auth.SignOutURL()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
