package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-chat/internal"
	"github.com/spf13/cobra"
)

var (
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62")).
				Padding(0, 1)

	sessionIDStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	sessionDateStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))
)

// sessionsCmd represents the sessions command group
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage your chat sessions",
	Long:  `List, create, and delete the chat sessions stored for your identity.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your chat sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		identityID, creds, err := env.establishIdentity(ctx)
		if err != nil {
			return err
		}

		store := internal.NewSessionStore(env.cfg, creds)
		sessions, err := store.List(ctx, identityID)
		if err != nil {
			return env.handleStoreError(err)
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions yet. Start one with 'agent-chat chat'.")
			return nil
		}

		fmt.Println(sessionHeaderStyle.Render(fmt.Sprintf("Sessions (%d)", len(sessions))))
		fmt.Println()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION ID\tCREATED")
		for _, s := range sessions {
			created := s.Timestamp
			if t, err := time.Parse(time.RFC3339, s.Timestamp); err == nil {
				created = t.Local().Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\n",
				sessionIDStyle.Render(s.SessionID),
				sessionDateStyle.Render(created))
		}
		return w.Flush()
	},
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new chat session",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		identityID, creds, err := env.establishIdentity(ctx)
		if err != nil {
			return err
		}

		session := internal.NewChatSession()
		store := internal.NewSessionStore(env.cfg, creds)
		if err := store.Append(ctx, identityID, session); err != nil {
			return env.handleStoreError(err)
		}

		fmt.Printf("Created session %s\n", sessionIDStyle.Render(session.SessionID))
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a chat session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]

		env, err := newEnv()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		identityID, creds, err := env.establishIdentity(ctx)
		if err != nil {
			return err
		}

		store := internal.NewSessionStore(env.cfg, creds)
		if err := store.Delete(ctx, identityID, sessionID); err != nil {
			return env.handleStoreError(err)
		}

		// The cached transcript is advisory; a failed cleanup is not fatal.
		if cache, err := env.openCache(); err == nil {
			defer func() { _ = cache.Close() }()
			if err := cache.Delete(sessionID); err != nil {
				internal.LogWarn("Failed to drop cached transcript: %v", err)
			}
		}

		fmt.Printf("Deleted session %s\n", sessionID)
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsNewCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}
