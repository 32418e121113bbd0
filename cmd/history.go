package cmd

import (
	"fmt"

	"github.com/iksnae/agent-chat/internal"
	"github.com/spf13/cobra"
)

var historyCached bool

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Show the transcript of a session",
	Long: `Fetch and display the stored transcript for a session.

Fetched transcripts are written through to the local cache; --cached reads
from the cache without touching the network.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]

		env, err := newEnv()
		if err != nil {
			return err
		}

		cache, err := env.openCache()
		if err != nil {
			internal.LogWarn("Transcript cache unavailable: %v", err)
			cache = nil
		} else {
			defer func() { _ = cache.Close() }()
		}

		var messages []internal.MessageWithSteps

		if historyCached {
			if cache == nil {
				return fmt.Errorf("transcript cache unavailable")
			}
			transcript, err := cache.Get(sessionID)
			if err != nil {
				return err
			}
			if transcript == nil {
				return fmt.Errorf("no cached transcript for %s (fetch once without --cached)", sessionID)
			}
			messages = transcript.Messages
		} else {
			ctx := cmd.Context()
			identityID, _, err := env.establishIdentity(ctx)
			if err != nil {
				return err
			}

			client := internal.NewAgentClient(env.cfg.AgentEndpoint, env.store, env.auth)
			for _, msg := range client.GetHistory(ctx, internal.ActorID(identityID), sessionID) {
				messages = append(messages, internal.MessageWithSteps{Message: msg})
			}

			if cache != nil && len(messages) > 0 {
				if err := cache.Put(sessionID, messages); err != nil {
					internal.LogWarn("Failed to cache transcript: %v", err)
				}
			}
		}

		if len(messages) == 0 {
			fmt.Println("No messages in this session.")
			return nil
		}

		for _, msg := range messages {
			label := humanStyle.Render("You")
			if msg.Role == internal.RoleAI {
				label = assistantStyle.Render("Assistant")
			}
			fmt.Printf("%s\n%s\n\n", label, messageStyle.Render(msg.Content))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyCached, "cached", false, "Read from the local cache instead of the backend")
	rootCmd.AddCommand(historyCmd)
}
