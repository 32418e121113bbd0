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

var chatSessionID string

var (
	humanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	messageStyle = lipgloss.NewStyle().
			Padding(0, 2)

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true).
			Padding(0, 2)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant",
	Long: `Start an interactive chat.

Without --session a new session is created and registered in your session
list. Replies stream in step by step; the final answer is committed to the
transcript when the stream ends. Type 'exit' or 'quit' (or press Ctrl-D) to
leave. Sends are serialized: the prompt only returns once the current reply
has finished streaming.`,
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
		actorID := internal.ActorID(identityID)
		store := internal.NewSessionStore(env.cfg, creds)

		sessionID := chatSessionID
		if sessionID == "" {
			session := internal.NewChatSession()
			if err := store.Append(ctx, identityID, session); err != nil {
				return env.handleStoreError(err)
			}
			sessionID = session.SessionID
			fmt.Printf("Started session %s\n\n", sessionIDStyle.Render(sessionID))
		}

		cache, err := env.openCache()
		if err != nil {
			internal.LogWarn("Transcript cache unavailable: %v", err)
			cache = nil
		} else {
			defer func() { _ = cache.Close() }()
		}

		client := internal.NewAgentClient(env.cfg.AgentEndpoint, env.store, env.auth)
		publisher := newTranscriptPublisher()
		acc := internal.NewTurnAccumulator(publisher)

		// Replay what the backend already has for this thread.
		for _, msg := range client.GetHistory(ctx, actorID, sessionID) {
			publisher.AppendMessage(internal.MessageWithSteps{Message: msg})
		}

		reader := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print(promptStyle.Render("you> ") + " ")
			if !reader.Scan() {
				break
			}
			prompt := strings.TrimSpace(reader.Text())
			if prompt == "" {
				continue
			}
			if prompt == "exit" || prompt == "quit" {
				break
			}

			if _, err := acc.StartTurn(); err != nil {
				internal.LogError("Cannot start turn: %v", err)
				continue
			}
			publisher.AppendMessage(internal.MessageWithSteps{
				Message: internal.Message{Role: internal.RoleHuman, Content: prompt},
			})

			input := internal.InvokeInput{
				Prompt:   prompt,
				ActorID:  actorID,
				ThreadID: sessionID,
			}
			if _, err := client.InvokeStream(ctx, input, acc.OnChunk); err != nil {
				internal.LogError("Turn failed: %v", err)
				acc.FailTurn()
			} else {
				acc.EndTurn()
			}

			if cache != nil {
				if err := cache.Put(sessionID, publisher.Messages()); err != nil {
					internal.LogWarn("Failed to cache transcript: %v", err)
				}
			}
		}

		if err := reader.Err(); err != nil {
			return fmt.Errorf("input error: %w", err)
		}
		fmt.Println("\nBye.")
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "Resume an existing session instead of creating one")
	rootCmd.AddCommand(chatCmd)
}

// transcriptPublisher renders a turn's progress to the terminal and keeps
// the committed transcript for caching.
type transcriptPublisher struct {
	messages   []internal.MessageWithSteps
	shownSteps int
}

func newTranscriptPublisher() *transcriptPublisher {
	return &transcriptPublisher{}
}

// PublishSteps prints the steps that arrived since the last publish.
func (p *transcriptPublisher) PublishSteps(steps []internal.StreamStep) {
	for _, step := range steps[p.shownSteps:] {
		line := fmt.Sprintf("⟳ %s", step.Step)
		if internal.ShouldShowContent(step.Step) {
			if content := internal.NormalizeContent(step.Content); content != "" {
				line += ": " + truncate(content, 100)
			}
		}
		fmt.Println(stepStyle.Render(line))
	}
	p.shownSteps = len(steps)
}

// ClearSteps retires the incremental display.
func (p *transcriptPublisher) ClearSteps() {
	p.shownSteps = 0
}

// AppendMessage commits one message to the transcript and prints it.
func (p *transcriptPublisher) AppendMessage(msg internal.MessageWithSteps) {
	p.messages = append(p.messages, msg)

	label := humanStyle.Render("You")
	if msg.Role == internal.RoleAI {
		label = assistantStyle.Render("Assistant")
	}
	fmt.Printf("%s\n%s\n\n", label, messageStyle.Render(msg.Content))
}

// Messages returns the committed transcript so far.
func (p *transcriptPublisher) Messages() []internal.MessageWithSteps {
	return p.messages
}

// truncate shortens s to at most n runes for the step display.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
