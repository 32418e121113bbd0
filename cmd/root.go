package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/agent-chat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agent-chat",
	Short: "Chat with the research assistant from your terminal",
	Long: `A terminal front end for the AI research assistant.

agent-chat signs you in against the identity provider, keeps your chat
sessions in the remote session store, and streams the assistant's replies
step by step into your terminal.

Quick Start:
  agent-chat login                  # Sign in via the hosted login page
  agent-chat sessions list          # List your chat sessions
  agent-chat chat                   # Start chatting (creates a session)
  agent-chat history <session-id>   # Review a past conversation
  agent-chat export <session-id> --format md   # Export a transcript`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.agent-chat/config.yaml)")
}

// appEnv bundles the config, credential store, and auth service every
// command needs.
type appEnv struct {
	cfg   *internal.Config
	store *internal.FileStore
	auth  *internal.AuthService
}

func newEnv() (*appEnv, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = internal.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	dir, err := internal.DefaultConfigDir()
	if err != nil {
		return nil, err
	}
	store, err := internal.NewFileStore(filepath.Join(dir, "credentials.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	return &appEnv{
		cfg:   cfg,
		store: store,
		auth:  internal.NewAuthService(cfg, store),
	}, nil
}

// establishIdentity verifies the stored tokens are fresh and exchanges the
// identity token for an identity ID plus temporary service credentials.
func (e *appEnv) establishIdentity(ctx context.Context) (string, *internal.ServiceCredentials, error) {
	if err := e.auth.CheckExpiry(ctx); err != nil {
		return "", nil, err
	}

	idToken, err := e.auth.IDToken()
	if err != nil {
		return "", nil, fmt.Errorf("not signed in, run 'agent-chat login': %w", err)
	}

	broker := internal.NewIdentityBroker(e.cfg)
	identityID, err := broker.GetIdentityID(ctx, idToken)
	if err != nil {
		return "", nil, err
	}
	creds, err := broker.GetServiceCredentials(ctx, idToken, identityID)
	if err != nil {
		return "", nil, err
	}

	return identityID, creds, nil
}

// openCache opens the local transcript cache.
func (e *appEnv) openCache() (*internal.TranscriptCache, error) {
	dir, err := internal.DefaultConfigDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return internal.OpenTranscriptCache(filepath.Join(dir, "transcripts.db"))
}

// handleStoreError applies the hard-reset policy for row-store failures: any
// unexpected persistence error is treated as a potential credential problem,
// the local session is torn down, and the user is pointed at the logout flow.
func (e *appEnv) handleStoreError(err error) error {
	var storeErr *internal.StoreError
	if !errors.As(err, &storeErr) {
		return err
	}

	internal.LogError("Session store failure, signing out: %v", err)
	e.auth.SignOut()
	return fmt.Errorf("session store failure, you have been signed out (complete sign-out at %s): %w",
		e.cfg.SignOutURL(), err)
}
