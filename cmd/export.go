package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/agent-chat/internal"
	"github.com/iksnae/agent-chat/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a cached transcript",
	Long: `Export a session's transcript in jsonl, md, yaml, or json format.

Exports read from the local cache; fetch the transcript first with
'agent-chat history <session-id>' (or by chatting in the session).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]

		env, err := newEnv()
		if err != nil {
			return err
		}

		cache, err := env.openCache()
		if err != nil {
			return err
		}
		defer func() { _ = cache.Close() }()

		transcript, err := cache.Get(sessionID)
		if err != nil {
			return err
		}
		if transcript == nil {
			return fmt.Errorf("no cached transcript for %s, run 'agent-chat history %s' first", sessionID, sessionID)
		}

		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return &internal.ExportError{Format: exportFormat, Path: exportOutput, Err: err}
			}
			defer func() { _ = f.Close() }()
			out = f
		}

		if err := exporter.Export(transcript, out); err != nil {
			return &internal.ExportError{Format: exportFormat, Path: exportOutput, Err: err}
		}

		if exportOutput != "" {
			internal.LogInfo("Exported %s to %s", sessionID, exportOutput)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
