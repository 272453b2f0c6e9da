package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spigell/resume-agent/internal/session"
)

var coverLetterCmd = &cobra.Command{
	Use:     "cover-letter",
	Aliases: []string{"letter"},
	Short:   "Generate a cover letter for the job description",
	Run: func(cmd *cobra.Command, _ []string) {
		runOperation(cmd, session.OpCoverLetter)
	},
}

func init() {
	rootCmd.AddCommand(coverLetterCmd)
}
