package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spigell/resume-agent/internal/session"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score the resume against the job description and suggest improvements",
	Run: func(cmd *cobra.Command, _ []string) {
		runOperation(cmd, session.OpAnalyze)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
