package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/resume-agent/internal/session"
)

var findJobsCmd = &cobra.Command{
	Use:   "find-jobs",
	Short: "Search job listings matching the resume",
	Long: `Search job listings matching the resume.
Without --query the backend derives search terms from the skills found in the resume.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runOperation(cmd, session.OpFindJobs)
	},
}

func init() {
	rootCmd.AddCommand(findJobsCmd)

	findJobsCmd.Flags().StringP("query", "q", "", "search query. Default is derived from the resume")
	findJobsCmd.Flags().StringP("location", "l", "", "job location (default \"remote\")")
	findJobsCmd.Flags().Bool("remember", false, "append shown listings to jobs.exclude-file so they are hidden next time")

	viper.BindPFlag("search.query", findJobsCmd.Flags().Lookup("query"))
	viper.BindPFlag("search.location", findJobsCmd.Flags().Lookup("location"))
	viper.BindPFlag("remember", findJobsCmd.Flags().Lookup("remember"))
}
