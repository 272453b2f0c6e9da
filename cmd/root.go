package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/resume-agent/internal/backend"
	"github.com/spigell/resume-agent/internal/session"
)

const (
	app       = "resume-agent"
	envPrefix = "RESUME_AGENT"
)

type Config struct {
	Backend            *BackendConfig `mapstructure:"backend"`
	Resume             string         `mapstructure:"resume"`
	JobDescription     string         `mapstructure:"job-description"`
	JobDescriptionFile string         `mapstructure:"job-description-file"`
	Search             *SearchConfig  `mapstructure:"search"`
	Operations         []string       `mapstructure:"operations"`
	Jobs               *JobsConfig    `mapstructure:"jobs"`
	Output             string         `mapstructure:"output"`
}

type BackendConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user-agent"`
}

type SearchConfig struct {
	Query    string `mapstructure:"query"`
	Location string `mapstructure:"location"`
}

type JobsConfig struct {
	ExcludeCompanies []string `mapstructure:"exclude-companies"`
	ExcludeFile      string   `mapstructure:"exclude-file"`
	SkipIncomplete   bool     `mapstructure:"skip-incomplete"`
	SkipDuplicates   bool     `mapstructure:"skip-duplicates"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-agent is a cli for analyzing a resume against a job description, writing cover letters and finding jobs",
	}
)

// Execute executes the root command. An interrupt cancels the request in flight.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	setDefaults()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "a config file (default is resume-agent.yaml in current directory)")
	flags.BoolP("debug", "d", false, "verbose/debug output")
	flags.BoolP("json", "j", false, "json format for logging")
	flags.StringP("output", "o", "text", "result format: text or json")
	flags.String("backend-url", backend.DefaultURL, "base URL of the analysis backend")
	flags.Duration("timeout", session.DefaultTimeout, "timeout for a single backend request")
	flags.StringP("resume", "r", "", "path to the resume (PDF or DOCX)")
	flags.StringP("job-description", "t", "", "job description text")
	flags.StringP("job-description-file", "f", "", "file with the job description, - for stdin")

	viper.BindPFlag("debug", flags.Lookup("debug"))
	viper.BindPFlag("json", flags.Lookup("json"))
	viper.BindPFlag("output", flags.Lookup("output"))
	viper.BindPFlag("backend.url", flags.Lookup("backend-url"))
	viper.BindPFlag("backend.timeout", flags.Lookup("timeout"))
	viper.BindPFlag("resume", flags.Lookup("resume"))
	viper.BindPFlag("job-description", flags.Lookup("job-description"))
	viper.BindPFlag("job-description-file", flags.Lookup("job-description-file"))
}

// setDefaults registers every key so that environment variables are seen by Unmarshal.
func setDefaults() {
	viper.SetDefault("backend.url", backend.DefaultURL)
	viper.SetDefault("backend.timeout", session.DefaultTimeout)
	viper.SetDefault("backend.user-agent", "")
	viper.SetDefault("resume", "")
	viper.SetDefault("job-description", "")
	viper.SetDefault("job-description-file", "")
	viper.SetDefault("search.query", "")
	viper.SetDefault("search.location", backend.DefaultLocation)
	viper.SetDefault("operations", []string{})
	viper.SetDefault("jobs.exclude-companies", []string{})
	viper.SetDefault("jobs.exclude-file", "")
	viper.SetDefault("jobs.skip-incomplete", false)
	viper.SetDefault("jobs.skip-duplicates", false)
	viper.SetDefault("output", "text")
}

func initConfig() {
	// A broken .env is an error; a missing one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %s", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The config file is optional unless given explicitly.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Backend == nil {
		config.Backend = &BackendConfig{}
	}
	if config.Search == nil {
		config.Search = &SearchConfig{}
	}
	if config.Jobs == nil {
		config.Jobs = &JobsConfig{}
	}

	return config, nil
}
