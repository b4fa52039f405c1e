package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/agview/internal/config"
	"github.com/zjrosen/agview/internal/flags"
	"github.com/zjrosen/agview/internal/log"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply does not land in an input field.
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
	features  *flags.Registry
	logClose  func()
)

var rootCmd = &cobra.Command{
	Use:   "agview",
	Short: "A terminal viewer for autograder test suites and handgrading",
	Long: `agview browses a project's test suites, cases and commands, and runs the
handgrading dashboard, against the autograder API or a local SQLite store.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logClose != nil {
			logClose()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/agview/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log (also AGVIEW_DEBUG)")
	rootCmd.PersistentFlags().Int64("course", 0, "course id (overrides config)")
	rootCmd.PersistentFlags().Int64("project", 0, "project id (overrides config)")
	rootCmd.PersistentFlags().Bool("local", false, "use the local SQLite store (sets flags.local-store)")
	rootCmd.PersistentFlags().String("store", "", "path of the local SQLite store")

	_ = viper.BindPFlag("course_id", rootCmd.PersistentFlags().Lookup("course"))
	_ = viper.BindPFlag("project_id", rootCmd.PersistentFlags().Lookup("project"))
	_ = viper.BindPFlag("flags.local-store", rootCmd.PersistentFlags().Lookup("local"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))
}

func initConfig() {
	setDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .agview/config.yaml (current directory)
		// 2. ~/.config/agview/config.yaml (user config)
		if _, err := os.Stat(".agview/config.yaml"); err == nil {
			viper.SetConfigFile(".agview/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "agview"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}
	viper.SetEnvPrefix("AGVIEW")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".agview/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func setDefaults(v *viper.Viper) {
	d := config.Defaults()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.page_size", d.API.PageSize)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("cache.output_ttl", d.Cache.OutputTTL)
	v.SetDefault("cache.staff_ttl", d.Cache.StaffTTL)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("ui.include_staff", d.UI.IncludeStaff)
}

// setup starts logging and validates the loaded config before any
// subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	if debugFlag || os.Getenv("AGVIEW_DEBUG") != "" {
		logPath := os.Getenv("AGVIEW_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.InitWithTeaLog(logPath, "agview")
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		logClose = cleanup
		log.Info(log.CatConfig, "agview starting", "command", cmd.Name(), "config", viper.ConfigFileUsed())
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	features = flags.New(cfg.Flags)
	return nil
}

// configPath is where UI state is saved: the loaded file, or the default
// project-local path.
func configPath() string {
	if p := viper.ConfigFileUsed(); p != "" {
		return p
	}
	return ".agview/config.yaml"
}

func requireProject() error {
	if cfg.ProjectID == 0 {
		return fmt.Errorf("no project selected: pass --project or set project_id in %s", configPath())
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
