package helloext

import (
	"fmt"

	"github.com/igorsilveira/helloext/pkg/config"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "helloext",
	Short: "helloext - a Hello World A2A agent with protocol extensions",
	Long: "helloext serves a Hello World A2A agent and the extensions it understands: greeting styles, " +
		"random greetings, time based greetings and timestamps, together with their documentation.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.helloext/helloext.toml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(randomCmd)
	rootCmd.AddCommand(timeCmd)
	rootCmd.AddCommand(cardCmd)
	rootCmd.AddCommand(auditCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of helloext",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("helloext v%s\n", version)
	},
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// gatewayURL is where the clients reach the local gateway.
func gatewayURL(cfg *config.Config) string {
	return fmt.Sprintf("http://127.0.0.1:%d", cfg.Gateway.Port)
}
