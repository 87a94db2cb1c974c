package helloext

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/igorsilveira/helloext/pkg/config"
	"github.com/igorsilveira/helloext/pkg/extension/timegreeting"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose issues with the helloext installation",
	RunE:  runDoctor,
}

type checkResult struct {
	name   string
	ok     bool
	detail string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Printf("helloext doctor v%s\n", version)
	fmt.Printf("Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("Go: %s\n\n", runtime.Version())

	cfg, cfgCheck := checkConfig()
	checks := []checkResult{
		checkDataDir(),
		cfgCheck,
		checkTimezones(),
		checkAuditDB(cfg),
		checkHTTP("Gateway", fmt.Sprintf("http://127.0.0.1:%d/healthz", cfg.Gateway.Port)),
	}
	if cfg.Docs.Enabled {
		checks = append(checks, checkHTTP("Docs server", fmt.Sprintf("http://127.0.0.1:%d/", cfg.Docs.Port)))
	}

	passed, failed := 0, 0
	for _, c := range checks {
		status := "✓"
		if !c.ok {
			status = "✗"
			failed++
		} else {
			passed++
		}
		fmt.Printf("  %s %s: %s\n", status, c.name, c.detail)
	}

	fmt.Printf("\n%d passed, %d failed\n", passed, failed)

	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}

func checkDataDir() checkResult {
	dir := config.DataDir()
	info, err := os.Stat(dir)
	if err != nil {
		return checkResult{"Data directory", false, fmt.Sprintf("%s does not exist", dir)}
	}
	if !info.IsDir() {
		return checkResult{"Data directory", false, fmt.Sprintf("%s is not a directory", dir)}
	}
	return checkResult{"Data directory", true, dir}
}

func checkConfig() (*config.Config, checkResult) {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if _, err := os.Stat(path); err != nil {
		return config.Default(), checkResult{"Config file", true, fmt.Sprintf("%s not found (using defaults)", path)}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Default(), checkResult{"Config file", false, err.Error()}
	}
	return cfg, checkResult{"Config file", true, fmt.Sprintf("%s (agent %s, port %d)", path, cfg.Agent.Kind, cfg.Gateway.Port)}
}

// checkTimezones reports advertised zones the tz database cannot load.
func checkTimezones() checkResult {
	zones := timegreeting.SupportedTimezones()
	var missing []string
	for _, z := range zones {
		if z == timegreeting.LocalZone {
			continue
		}
		if _, err := time.LoadLocation(z); err != nil {
			missing = append(missing, z)
		}
	}
	if len(missing) > 0 {
		return checkResult{"Timezone database", true, fmt.Sprintf("%v fall back to local time", missing)}
	}
	return checkResult{"Timezone database", true, fmt.Sprintf("%d timezones available", len(zones))}
}

func checkAuditDB(cfg *config.Config) checkResult {
	if !cfg.Audit.Enabled {
		return checkResult{"Audit log", true, "disabled"}
	}
	info, err := os.Stat(cfg.Audit.DSN)
	if err != nil {
		return checkResult{"Audit log", true, fmt.Sprintf("%s not found (will be created on first start)", cfg.Audit.DSN)}
	}
	return checkResult{"Audit log", true, fmt.Sprintf("%s (%d KB)", cfg.Audit.DSN, info.Size()/1024)}
}

func checkHTTP(name, url string) checkResult {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return checkResult{name, false, "not running"}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return checkResult{name, true, "running at " + url}
	}
	return checkResult{name, false, fmt.Sprintf("unhealthy (status %d)", resp.StatusCode)}
}
