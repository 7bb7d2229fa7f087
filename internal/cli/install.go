package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/re-cinq/ums-hooks/internal/hooks"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "install the four UMS git hooks into the current repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoDir, err := resolveRepo()
		if err != nil {
			return err
		}
		cfg, err := loadAndValidateConfig(configPath)
		if err != nil {
			return err
		}

		secs := int(cfg.Settings.BlockingTimeout.Duration().Seconds())
		inst := hooks.NewInstaller(repoDir, secs, cfg.Settings.FailOpen)
		if err := inst.InstallAll(); err != nil {
			return err
		}
		fmt.Printf("installed UMS hooks into %s/.git/hooks\n", repoDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
