package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "validate ums-hooks.yaml without installing or serving anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadAndValidateConfig(configPath); err != nil {
			return err
		}
		fmt.Printf("%s is valid\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
