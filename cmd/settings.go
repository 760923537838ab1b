package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/brunch/infra/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or forget the remembered paths",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the remembered paths",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		p, err := settings.Load(path)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the remembered paths",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		if err := settings.Clear(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", path)
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsClearCmd)
	rootCmd.AddCommand(settingsCmd)
}
