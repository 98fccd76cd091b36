package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var (
	settingDescription string
	settingFromStdin   bool
	auditLimit         int
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage admin settings",
	Long: `Stored values are shown as JSON. Values that were saved as loose
fragments (unquoted keys, single quotes, trailing commas) are repaired for
display; values that cannot be repaired are shown as raw text.`,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every admin setting",
	Args:  cobra.NoArgs,
	RunE:  runSettingsList,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one admin setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Create or replace an admin setting",
	Long: `The value is parsed as JSON; loose fragments such as "fee: 0.5" are
repaired first. Text that is not JSON at all is stored as a plain string.

Example:
  coinoswap-admin settings set fees '{swap: 0.5, buy: 1,}'
  cat banner.json | coinoswap-admin settings set banner --stdin`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete an admin setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsDelete,
}

// auditCmd prints the local mutation log.
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the mutations issued from this machine, newest first",
	Args:  cobra.NoArgs,
	RunE:  runAudit,
}

func init() {
	settingsSetCmd.Flags().StringVarP(&settingDescription, "description", "d", "", "Setting description")
	settingsSetCmd.Flags().BoolVar(&settingFromStdin, "stdin", false, "Read the value from stdin")
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "Number of records to show")

	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsDeleteCmd)
}

func runSettingsList(cmd *cobra.Command, args []string) error {
	entries, err := boot.NewSettings().List(commandContext(cmd))
	if err != nil {
		return err
	}
	renderSettings(cmd.OutOrStdout(), entries)
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	entry, err := boot.NewSettings().Get(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	renderSetting(cmd.OutOrStdout(), entry)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	var value string
	switch {
	case settingFromStdin:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read value: %w", err)
		}
		value = string(data)
	case len(args) > 1:
		value = args[1]
	}
	_, err := boot.NewSettings().Set(commandContext(cmd), args[0], strings.TrimSpace(value), settingDescription)
	return err
}

func runSettingsDelete(cmd *cobra.Command, args []string) error {
	_, err := boot.NewSettings().Delete(commandContext(cmd), args[0])
	return err
}

func runAudit(cmd *cobra.Command, args []string) error {
	if boot.Store == nil {
		return fmt.Errorf("storage is disabled; no audit log is kept")
	}
	recs, err := boot.Store.ListMutations(commandContext(cmd), auditLimit)
	if err != nil {
		return err
	}
	renderMutations(cmd.OutOrStdout(), recs)
	return nil
}
