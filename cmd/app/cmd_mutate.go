package main

import (
	"fmt"
	"strconv"

	"coinoswap_admin/internal/domain"
	"coinoswap_admin/internal/mapping"

	"github.com/spf13/cobra"
)

var (
	mergeTarget string

	notifyCoin    string
	notifyPartner string
	notifyPayIn   string
	notifyPayOut  string
	notifyPrefill bool

	coinShortName string
	coinType      string
	coinImage     string
)

// mergeCmd attaches non-standard coins to a standard coin's partners.
var mergeCmd = &cobra.Command{
	Use:   "merge --target <standard-coin-id> <coin-id>...",
	Short: "Merge non-standard coins into a standard coin's mapped partners",
	Long: `Submits the given non-standard swap coins as mapped partners of the
standard coin named by --target.

Example:
  coinoswap-admin merge --target 12 345 346`,
	RunE: runMerge,
}

// notifyCmd replaces a partner mapping's pay-in/pay-out notices.
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Update the pay-in/pay-out notifications of a mapped partner",
	Long: `Pay-in and pay-out notifications are JSON arrays of strings. Arrays left
empty are not sent, so the server keeps their current value.

With --prefill the current notifications of the coin are printed from the
last saved swap result set instead.

Example:
  coinoswap-admin notify --coin 12 --partner changenow --pay-in '["Send only on ERC20"]'`,
	Args: cobra.NoArgs,
	RunE: runNotify,
}

var coinCmd = &cobra.Command{
	Use:   "coin",
	Short: "Manage standard coins",
}

var coinApproveCmd = &cobra.Command{
	Use:   "approve <coin-id> [true|false]",
	Short: "Set the approval flag of a swap standard coin",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCoinApprove,
}

var coinUpdateCmd = &cobra.Command{
	Use:   "update <coin-id>",
	Short: "Update the short name, coin type or image of a swap standard coin",
	Long: `Only the flags that are given are sent.
Coin type must be one of: popular, popular&stable, other.`,
	Args: cobra.ExactArgs(1),
	RunE: runCoinUpdate,
}

var coinCreateCmd = &cobra.Command{
	Use:   "create <coin-id>",
	Short: "Promote a buy coin to a standard coin",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoinManage(domain.ActionCreate),
}

var coinDeleteCmd = &cobra.Command{
	Use:   "delete <coin-id>",
	Short: "Delete a buy standard coin",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoinManage(domain.ActionDelete),
}

func init() {
	mergeCmd.Flags().StringVar(&mergeTarget, "target", "", "Standard coin id (required)")

	notifyCmd.Flags().StringVar(&notifyCoin, "coin", "", "Standard coin id (required)")
	notifyCmd.Flags().StringVar(&notifyPartner, "partner", "", "Swap partner (required)")
	notifyCmd.Flags().StringVar(&notifyPayIn, "pay-in", "", "Pay-in notifications as a JSON array")
	notifyCmd.Flags().StringVar(&notifyPayOut, "pay-out", "", "Pay-out notifications as a JSON array")
	notifyCmd.Flags().BoolVar(&notifyPrefill, "prefill", false, "Print the current notifications instead of updating")

	coinUpdateCmd.Flags().StringVar(&coinShortName, "short-name", "", "Display ticker")
	coinUpdateCmd.Flags().StringVar(&coinType, "type", "", "Coin type")
	coinUpdateCmd.Flags().StringVar(&coinImage, "image", "", "Image URL")

	coinCmd.AddCommand(coinApproveCmd)
	coinCmd.AddCommand(coinUpdateCmd)
	coinCmd.AddCommand(coinCreateCmd)
	coinCmd.AddCommand(coinDeleteCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	m := boot.NewMutator(nil)
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid coin id %q", arg)
		}
		m.Selection().Add(domain.Coin{ID: id})
	}

	// A malformed target is rejected by the mutator after the selection check.
	target, _ := strconv.ParseInt(mergeTarget, 10, 64)
	_, err := m.Merge(commandContext(cmd), target)
	return err
}

func runNotify(cmd *cobra.Command, args []string) error {
	if notifyPrefill {
		return printNotificationPrefill(cmd)
	}
	form := mapping.NotificationForm{
		StandardCoinID: notifyCoin,
		SwapPartner:    notifyPartner,
		PayIn:          notifyPayIn,
		PayOut:         notifyPayOut,
	}
	_, err := boot.NewMutator(nil).UpdateNotifications(commandContext(cmd), form)
	return err
}

func printNotificationPrefill(cmd *cobra.Command) error {
	id, err := mapping.ParseCoinID(notifyCoin)
	if err != nil {
		return err
	}
	snap, err := boot.LoadOffline(domain.MarketSwap)
	if err != nil {
		return fmt.Errorf("no saved swap coins to prefill from (run a swap search first): %w", err)
	}
	coin, ok := findCoin(snap.Coins, id)
	if !ok {
		return fmt.Errorf("coin %d is not in the saved swap result set", id)
	}

	form := mapping.PrefillNotificationForm(coin, notifyPartner)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "coin:    %s\n", form.StandardCoinID)
	fmt.Fprintf(out, "partner: %s\n", form.SwapPartner)
	fmt.Fprintf(out, "pay-in:\n%s\n", form.PayIn)
	fmt.Fprintf(out, "pay-out:\n%s\n", form.PayOut)
	return nil
}

func runCoinApprove(cmd *cobra.Command, args []string) error {
	id, err := mapping.ParseCoinID(args[0])
	if err != nil {
		return err
	}
	approved := true
	if len(args) > 1 {
		approved, err = strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("invalid approval value %q", args[1])
		}
	}
	_, err = boot.NewMutator(nil).SetApproval(commandContext(cmd), id, approved)
	return err
}

func runCoinUpdate(cmd *cobra.Command, args []string) error {
	form := mapping.CoinForm{
		StandardCoinID: args[0],
		ShortName:      coinShortName,
		CoinType:       coinType,
		Image:          coinImage,
	}
	_, err := boot.NewMutator(nil).UpdateCoin(commandContext(cmd), form)
	return err
}

func runCoinManage(action domain.StandardCoinAction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := mapping.ParseCoinID(args[0])
		if err != nil {
			return err
		}
		_, err = boot.NewMutator(nil).ManageStandardCoin(commandContext(cmd), action, id)
		return err
	}
}
