package main

import (
	"context"
	"fmt"
	"time"

	"boiler_collector/internal/config"
	"boiler_collector/internal/device"

	"github.com/spf13/cobra"
)

var (
	discoverListen  string
	discoverTimeout time.Duration

	credsUserAccount string
	credsMACAddress  string
	credsDeviceName  string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Wait for a thermostat announcement on the LAN",
	Args:  cobra.NoArgs,
	RunE:  runDiscover,
}

var pairCmd = &cobra.Command{
	Use:   "pair <device-id>",
	Short: "Send a pairing request to a local thermostat",
	Long: `Send a pairing request to a configured local thermostat. Confirm the
request on the thermostat display, then run pair again until it reports success.`,
	Args: cobra.ExactArgs(1),
	RunE: runPair,
}

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage thermostat credentials in the OS keyring",
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set <device-id>",
	Short: "Store pairing credentials for a device",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredentialsSet,
}

var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete <device-id>",
	Short: "Remove stored credentials for a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := device.NewKeyringStore(device.KeyringService).Delete(args[0]); err != nil {
			return fmt.Errorf("delete credentials: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "credentials for %s removed\n", args[0])
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverListen, "listen", "", "UDP listen address (default :11000)")
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 60*time.Second, "how long to wait")

	credentialsSetCmd.Flags().StringVar(&credsUserAccount, "user-account", "", "account e-mail registered with the thermostat")
	credentialsSetCmd.Flags().StringVar(&credsMACAddress, "mac", "", "MAC address this collector pairs as")
	credentialsSetCmd.Flags().StringVar(&credsDeviceName, "device-name", "boiler-collector", "name shown on the thermostat")
	_ = credentialsSetCmd.MarkFlagRequired("mac")

	credentialsCmd.AddCommand(credentialsSetCmd, credentialsDeleteCmd)
	rootCmd.AddCommand(discoverCmd, pairCmd, credentialsCmd)
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	conn, err := device.ListenDiscovery(discoverListen)
	if err != nil {
		return fmt.Errorf("listen for announcements: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), discoverTimeout)
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "listening on %s...\n", conn.LocalAddr())
	a, err := device.Discover(ctx, conn)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "found %s at %s\n", a.DeviceID, a.Host)
	return nil
}

func runPair(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dc, ok := cfg.Device(args[0])
	if !ok {
		return fmt.Errorf("device %q is not configured", args[0])
	}
	if dc.Source != config.SourceLocal {
		return fmt.Errorf("device %q uses source %q, pairing needs %q", dc.ID, dc.Source, config.SourceLocal)
	}
	client, err := newLocalClient(dc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Collector.PollTimeout)
	defer cancel()
	if err := client.Pair(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s paired\n", dc.ID)
	return nil
}

func runCredentialsSet(cmd *cobra.Command, args []string) error {
	creds := device.Credentials{
		UserAccount: credsUserAccount,
		MACAddress:  credsMACAddress,
		DeviceName:  credsDeviceName,
	}
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := device.NewKeyringStore(device.KeyringService).Save(args[0], creds); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "credentials for %s stored; set use_keyring for the device\n", args[0])
	return nil
}
