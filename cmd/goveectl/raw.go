package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chaz8081/goveectl/internal/ble/protocol"
	"github.com/chaz8081/goveectl/internal/config"
)

func newRawCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "raw <hex>",
		Short: "Send a raw 20-byte control packet",
		Long: `Validates a 20-byte control packet (0x33 header, XOR checksum in the last
byte) and sends it. Spaces, colons and dashes in the hex are ignored.

Examples:
  goveectl raw 3301010000000000000000000000000000000033
  goveectl raw "33 01 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 32"
  goveectl raw --dry-run 33:05:02:ff:00:00:00:00:00:00:00:00:00:00:00:00:00:00:00:cb`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkt, err := protocol.ParseHex(strings.Join(args, ""))
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%s valid\n  opcode   0x%02x\n  payload  %x\n  checksum 0x%02x\n",
					pkt, pkt.Opcode(), pkt.Payload(), pkt.Checksum())
				return nil
			}

			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			addr := s.light.Address()
			s.out.Status(fmt.Sprintf("Sending %s to %s...", pkt, addr), true)
			res, err := s.dispatcher.Submit(addr, pkt).Wait(cmd.Context())
			if err != nil {
				return err
			}
			if res.Success {
				s.out.Status("Packet sent", true)
			} else {
				s.out.Status("Failed to send packet: "+res.Kind.String(), false)
			}
			return resultError(res)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and print the packet without sending it")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefault()
			if err != nil {
				return err
			}
			if path == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", config.DefaultConfigPath())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", path)
			return nil
		},
	})
	return cmd
}
