//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Command exthello inspects TLS hello extension blocks against the
// extension catalog: decode a captured block TLV by TLV, or list the
// effective catalog an operator has configured.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markkurossi/exthello/internal/catalog"
	"github.com/markkurossi/exthello/internal/dispatch"
	"github.com/markkurossi/exthello/internal/extid"
	"github.com/markkurossi/exthello/internal/regconfig"
	"github.com/markkurossi/exthello/internal/telemetry"
	"github.com/markkurossi/exthello/internal/wire"
)

var (
	flagConfig   string
	flagLogLevel string
	flagDebug    bool
	flagMessage  string
)

func main() {
	root := &cobra.Command{
		Use:           "exthello",
		Short:         "TLS hello extension registry and dispatch tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := telemetry.LevelInfo
			switch flagLogLevel {
			case "error":
				level = telemetry.LevelError
			case "warn":
				level = telemetry.LevelWarn
			case "info":
				level = telemetry.LevelInfo
			case "debug":
				level = telemetry.LevelDebug
			case "trace":
				level = telemetry.LevelTrace
			default:
				return fmt.Errorf("unknown log level %q", flagLogLevel)
			}
			if flagDebug {
				level = telemetry.LevelTrace
			}
			telemetry.Init(os.Stderr, level, true)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "",
		"extension catalog configuration (YAML)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info",
		"log level (error, warn, info, debug, trace)")
	root.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false,
		"debug output (shorthand for --log-level=trace)")

	decode := &cobra.Command{
		Use:   "decode FILE",
		Short: "decode a captured extension block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return decodeBlock(args[0])
		},
	}
	decode.Flags().StringVar(&flagMessage, "message", "client_hello",
		"handshake message carrying the block")

	registry := &cobra.Command{
		Use:   "registry",
		Short: "list the effective extension catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRegistry()
		},
	}

	root.AddCommand(decode, registry)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "exthello: %v\n", err)
		os.Exit(1)
	}
}

func seedRegistry() (*catalog.Registry, error) {
	var cfg *regconfig.Config
	var err error

	if len(flagConfig) > 0 {
		cfg, err = regconfig.Load(flagConfig)
		if err != nil {
			return nil, err
		}
	}
	reg := catalog.NewRegistry()
	if err := regconfig.Seed(reg, cfg); err != nil {
		return nil, err
	}
	return reg, nil
}

func decodeBlock(path string) error {
	block, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	msg, ok := extid.ParseMessage(flagMessage)
	if !ok {
		return fmt.Errorf("unknown handshake message %q", flagMessage)
	}

	reg, err := seedRegistry()
	if err != nil {
		return err
	}

	err = wire.ReadBlock(block, func(w extid.WireID, body []byte) error {
		name, ok := reg.Name(w)
		if !ok {
			name = "unknown"
		}
		fmt.Printf("%v %-40s %4d bytes", w, name, len(body))
		if len(body) > 0 {
			fmt.Printf("  %x", body)
		}
		fmt.Println()
		return nil
	})
	if err != nil {
		return err
	}

	// Run the block through the engine as a server would, so validity
	// masks and duplicate detection apply.
	s := dispatch.NewSession(reg, extid.Server)
	if err := s.Parse(msg, extid.Any, block); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	fmt.Printf("block ok (%s)\n", msg)
	return nil
}

func listRegistry() error {
	reg, err := seedRegistry()
	if err != nil {
		return err
	}

	fmt.Printf("%-8s %-4s %-40s %-12s %s\n",
		"WIRE", "ID", "NAME", "CLASS", "VALIDITY")
	for _, d := range reg.Builtins() {
		fmt.Printf("%-8v %-4d %-40s %-12v %s\n",
			d.WireID, d.InternalID, d.Name, d.ParseClass,
			validityString(d.ValidityMask))
	}
	return nil
}

func validityString(mask extid.MessageSet) string {
	var names []string
	for _, m := range []extid.Message{
		extid.ClientHello, extid.TLS12ServerHello, extid.TLS13ServerHello,
		extid.EncryptedExtensions, extid.Certificate,
		extid.CertificateRequest, extid.NewSessionTicket,
		extid.HelloRetryRequest,
	} {
		if mask.Has(m) {
			names = append(names, m.String())
		}
	}
	return strings.Join(names, ",")
}
