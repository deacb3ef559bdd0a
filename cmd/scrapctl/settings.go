package main

import (
	"fmt"

	"github.com/smallbiznis/scraprates/internal/localstore"
	"github.com/spf13/cobra"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Device display settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings.Get(cmd.Context())
			if err != nil {
				return err
			}
			printSettings(cmd, s)
			return nil
		},
	}

	var currency, unit, name string
	set := &cobra.Command{
		Use:   "set",
		Short: "Change settings; only given flags are updated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in localstore.SettingsUpdate
			flags := cmd.Flags()
			if flags.Changed("currency") {
				in.Currency = &currency
			}
			if flags.Changed("unit") {
				in.DefaultUnit = &unit
			}
			if flags.Changed("name") {
				in.DisplayName = &name
			}
			s, err := a.settings.Save(cmd.Context(), in)
			if err != nil {
				return err
			}
			printSettings(cmd, s)
			return nil
		},
	}
	set.Flags().StringVar(&currency, "currency", "", "currency label, e.g. Rs")
	set.Flags().StringVar(&unit, "unit", "", "default unit, e.g. kg, ton or maund")
	set.Flags().StringVar(&name, "name", "", "shop name shown on exports")

	cmd.AddCommand(show, set)
	return cmd
}

func printSettings(cmd *cobra.Command, s localstore.Settings) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "currency:     %s\n", s.Currency)
	fmt.Fprintf(out, "default unit: %s\n", s.DefaultUnit)
	fmt.Fprintf(out, "display name: %s\n", s.DisplayName)
}
