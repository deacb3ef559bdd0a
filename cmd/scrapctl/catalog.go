package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/scraprates/internal/localstore"
	"github.com/smallbiznis/scraprates/internal/ratehistory"
	"github.com/spf13/cobra"
)

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replace the local catalog with the server's",
		Long: `Download every category with its items and rate history and overwrite
the local catalog. Local edits made since the last sync are lost; the
server copy always wins.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, err := a.client.ListCategories(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch catalog: %w", err)
			}
			categories := localstore.FromServer(remote)
			if err := a.store.Replace(cmd.Context(), categories); err != nil {
				return err
			}

			items := 0
			for _, c := range categories {
				items += len(c.Items)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d categories, %d items\n", len(categories), items)
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty local catalog with the default categories",
		Long: `Write the default scrap catalog with a short demo rate history. A
catalog that already has categories is left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seeded, err := a.store.SeedDefaults(cmd.Context(), nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !seeded {
				fmt.Fprintln(out, "catalog not empty, nothing seeded")
				return nil
			}
			categories, err := a.store.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "seeded %d categories\n", len(categories))
			return nil
		},
	}
}

func newCategoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat"},
		Short:   "Browse and edit the local catalog",
	}

	var withItems bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List local categories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := a.store.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(categories) == 0 {
				fmt.Fprintln(out, "no categories, run scrapctl sync")
				return nil
			}
			settings, err := a.settings.Get(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range categories {
				fmt.Fprintf(out, "%s  %s (%d items)\n", c.ID, c.Name, len(c.Items))
				if !withItems {
					continue
				}
				for _, it := range c.Items {
					fmt.Fprintf(out, "    %s  %s  %s %s/%s\n", it.ID, it.Name, settings.Currency, it.Rate.String(), it.Unit)
				}
			}
			return nil
		},
	}
	list.Flags().BoolVar(&withItems, "items", false, "show items and current rates")

	var remote bool
	show := &cobra.Command{
		Use:   "show <category-id>",
		Short: "Print one category with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if remote {
				c, err := a.client.GetCategory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s  %s (%d items, server)\n", c.ID, c.Name, len(c.Items))
				for _, it := range c.Items {
					fmt.Fprintf(out, "    %s  %s  %s/%s\n", it.ID, it.Name, it.Rate.String(), it.Unit)
				}
				return nil
			}

			c, err := a.store.GetCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s  %s (%d items)\n", c.ID, c.Name, len(c.Items))
			for _, it := range c.Items {
				fmt.Fprintf(out, "    %s  %s  %s/%s\n", it.ID, it.Name, it.Rate.String(), it.Unit)
			}
			return nil
		},
	}
	show.Flags().BoolVar(&remote, "remote", false, "read the category from the server")

	var name, icon, color string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a local category in front of the others",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.store.AddCategory(cmd.Context(), localstore.NewCategory{
				Name:  name,
				Icon:  icon,
				Color: color,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", c.ID, c.Name)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "category name")
	add.Flags().StringVar(&icon, "icon", "", "icon name")
	add.Flags().StringVar(&color, "color", "", "hex color, e.g. #B87333")
	_ = add.MarkFlagRequired("name")

	update := &cobra.Command{
		Use:   "update <category-id>",
		Short: "Change a local category; only given flags are updated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in localstore.CategoryUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = &name
			}
			if flags.Changed("icon") {
				in.Icon = &icon
			}
			if flags.Changed("color") {
				in.Color = &color
			}
			c, err := a.store.UpdateCategory(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", c.ID, c.Name)
			return nil
		},
	}
	update.Flags().StringVar(&name, "name", "", "category name")
	update.Flags().StringVar(&icon, "icon", "", "icon name")
	update.Flags().StringVar(&color, "color", "", "hex color")

	remove := &cobra.Command{
		Use:     "delete <category-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a local category and its items",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := a.store.DeleteCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return localstore.ErrNotFound
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted category %s\n", args[0])
			return nil
		},
	}

	var yes bool
	wipe := &cobra.Command{
		Use:   "clear",
		Short: "Remove every local category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear the local catalog without --yes")
			}
			if err := a.store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "local catalog cleared")
			return nil
		},
	}
	wipe.Flags().BoolVar(&yes, "yes", false, "confirm")

	cmd.AddCommand(list, show, add, update, remove, wipe)
	return cmd
}

func newItemsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Inspect and edit rate items",
	}

	var date string
	history := &cobra.Command{
		Use:   "history <category-id> <item-id>",
		Short: "Show an item's recorded rates",
		Long: `Print the item's rate history, newest first. With --date the rate in
effect on that day (DD-MM-YYYY) is printed instead; days without an
entry fall back to the current rate.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			categoryID, itemID := args[0], args[1]

			if strings.TrimSpace(date) != "" {
				rate, err := a.localRate(cmd, categoryID, itemID, date)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s  %s\n", date, rate.String())
				return nil
			}

			items, err := a.store.GetRateItemsByCategory(ctx, categoryID)
			if err != nil {
				return err
			}
			for _, it := range items {
				if it.ID != itemID {
					continue
				}
				fmt.Fprintf(out, "%s (%s), current %s\n", it.Name, it.Unit, it.Rate.String())
				for _, entry := range it.RateHistory {
					fmt.Fprintf(out, "  %s  %s\n", entry.Date.String(), entry.Rate.String())
				}
				return nil
			}
			return localstore.ErrNotFound
		},
	}
	history.Flags().StringVar(&date, "date", "", "rate on this day, DD-MM-YYYY")

	var remote bool
	rate := &cobra.Command{
		Use:   "rate [category-id] <item-id>",
		Short: "Print the rate in effect on a day",
		Long: `Print the item's rate on --date (DD-MM-YYYY, default today). The
local catalog needs the category id; with --remote the server answers
and only the item id is used.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if remote {
				res, err := a.client.RateOnDate(cmd.Context(), args[len(args)-1], date)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s  %s/%s\n", res.Date.String(), res.Rate.String(), res.Unit)
				return nil
			}

			if len(args) != 2 {
				return errors.New("local rates need <category-id> <item-id>")
			}
			day := strings.TrimSpace(date)
			if day == "" {
				day = ratehistory.Today(a.clock.Now(), a.location()).String()
			}
			r, err := a.localRate(cmd, args[0], args[1], day)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s  %s\n", day, r.String())
			return nil
		},
	}
	rate.Flags().StringVar(&date, "date", "", "day to look up, DD-MM-YYYY")
	rate.Flags().BoolVar(&remote, "remote", false, "ask the server instead of the local catalog")

	var added itemFlags
	add := &cobra.Command{
		Use:   "add <category-id>",
		Short: "Add an item to a local category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRateFlag(added.rate)
			if err != nil {
				return err
			}
			in := localstore.NewItem{Name: added.name, Rate: r, Unit: added.unit}
			if cmd.Flags().Changed("notes") {
				in.Notes = &added.notes
			}
			it, err := a.store.AddItem(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			printItem(cmd, it)
			return nil
		},
	}
	added.bind(add, "kg")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("rate")

	var changed itemFlags
	update := &cobra.Command{
		Use:   "update <category-id> <item-id>",
		Short: "Change a local item; a new rate is recorded in its history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in localstore.ItemUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = &changed.name
			}
			if flags.Changed("rate") {
				r, err := parseRateFlag(changed.rate)
				if err != nil {
					return err
				}
				in.Rate = &r
			}
			if flags.Changed("unit") {
				in.Unit = &changed.unit
			}
			if flags.Changed("notes") {
				in.Notes = &changed.notes
			}
			it, err := a.store.UpdateItem(cmd.Context(), args[0], args[1], in)
			if err != nil {
				return err
			}
			printItem(cmd, it)
			return nil
		},
	}
	changed.bind(update, "")

	remove := &cobra.Command{
		Use:     "delete <category-id> <item-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a local item",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := a.store.DeleteItem(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !deleted {
				return localstore.ErrNotFound
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted item %s\n", args[1])
			return nil
		},
	}

	cmd.AddCommand(history, rate, add, update, remove)
	return cmd
}

type itemFlags struct {
	name, rate, unit, notes string
}

func (f *itemFlags) bind(cmd *cobra.Command, defaultUnit string) {
	cmd.Flags().StringVar(&f.name, "name", "", "item name")
	cmd.Flags().StringVar(&f.rate, "rate", "", "rate per unit")
	cmd.Flags().StringVar(&f.unit, "unit", defaultUnit, "unit: kg, ton or maund")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes, empty clears them")
}

func printItem(cmd *cobra.Command, it *localstore.RateItem) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s/%s\n", it.ID, it.Name, it.Rate.String(), it.Unit)
}

func (a *app) localRate(cmd *cobra.Command, categoryID, itemID, date string) (decimal.Decimal, error) {
	rate, err := a.store.RateForDate(cmd.Context(), categoryID, itemID, date)
	if errors.Is(err, localstore.ErrInvalidDate) {
		return decimal.Zero, fmt.Errorf("invalid date %q, expected %s", date, ratehistory.DateLayout)
	}
	return rate, err
}

func parseRateFlag(s string) (decimal.Decimal, error) {
	r, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", localstore.ErrInvalidRate, s)
	}
	return r, nil
}
