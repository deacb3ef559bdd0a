package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCodesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "Manage activation codes (admin)",
	}

	var count int
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate new activation codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			codes, err := a.client.GenerateCodes(cmd.Context(), count)
			if err != nil {
				return err
			}
			for _, c := range codes {
				fmt.Fprintln(cmd.OutOrStdout(), c.Code)
			}
			return nil
		},
	}
	generate.Flags().IntVarP(&count, "count", "n", 10, "number of codes")

	var (
		status    string
		pageToken string
		pageSize  int
	)
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List activation codes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.client.ListCodes(cmd.Context(), status, pageToken, pageSize)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range page.Codes {
				if !c.IsUsed {
					fmt.Fprintf(out, "%s  unused\n", c.Code)
					continue
				}
				usedBy := ""
				if c.UsedBy != nil {
					usedBy = *c.UsedBy
				}
				usedAt := ""
				if c.UsedAt != nil {
					usedAt = c.UsedAt.In(a.location()).Format(expiryLayout)
				}
				fmt.Fprintf(out, "%s  used  %s  %s\n", c.Code, usedBy, usedAt)
			}
			if page.PageInfo.HasMore {
				fmt.Fprintf(out, "next page: --page-token %s\n", page.PageInfo.NextPageToken)
			}
			return nil
		},
	}
	list.Flags().StringVar(&status, "status", "all", "all, used or unused")
	list.Flags().StringVar(&pageToken, "page-token", "", "continue from a previous page")
	list.Flags().IntVar(&pageSize, "page-size", 0, "codes per page")

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete every unused code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := a.client.PurgeUnusedCodes(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d unused codes\n", deleted)
			return nil
		},
	}

	cmd.AddCommand(generate, list, purge)
	return cmd
}

func newNotesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Read important notes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List active notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := a.client.ListNotes(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(notes) == 0 {
				fmt.Fprintln(out, "no notes")
				return nil
			}
			for _, n := range notes {
				fmt.Fprintf(out, "- %s\n", n.Content)
			}
			return nil
		},
	})
	return cmd
}
