package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/scraprates/internal/activation/domain"
	"github.com/smallbiznis/scraprates/internal/apiclient"
	"github.com/smallbiznis/scraprates/internal/audit/masking"
	"github.com/smallbiznis/scraprates/internal/localstore"
	"github.com/spf13/cobra"
)

const expiryLayout = "02-01-2006 15:04"

func newActivateCmd(a *app) *cobra.Command {
	var req domain.ConsumeRequest
	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Redeem an activation code for this device",
		Long: `Redeem a code bought through JazzCash or Easypaisa. On success the
subscription is stored locally together with its expiry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, err := a.client.Activate(ctx, req)
			if err != nil {
				var apiErr *apiclient.APIError
				if errors.As(err, &apiErr) && apiErr.Message != "" {
					return errors.New(apiErr.Message)
				}
				return err
			}

			rec, err := a.subs.Save(ctx, localstore.Activation{
				PhoneNumber:   req.PhoneNumber,
				TransactionID: req.TransactionID,
				Code:          req.Code,
				ExpiresAt:     res.ExpiresAt,
			})
			if err != nil {
				return fmt.Errorf("store subscription: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Message)
			fmt.Fprintf(out, "active until %s (%d days)\n",
				rec.ExpiresAt.In(a.location()).Format(expiryLayout),
				localstore.DaysRemaining(rec.ExpiresAt, a.clock.Now()))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Code, "code", "", "activation code")
	flags.StringVar(&req.PhoneNumber, "phone", "", "phone number used for payment")
	flags.StringVar(&req.TransactionID, "txn", "", "payment transaction id")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("txn")
	return cmd
}

func newSubscriptionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscription",
		Aliases: []string{"sub"},
		Short:   "Inspect the local subscription",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether this device is subscribed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.subs.Get(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rec.ExpiresAt == nil {
				fmt.Fprintln(out, "not subscribed")
				return nil
			}

			state := "expired"
			if rec.IsActive {
				state = "active"
			}
			fmt.Fprintf(out, "status:    %s\n", state)
			fmt.Fprintf(out, "expires:   %s\n", rec.ExpiresAt.In(a.location()).Format(expiryLayout))
			fmt.Fprintf(out, "days left: %d\n", localstore.DaysRemaining(rec.ExpiresAt, a.clock.Now()))
			if rec.PhoneNumber != nil {
				fmt.Fprintf(out, "phone:     %s\n", masking.MaskPhone(*rec.PhoneNumber))
			}
			if rec.UsedCode != nil {
				fmt.Fprintf(out, "code:      %s\n", strings.ToUpper(*rec.UsedCode))
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the local subscription",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.subs.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "subscription cleared")
			return nil
		},
	}

	cmd.AddCommand(status, clearCmd)
	return cmd
}

func newPaymentInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "payment-info",
		Short: "Show where to send the monthly subscription fee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.client.PaymentInfo(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "account: %s (%s)\n", info.AccountNumber, info.AccountName)
			fmt.Fprintf(out, "fee:     %s %d/month\n", info.Currency, info.MonthlyFee)
			fmt.Fprintf(out, "methods: %s\n", strings.Join(info.Methods, ", "))
			return nil
		},
	}
}
