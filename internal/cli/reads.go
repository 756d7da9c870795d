package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/billingkit/pkg/billing"
	"github.com/dmitrymomot/billingkit/pkg/logger"
)

func newPricesCmd(app func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prices",
		Short: "List prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			res := a.accessor.Prices(cmd.Context())
			if res.Error != nil {
				return res.Error
			}
			return a.render(cmd.OutOrStdout(), res.Data, func(w io.Writer) error {
				return writePrices(w, res.Data, "")
			})
		},
	}
}

func newProductsCmd(app func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List products with their prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			res := a.accessor.Products(cmd.Context())
			if res.Error != nil {
				return res.Error
			}
			return a.render(cmd.OutOrStdout(), res.Data, func(w io.Writer) error {
				return writeProducts(w, res.Data)
			})
		},
	}
}

func newSubscriptionsCmd(app func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "subscriptions",
		Short: "List the user's subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			res := a.accessor.Subscriptions(cmd.Context())
			if res.Error != nil {
				return res.Error
			}
			return a.render(cmd.OutOrStdout(), res.Data, func(w io.Writer) error {
				return writeSubscriptions(w, res.Data)
			})
		},
	}
}

func newSubscriptionCmd(app func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "subscription <id>",
		Short: "Show one subscription with its price and product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			res := a.accessor.Subscription(cmd.Context(), args[0])
			if res.Error != nil {
				return res.Error
			}
			return a.render(cmd.OutOrStdout(), res.Data, func(w io.Writer) error {
				sub := res.Data
				if sub == nil {
					_, err := fmt.Fprintln(w, "no subscription")
					return err
				}
				if err := writeSubscriptions(w, []billing.Subscription{sub.Subscription}); err != nil {
					return err
				}
				if name := sub.ProductName(); name != "" {
					_, err := fmt.Fprintf(w, "product:\t%s\n", name)
					return err
				}
				return nil
			})
		},
	}
}

func newSyncCmd(app func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Load prices, products and subscriptions concurrently and print the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			ctx := cmd.Context()

			sub, err := a.store.Subscribe(ctx)
			if err != nil {
				return err
			}
			done := make(chan struct{})
			go func() {
				defer close(done)
				for change := range sub.C() {
					a.logger.DebugContext(ctx, "store updated", logger.Resource(string(change.Slot)))
				}
			}()

			err = a.accessor.Prefetch(ctx)
			_ = sub.Close()
			<-done
			if n := sub.Dropped(); n > 0 {
				a.logger.WarnContext(ctx, "store updates missed", slog.Uint64("count", n))
			}
			if err != nil {
				return err
			}

			snap := a.store.Snapshot()
			return a.render(cmd.OutOrStdout(), snap, func(w io.Writer) error {
				fmt.Fprintln(w, "# prices")
				if err := writePrices(w, snap.Prices, ""); err != nil {
					return err
				}
				fmt.Fprintln(w, "# products")
				if err := writeProducts(w, snap.Products); err != nil {
					return err
				}
				fmt.Fprintln(w, "# subscriptions")
				return writeSubscriptions(w, snap.Subscriptions)
			})
		},
	}
}

func writePrices(w io.Writer, prices []billing.Price, indent string) error {
	for _, p := range prices {
		if _, err := fmt.Fprintf(w, "%s%s\t%s\t%s\n", indent, p.ID, p.Type, p.Display(language.English)); err != nil {
			return err
		}
	}
	return nil
}

func writeProducts(w io.Writer, products []billing.ProductWithPrices) error {
	for _, p := range products {
		status := "active"
		if !p.IsActive() {
			status = "inactive"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, status); err != nil {
			return err
		}
		if err := writePrices(w, p.Prices, "  "); err != nil {
			return err
		}
	}
	return nil
}

func writeSubscriptions(w io.Writer, subs []billing.Subscription) error {
	for _, s := range subs {
		price := "-"
		if s.PriceID != nil {
			price = *s.PriceID
		}
		access := "no access"
		if s.HasAccess() {
			access = "access"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\tuntil %s\n", s.ID, s.Status, price, access, s.CurrentPeriodEnd); err != nil {
			return err
		}
	}
	return nil
}
