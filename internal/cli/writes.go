package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/billingkit/pkg/accessor"
	"github.com/dmitrymomot/billingkit/pkg/billing"
	"github.com/dmitrymomot/billingkit/pkg/checkout"
	"github.com/dmitrymomot/billingkit/pkg/query"
)

func newAttachCmd(app func() *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Store a subscription with the billing API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()

			data, err := readFile(file)
			if err != nil {
				return err
			}
			var sub billing.Subscription
			if err := json.Unmarshal(data, &sub); err != nil {
				return fmt.Errorf("parse subscription: %w", err)
			}

			m := a.accessor.AttachSubscription(query.Callbacks[json.RawMessage]{
				OnSuccess: func(json.RawMessage) {
					a.queries.Invalidate(accessor.SubscriptionsKey())
				},
			})
			res := m.Mutate(cmd.Context(), sub)
			if !res.Ok() {
				return res.Err
			}

			var body any
			if err := json.Unmarshal(res.Data, &body); err != nil {
				body = string(res.Data)
			}
			return a.render(cmd.OutOrStdout(), body, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s\n", res.Data)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "subscription JSON file, - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// navigation records where a flow sent the user.
type navigation struct {
	Kind        string `json:"kind"`
	Destination string `json:"destination"`
}

// recorder is a checkout.Navigator for a terminal: it remembers the
// destination instead of opening it.
type recorder struct {
	last navigation
}

func (r *recorder) Navigate(_ context.Context, path string) {
	r.last = navigation{Kind: "navigate", Destination: path}
}

func (r *recorder) Redirect(_ context.Context, url string) {
	r.last = navigation{Kind: "redirect", Destination: url}
}

type checkoutOutput struct {
	State      checkout.State `json:"state"`
	Navigation navigation     `json:"navigation"`
	Error      string         `json:"error,omitempty"`
}

func newCheckoutCmd(app func() *app) *cobra.Command {
	var (
		userID string
		path   string
	)

	cmd := &cobra.Command{
		Use:   "checkout <price-id>",
		Short: "Create a checkout session and print where the user would be sent",
		Long:  "checkout runs the checkout flow for one price. Without --user the flow treats the caller as signed out and resolves to the sign-up path without calling the API.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()

			var user *checkout.User
			if userID != "" {
				user = &checkout.User{ID: userID}
			}

			nav := &recorder{}
			out, err := a.checkoutFlow(nav).Start(cmd.Context(), args[0], user, path)
			if err != nil {
				return err
			}

			result := checkoutOutput{State: out.State, Navigation: nav.last}
			if out.Err != nil {
				result.Error = out.Err.Error()
			}
			return a.render(cmd.OutOrStdout(), result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s\t%s\t%s\n", out.State, nav.last.Kind, nav.last.Destination)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "signed-in user ID; empty means signed out")
	cmd.Flags().StringVar(&path, "path", "/pricing", "path the checkout starts from")
	return cmd
}

func newPortalCmd(app func() *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "portal",
		Short: "Create a customer portal session and print its URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()

			res := a.accessor.CreatePortalSession(query.Callbacks[string]{}).
				Mutate(cmd.Context(), billing.PortalRequest{CurrentPath: path})
			if !res.Ok() {
				return res.Err
			}

			result := map[string]string{"url": res.Data}
			return a.render(cmd.OutOrStdout(), result, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, res.Data)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&path, "path", "/settings/billing", "path the portal returns to")
	return cmd
}
