package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/billingkit/pkg/requestid"
)

// Execute runs billingctl with the process arguments and environment.
func Execute(ctx context.Context) error {
	return newRootCmd(nil).execute(ctx)
}

type globalFlags struct {
	output  string
	envFile string
	metrics bool
}

type rootCommand struct {
	*cobra.Command
	flags globalFlags
	app   *app
}

// execute runs the command, then prints metrics and releases the app even
// when the command failed. Cobra skips post-run hooks on error.
func (r *rootCommand) execute(ctx context.Context) error {
	err := r.ExecuteContext(ctx)
	if r.app == nil {
		return err
	}
	defer r.app.close()
	if r.flags.metrics {
		if merr := r.app.writeMetrics(r.ErrOrStderr()); merr != nil {
			err = errors.Join(err, merr)
		}
	}
	return err
}

// newRootCmd builds the command tree. A non-nil environ replaces the process
// environment when loading configuration.
func newRootCmd(environ map[string]string) *rootCommand {
	r := &rootCommand{}
	flags := &r.flags

	rootCmd := &cobra.Command{
		Use:           "billingctl",
		Short:         "Inspect billing data and start checkouts against the billing API",
		Long:          "billingctl reads prices, products and subscriptions from the billing API through a deduplicating query cache, attaches subscriptions, and resolves where a checkout or portal session would send the user.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseFormat(flags.output)
			if err != nil {
				return err
			}

			ctx, _ := requestid.Ensure(cmd.Context())
			cmd.SetContext(ctx)

			r.app, err = wireApp(settings{
				environ: environ,
				envFile: flags.envFile,
				format:  format,
				stderr:  cmd.ErrOrStderr(),
			})
			return err
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.output, "output", "o", string(formatText), "output format: text, json or yaml")
	pf.StringVar(&flags.envFile, "env-file", "", "dotenv file to load before reading the environment")
	pf.BoolVar(&flags.metrics, "metrics", false, "print query cache metrics to stderr after the command")

	current := func() *app { return r.app }
	rootCmd.AddCommand(
		newPricesCmd(current),
		newProductsCmd(current),
		newSubscriptionsCmd(current),
		newSubscriptionCmd(current),
		newSyncCmd(current),
		newAttachCmd(current),
		newCheckoutCmd(current),
		newPortalCmd(current),
	)

	r.Command = rootCmd
	return r
}

func readFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
