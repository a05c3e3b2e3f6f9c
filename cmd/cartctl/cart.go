package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"utkal-mart/internal/session"

	"github.com/spf13/cobra"
)

func newCartCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()

				snap, err := a.authenticated(ctx)
				if err != nil {
					return err
				}
				return printCart(cmd.OutOrStdout(), snap)
			},
		},
		&cobra.Command{
			Use:   "add <product-id>",
			Short: "Add one unit of a product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()

				if _, err := a.authenticated(ctx); err != nil {
					return err
				}
				snap, err := a.session.AddToCart(ctx, args[0])
				if err != nil {
					return reported(err)
				}
				return printCart(cmd.OutOrStdout(), snap)
			},
		},
		&cobra.Command{
			Use:   "set <item-id> <quantity>",
			Short: "Set the quantity of a cart line",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				quantity, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}

				ctx, cancel := commandContext(cmd)
				defer cancel()

				if _, err := a.authenticated(ctx); err != nil {
					return err
				}
				snap, err := a.session.UpdateCartItemQuantity(ctx, args[0], quantity)
				if err != nil {
					if errors.Is(err, session.ErrInvalidQuantity) {
						return err
					}
					return reported(err)
				}
				return printCart(cmd.OutOrStdout(), snap)
			},
		},
		&cobra.Command{
			Use:   "remove <item-id>",
			Short: "Remove a cart line",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()

				if _, err := a.authenticated(ctx); err != nil {
					return err
				}
				snap, err := a.session.RemoveFromCart(ctx, args[0])
				if err != nil {
					return reported(err)
				}
				return printCart(cmd.OutOrStdout(), snap)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every line",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()

				if _, err := a.authenticated(ctx); err != nil {
					return err
				}
				snap, err := a.session.ClearCart(ctx)
				if err != nil {
					return reported(err)
				}
				return printCart(cmd.OutOrStdout(), snap)
			},
		},
		&cobra.Command{
			Use:   "refresh-prices",
			Short: "Re-price every line from the current catalog price",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()

				if _, err := a.authenticated(ctx); err != nil {
					return err
				}
				snap, err := a.session.RefreshPrices(ctx)
				if err != nil {
					return reported(err)
				}
				return printCart(cmd.OutOrStdout(), snap)
			},
		},
	)

	return cmd
}

func printCart(out io.Writer, snap session.Snapshot) error {
	if snap.Error != "" {
		return fmt.Errorf("could not load cart: %s", snap.Error)
	}

	if len(snap.Items) == 0 {
		fmt.Fprintln(out, "Your cart is empty")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tPRODUCT\tQTY\tPRICE\tSUBTOTAL")
	for _, item := range snap.Items {
		title := item.ProductID
		if item.Product != nil {
			title = item.Product.Title
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			item.ID, title, item.Quantity,
			session.FormatPrice(item.Price), session.FormatPrice(item.Subtotal()))
	}
	fmt.Fprintf(tw, "\t\t%d\t\t%s\n", snap.ItemCount, snap.FormattedTotal())
	return tw.Flush()
}
