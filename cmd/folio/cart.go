package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/app"
	"github.com/five82/folio/internal/cart"
)

// withCart opens the saved cart for one command.
func withCart(opts *app.Options, fn func(env *app.Env, store *cart.Store) error) error {
	env, err := app.Open(*opts)
	if err != nil {
		return err
	}
	defer env.Close()
	store, err := cart.Load(env.KV)
	if err != nil {
		return err
	}
	return fn(env, store)
}

func parseBookID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id %q", raw)
	}
	return id, nil
}

func printCart(out io.Writer, state cart.State) error {
	if len(state.Items) == 0 {
		fmt.Fprintln(out, "Your cart is empty")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tQTY\tPRICE\tSUBTOTAL")
	for _, item := range state.Items {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
			item.BookID, item.Title, item.Quantity,
			item.UnitPrice.StringFixed(2), item.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(w, "\tTOTAL\t%d\t\t%s\n", state.TotalItems(), state.TotalPrice().StringFixed(2))
	return w.Flush()
}

func newCartCmd(opts *app.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and edit the saved cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCart(opts, func(_ *app.Env, store *cart.Store) error {
				return printCart(cmd.OutOrStdout(), store.Snapshot())
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE:  cmd.RunE,
	}

	add := &cobra.Command{
		Use:   "add <book-id>",
		Short: "Add one copy of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			return withCart(opts, func(env *app.Env, store *cart.Store) error {
				client, _, err := env.Storefront()
				if err != nil {
					return err
				}
				book, err := client.Book(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("load book %d: %s", id, api.UserMessage(err))
				}
				switch {
				case !book.OnShelf():
					return fmt.Errorf("%s is not on sale", book.Title)
				case book.Stock <= 0:
					return fmt.Errorf("%s is sold out", book.Title)
				}
				item := cart.ItemFromBook(book)
				if !store.Snapshot().CanAdd(item) {
					return fmt.Errorf("only %d in stock", book.Stock)
				}
				next, err := store.Add(item)
				if err != nil {
					return err
				}
				return printCart(cmd.OutOrStdout(), next)
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <book-id>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			return withCart(opts, func(_ *app.Env, store *cart.Store) error {
				next, err := store.Remove(id)
				if err != nil {
					return err
				}
				return printCart(cmd.OutOrStdout(), next)
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <book-id> <quantity>",
		Short: "Set a line's quantity (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return withCart(opts, func(_ *app.Env, store *cart.Store) error {
				state := store.Snapshot()
				if n > 0 && state.Quantity(id) == 0 {
					return fmt.Errorf("book %d is not in the cart", id)
				}
				for _, item := range state.Items {
					if item.BookID == id && n > item.Stock {
						return fmt.Errorf("only %d in stock", item.Stock)
					}
				}
				next, err := store.SetQuantity(id, n)
				if err != nil {
					return err
				}
				return printCart(cmd.OutOrStdout(), next)
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCart(opts, func(_ *app.Env, store *cart.Store) error {
				if _, err := store.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared")
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, rm, set, clearCmd)
	return cmd
}
