// cmd/storefront/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	cmd := &cli.Command{
		Name:  "storefront",
		Usage: "browse the grocery catalog and manage your cart",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "backend base URL",
				Sources: cli.EnvVars("STOREFRONT_API_URL"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "bearer token of the signed-in shopper",
				Sources: cli.EnvVars("STOREFRONT_TOKEN"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "products",
				Usage: "list the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category"},
					&cli.StringFlag{Name: "search"},
					&cli.BoolFlag{Name: "expiring", Usage: "only products with a clearance lot coming up"},
					&cli.IntFlag{Name: "page", Value: 1},
				},
				Action: a.products,
			},
			{
				Name:      "product",
				Usage:     "show one product and its pools",
				ArgsUsage: "<product-id>",
				Action:    a.product,
			},
			{
				Name:   "cart",
				Usage:  "show the cart",
				Action: a.cart,
			},
			{
				Name:      "add",
				Usage:     "add units of a product",
				ArgsUsage: "<product-id>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "qty", Value: 1},
					&cli.BoolFlag{Name: "fresh", Usage: "take units from the fresh pool"},
					&cli.StringFlag{Name: "resolve", Usage: "answer to a pool conflict: mixed or reduced"},
				},
				Action: a.add,
			},
			{
				Name:      "inc",
				Usage:     "add one unit to a line",
				ArgsUsage: "<product-id>",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "fresh"}},
				Action:    a.inc,
			},
			{
				Name:      "dec",
				Usage:     "drop a single-unit line",
				ArgsUsage: "<product-id>",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "fresh"}},
				Action:    a.dec,
			},
			{
				Name:      "remove",
				Usage:     "remove a cart line",
				ArgsUsage: "<line-id>",
				Action:    a.remove,
			},
			{
				Name:  "checkout",
				Usage: "place an order for the cart",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "address", Required: true},
					&cli.StringFlag{Name: "payment", Value: "CASH"},
					&cli.StringFlag{Name: "promo"},
				},
				Action: a.checkout,
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logrus.Exit(1)
	}
}
