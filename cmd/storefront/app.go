package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/your-org/grocery-storefront/internal/config"
	"github.com/your-org/grocery-storefront/internal/domain/cart"
	"github.com/your-org/grocery-storefront/internal/domain/inventory"
	"github.com/your-org/grocery-storefront/internal/domain/pricing"
	"github.com/your-org/grocery-storefront/internal/domain/product"
	"github.com/your-org/grocery-storefront/internal/pkg/logger"
	"github.com/your-org/grocery-storefront/internal/storefront/checkout"
	"github.com/your-org/grocery-storefront/internal/storefront/engine"
	"github.com/your-org/grocery-storefront/internal/storefront/remote"
)

type app struct {
	log     *logrus.Logger
	client  *remote.Client
	session *engine.Session
}

// open loads configuration and restores the shopper's cart
func (a *app) open(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if v := cmd.String("api"); v != "" {
		cfg.Storefront.APIBaseURL = v
	}
	if v := cmd.String("token"); v != "" {
		cfg.Storefront.Token = v
	}
	cfg.Logging.Level = cmd.String("log-level")
	cfg.Logging.Format = "text"

	a.log = logger.New(cfg.Logging)
	a.client = remote.New(cfg.Storefront, a.log)
	a.session = engine.NewSession(a.log)

	if !a.client.Authenticated() {
		return nil
	}
	return a.session.Login(ctx, a.client)
}

func (a *app) products(ctx context.Context, cmd *cli.Command) error {
	if err := a.open(ctx, cmd); err != nil {
		return err
	}

	resp, err := a.client.ListProducts(ctx, &product.ListRequest{
		Page:         int(cmd.Int("page")),
		Category:     cmd.String("category"),
		Search:       cmd.String("search"),
		ExpiringOnly: cmd.Bool("expiring"),
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCT\tREDUCED\tFRESH")
	for i := range resp.Products {
		p := engine.FromResponse(&resp.Products[i])
		controls := a.session.Cart().Controls(p)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name,
			poolCell(controls, inventory.PoolReduced, p.Quote.UnitOfMeasure),
			poolCell(controls, inventory.PoolFresh, p.Quote.UnitOfMeasure))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	pg := resp.Pagination
	fmt.Fprintf(cmd.Root().Writer, "page %d of %d, %d products\n", pg.Page, pg.TotalPages, pg.Total)
	return nil
}

func poolCell(c engine.Controls, pool inventory.Pool, unit string) string {
	pc, ok := c.Pool(pool)
	if !ok {
		return "-"
	}
	if pc.Remaining == 0 {
		return "sold out"
	}
	return fmt.Sprintf("%s, %d left", pricing.Display(pc.Price, unit), pc.Remaining)
}

func (a *app) product(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	if err := a.open(ctx, cmd); err != nil {
		return err
	}
	p, err := a.lookup(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	controls := a.session.Cart().Controls(p)
	fmt.Fprintf(out, "%s (#%d)\n", p.Name, p.ID)
	if controls.OutOfStock {
		fmt.Fprintln(out, "  out of stock")
		return nil
	}
	for _, pc := range controls.Pools {
		fmt.Fprintf(out, "  %-8s %-32s %3d left  in cart: %s\n",
			pc.Pool, pricing.Display(pc.Price, p.Quote.UnitOfMeasure), pc.Remaining, pc.State)
	}
	return nil
}

func (a *app) cart(ctx context.Context, cmd *cli.Command) error {
	if err := a.open(ctx, cmd); err != nil {
		return err
	}
	printCart(cmd.Root().Writer, a.session.Cart().Snapshot())
	return nil
}

func printCart(out io.Writer, snap *cart.Snapshot) {
	if len(snap.Items) == 0 {
		fmt.Fprintln(out, "Your cart is empty.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LINE\tPRODUCT\tPOOL\tQTY\tUNIT\tSUBTOTAL")
	for _, l := range snap.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", l.ID, l.ProductName, l.Pool(), l.Quantity,
			pricing.Format(l.PricePerUnit), pricing.Format(l.SubTotal))
	}
	fmt.Fprintf(w, "\t\t\t\tTOTAL\t%s\n", pricing.Format(snap.Sum()))
	w.Flush()
}

func (a *app) add(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	if err := a.open(ctx, cmd); err != nil {
		return err
	}
	p, err := a.lookup(ctx, id)
	if err != nil {
		return err
	}

	qty := int(cmd.Int("qty"))
	if qty < 1 {
		return shopperError(engine.ErrInvalidQuantity)
	}

	// products without a clearance lot are always sold fresh
	eng := a.session.Cart()
	stepper := eng.NewStepper(p)
	if cmd.Bool("fresh") && stepper.Pool() != inventory.PoolFresh {
		if err := stepper.SetPool(inventory.PoolFresh); err != nil {
			return err
		}
	}
	stepper.Set(qty)
	if stepper.Quantity() != qty {
		return shopperError(engine.ErrExceedsStock)
	}

	conflict, err := stepper.Submit(ctx)
	if err != nil {
		return shopperError(err)
	}
	if conflict != nil {
		choice, err := a.choose(cmd, conflict)
		if err != nil {
			return err
		}
		if err := eng.Resolve(ctx, conflict, choice); err != nil {
			return shopperError(err)
		}
	}

	printCart(cmd.Root().Writer, eng.Snapshot())
	return nil
}

// choose takes the conflict answer from --resolve or asks on stdin
func (a *app) choose(cmd *cli.Command, c *engine.Conflict) (engine.Resolution, error) {
	if v := cmd.String("resolve"); v != "" {
		return engine.ParseResolution(v)
	}

	out := cmd.Root().Writer
	fmt.Fprintf(out, "Only %d of %d %s are available at the reduced price.\n", c.Reduced, c.Requested, c.Product.Name)
	fmt.Fprintf(out, "  [m] take %d reduced + %d fresh for %s\n", c.Reduced, c.Shortfall, pricing.Format(c.MixedTotal()))
	fmt.Fprintf(out, "  [r] take only the %d reduced for %s\n", c.Reduced, pricing.Format(c.ReducedOnlyTotal()))
	fmt.Fprint(out, "choice: ")

	line, err := bufio.NewReader(cmd.Root().Reader).ReadString('\n')
	if err != nil && line == "" {
		return 0, fmt.Errorf("no choice made: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "m", "mixed":
		return engine.Mixed, nil
	case "r", "reduced":
		return engine.ReducedOnly, nil
	default:
		return 0, cli.Exit("cancelled, nothing was added", 1)
	}
}

func (a *app) inc(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	if err := a.open(ctx, cmd); err != nil {
		return err
	}
	p, err := a.lookup(ctx, id)
	if err != nil {
		return err
	}

	changed, err := a.session.Cart().Increment(ctx, p, poolFlag(cmd))
	if err != nil {
		return shopperError(err)
	}
	if !changed {
		fmt.Fprintln(cmd.Root().Writer, "No more units available in that pool.")
	}
	printCart(cmd.Root().Writer, a.session.Cart().Snapshot())
	return nil
}

func (a *app) dec(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	if err := a.open(ctx, cmd); err != nil {
		return err
	}
	if err := a.session.Cart().Decrement(ctx, id, poolFlag(cmd)); err != nil {
		return shopperError(err)
	}
	printCart(cmd.Root().Writer, a.session.Cart().Snapshot())
	return nil
}

func (a *app) remove(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	if err := a.open(ctx, cmd); err != nil {
		return err
	}
	if err := a.session.Cart().Remove(ctx, id); err != nil {
		return shopperError(err)
	}
	printCart(cmd.Root().Writer, a.session.Cart().Snapshot())
	return nil
}

func (a *app) checkout(ctx context.Context, cmd *cli.Command) error {
	if err := a.open(ctx, cmd); err != nil {
		return err
	}

	flow := checkout.NewFlow(a.client, a.session.Cart(), a.log)
	result, err := flow.Submit(ctx, checkout.Request{
		AddressID:     uint(cmd.Int("address")),
		PaymentMethod: cmd.String("payment"),
		PromoCode:     cmd.String("promo"),
	})
	if err != nil {
		return shopperError(err)
	}

	out := cmd.Root().Writer
	if result.Redirect == checkout.ToCart {
		fmt.Fprintln(out, result.Message)
		printCart(out, a.session.Cart().Snapshot())
		return cli.Exit("", 2)
	}
	fmt.Fprintf(out, "Order %s placed, total %s.\n", result.Order.OrderNumber, result.Order.FormattedTotal())
	return nil
}

// lookup prefers the catalog response; a product that is only known from a
// cart line falls back to that line.
func (a *app) lookup(ctx context.Context, id uint) (engine.Product, error) {
	resp, err := a.client.GetProduct(ctx, id)
	if err == nil {
		return engine.FromResponse(resp), nil
	}
	snap := a.session.Cart().Snapshot()
	for _, l := range snap.Items {
		if l.ProductID == id {
			return engine.FromLine(l), nil
		}
	}
	return engine.Product{}, fmt.Errorf("product %d: %w", id, err)
}

func idArg(cmd *cli.Command) (uint, error) {
	raw := cmd.Args().First()
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, cli.Exit(fmt.Sprintf("%s: expected a numeric id, got %q", cmd.Name, raw), 1)
	}
	return uint(id), nil
}

func poolFlag(cmd *cli.Command) inventory.Pool {
	return inventory.PoolFromFreshMode(cmd.Bool("fresh"))
}

func shopperError(err error) error {
	msg := engine.UserMessage(err)
	if msg == "" {
		msg = err.Error()
	}
	return cli.Exit(msg, 1)
}
