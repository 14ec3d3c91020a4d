package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/catdesk-go/internal/core/domain"
	"github.com/yndnr/catdesk-go/internal/core/service"
	"github.com/yndnr/catdesk-go/internal/navigation"
)

// ProductCommand returns the product subcommand group.
func ProductCommand() *cli.Command {
	payloadFlags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "field",
			Aliases: []string{"f"},
			Usage:   "Field assignment KEY=VALUE (repeatable)",
		},
		&cli.StringFlag{
			Name:  "json",
			Usage: "Payload as a JSON object; --field values take precedence",
		},
	}

	return &cli.Command{
		Name:    "product",
		Aliases: []string{"products"},
		Usage:   "Catalog operations (login required)",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List products",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of products"},
					&cli.IntFlag{Name: "skip", Usage: "Number of products to skip"},
				},
				Action: productList,
			},
			{
				Name:      "get",
				Usage:     "Show one product",
				ArgsUsage: "ID",
				Action:    productGet,
			},
			{
				Name:   "add",
				Usage:  "Create a product",
				Flags:  payloadFlags,
				Action: productAdd,
			},
			{
				Name:      "update",
				Usage:     "Update a product",
				ArgsUsage: "ID",
				Flags:     payloadFlags,
				Action:    productUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a product",
				ArgsUsage: "ID",
				Action:    productDelete,
			},
		},
	}
}

// catalogRuntime builds the runtime and checks path against the guard.
func catalogRuntime(c *cli.Context, path string) (*Runtime, error) {
	rt, err := requireRuntime(c)
	if err != nil {
		return nil, err
	}
	if _, err := rt.Guard(path); err != nil {
		return nil, err
	}
	return rt, nil
}

func productList(c *cli.Context) error {
	rt, err := catalogRuntime(c, navigation.PathProducts)
	if err != nil {
		return err
	}
	if c.Int("limit") < 0 || c.Int("skip") < 0 {
		return domain.ErrInvalidArgument.WithDetails("limit and skip must not be negative")
	}

	products, err := rt.Catalog.FetchPage(c.Context, service.ListQuery{
		Limit: c.Int("limit"),
		Skip:  c.Int("skip"),
	})
	if err != nil {
		return err
	}
	return rt.PrintProducts(products)
}

func productGet(c *cli.Context) error {
	id, err := productIDArg(c)
	if err != nil {
		return err
	}
	rt, err := catalogRuntime(c, navigation.PathProducts+"/"+id.String())
	if err != nil {
		return err
	}

	p, err := rt.Catalog.FetchProductByID(c.Context, id)
	if err != nil {
		return err
	}
	return rt.PrintProduct(p)
}

func productAdd(c *cli.Context) error {
	payload, err := payloadFromFlags(c)
	if err != nil {
		return err
	}
	rt, err := catalogRuntime(c, navigation.PathProducts+"/new")
	if err != nil {
		return err
	}

	created, err := rt.Catalog.AddProduct(c.Context, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.Err, "Created product %s.\n", created.ID())
	return rt.PrintProduct(created)
}

func productUpdate(c *cli.Context) error {
	id, err := productIDArg(c)
	if err != nil {
		return err
	}
	payload, err := payloadFromFlags(c)
	if err != nil {
		return err
	}
	rt, err := catalogRuntime(c, navigation.PathProducts+"/"+id.String()+"/edit")
	if err != nil {
		return err
	}

	updated, err := rt.Catalog.UpdateProduct(c.Context, id, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.Err, "Updated product %s.\n", id)
	return rt.PrintProduct(updated)
}

func productDelete(c *cli.Context) error {
	id, err := productIDArg(c)
	if err != nil {
		return err
	}
	rt, err := catalogRuntime(c, navigation.PathProducts+"/"+id.String())
	if err != nil {
		return err
	}

	if err := rt.Catalog.DeleteProduct(c.Context, id); err != nil {
		return err
	}
	fmt.Fprintf(rt.Out, "Deleted product %s.\n", id)
	return nil
}

func productIDArg(c *cli.Context) (domain.ProductID, error) {
	if c.NArg() != 1 {
		return "", domain.ErrMissingArgument.WithDetails("usage: " + c.Command.HelpName + " ID")
	}
	return domain.ParseProductID(c.Args().First())
}

// payloadFromFlags merges --json with --field assignments. An empty payload
// is rejected.
func payloadFromFlags(c *cli.Context) (domain.ProductPayload, error) {
	payload := domain.ProductPayload{}
	if raw := c.String("json"); raw != "" {
		fromJSON, err := domain.ParsePayloadJSON(raw)
		if err != nil {
			return nil, err
		}
		payload = fromJSON
	}
	fields, err := domain.ParseFieldAssignments(c.StringSlice("field"))
	if err != nil {
		return nil, err
	}
	payload = payload.Merge(fields)
	if len(payload) == 0 {
		return nil, domain.ErrMissingArgument.WithDetails("at least one --field or --json")
	}
	return payload, nil
}
