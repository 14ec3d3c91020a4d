package repl

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/yndnr/catdesk-go/internal/core/domain"
	"github.com/yndnr/catdesk-go/internal/navigation"
)

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

func (r *REPL) commandTable() map[string]*command {
	exit := &command{usage: "exit", help: "Leave the shell", run: func(context.Context, []string) error { return errExit }}
	return map[string]*command{
		"help":    {usage: "help", help: "Show this help", run: r.cmdHelp},
		"go":      {usage: "go <path>", help: "Open a view, e.g. go /products/3", run: r.cmdGo},
		"back":    {usage: "back", help: "Return to the previous view", run: r.cmdBack},
		"login":   {usage: "login [username] [password]", help: "Log in; asks for missing values", run: r.cmdLogin},
		"logout":  {usage: "logout", help: "Log out and forget the stored session", run: r.cmdLogout},
		"status":  {usage: "status", help: "Show the current session", run: r.cmdStatus},
		"list":    {usage: "list", help: "Reload and show the product list", run: r.cmdList},
		"view":    {usage: "view <id>", help: "Show one product", run: r.cmdView},
		"add":     {usage: "add [key=value ...]", help: "Open the new product form, or create directly", run: r.cmdAdd},
		"edit":    {usage: "edit <id> [key=value ...]", help: "Open the edit form, or update directly", run: r.cmdEdit},
		"save":    {usage: "save key=value ...", help: "Submit the open add or edit form", run: r.cmdSave},
		"delete":  {usage: "delete <id>", help: "Delete a product", run: r.cmdDelete},
		"history": {usage: "history", help: "Show recent commands", run: r.cmdHistory},
		"exit":    exit,
		"quit":    exit,
	}
}

func (r *REPL) commandNames() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *REPL) cmdHelp(context.Context, []string) error {
	tw := tabwriter.NewWriter(r.output, 0, 0, 2, ' ', 0)
	for _, name := range r.commandNames() {
		if name == "quit" {
			continue
		}
		c := r.commands[name]
		fmt.Fprintf(tw, "  %s\t%s\n", c.usage, c.help)
	}
	return tw.Flush()
}

func (r *REPL) cmdGo(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return domain.ErrMissingArgument.WithDetails("usage: go <path>")
	}
	return r.enter(ctx, args[0], true)
}

func (r *REPL) cmdBack(ctx context.Context, _ []string) error {
	route, ok, err := r.nav.Back()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(r.output, "Nothing to go back to.")
		return nil
	}
	return r.show(ctx, route, true)
}

func (r *REPL) cmdLogin(ctx context.Context, args []string) error {
	var creds domain.Credentials
	var err error
	if len(args) > 0 {
		creds.Username = args[0]
	} else if creds.Username, err = r.ask("Username: "); err != nil {
		return err
	}
	if len(args) > 1 {
		creds.Password = args[1]
	} else if creds.Password, err = r.askSecret("Password: "); err != nil {
		return err
	}

	if err := creds.Validate(); err != nil {
		return err
	}
	if err := r.session.Login(ctx, creds); err != nil {
		return err
	}
	st := r.session.Status()
	fmt.Fprintf(r.output, "Logged in as %s.\n", firstNonEmpty(st.Name, st.Username, creds.Username))
	return r.recheck(ctx)
}

func (r *REPL) cmdLogout(ctx context.Context, _ []string) error {
	err := r.session.Logout()
	fmt.Fprintln(r.output, "Logged out.")
	if rerr := r.recheck(ctx); rerr != nil {
		r.printError(rerr)
	}
	return err
}

// recheck re-runs the guard for the current view after the session changed.
func (r *REPL) recheck(ctx context.Context) error {
	before := r.nav.Current().Path
	route, _, err := r.nav.Recheck()
	if err != nil {
		return err
	}
	if route.Path == before {
		return nil
	}
	return r.show(ctx, route, true)
}

func (r *REPL) cmdStatus(context.Context, []string) error {
	return r.formatter().Format(r.output, r.session.Status())
}

func (r *REPL) cmdList(ctx context.Context, _ []string) error {
	return r.enter(ctx, navigation.PathProducts, true)
}

func (r *REPL) cmdView(ctx context.Context, args []string) error {
	id, err := idArg(args, "view <id>")
	if err != nil {
		return err
	}
	return r.enter(ctx, productPath(id), true)
}

func (r *REPL) cmdAdd(ctx context.Context, args []string) error {
	if err := r.enter(ctx, navigation.PathProducts+"/new", false); err != nil {
		return err
	}
	if len(args) == 0 || r.nav.Current().Name != navigation.RouteAddProduct {
		return nil
	}
	return r.cmdSave(ctx, args)
}

func (r *REPL) cmdEdit(ctx context.Context, args []string) error {
	id, err := idArg(args, "edit <id> [key=value ...]")
	if err != nil {
		return err
	}
	if err := r.enter(ctx, productPath(id)+"/edit", len(args) == 1); err != nil {
		return err
	}
	if len(args) == 1 || r.nav.Current().Name != navigation.RouteEditProduct {
		return nil
	}
	return r.cmdSave(ctx, args[1:])
}

// cmdSave submits the form of the current view.
func (r *REPL) cmdSave(ctx context.Context, args []string) error {
	route := r.nav.Current()
	if route.Name != navigation.RouteAddProduct && route.Name != navigation.RouteEditProduct {
		return domain.ErrInvalidArgument.WithDetails("no open form; use add or edit first")
	}
	payload, err := domain.ParseFieldAssignments(args)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return domain.ErrMissingArgument.WithDetails("at least one key=value")
	}

	if route.Name == navigation.RouteAddProduct {
		created, err := r.catalog.AddProduct(ctx, payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.output, "Created product %s.\n", created.ID())
		return r.enter(ctx, navigation.PathProducts, false)
	}

	id := domain.ProductID(route.Param("id"))
	updated, err := r.catalog.UpdateProduct(ctx, id, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.output, "Updated product %s.\n", id)
	if err := r.enter(ctx, productPath(id), false); err != nil {
		return err
	}
	return r.renderProduct(updated)
}

func (r *REPL) cmdDelete(ctx context.Context, args []string) error {
	id, err := idArg(args, "delete <id>")
	if err != nil {
		return err
	}
	route, redirected, err := r.nav.Resolve(productPath(id))
	if err != nil {
		return err
	}
	if redirected {
		return r.enter(ctx, route.Path, true)
	}

	if err := r.catalog.DeleteProduct(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(r.output, "Deleted product %s.\n", id)
	return r.enter(ctx, navigation.PathProducts, false)
}

func (r *REPL) cmdHistory(context.Context, []string) error {
	entries := r.history.Entries()
	start := 0
	if len(entries) > 20 {
		start = len(entries) - 20
	}
	for i := start; i < len(entries); i++ {
		fmt.Fprintf(r.output, "%4d  %s\n", i+1, entries[i])
	}
	return nil
}

func idArg(args []string, usage string) (domain.ProductID, error) {
	if len(args) == 0 {
		return "", domain.ErrMissingArgument.WithDetails("usage: " + usage)
	}
	return domain.ParseProductID(args[0])
}

func productPath(id domain.ProductID) string {
	return navigation.PathProducts + "/" + id.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
