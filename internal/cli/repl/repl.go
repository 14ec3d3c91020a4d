package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yndnr/catdesk-go/internal/cli/output"
	"github.com/yndnr/catdesk-go/internal/core/domain"
	"github.com/yndnr/catdesk-go/internal/core/service"
	"github.com/yndnr/catdesk-go/internal/navigation"
	"github.com/yndnr/catdesk-go/internal/telemetry/logger"
)

// Session is the part of the session store the shell drives.
type Session interface {
	Login(ctx context.Context, creds domain.Credentials) error
	Logout() error
	IsAuthenticated() bool
	Status() service.SessionStatus
}

// Catalog is the part of the catalog store the shell drives.
type Catalog interface {
	FetchProducts(ctx context.Context) ([]domain.Product, error)
	FetchProductByID(ctx context.Context, id domain.ProductID) (domain.Product, error)
	AddProduct(ctx context.Context, payload domain.ProductPayload) (domain.Product, error)
	UpdateProduct(ctx context.Context, id domain.ProductID, payload domain.ProductPayload) (domain.Product, error)
	DeleteProduct(ctx context.Context, id domain.ProductID) error
	Products() []domain.Product
}

// Config wires a REPL.
type Config struct {
	Session Session
	Catalog Catalog
	Routes  *navigation.Table
	Format  output.Format
	Wide    bool
	History *History
	Logger  logger.Logger
	Input   io.Reader
	Output  io.Writer
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	session   Session
	catalog   Catalog
	nav       *navigation.Navigator
	routes    *navigation.Table
	format    output.Format
	wide      bool
	stdin     io.Reader
	input     *bufio.Reader
	output    io.Writer
	completer *Completer
	history   *History
	log       logger.Logger
	commands  map[string]*command
}

// errExit ends the loop.
var errExit = errors.New("exit")

// New creates a new REPL instance.
func New(cfg Config) *REPL {
	routes := cfg.Routes
	if routes == nil {
		routes = navigation.NewTable(navigation.DefaultRoutes())
	}
	in := cfg.Input
	if in == nil {
		in = os.Stdin
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	hist := cfg.History
	if hist == nil {
		hist = NewHistory("")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	r := &REPL{
		session: cfg.Session,
		catalog: cfg.Catalog,
		nav:     navigation.NewNavigator(routes, cfg.Session),
		routes:  routes,
		format:  cfg.Format,
		wide:    cfg.Wide,
		stdin:   in,
		input:   bufio.NewReader(in),
		output:  out,
		history: hist,
		log:     log.With("component", "repl"),
	}
	r.commands = r.commandTable()
	r.completer = NewCompleter(r.commandNames(), routes.Patterns())
	return r
}

// Navigator exposes the shell's navigator.
func (r *REPL) Navigator() *navigation.Navigator {
	return r.nav
}

// Prompt returns the prompt for the current route.
func (r *REPL) Prompt() string {
	path := r.nav.Current().Path
	if path == "" {
		path = navigation.PathRoot
	}
	return "catdesk:" + path + "> "
}

// Run starts the REPL loop. It lands on "/" first, which the guard turns
// into the login view or the product list.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.enter(ctx, navigation.PathRoot, true); err != nil {
		r.printError(err)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.output, r.Prompt())

		line, err := r.readLine()
		if err == io.EOF {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		r.history.Add(line)

		if err := r.execute(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			r.printError(err)
		}
	}
}

func (r *REPL) readLine() (string, error) {
	line, err := r.input.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	return strings.TrimSpace(line), err
}

// ask prints a question and reads one answer line.
func (r *REPL) ask(question string) (string, error) {
	fmt.Fprint(r.output, question)
	return r.readLine()
}

// askSecret is ask with echo turned off when the shell runs on a terminal.
func (r *REPL) askSecret(question string) (string, error) {
	secret, ok, err := output.ReadSecret(r.output, r.stdin, question)
	if !ok {
		return r.ask(question)
	}
	return secret, err
}

func (r *REPL) execute(ctx context.Context, line string) error {
	name, args := splitArgs(line)
	cmd, ok := r.commands[name]
	if !ok {
		msg := fmt.Sprintf("unknown command %q", name)
		if s := r.completer.Complete(name); len(s) > 0 {
			msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(s, ", "))
		}
		return domain.ErrInvalidArgument.WithDetails(msg)
	}
	return cmd.run(ctx, args)
}

func (r *REPL) printError(err error) {
	r.log.Debug("command failed", "error", err)
	fmt.Fprintf(r.output, "Error: %s\n", domain.ErrorMessage(err))
}

// enter navigates to path and renders the view it lands on. load selects
// whether the view fetches its data or shows the local list.
func (r *REPL) enter(ctx context.Context, path string, load bool) error {
	route, redirected, err := r.nav.Navigate(path)
	if err != nil {
		return err
	}
	if redirected {
		r.log.Debug("navigation redirected", "from", path, "to", route.Path)
	}
	return r.show(ctx, route, load)
}

func (r *REPL) show(ctx context.Context, route navigation.Route, load bool) error {
	switch route.Name {
	case navigation.RouteLogin:
		fmt.Fprintln(r.output, "Please log in: login <username> [password]")
	case navigation.RouteProducts:
		products := r.catalog.Products()
		if load {
			var err error
			if products, err = r.catalog.FetchProducts(ctx); err != nil {
				return err
			}
		}
		return r.renderProducts(products)
	case navigation.RouteViewProduct, navigation.RouteEditProduct:
		if !load {
			return nil
		}
		p, err := r.catalog.FetchProductByID(ctx, domain.ProductID(route.Param("id")))
		if err != nil {
			return err
		}
		if err := r.renderProduct(p); err != nil {
			return err
		}
		if route.Name == navigation.RouteEditProduct {
			fmt.Fprintln(r.output, "Edit with: save key=value ...")
		}
	case navigation.RouteAddProduct:
		fmt.Fprintln(r.output, "New product: save key=value ...")
	}
	return nil
}

func (r *REPL) formatter() output.Formatter {
	return output.NewFormatter(r.format, r.wide)
}

func (r *REPL) renderProducts(products []domain.Product) error {
	if r.format == output.FormatJSON || r.format == output.FormatYAML {
		return r.formatter().Format(r.output, products)
	}
	if len(products) == 0 {
		fmt.Fprintln(r.output, "No products.")
		return nil
	}
	return output.ProductsTable(products, r.wide).Render(r.output)
}

func (r *REPL) renderProduct(p domain.Product) error {
	if r.format == output.FormatJSON || r.format == output.FormatYAML {
		return r.formatter().Format(r.output, p)
	}
	return output.ProductDetail(p).Render(r.output)
}

// splitArgs splits a line on whitespace; double quotes group words.
func splitArgs(line string) (string, []string) {
	var (
		fields  []string
		cur     strings.Builder
		quoted  bool
		pending bool
	)
	for _, c := range line {
		switch {
		case c == '"':
			quoted = !quoted
			pending = true
		case !quoted && (c == ' ' || c == '\t'):
			if pending {
				fields = append(fields, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(c)
			pending = true
		}
	}
	if pending {
		fields = append(fields, cur.String())
	}
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}
