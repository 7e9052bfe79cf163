package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"golang.org/x/crypto/bcrypt"

	"linkdesk/internal/client"
	"linkdesk/internal/config"
	"linkdesk/internal/csvcodec"
	"linkdesk/internal/listquery"
	"linkdesk/internal/logger"
	"linkdesk/internal/models"
	userdb "linkdesk/internal/user/db"
)

const usage = `usage: lctl <command> [flags]

commands:
  orders          list orders (own, or -all for every order)
  comments        list an order's comment thread
  comment         add a comment to an order
  set-status      change an order's status
  domains         list the domain inventory
  export-domains  download the inventory CSV
  import-domains  preview and commit a CSV import
  add-user        create a user directly in the database

Credentials come from LINKDESK_USERNAME / LINKDESK_PASSWORD.`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	ctx := context.Background()
	switch os.Args[1] {
	case "orders":
		cmdOrders(ctx, os.Args[2:])
	case "comments":
		cmdComments(ctx, os.Args[2:])
	case "comment":
		cmdComment(ctx, os.Args[2:])
	case "set-status":
		cmdSetStatus(ctx, os.Args[2:])
	case "domains":
		cmdDomains(ctx, os.Args[2:])
	case "export-domains":
		cmdExportDomains(ctx, os.Args[2:])
	case "import-domains":
		cmdImportDomains(ctx, os.Args[2:])
	case "add-user":
		cmdAddUser(ctx, os.Args[2:])
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// notify prints mutation phases so long writes are visible on the terminal.
func notify(key client.MutationKey, phase client.Phase, message string) {
	switch phase {
	case client.PhasePending:
		fmt.Printf("%s...\n", key)
	case client.PhaseSuccess:
		fmt.Printf("%s: done\n", key)
	case client.PhaseError:
		fmt.Fprintf(os.Stderr, "%s: %s\n", key, message)
	}
}

func serverFlag(fs *flag.FlagSet) *string {
	def := os.Getenv("LINKDESK_SERVER")
	if def == "" {
		def = "http://localhost:8080"
	}
	return fs.String("server", def, "Server base URL")
}

// login builds an API client and opens a session from the env credentials.
func login(ctx context.Context, server string) *client.API {
	username := os.Getenv("LINKDESK_USERNAME")
	password := os.Getenv("LINKDESK_PASSWORD")
	if username == "" || password == "" {
		fatal("LINKDESK_USERNAME and LINKDESK_PASSWORD must be set")
	}

	api := client.NewAPI(client.New(server, logger.NewDiscardLogger()), notify)
	if err := api.Login(ctx, username, password); err != nil {
		fatal("login failed: %v", err)
	}
	return api
}

func cmdOrders(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("orders", flag.ExitOnError)
	server := serverFlag(fs)
	all := fs.Bool("all", false, "List every order (admin)")
	status := fs.String("status", "", "Filter by status")
	query := fs.String("query", "", "Text search across URLs, anchor, notes and title")
	kind := fs.String("kind", "", "Filter by kind (guest_post or niche_edit)")
	sortField := fs.String("sort", listquery.OrderSortDateOrdered, "Sort field")
	desc := fs.Bool("desc", true, "Sort descending")
	page := fs.Int("page", 1, "Page number")
	pageSize := fs.Int("page-size", 20, "Rows per page")
	watch := fs.Bool("watch", false, "Keep polling for unread comment counts")
	interval := fs.Duration("interval", 5*time.Second, "Polling interval with -watch")
	fs.Parse(args)

	api := login(ctx, *server)

	list := func(ctx context.Context) {
		var (
			orders []models.Order
			err    error
		)
		if *all {
			orders, err = api.ListAllOrders(ctx)
		} else {
			orders, err = api.ListOrders(ctx)
		}
		if err != nil {
			fatal("list orders: %v", err)
		}

		orders = listquery.FilterOrders(orders, listquery.OrderFilter{
			Status: *status,
			Query:  *query,
			Kind:   models.OrderKind(*kind),
		})
		listquery.SortOrders(orders, *sortField, *desc)
		pg := listquery.Paginate(orders, *page, *pageSize)

		fmt.Printf("page %d/%d (%d orders)\n", *page, pg.TotalPages, len(orders))
		for _, o := range pg.Items {
			unread := ""
			if o.UnreadComments > 0 {
				unread = fmt.Sprintf("  [%d unread]", o.UnreadComments)
			}
			fmt.Printf("%s  %-14s  %-10s  %8.2f  %s%s\n",
				o.ID, o.Status, o.Kind, o.Price, o.TargetURL, unread)
		}
	}

	if !*watch {
		list(ctx)
		return
	}

	// Watch mode re-fetches on an interval; unread counts ride along on the
	// order rows so new replies surface without restarting.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	poller := client.NewPoller(*interval, func(ctx context.Context) {
		api.Cache.Clear()
		list(ctx)
	})
	poller.Start(ctx)
}

func cmdComments(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("comments", flag.ExitOnError)
	server := serverFlag(fs)
	orderID := fs.String("order", "", "Order ID")
	markRead := fs.Bool("mark-read", false, "Reset the unread counter afterwards")
	fs.Parse(args)
	if *orderID == "" {
		fatal("-order is required")
	}

	api := login(ctx, *server)
	comments, err := api.ListComments(ctx, *orderID)
	if err != nil {
		fatal("list comments: %v", err)
	}
	for _, c := range comments {
		author := "client"
		if c.IsFromAdmin {
			author = "admin"
		}
		fmt.Printf("[%s] %s: %s\n", c.CreatedAt.Format(time.RFC3339), author, c.Message)
	}

	if *markRead {
		if err := api.MarkCommentsRead(ctx, *orderID); err != nil {
			fatal("mark read: %v", err)
		}
	}
}

func cmdComment(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	server := serverFlag(fs)
	orderID := fs.String("order", "", "Order ID")
	message := fs.String("message", "", "Comment text")
	fs.Parse(args)
	if *orderID == "" {
		fatal("-order is required")
	}

	api := login(ctx, *server)
	if err := api.AddComment(ctx, *orderID, *message); err != nil {
		fatal("add comment: %v", err)
	}
}

func cmdSetStatus(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("set-status", flag.ExitOnError)
	server := serverFlag(fs)
	orderID := fs.String("order", "", "Order ID")
	status := fs.String("status", "", "New status")
	fs.Parse(args)
	if *orderID == "" || *status == "" {
		fatal("-order and -status are required")
	}

	api := login(ctx, *server)
	if err := api.UpdateOrderStatus(ctx, *orderID, *status); err != nil {
		fatal("set status: %v", err)
	}
}

func cmdDomains(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("domains", flag.ExitOnError)
	server := serverFlag(fs)
	query := fs.String("query", "", "Text search")
	domainType := fs.String("type", "", "Filter by type (guest_post, niche_edit, both)")
	rating := fs.String("rating", "", `Domain rating bucket ("0-30", "31-50", "51-70", "71+")`)
	sortField := fs.String("sort", listquery.DomainSortWebsiteName, "Sort field")
	desc := fs.Bool("desc", false, "Sort descending")
	page := fs.Int("page", 1, "Page number")
	pageSize := fs.Int("page-size", 20, "Rows per page")
	fs.Parse(args)

	api := login(ctx, *server)
	domains, err := api.ListDomains(ctx)
	if err != nil {
		fatal("list domains: %v", err)
	}

	domains = listquery.FilterDomains(domains, listquery.DomainFilter{
		Query:        *query,
		Type:         models.DomainType(*domainType),
		RatingBucket: *rating,
	})
	listquery.SortDomains(domains, *sortField, *desc)
	pg := listquery.Paginate(domains, *page, *pageSize)

	fmt.Printf("page %d/%d (%d domains)\n", *page, pg.TotalPages, len(domains))
	for _, d := range pg.Items {
		gp, ne := "-", "-"
		if d.GuestPostPrice != nil {
			gp = fmt.Sprintf("%.2f", *d.GuestPostPrice)
		}
		if d.NicheEditPrice != nil {
			ne = fmt.Sprintf("%.2f", *d.NicheEditPrice)
		}
		fmt.Printf("DR %3d  %-10s  GP %-8s NE %-8s  %s\n",
			d.DomainRating, d.Type, gp, ne, d.WebsiteURL)
	}
}

func cmdExportDomains(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("export-domains", flag.ExitOnError)
	server := serverFlag(fs)
	out := fs.String("out", "", "Output file (default: dated inventory name)")
	fs.Parse(args)

	api := login(ctx, *server)
	data, err := api.ExportDomainsCSV(ctx)
	if err != nil {
		fatal("export domains: %v", err)
	}

	filename := *out
	if filename == "" {
		filename = csvcodec.DomainExportFilename(time.Now())
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		fatal("write %s: %v", filename, err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", filename, len(data))
}

func cmdImportDomains(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("import-domains", flag.ExitOnError)
	server := serverFlag(fs)
	file := fs.String("file", "", "CSV file to import")
	confirm := fs.Bool("confirm", false, "Commit the import instead of just previewing")
	fs.Parse(args)
	if *file == "" {
		fatal("-file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		fatal("open %s: %v", *file, err)
	}
	defer f.Close()

	preview, err := csvcodec.ParseDomains(f)
	if err != nil {
		fatal("parse %s: %v", *file, err)
	}

	fmt.Printf("%d rows parsed, %d skipped\n", len(preview.Rows), len(preview.Skipped))
	for _, s := range preview.Skipped {
		fmt.Printf("  line %d skipped: %s\n", s.Line, s.Reason)
	}
	for _, d := range preview.Rows {
		fmt.Printf("  %-10s DR %3d  %s\n", d.Type, d.DomainRating, d.WebsiteURL)
	}

	if !*confirm {
		fmt.Println("preview only; re-run with -confirm to import")
		return
	}

	api := login(ctx, *server)
	n, err := api.ImportDomains(ctx, preview)
	if err != nil {
		fatal("import failed, nothing was written: %v", err)
	}
	fmt.Printf("imported %d domains\n", n)
}

// cmdAddUser writes straight to the database so the first admin can be
// created before any session exists.
func cmdAddUser(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("add-user", flag.ExitOnError)
	username := fs.String("username", "", "Username for the new user")
	password := fs.String("password", "", "Password for the new user")
	role := fs.String("role", models.RoleClient, "Role (admin or client)")
	company := fs.String("company", "", "Company name")
	email := fs.String("email", "", "Email address")
	fs.Parse(args)
	if *username == "" || *password == "" {
		fatal("-username and -password are required")
	}
	if *role != models.RoleAdmin && *role != models.RoleClient {
		fatal("role must be admin or client")
	}

	cfg := config.Load()
	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()
	if err := sqldb.PingContext(ctx); err != nil {
		fatal("connect to database: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		fatal("hash password: %v", err)
	}

	users := &userdb.DB{Bun: bun.NewDB(sqldb, pgdialect.New())}
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     *username,
		PasswordHash: string(hash),
		CompanyName:  *company,
		Email:        *email,
		Role:         *role,
		CreatedAt:    time.Now(),
	}
	if err := users.CreateUser(ctx, user); err != nil {
		fatal("create user: %v", err)
	}
	fmt.Printf("created %s user %s (%s)\n", user.Role, user.Username, user.ID)
}
