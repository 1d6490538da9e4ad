package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/pantherale0/Dispatcharr/internal/adapter"
	"github.com/pantherale0/Dispatcharr/internal/catalog"
	"github.com/pantherale0/Dispatcharr/internal/domain"
	"github.com/pantherale0/Dispatcharr/internal/logos"
	"github.com/pantherale0/Dispatcharr/internal/search"
	"github.com/pantherale0/Dispatcharr/internal/store"
)

// Version is set at build time via -ldflags
var Version = "dev"

const usage = `Usage: dispatcharr <command> [flags]

Commands:
  sync              Load the full logo catalog and save a warm-start snapshot
  list              Print cached logos (-used, -assignable select subset views)
  search <query>    Fuzzy-search logo names
  logout            Tear down cached state and credentials
`

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("dispatcharr %s\n", Version)
		return
	}

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}

	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting dispatcharr", "version", Version, "command", args[0])

	if !cfg.IsConfigured() {
		return fmt.Errorf("not configured: set server.url and server.token in the config file or DISPATCHARR_* environment")
	}

	client := catalog.NewClient(cfg.Server.URL, cfg.Server.Token, logger)

	snapshots, err := store.NewSnapshotStore(cfg.Cache.Dir, cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer snapshots.Close()

	svc := logos.NewService(client, snapshots, logos.Config{
		BatchWindow:    cfg.Cache.BatchWindow,
		RetryCooldown:  cfg.Cache.RetryCooldown,
		ChunkSize:      cfg.Cache.ChunkSize,
		WarmDelay:      cfg.Cache.WarmDelay,
		SnapshotMaxAge: cfg.Cache.SnapshotMaxAge,
	}, logger)

	ctx := context.Background()

	switch args[0] {
	case "sync":
		return runSync(ctx, svc)
	case "list":
		return runList(ctx, svc, args[1:])
	case "search":
		return runSearch(ctx, svc, args[1:])
	case "logout":
		return runLogout(svc)
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func runSync(ctx context.Context, svc *logos.Service) error {
	if err := svc.EnsureFullCatalogLoaded(ctx); err != nil {
		return err
	}
	svc.SaveSnapshot()
	fmt.Printf("Synced %d logos\n", svc.Count())
	return nil
}

func runList(ctx context.Context, svc *logos.Service, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	used := fs.Bool("used", false, "list only logos in use")
	assignable := fs.Bool("assignable", false, "list only channel-assignable logos")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var entries []*domain.Logo
	switch {
	case *used:
		if err := svc.EnsureUsedLoaded(ctx); err != nil {
			return err
		}
		entries = svc.Subset(logos.SubsetUsed)
	case *assignable:
		if err := svc.EnsureChannelAssignableLoaded(ctx); err != nil {
			return err
		}
		entries = svc.Subset(logos.SubsetChannelAssignable)
	default:
		if err := svc.EnsureFullCatalogLoaded(ctx); err != nil {
			return err
		}
		entries = svc.Cache().All()
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	for _, logo := range entries {
		fmt.Printf("%6d  %-10s  %s\n", logo.ID, logo.Usage(), logo.Name)
	}
	fmt.Printf("%d logos\n", len(entries))
	return nil
}

func runSearch(ctx context.Context, svc *logos.Service, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("search requires a query")
	}
	query := strings.Join(args, " ")

	if err := svc.EnsureFullCatalogLoaded(ctx); err != nil {
		return err
	}

	idx := search.NewIndex()
	idx.Rebuild(svc.Cache().All())

	results := idx.Filter(query)
	for _, r := range results {
		fmt.Printf("%6d  %s\n", r.Logo.ID, r.Logo.Name)
	}
	fmt.Printf("%d matches\n", len(results))
	return nil
}

func runLogout(svc *logos.Service) error {
	svc.Reset()
	if err := adapter.ClearServerConfig(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}
