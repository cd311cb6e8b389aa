// Command scrapewire runs the news scraper once: load the source catalog,
// scrape every eligible source concurrently, and print the aggregated
// articles (or probe source health).
//
// Usage:
//
//	scrapewire                        Scrape all enabled sources
//	scrapewire -categories research   Only sources matching the categories
//	scrapewire -max 10                Cap the article count
//	scrapewire -health                Probe every source, skip scraping
//	scrapewire -stats                 Show per-source statistics after the run
//	scrapewire -json                  Emit JSON instead of the report
//
// Configuration comes from scrapewire.yaml (override with -config); a
// missing file means the built-in source catalog. Secrets are read from the
// environment, with a local .env file honored.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/dmaher/scrapewire/internal/config"
	"github.com/dmaher/scrapewire/internal/factory"
	"github.com/dmaher/scrapewire/internal/fetch"
	"github.com/dmaher/scrapewire/internal/logging"
	"github.com/dmaher/scrapewire/internal/manager"
	"github.com/dmaher/scrapewire/internal/process"
	"github.com/dmaher/scrapewire/internal/scrape"
	"github.com/dmaher/scrapewire/internal/throttle"
)

func main() {
	var (
		configPath = flag.String("config", "scrapewire.yaml", "path to the YAML source catalog")
		health     = flag.Bool("health", false, "probe every source instead of scraping")
		stats      = flag.Bool("stats", false, "print per-source statistics after the run")
		categories = flag.String("categories", "", "comma-separated category filter")
		maxCount   = flag.Int("max", 0, "article cap (0 = config default)")
		sequential = flag.Bool("sequential", false, "scrape sources one at a time")
		timeout    = flag.Duration("timeout", 0, "per-source timeout override")
		asJSON     = flag.Bool("json", false, "emit JSON instead of the report")
		verbose    = flag.Bool("verbose", false, "debug logging")
	)
	flag.Parse()

	logging.InitConsole(*verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal("config load failed", "error", err)
	}

	mgr := buildManager(cfg)
	if *verbose {
		mgr.Subscribe(func(e manager.Event) {
			logging.Debug("event", "kind", e.Kind, "run", e.RunID, "source", e.SourceID)
		})
	}

	if *health {
		reports := mgr.HealthCheckAll(ctx)
		if *asJSON {
			printJSON(reports)
		} else {
			printHealth(reports)
		}
		return
	}

	req := cfg.Request()
	if *categories != "" {
		req.Categories = splitList(*categories)
	}
	if *maxCount > 0 {
		req.MaxArticles = *maxCount
	}
	req.Timeout = *timeout
	req.Sequential = *sequential

	res := mgr.ScrapeAll(ctx, req)

	if *asJSON {
		if *stats {
			printJSON(struct {
				Result *scrape.Result        `json:"result"`
				Stats  manager.ScrapingStats `json:"stats"`
			}{res, mgr.Stats()})
		} else {
			printJSON(res)
		}
		return
	}

	printResult(res)
	if *stats {
		printStats(mgr.Stats())
	}
}

// buildManager wires the transport, throttle, processor and factory into a
// manager loaded with every source the config yields.
func buildManager(cfg *config.Config) *manager.Manager {
	client := fetch.New(fetch.Config{
		Timeout: time.Duration(cfg.Defaults.TimeoutMs) * time.Millisecond,
	})
	proc := process.New(process.Config{
		DisableBlocklist: cfg.Processing.DisableBlocklist,
	})
	fac := factory.New(factory.Deps{
		Client:    client,
		Throttle:  throttle.New(cfg.Throttle.MaxConcurrent),
		Processor: proc,
	})
	mgr := manager.New(manager.Options{MaxConcurrent: cfg.Throttle.MaxConcurrent})

	for _, src := range cfg.SourceConfigs(factory.DefaultConfigs()) {
		strat, err := fac.Create(src.Kind, src)
		if err != nil {
			logging.Warn("skipping source", "source", src.ID, "error", err)
			continue
		}
		if err := mgr.Register(strat); err != nil {
			logging.Warn("skipping source", "source", src.ID, "error", err)
		}
	}
	return mgr
}

func printResult(res *scrape.Result) {
	fmt.Printf("Scraped %d sources in %s: %d articles (%d ok, %d failed)\n\n",
		res.SuccessCount+res.ErrorCount,
		res.Duration.Round(time.Millisecond),
		len(res.Articles), res.SuccessCount, res.ErrorCount)

	for i, a := range res.Articles {
		fmt.Printf("%3d. [%.2f] %s\n", i+1, a.Relevance, a.Title)
		fmt.Printf("     %s | %s | %s\n",
			a.Source.Name, a.Category, a.PublishedAt.Format("2006-01-02 15:04"))
		fmt.Printf("     %s\n", a.URL)
		if len(a.Tags) > 0 {
			fmt.Printf("     tags: %s\n", strings.Join(a.Tags, ", "))
		}
		if a.Summary != "" {
			fmt.Printf("     %s\n", a.Summary)
		}
		fmt.Println()
	}

	if len(res.Errors) > 0 {
		fmt.Println("Failures:")
		for _, se := range res.Errors {
			fmt.Printf("  %-20s %v\n", se.SourceID, se.Err)
		}
	}
}

func printHealth(reports []manager.HealthReport) {
	fmt.Printf("%-20s %-28s %-10s %-10s %s\n", "SOURCE", "NAME", "STATUS", "LATENCY", "ERROR")
	for _, r := range reports {
		latency := "-"
		if r.ResponseTime > 0 {
			latency = r.ResponseTime.Round(time.Millisecond).String()
		}
		fmt.Printf("%-20s %-28s %-10s %-10s %s\n", r.SourceID, r.Name, r.Status, latency, r.Err)
	}
}

func printStats(stats manager.ScrapingStats) {
	fmt.Printf("\nSources: %d registered, %d enabled\n", stats.TotalSources, stats.ActiveSources)
	fmt.Printf("%-20s %-28s %9s %9s %10s\n", "SOURCE", "NAME", "ARTICLES", "SUCCESS", "AVG TIME")

	ids := make([]string, 0, len(stats.Sources))
	for id := range stats.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s := stats.Sources[id]
		fmt.Printf("%-20s %-28s %9d %8.0f%% %10s\n",
			id, s.Name, s.ArticlesScraped, s.SuccessRate*100,
			s.AvgResponseTime.Round(time.Millisecond))
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logging.Error("output encoding failed", "error", err)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
