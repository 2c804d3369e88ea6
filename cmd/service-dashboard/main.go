// Command service-dashboard prints the health of the image provider chain and
// how generation sources have been used.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"pixelpost/internal/config"
	"pixelpost/internal/database"
	"pixelpost/internal/featureflags"
	"pixelpost/internal/generation"
	"pixelpost/internal/models"
	"pixelpost/internal/repository"

	"golang.org/x/sync/errgroup"
)

// fallbackWarnRatio is the share of fallback images above which providers need attention.
const fallbackWarnRatio = 0.5

type dashboard struct {
	probe   generation.Result
	probeIn time.Duration
	totals  []repository.SourceCount
	recent  []repository.SourceStat
}

func main() {
	skipProbe := flag.Bool("skip-probe", false, "Do not call the provider chain")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	images := repository.NewImageRepository(db)
	flags := featureflags.NewManager(cfg.FeatureFlags)
	seq := generation.NewImageSequencer(cfg.Providers(), generation.Options{
		MaxBackoff: cfg.MaxBackoff(),
		Enabled:    flags.ProviderEnabled,
	})

	var d dashboard
	g, gctx := errgroup.WithContext(ctx)
	if !*skipProbe {
		g.Go(func() error {
			start := time.Now()
			res, err := seq.Generate(gctx, generation.Request{
				Prompt: "service dashboard probe",
				Width:  models.DefaultImageWidth,
				Height: models.DefaultImageHeight,
			})
			if err != nil {
				return fmt.Errorf("probe: %w", err)
			}
			d.probe, d.probeIn = res, time.Since(start)
			return nil
		})
	}
	g.Go(func() error {
		var err error
		d.totals, err = images.CountBySource(gctx, 0)
		return err
	})
	g.Go(func() error {
		var err error
		d.recent, err = images.SourceStats(gctx, time.Now().Add(-24*time.Hour))
		return err
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("❌ Dashboard failed: %v", err)
	}

	d.print(os.Stdout, !*skipProbe)
}

func (d *dashboard) print(out io.Writer, probed bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	if probed {
		_, _ = fmt.Fprintf(w, "Provider probe\t%s\t(%s, fallback=%t)\n",
			d.probe.Source.DisplayName(), d.probeIn.Round(time.Millisecond), d.probe.Fallback)
		for _, a := range d.probe.Attempts {
			_, _ = fmt.Fprintf(w, "  %s #%d\t%s\t%s\n", a.Provider, a.Attempt, a.Outcome, a.Reason)
		}
		_, _ = fmt.Fprintln(w)
	}

	var total, fallback int64
	_, _ = fmt.Fprintln(w, "Source\tImages")
	for _, c := range d.totals {
		total += c.Count
		if c.Source == models.SourceMock {
			fallback += c.Count
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\n", c.Source.DisplayName(), c.Count)
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "Last 24h\tImages\tAvg size")
	for _, s := range d.recent {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.1f KiB\n", s.Source.DisplayName(), s.Count, s.AvgFileSize/1024)
	}
	_, _ = fmt.Fprintln(w)

	if total == 0 {
		_, _ = fmt.Fprintln(w, "No images generated yet.")
		return
	}
	ratio := float64(fallback) / float64(total)
	_, _ = fmt.Fprintf(w, "Fallback rate\t%.0f%%\n", ratio*100)
	if ratio > fallbackWarnRatio {
		_, _ = fmt.Fprintln(w, "Recommendation\tmost images come from the fallback generator; check provider API tokens and quotas")
	} else {
		_, _ = fmt.Fprintln(w, "Recommendation\tprovider chain looks healthy")
	}
}
