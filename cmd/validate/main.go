// Command validate runs a live end-to-end check for one zip code against the
// configured geocoder and archive: resolve, load, ordering, threshold and
// top-N invariants, and rollback of a rejected date change.
//
// Usage:
//
//	go run ./cmd/validate -zip 94041
//	go run ./cmd/validate -zip 10001 -start 2000-01-01 -end 2000-12-31
package main

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/couchcryptid/historical-temps/internal/adapter/openmeteo"
	"github.com/couchcryptid/historical-temps/internal/config"
	"github.com/couchcryptid/historical-temps/internal/domain"
	"github.com/couchcryptid/historical-temps/internal/observability"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	zip := flag.String("zip", "94041", "US zip code to validate")
	start := flag.String("start", cfg.DefaultStartDate, "range start (YYYY-MM-DD)")
	end := flag.String("end", cfg.DefaultEndDate, "range end (YYYY-MM-DD)")
	top := flag.Int("top", cfg.TopDays, "number of hottest days to check")
	flag.Parse()

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetricsForTesting()
	resolver := openmeteo.NewGeocoder(cfg.GeocodingBaseURL, cfg.HTTPTimeout, cfg.BreakerMaxFailures, metrics, logger)
	archive := openmeteo.NewArchive(cfg.ArchiveBaseURL, cfg.ArchiveTimezone, cfg.HTTPTimeout, cfg.BreakerMaxFailures, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := domain.DateRange{Start: *start, End: *end}
	if code := run(ctx, os.Stdout, *zip, r, *top, resolver, archive, logger); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, out io.Writer, zip string, r domain.DateRange, top int, resolver domain.LocationResolver, loader domain.SeriesLoader, logger *slog.Logger) int {
	fmt.Fprintf(out, "=== Historical Temperature Validation: %s ===\n\n", zip)

	resolve := &phase{name: "Phase 1: Resolve zip code"}
	load := &phase{name: "Phase 2: Load series"}
	order := &phase{name: "Phase 3: Chronological order"}
	queries := &phase{name: "Phase 4: Threshold and top-N queries"}
	rollback := &phase{name: "Phase 5: Rejected date change rollback"}
	phases := []*phase{resolve, load, order, queries, rollback}

	loc, err := resolver.Resolve(ctx, zip)
	if err != nil {
		resolve.errorf("resolve %s: %v", zip, err)
	} else if !loc.Valid() {
		resolve.errorf("non-finite coordinates %v,%v", loc.Latitude, loc.Longitude)
	}

	var d *domain.Dataset
	if resolve.passed() {
		d, err = domain.NewDataset(ctx, zip, resolver, loader, domain.WithRange(r), domain.WithLogger(logger))
		switch {
		case err != nil:
			load.errorf("load %s..%s: %v", r.Start, r.End, err)
		case d.Len() == 0:
			load.errorf("series for %s..%s is empty", r.Start, r.End)
		}
	} else {
		load.errorf("skipped: zip code did not resolve")
	}

	if d != nil {
		validateOrder(order, d)
		validateQueries(queries, d, top)
		validateRollback(ctx, rollback, d)
	} else {
		for _, p := range phases[2:] {
			p.errorf("skipped: no dataset")
		}
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	if d != nil {
		fmt.Fprintf(out, "\nLocation: %s (%.4f, %.4f)\n", d.DisplayName(), d.Location().Latitude, d.Location().Longitude)
		fmt.Fprintf(out, "Days loaded: %s for %s..%s\n", humanize.Comma(int64(d.Len())), d.Range().Start, d.Range().End)
		if avg, err := d.AverageTemperature(); err == nil {
			fmt.Fprintf(out, "Average maximum: %.2f C\n", avg)
		}
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func validateOrder(p *phase, d *domain.Dataset) {
	series := d.Series()
	if !domain.IsChronological(series) {
		for i := 1; i < len(series); i++ {
			if series[i].Date <= series[i-1].Date {
				p.errorf("point %d (%s) does not follow %s", i, series[i].Date, series[i-1].Date)
				return
			}
		}
	}
	r := d.Range()
	if len(series) > 0 && (series[0].Date < r.Start || series[len(series)-1].Date > r.End) {
		p.errorf("series %s..%s falls outside requested range %s..%s",
			series[0].Date, series[len(series)-1].Date, r.Start, r.End)
	}
}

func validateQueries(p *phase, d *domain.Dataset, top int) {
	series := d.Series()
	topDays := d.TopDays(top)
	if want := min(top, len(series)); len(topDays) != want {
		p.errorf("TopDays(%d) returned %d points, want %d", top, len(topDays), want)
	}
	for i := 1; i < len(topDays); i++ {
		if topDays[i].MaxTempCelsius > topDays[i-1].MaxTempCelsius {
			p.errorf("TopDays not descending at %d: %v > %v", i, topDays[i].MaxTempCelsius, topDays[i-1].MaxTempCelsius)
		}
	}
	if len(topDays) == 0 {
		return
	}

	hottest := topDays[0].MaxTempCelsius
	if above := d.ExtremeDays(hottest); len(above) != 0 {
		p.errorf("ExtremeDays(%v) returned %d points above the hottest day", hottest, len(above))
	}
	coldest := slices.MinFunc(series, func(a, b domain.TemperaturePoint) int {
		return cmp.Compare(a.MaxTempCelsius, b.MaxTempCelsius)
	}).MaxTempCelsius
	below := d.ExtremeDays(coldest - 1)
	if len(below) != len(series) {
		p.errorf("ExtremeDays(%v) returned %d points, want all %d", coldest-1, len(below), len(series))
	}
}

func validateRollback(ctx context.Context, p *phase, d *domain.Dataset) {
	before, n := d.Range(), d.Len()
	err := d.SetStart(ctx, "not-a-date")
	if err == nil {
		p.errorf("SetStart accepted an invalid date")
		return
	}
	if !errors.Is(err, domain.ErrLookup) {
		p.errorf("rejected change returned %v, want a lookup failure", err)
	}
	if d.Range() != before || d.Len() != n {
		p.errorf("rejected change altered the dataset: range %v -> %v, points %d -> %d", before, d.Range(), n, d.Len())
	}
}
