package shell

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/historical-temps/internal/domain"
	"github.com/dustin/go-humanize"
)

func (sh *Shell) loadDataset(slot Slot) handler {
	return func(ctx context.Context, sess *Session) error {
		zip, err := sh.prompt(ctx, "Please enter a zipcode ")
		if err != nil {
			return err
		}

		d, err := sh.newDataset(ctx, zip)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sh.logger.Warn("dataset load failed", "slot", int(slot)+1, "zip_code", zip, "error", err)
			sh.println("Data could not be loaded. Please check that the zip code" +
				" is correct and that you have a working internet connection")
			return nil
		}

		sess.Put(slot, d)
		sh.metrics.DatasetsLoaded.Set(float64(sess.Loaded()))
		sh.printf("Loaded %s days for %s\n", humanize.Comma(int64(d.Len())), sh.placeName(d))
		return nil
	}
}

func (sh *Shell) compareAverages(_ context.Context, sess *Session) error {
	first, second := sess.Dataset(SlotFirst), sess.Dataset(SlotSecond)
	cmp, err := domain.CompareAverages(first, second)
	switch {
	case errors.Is(err, domain.ErrMissingDataset):
		sh.println("Please load two datasets first")
		return nil
	case errors.Is(err, domain.ErrEmptySeries):
		sh.println("One of the datasets has no temperatures for its date range")
		return nil
	case err != nil:
		return err
	}

	sh.printf("The average maximum temperatures for %s was %.2f degrees Celsius.\n",
		sh.placeName(first), cmp.First.Average)
	sh.printf("The average maximum temperatures for %s was %.2f degrees Celsius.\n",
		sh.placeName(second), cmp.Second.Average)
	return nil
}

func (sh *Shell) extremeDays(ctx context.Context, sess *Session) error {
	d := sess.Dataset(SlotFirst)
	if d == nil {
		sh.println("Please load this dataset first")
		return nil
	}

	input, err := sh.prompt(ctx, "List days above what temperature? ")
	if err != nil {
		return err
	}
	threshold, err := strconv.ParseFloat(input, 64)
	if err != nil {
		sh.println("Please enter a valid temperature")
		return nil
	}

	days := d.ExtremeDays(threshold)
	sh.printf("There are %s days above %s in %s\n",
		humanize.Comma(int64(len(days))), formatTemp(threshold), sh.placeName(d))
	for _, p := range days {
		sh.printf("%s: %s\n", p.Date, formatTemp(p.MaxTempCelsius))
	}
	return nil
}

func (sh *Shell) topDaysReport(_ context.Context, sess *Session) error {
	d := sess.Dataset(SlotFirst)
	if d == nil {
		sh.println("Please load this dataset first")
		return nil
	}

	r := d.Range()
	sh.printf("Following are the hottest %s days in %s on record from %s to %s\n",
		countWord(sh.topDays), sh.placeName(d), r.Start, r.End)
	for _, p := range d.TopDays(sh.topDays) {
		sh.printf("Date %s: %s\n", p.Date, formatTemp(p.MaxTempCelsius))
	}
	return nil
}

// changeDates prompts for a new start date and then a new end date. A
// rejected start date skips the end date prompt.
func (sh *Shell) changeDates(slot Slot) handler {
	return func(ctx context.Context, sess *Session) error {
		d := sess.Dataset(slot)
		if d == nil {
			sh.println("Please load this dataset first")
			return nil
		}

		start, err := sh.prompt(ctx, "Please enter a new start date (YYYY-MM-DD): ")
		if err != nil {
			return err
		}
		if err := d.SetStart(ctx, start); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sh.metrics.DateChangeRollbacks.Inc()
			sh.printf("Start date could not be changed. Please check that the start date is in the"+
				" correct format and is before the current end date of %s\n", d.Range().End)
			return nil
		}
		sess.publish()

		end, err := sh.prompt(ctx, "Please enter a new end date (YYYY-MM-DD): ")
		if err != nil {
			return err
		}
		if err := d.SetEnd(ctx, end); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sh.metrics.DateChangeRollbacks.Inc()
			sh.printf("End date could not be changed. Please check that the end date is in the"+
				" correct format and is after the current start date of %s\n", d.Range().Start)
			return nil
		}
		sess.publish()
		return nil
	}
}

func (sh *Shell) reserved(context.Context, *Session) error {
	sh.println("Selection eight is not functional yet")
	return nil
}

func (sh *Shell) quit(context.Context, *Session) error {
	sh.println("Goodbye!  Thank you for using the database")
	return errQuit
}

// formatTemp prints a temperature with the shortest exact representation,
// keeping one decimal place for whole degrees ("30.0", "24.15").
func formatTemp(c float64) string {
	out := strconv.FormatFloat(c, 'f', -1, 64)
	if math.IsInf(c, 0) || math.IsNaN(c) || strings.Contains(out, ".") {
		return out
	}
	return out + ".0"
}

var smallCounts = [...]string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}

// countWord spells out counts up to ten and uses digits above that.
func countWord(n int) string {
	if n >= 0 && n < len(smallCounts) {
		return smallCounts[n]
	}
	return humanize.Comma(int64(n))
}
