// Package shell implements the interactive text menu around temperature datasets.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/historical-temps/internal/domain"
	"github.com/couchcryptid/historical-temps/internal/observability"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DatasetFactory builds a dataset for a zip code.
type DatasetFactory func(ctx context.Context, zipCode string) (*domain.Dataset, error)

// NewDatasetFactory returns a factory that resolves and loads datasets over r.
func NewDatasetFactory(resolver domain.LocationResolver, loader domain.SeriesLoader, r domain.DateRange, logger *slog.Logger) DatasetFactory {
	return func(ctx context.Context, zipCode string) (*domain.Dataset, error) {
		return domain.NewDataset(ctx, zipCode, resolver, loader, domain.WithRange(r), domain.WithLogger(logger))
	}
}

// errQuit ends the menu loop normally.
var errQuit = errors.New("quit")

type handler func(ctx context.Context, sess *Session) error

// Shell reads menu selections and prints results. Handlers only return input
// errors (EOF, cancellation) or errQuit; everything else becomes a message.
type Shell struct {
	out        io.Writer
	in         *lineReader
	session    *Session
	newDataset DatasetFactory
	topDays    int
	title      cases.Caser
	handlers   map[Command]handler
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// New creates a shell reading from in and writing to out. topDays is the
// number of rows shown for the hottest-days listing.
func New(in io.Reader, out io.Writer, factory DatasetFactory, topDays int, metrics *observability.Metrics, logger *slog.Logger) *Shell {
	sh := &Shell{
		out:        out,
		in:         newLineReader(in),
		session:    NewSession(),
		newDataset: factory,
		topDays:    topDays,
		title:      cases.Title(language.English),
		metrics:    metrics,
		logger:     logger,
	}
	sh.handlers = map[Command]handler{
		CmdLoadFirst:   sh.loadDataset(SlotFirst),
		CmdLoadSecond:  sh.loadDataset(SlotSecond),
		CmdCompare:     sh.compareAverages,
		CmdExtremeDays: sh.extremeDays,
		CmdTopDays:     sh.topDaysReport,
		CmdDatesFirst:  sh.changeDates(SlotFirst),
		CmdDatesSecond: sh.changeDates(SlotSecond),
		CmdReserved:    sh.reserved,
		CmdQuit:        sh.quit,
	}
	return sh
}

// Session returns the session driven by this shell.
func (sh *Shell) Session() *Session {
	return sh.session
}

// Run greets the user and serves the menu until the user quits or input ends.
// A cancelled context ends the loop with the context's error.
func (sh *Shell) Run(ctx context.Context) error {
	defer sh.in.close()

	name, err := sh.prompt(ctx, "Please enter your name: ")
	if err != nil {
		return endOfInput(err)
	}
	sh.printf("Hi %s, let's explore some historical temperatures.\n", name)

	for {
		sh.printMenu()
		choice, err := sh.prompt(ctx, "What is your choice? ")
		if err != nil {
			return endOfInput(err)
		}

		cmd, ok := parseCommand(choice)
		if !ok {
			sh.metrics.ShellCommands.WithLabelValues("not_a_number").Inc()
			sh.println("Please enter a number only")
			continue
		}
		h, ok := sh.handlers[cmd]
		sh.metrics.ShellCommands.WithLabelValues(cmd.String()).Inc()
		if !ok {
			sh.println("That wasn't a valid selection")
			continue
		}

		if err := h(ctx, sh.session); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return endOfInput(err)
		}
	}
}

// endOfInput treats exhausted input as a normal quit.
func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (sh *Shell) printMenu() {
	sh.println("Main Menu")
	if d := sh.session.Dataset(SlotFirst); d != nil {
		sh.printf("1 - Replace %s\n", sh.placeName(d))
	} else {
		sh.println("1 - Load dataset one")
	}
	if d := sh.session.Dataset(SlotSecond); d != nil {
		sh.printf("2 - Replace %s\n", sh.placeName(d))
	} else {
		sh.println("2 - Load dataset two")
	}
	sh.println("3 - Compare average temperatures")
	sh.println("4 - Dates above threshold temperature")
	sh.println("5 - Highest historical dates")
	sh.println("6 - Change start and end dates for dataset one")
	sh.println("7 - Change start and end dates for dataset two")
	sh.println("9 - Quit")
}

// placeName returns the title-cased place name, or the zip code when the
// provider returned no name.
func (sh *Shell) placeName(d *domain.Dataset) string {
	if d.DisplayName() == "" {
		return d.ZipCode()
	}
	return sh.title.String(d.DisplayName())
}

// prompt asks for one line, asking again after an oversized line.
func (sh *Shell) prompt(ctx context.Context, text string) (string, error) {
	for {
		fmt.Fprint(sh.out, text)
		line, err := sh.in.next(ctx)
		if !errors.Is(err, errLineTooLong) {
			return line, err
		}
		sh.logger.Warn("discarded oversized input line", "limit_bytes", maxLineBytes)
		sh.println("That input was too long, please try again")
	}
}

func (sh *Shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format, args...)
}

func (sh *Shell) println(text string) {
	fmt.Fprintln(sh.out, text)
}
