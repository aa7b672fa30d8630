package shell

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/historical-temps/internal/domain"
	"github.com/couchcryptid/historical-temps/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stubs ---

type stubResolver map[string]domain.Location

func (s stubResolver) Resolve(_ context.Context, zip string) (domain.Location, error) {
	loc, ok := s[zip]
	if !ok {
		return domain.Location{}, fmt.Errorf("%w: no match for %q", domain.ErrLookup, zip)
	}
	return loc, nil
}

type stubLoader struct{}

func (stubLoader) LoadSeries(_ context.Context, _ domain.Location, r domain.DateRange) ([]domain.TemperaturePoint, error) {
	if strings.HasPrefix(r.Start, "bad") || strings.HasPrefix(r.End, "bad") {
		return nil, fmt.Errorf("%w: archive rejected request: invalid date", domain.ErrDataFormat)
	}
	if r == domain.DefaultRange() {
		return []domain.TemperaturePoint{
			{Date: "1950-08-13", MaxTempCelsius: 24.1},
			{Date: "1950-08-14", MaxTempCelsius: 27.5},
			{Date: "1950-08-15", MaxTempCelsius: 22.0},
		}, nil
	}
	return []domain.TemperaturePoint{{Date: r.Start, MaxTempCelsius: 30}}, nil
}

var testResolver = stubResolver{
	"94041": {Latitude: 37.39, Longitude: -122.08, DisplayName: "mountain view"},
	"10001": {Latitude: 40.75, Longitude: -73.99, DisplayName: "New York"},
	"99999": {Latitude: 10, Longitude: 10},
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestShell(input string) (*Shell, *bytes.Buffer, *observability.Metrics) {
	out := &bytes.Buffer{}
	m := observability.NewMetricsForTesting()
	factory := NewDatasetFactory(testResolver, stubLoader{}, domain.DefaultRange(), discardLogger())
	return New(strings.NewReader(input), out, factory, 2, m, discardLogger()), out, m
}

func script(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func runShell(t *testing.T, input string) (*Shell, string, *observability.Metrics) {
	t.Helper()
	sh, out, m := newTestShell(input)
	require.NoError(t, sh.Run(context.Background()))
	return sh, out.String(), m
}

// --- menu loop ---

func TestRun_GreetsAndQuits(t *testing.T) {
	_, out, m := runShell(t, script("Ada", "9"))

	assert.Contains(t, out, "Please enter your name: ")
	assert.Contains(t, out, "Hi Ada, let's explore some historical temperatures.")
	assert.Contains(t, out, "1 - Load dataset one")
	assert.Contains(t, out, "2 - Load dataset two")
	assert.Contains(t, out, "Goodbye!  Thank you for using the database")
	assert.InDelta(t, 1, testutil.ToFloat64(m.ShellCommands.WithLabelValues("quit")), 0)
}

func TestRun_EOFQuits(t *testing.T) {
	_, out, _ := runShell(t, script("Ada"))
	assert.Contains(t, out, "What is your choice? ")
	assert.NotContains(t, out, "Goodbye")
}

func TestRun_EmptyInputQuits(t *testing.T) {
	_, out, _ := runShell(t, "")
	assert.Equal(t, "Please enter your name: ", out)
}

func TestRun_RejectsBadSelections(t *testing.T) {
	_, out, m := runShell(t, script("Ada", "abc", "42", "0", "9"))

	assert.Equal(t, 1, strings.Count(out, "Please enter a number only"))
	assert.Equal(t, 2, strings.Count(out, "That wasn't a valid selection"))
	assert.InDelta(t, 1, testutil.ToFloat64(m.ShellCommands.WithLabelValues("not_a_number")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ShellCommands.WithLabelValues("invalid")), 0)
}

func TestRun_ReservedSelection(t *testing.T) {
	_, out, _ := runShell(t, script("Ada", "8", "9"))
	assert.Contains(t, out, "Selection eight is not functional yet")
}

func TestRun_CancelledContext(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	out := &bytes.Buffer{}
	factory := NewDatasetFactory(testResolver, stubLoader{}, domain.DefaultRange(), discardLogger())
	sh := New(pr, out, factory, 5, observability.NewMetricsForTesting(), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sh.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("shell did not stop on cancellation")
	}
}

func TestRun_OversizedLineIsRejected(t *testing.T) {
	huge := strings.Repeat("x", 70*1024)
	_, out, m := runShell(t, script("Ann", huge, "9"))

	assert.Equal(t, 1, strings.Count(out, "That input was too long, please try again"))
	assert.Equal(t, 2, strings.Count(out, "What is your choice? "))
	assert.Contains(t, out, "Goodbye!  Thank you for using the database")
	assert.NotContains(t, out, "xxxx")
	assert.InDelta(t, 1, testutil.ToFloat64(m.ShellCommands.WithLabelValues("quit")), 0)
}

func TestRun_OversizedZipThenValidSession(t *testing.T) {
	huge := strings.Repeat("9", 200*1024)
	sh, out, _ := runShell(t, script("Ann", "1", huge, "94041", "9"))

	assert.Equal(t, 2, strings.Count(out, "Please enter a zipcode "))
	assert.Contains(t, out, "1 - Replace Mountain View")
	require.NotNil(t, sh.Session().Dataset(SlotFirst))
}

func TestRun_LastLineWithoutNewline(t *testing.T) {
	_, out, _ := runShell(t, "Ann\n9")
	assert.Contains(t, out, "Goodbye!  Thank you for using the database")
}

func TestReadLine(t *testing.T) {
	br := bufio.NewReaderSize(strings.NewReader("short\r\n"+strings.Repeat("y", maxLineBytes+10)+"\nafter"), 16)

	line, _, err := readLine(br)
	require.NoError(t, err)
	assert.Equal(t, "short\r\n", line.text)
	assert.False(t, line.tooLong)

	line, n, err := readLine(br)
	require.NoError(t, err)
	assert.True(t, line.tooLong)
	assert.Empty(t, line.text)
	assert.Equal(t, maxLineBytes+11, n)

	line, _, err = readLine(br)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "after", line.text)
}

// --- loading ---

func TestLoad_ReplacesMenuLabel(t *testing.T) {
	sh, out, m := runShell(t, script("Ada", "1", "94041", "9"))

	assert.Contains(t, out, "Loaded 3 days for Mountain View")
	assert.Contains(t, out, "1 - Replace Mountain View")
	assert.Contains(t, out, "2 - Load dataset two")
	assert.InDelta(t, 1, testutil.ToFloat64(m.DatasetsLoaded), 0)
	require.NotNil(t, sh.Session().Dataset(SlotFirst))
	assert.Equal(t, "94041", sh.Session().Dataset(SlotFirst).ZipCode())
}

func TestLoad_MissingPlaceNameFallsBackToZip(t *testing.T) {
	_, out, _ := runShell(t, script("Ada", "2", "99999", "9"))
	assert.Contains(t, out, "2 - Replace 99999")
}

func TestLoad_FailureKeepsSlot(t *testing.T) {
	sh, out, m := runShell(t, script("Ada", "1", "94041", "1", "00000", "9"))

	assert.Contains(t, out, "Data could not be loaded. Please check that the zip code is correct and that you have a working internet connection")
	require.NotNil(t, sh.Session().Dataset(SlotFirst))
	assert.Equal(t, "94041", sh.Session().Dataset(SlotFirst).ZipCode())
	assert.InDelta(t, 1, testutil.ToFloat64(m.DatasetsLoaded), 0)
}

func TestLoad_UpdatesReadinessAndStatus(t *testing.T) {
	sh, _, _ := newTestShell(script("Ada", "1", "94041", "2", "10001", "9"))
	require.Error(t, sh.Session().CheckReadiness(context.Background()))

	require.NoError(t, sh.Run(context.Background()))

	require.NoError(t, sh.Session().CheckReadiness(context.Background()))
	status, ok := sh.Session().Status().(SessionStatus)
	require.True(t, ok)
	assert.Equal(t, 2, status.DatasetsLoaded)
	require.Len(t, status.Slots, 2)
	assert.Equal(t, 1, status.Slots[0].Slot)
	assert.Equal(t, "94041", status.Slots[0].ZipCode)
	assert.Equal(t, 3, status.Slots[0].Points)
	assert.Equal(t, "New York", status.Slots[1].Place)
	assert.Equal(t, domain.DefaultStartDate, status.Slots[1].Start)
}

// --- queries ---

func TestCompare_NeedsTwoDatasets(t *testing.T) {
	_, out, _ := runShell(t, script("Ada", "3", "1", "94041", "3", "9"))

	assert.Equal(t, 2, strings.Count(out, "Please load two datasets first"))
	assert.NotContains(t, out, "The average maximum temperatures")
}

func TestCompare_PrintsRoundedAverages(t *testing.T) {
	_, out, _ := runShell(t, script("Ada", "1", "94041", "2", "10001", "3", "9"))

	assert.Contains(t, out, "The average maximum temperatures for Mountain View was 24.53 degrees Celsius.")
	assert.Contains(t, out, "The average maximum temperatures for New York was 24.53 degrees Celsius.")
}

func TestExtremeDays(t *testing.T) {
	_, out, _ := runShell(t, script("Ada", "1", "94041", "4", "24", "9"))

	assert.Contains(t, out, "There are 2 days above 24.0 in Mountain View")
	assert.Contains(t, out, "1950-08-13: 24.1\n")
	assert.Contains(t, out, "1950-08-14: 27.5\n")
	assert.NotContains(t, out, "1950-08-15: 22")
	assert.Less(t, strings.Index(out, "1950-08-13: 24.1"), strings.Index(out, "1950-08-14: 27.5"))
}

func TestExtremeDays_NoneAbove(t *testing.T) {
	_, out, _ := runShell(t, script("Ada", "1", "94041", "4", "50.5", "9"))
	assert.Contains(t, out, "There are 0 days above 50.5 in Mountain View")
}

func TestExtremeDays_InvalidThreshold(t *testing.T) {
	_, out, _ := runShell(t, script("Ada", "1", "94041", "4", "hot", "9"))
	assert.Contains(t, out, "Please enter a valid temperature")
	assert.NotContains(t, out, "There are")
}

func TestExtremeDays_NeedsDatasetOne(t *testing.T) {
	_, out, _ := runShell(t, script("Ada", "2", "94041", "4", "9"))
	assert.Contains(t, out, "Please load this dataset first")
	assert.NotContains(t, out, "List days above what temperature?")
}

func TestTopDays(t *testing.T) {
	_, out, _ := runShell(t, script("Ada", "1", "94041", "5", "9"))

	assert.Contains(t, out, "Following are the hottest two days in Mountain View on record from 1950-08-13 to 2023-08-25")
	first := strings.Index(out, "Date 1950-08-14: 27.5")
	second := strings.Index(out, "Date 1950-08-13: 24.1")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
	assert.NotContains(t, out, "Date 1950-08-15")
}

func TestTopDays_NeedsDatasetOne(t *testing.T) {
	_, out, _ := runShell(t, script("Ada", "5", "9"))
	assert.Contains(t, out, "Please load this dataset first")
}

// --- date changes ---

func TestChangeDates_CommitsBothDates(t *testing.T) {
	sh, out, m := runShell(t, script("Ada", "1", "94041", "6", "2000-01-01", "2000-12-31", "9"))

	assert.Contains(t, out, "Please enter a new start date (YYYY-MM-DD): ")
	assert.Contains(t, out, "Please enter a new end date (YYYY-MM-DD): ")
	assert.Equal(t, domain.DateRange{Start: "2000-01-01", End: "2000-12-31"}, sh.Session().Dataset(SlotFirst).Range())
	assert.Zero(t, testutil.ToFloat64(m.DateChangeRollbacks))

	status := sh.Session().Status().(SessionStatus)
	assert.Equal(t, "2000-12-31", status.Slots[0].End)
}

func TestChangeDates_RejectedStartSkipsEnd(t *testing.T) {
	sh, out, m := runShell(t, script("Ada", "1", "94041", "6", "bad-date", "9"))

	assert.Contains(t, out, "Start date could not be changed. Please check that the start date is in the correct format and is before the current end date of 2023-08-25")
	assert.NotContains(t, out, "Please enter a new end date")
	assert.Equal(t, domain.DefaultRange(), sh.Session().Dataset(SlotFirst).Range())
	assert.Equal(t, 3, sh.Session().Dataset(SlotFirst).Len())
	assert.InDelta(t, 1, testutil.ToFloat64(m.DateChangeRollbacks), 0)
}

func TestChangeDates_RejectedEndKeepsNewStart(t *testing.T) {
	sh, out, m := runShell(t, script("Ada", "2", "10001", "7", "2001-05-01", "bad-date", "9"))

	assert.Contains(t, out, "End date could not be changed. Please check that the end date is in the correct format and is after the current start date of 2001-05-01")
	assert.Equal(t, domain.DateRange{Start: "2001-05-01", End: domain.DefaultEndDate}, sh.Session().Dataset(SlotSecond).Range())
	assert.InDelta(t, 1, testutil.ToFloat64(m.DateChangeRollbacks), 0)
}

func TestChangeDates_NeedsDataset(t *testing.T) {
	_, out, _ := runShell(t, script("Ada", "7", "9"))
	assert.Contains(t, out, "Please load this dataset first")
	assert.NotContains(t, out, "Please enter a new start date")
}

// --- formatting ---

func TestFormatTemp(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{30, "30.0"},
		{-2, "-2.0"},
		{0, "0.0"},
		{24.1, "24.1"},
		{50.5, "50.5"},
		{24.15, "24.15"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatTemp(tt.in))
	}
}

func TestCountWord(t *testing.T) {
	assert.Equal(t, "five", countWord(5))
	assert.Equal(t, "ten", countWord(10))
	assert.Equal(t, "12", countWord(12))
	assert.Equal(t, "1,500", countWord(1500))
}

func TestTopDays_DefaultCountSpelledOut(t *testing.T) {
	out := &bytes.Buffer{}
	factory := NewDatasetFactory(testResolver, stubLoader{}, domain.DefaultRange(), discardLogger())
	sh := New(strings.NewReader(script("Ada", "1", "94041", "5", "9")), out, factory, 5, observability.NewMetricsForTesting(), discardLogger())
	require.NoError(t, sh.Run(context.Background()))

	assert.Contains(t, out.String(), "Following are the hottest five days in Mountain View on record from 1950-08-13 to 2023-08-25")
	assert.Contains(t, out.String(), "Date 1950-08-15: 22.0\n")
}

// --- commands ---

func TestParseCommand(t *testing.T) {
	cmd, ok := parseCommand("3")
	assert.True(t, ok)
	assert.Equal(t, CmdCompare, cmd)
	assert.Equal(t, "compare", cmd.String())

	cmd, ok = parseCommand("12")
	assert.True(t, ok)
	assert.Equal(t, "invalid", cmd.String())

	_, ok = parseCommand("3.5")
	assert.False(t, ok)
}
