package shell

import "strconv"

// Command is a main menu selection.
type Command int

const (
	CmdLoadFirst Command = iota + 1
	CmdLoadSecond
	CmdCompare
	CmdExtremeDays
	CmdTopDays
	CmdDatesFirst
	CmdDatesSecond
	CmdReserved
	CmdQuit
)

var commandNames = map[Command]string{
	CmdLoadFirst:   "load_first",
	CmdLoadSecond:  "load_second",
	CmdCompare:     "compare",
	CmdExtremeDays: "extreme_days",
	CmdTopDays:     "top_days",
	CmdDatesFirst:  "dates_first",
	CmdDatesSecond: "dates_second",
	CmdReserved:    "reserved",
	CmdQuit:        "quit",
}

// String returns the metric label for the command.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "invalid"
}

// parseCommand converts raw menu input. ok is false when the input is not a
// whole number; a number outside the menu yields a Command whose String is
// "invalid".
func parseCommand(input string) (cmd Command, ok bool) {
	n, err := strconv.Atoi(input)
	if err != nil {
		return 0, false
	}
	return Command(n), true
}
