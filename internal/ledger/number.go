package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const entryNumberDateFormat = "20060102"

// EntryNumberPrefix returns the shared prefix for all entry numbers on a
// given date, e.g. "JE-20240101-".
func EntryNumberPrefix(date time.Time) string {
	return fmt.Sprintf("JE-%s-", date.Format(entryNumberDateFormat))
}

// FormatEntryNumber renders an entry number, e.g. "JE-20240101-003".
func FormatEntryNumber(date time.Time, seq int) string {
	return fmt.Sprintf("%s%03d", EntryNumberPrefix(date), seq)
}

// NextEntryNumber computes the successor of the highest existing entry
// number for a company/day. last is the lexicographically greatest existing
// number with the day's prefix, or empty when the day has no entries yet.
func NextEntryNumber(last string, date time.Time) string {
	return FormatEntryNumber(date, parseSequence(last)+1)
}

// parseSequence extracts the trailing sequence of an entry number. Malformed
// numbers count as sequence zero so allocation restarts at 001.
func parseSequence(number string) int {
	if number == "" {
		return 0
	}
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0
	}
	seq, err := strconv.Atoi(number[idx+1:])
	if err != nil || seq < 0 {
		return 0
	}
	return seq
}
