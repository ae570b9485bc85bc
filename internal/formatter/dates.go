package formatter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a VDATE answer cannot be read as a date.
var ErrInvalidDate = errors.New("formatter: invalid date")

// DefaultDateFormat is used by {{DATE}} and {{VDATE:name}}.
const DefaultDateFormat = "YYYY-MM-DD"

// dateTokens lists the Moment-style tokens understood by FormatDate,
// longest first so that "MMMM" wins over "MM".
var dateTokens = []string{
	"YYYY", "YY",
	"MMMM", "MMM", "MM", "M",
	"dddd", "ddd",
	"Do", "DD", "D",
	"HH", "H", "hh", "h",
	"mm", "m",
	"ss", "s",
	"SSS",
	"A", "a",
	"ZZ", "Z",
	"X", "x",
	"ww", "w",
	"Q",
}

// FormatDate renders t with a Moment-style format string, e.g.
// "YYYY-MM-DD HH:mm" or "dddd, MMMM Do". Text in square brackets is copied
// literally; any other character that is not part of a token is copied
// as is.
func FormatDate(t time.Time, format string) string {
	var b strings.Builder
	for i := 0; i < len(format); {
		if format[i] == '[' {
			if end := strings.IndexByte(format[i+1:], ']'); end >= 0 {
				b.WriteString(format[i+1 : i+1+end])
				i += end + 2
				continue
			}
		}
		tok := matchToken(format[i:])
		if tok == "" {
			b.WriteByte(format[i])
			i++
			continue
		}
		b.WriteString(renderToken(t, tok))
		i += len(tok)
	}
	return b.String()
}

func matchToken(s string) string {
	for _, tok := range dateTokens {
		if strings.HasPrefix(s, tok) {
			return tok
		}
	}
	return ""
}

func renderToken(t time.Time, tok string) string {
	switch tok {
	case "YYYY":
		return t.Format("2006")
	case "YY":
		return t.Format("06")
	case "MMMM":
		return t.Format("January")
	case "MMM":
		return t.Format("Jan")
	case "MM":
		return t.Format("01")
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "dddd":
		return t.Format("Monday")
	case "ddd":
		return t.Format("Mon")
	case "Do":
		return ordinal(t.Day())
	case "DD":
		return t.Format("02")
	case "D":
		return strconv.Itoa(t.Day())
	case "HH":
		return t.Format("15")
	case "H":
		return strconv.Itoa(t.Hour())
	case "hh":
		return t.Format("03")
	case "h":
		return t.Format("3")
	case "mm":
		return t.Format("04")
	case "m":
		return strconv.Itoa(t.Minute())
	case "ss":
		return t.Format("05")
	case "s":
		return strconv.Itoa(t.Second())
	case "SSS":
		return fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
	case "A":
		return t.Format("PM")
	case "a":
		return t.Format("pm")
	case "ZZ":
		return t.Format("-0700")
	case "Z":
		return t.Format("-07:00")
	case "X":
		return strconv.FormatInt(t.Unix(), 10)
	case "x":
		return strconv.FormatInt(t.UnixMilli(), 10)
	case "ww":
		_, w := t.ISOWeek()
		return fmt.Sprintf("%02d", w)
	case "w":
		_, w := t.ISOWeek()
		return strconv.Itoa(w)
	case "Q":
		return strconv.Itoa((int(t.Month())-1)/3 + 1)
	}
	return tok
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// splitDateArg splits the text after DATE into a format and a day offset:
// "", "+3", ":YYYY", ":YYYY-MM-DD+3".
func splitDateArg(rest string) (format string, offset int, ok bool) {
	format = DefaultDateFormat
	switch {
	case rest == "":
		return format, 0, true
	case strings.HasPrefix(rest, "+"):
		n, err := strconv.Atoi(rest[1:])
		if err != nil {
			return "", 0, false
		}
		return format, n, true
	case strings.HasPrefix(rest, ":"):
		body := rest[1:]
		if i := strings.LastIndexByte(body, '+'); i >= 0 {
			if n, err := strconv.Atoi(body[i+1:]); err == nil {
				body, offset = body[:i], n
			}
		}
		if strings.TrimSpace(body) != "" {
			format = body
		}
		return format, offset, true
	}
	return "", 0, false
}

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseDate reads a user-typed date relative to now: "today", "now",
// "tomorrow", "yesterday", "+N"/"-N" days, "in N days", ISO dates and a few
// written forms. Dates without a time keep now's location at midnight.
func ParseDate(input string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch s {
	case "":
		return time.Time{}, ErrInvalidDate
	case "now":
		return now, nil
	case "today":
		return midnight, nil
	case "tomorrow":
		return midnight.AddDate(0, 0, 1), nil
	case "yesterday":
		return midnight.AddDate(0, 0, -1), nil
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		if n, err := strconv.Atoi(s); err == nil {
			return midnight.AddDate(0, 0, n), nil
		}
	}
	if rest, ok := strings.CutPrefix(s, "in "); ok {
		fields := strings.Fields(rest)
		if len(fields) == 2 && strings.HasPrefix(fields[1], "day") {
			if n, err := strconv.Atoi(fields[0]); err == nil {
				return midnight.AddDate(0, 0, n), nil
			}
		}
	}
	raw := strings.TrimSpace(input)
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, input)
}
