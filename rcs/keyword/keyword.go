// Package keyword expands and resets RCS "$Keyword$" markers in text lines.
package keyword

import (
	"regexp"
	"time"
)

// DateLayout is the layout of dates inside expanded keywords.
const DateLayout = "2006/01/02 15:04:05"

// Info carries the revision data substituted into keywords.
type Info struct {
	Source   string // full archive path
	RCSFile  string // archive file name without directories
	Revision string
	Date     time.Time
	Author   string
	State    string
	Locker   string
}

// Formatter expands keywords on checkout and strips them on check-in.
type Formatter interface {
	// Update substitutes revision values into every keyword of line.
	Update(line string, info Info) string
	// Reset returns every keyword of line to its bare "$Keyword$" form.
	Reset(line string) string
}

type keyword struct {
	name  string
	re    *regexp.Regexp
	value func(Info) string
}

func newKeyword(name string, value func(Info) string) keyword {
	return keyword{
		name:  name,
		re:    regexp.MustCompile(`\$` + name + `(:[^$]*)?\$`),
		value: value,
	}
}

// Name and Log are recognised for Reset only.
var keywords = []keyword{
	newKeyword("Id", func(i Info) string {
		return trailLocker(i.RCSFile+" "+i.Revision+" "+formatDate(i.Date)+" "+i.Author+" "+i.State, i.Locker)
	}),
	newKeyword("Header", func(i Info) string {
		return trailLocker(i.Source+" "+i.Revision+" "+formatDate(i.Date)+" "+i.Author+" "+i.State, i.Locker)
	}),
	newKeyword("Source", func(i Info) string { return i.Source }),
	newKeyword("RCSfile", func(i Info) string { return i.RCSFile }),
	newKeyword("Revision", func(i Info) string { return i.Revision }),
	newKeyword("Date", func(i Info) string { return formatDate(i.Date) }),
	newKeyword("Author", func(i Info) string { return i.Author }),
	newKeyword("State", func(i Info) string { return i.State }),
	newKeyword("Locker", func(i Info) string { return i.Locker }),
	newKeyword("Name", nil),
	newKeyword("Log", nil),
}

func formatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func trailLocker(s, locker string) string {
	if locker == "" {
		return s
	}
	return s + " " + locker
}

func reset(line string) string {
	for _, k := range keywords {
		bare := "$" + k.name + "$"
		line = k.re.ReplaceAllLiteralString(line, bare)
	}
	return line
}

func update(line string, info Info, render func(name, value string) string) string {
	for _, k := range keywords {
		if k.value == nil {
			continue
		}
		line = k.re.ReplaceAllLiteralString(line, render(k.name, k.value(info)))
	}
	return line
}

// KeywordAndValue expands to "$Keyword: value $" (mode kv).
type KeywordAndValue struct{}

func (KeywordAndValue) Update(line string, info Info) string {
	return update(line, info, func(name, value string) string {
		return "$" + name + ": " + value + " $"
	})
}

func (KeywordAndValue) Reset(line string) string { return reset(line) }

// KeywordOnly keeps keywords bare (mode k).
type KeywordOnly struct{}

func (KeywordOnly) Update(line string, _ Info) string { return reset(line) }

func (KeywordOnly) Reset(line string) string { return reset(line) }

// ValueOnly replaces each keyword with its value alone (mode v). Text
// expanded this way cannot be reset.
type ValueOnly struct{}

func (ValueOnly) Update(line string, info Info) string {
	return update(line, info, func(_, value string) string { return value })
}

func (ValueOnly) Reset(line string) string { return reset(line) }

// ForMode returns the formatter for an RCS expansion mode, or nil for modes
// that leave text untouched ("o" and "b").
func ForMode(mode string) Formatter {
	switch mode {
	case "", "kv", "kvl":
		return KeywordAndValue{}
	case "k":
		return KeywordOnly{}
	case "v":
		return ValueOnly{}
	default:
		return nil
	}
}

// ValidMode reports whether mode is an RCS expansion mode.
func ValidMode(mode string) bool {
	switch mode {
	case "", "kv", "kvl", "k", "v", "o", "b":
		return true
	}
	return false
}
