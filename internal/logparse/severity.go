// Package logparse recognises log conventions inside tokenized lines.
package logparse

import (
	"strings"

	"github.com/tinytelemetry/logmine/internal/pattern"
)

// Severity is a normalized log level.
type Severity string

const (
	Unknown Severity = ""
	Trace   Severity = "TRACE"
	Debug   Severity = "DEBUG"
	Info    Severity = "INFO"
	Warn    Severity = "WARN"
	Error   Severity = "ERROR"
	Fatal   Severity = "FATAL"
)

var severityWords = map[string]Severity{
	"TRACE": Trace, "TRAC": Trace, "TRC": Trace,
	"DEBUG": Debug, "DEBU": Debug, "DBG": Debug,
	"INFO": Info, "INF": Info, "NOTICE": Info,
	"WARN": Warn, "WARNING": Warn, "WRN": Warn,
	"ERROR": Error, "ERR": Error, "ERRO": Error,
	"FATAL": Fatal, "FTL": Fatal, "CRITICAL": Fatal, "CRIT": Fatal,
	"PANIC": Fatal, "EMERG": Fatal, "ALERT": Fatal,
}

// levelKeys are the key=value prefixes that introduce a level token.
var levelKeys = []string{"level=", "lvl=", "severity=", "loglevel="}

// Rank orders severities from 0 (unknown) to 6 (fatal).
func (s Severity) Rank() int {
	switch s {
	case Trace:
		return 1
	case Debug:
		return 2
	case Info:
		return 3
	case Warn:
		return 4
	case Error:
		return 5
	case Fatal:
		return 6
	}
	return 0
}

// ParseSeverity reads a single token as a level. It accepts bracketed and
// punctuated forms such as "[warn]" or "ERROR:", and key=value forms such as
// "level=error".
func ParseSeverity(token string) (Severity, bool) {
	t := token
	lower := strings.ToLower(t)
	for _, k := range levelKeys {
		if strings.HasPrefix(lower, k) {
			t = t[len(k):]
			break
		}
	}
	t = strings.Trim(t, `[]()<>{}:;,.|"'`)
	if t == "" {
		return Unknown, false
	}
	s, ok := severityWords[strings.ToUpper(t)]
	return s, ok
}

// SeverityOf returns the level named by the first literal token of p that
// reads as one. Placeholders are skipped: a level that varies between members
// is not a property of the template.
func SeverityOf(p pattern.Pattern) Severity {
	for _, e := range p {
		if e.IsPlaceholder() {
			continue
		}
		if s, ok := ParseSeverity(e.Value()); ok {
			return s
		}
	}
	return Unknown
}
