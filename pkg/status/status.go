// Package status defines the four-level monitoring status scale shared by
// every check in this repository.
package status

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is a monitoring status. Higher values are worse; Unknown ranks
// above Critical so that Max never hides an unexplained state.
type Severity int

const (
	OK Severity = iota
	Warning
	Critical
	Unknown
)

var names = [...]string{"OK", "WARNING", "CRITICAL", "UNKNOWN"}

// String returns the upper-case plugin name of the severity.
func (s Severity) String() string {
	if s < OK || s > Unknown {
		return names[Unknown]
	}
	return names[s]
}

// ExitCode returns the conventional plugin exit code for the severity.
func (s Severity) ExitCode() int {
	if s < OK || s > Unknown {
		return int(Unknown)
	}
	return int(s)
}

// ParseSeverity accepts the plugin names case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OK":
		return OK, nil
	case "WARNING", "WARN":
		return Warning, nil
	case "CRITICAL", "CRIT":
		return Critical, nil
	case "UNKNOWN":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("invalid severity %q", s)
}

// MarshalJSON renders the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Max returns the worst of the given severities, OK for none.
func Max(sevs ...Severity) Severity {
	worst := OK
	for _, s := range sevs {
		if s < OK || s > Unknown {
			s = Unknown
		}
		if s > worst {
			worst = s
		}
	}
	return worst
}

// Line renders a single plugin output line, e.g. "MDRAID OK - md0 - clean".
func Line(plugin string, s Severity, msg string) string {
	line := strings.ToUpper(plugin) + " " + s.String()
	if msg == "" {
		return line
	}
	return line + " - " + msg
}
