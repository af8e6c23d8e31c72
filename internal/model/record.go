package model

import (
	"errors"
	"strconv"
	"strings"
)

const (
	// DeduplicationIDLength is the fixed length of the client-chosen id.
	DeduplicationIDLength = 10
	// MaxUserAgentLength bounds the user agent header, counted in bytes.
	MaxUserAgentLength = 1000
	// MaxVersionGroups bounds the dotted extension version.
	MaxVersionGroups = 4
)

// ErrInvalidRecord flags a record that failed one or more header checks.
// Responses never reveal which check failed, so a single error covers all.
var ErrInvalidRecord = errors.New("model: invalid log record")

// LogRecord is the one telemetry record the collector accepts. It is built
// from three request headers and either appended to the log file or
// discarded; nothing about it survives the request.
type LogRecord struct {
	DeduplicationID  string
	ExtensionVersion string
	UserAgent        string
}

// Validate runs the three header checks and returns ErrInvalidRecord if any
// of them fails.
func (r LogRecord) Validate() error {
	if !validUserAgent(r.UserAgent) {
		return ErrInvalidRecord
	}
	if !validDeduplicationID(r.DeduplicationID) {
		return ErrInvalidRecord
	}
	if !validExtensionVersion(r.ExtensionVersion) {
		return ErrInvalidRecord
	}
	return nil
}

// Line renders the record in the collector's log format: deduplication id
// and extension version space-separated, then the quoted user agent, all
// values verbatim.
func (r LogRecord) Line() string {
	return r.DeduplicationID + " " + r.ExtensionVersion + " \"" + r.UserAgent + "\""
}

// validUserAgent is a pure length check; any byte content is acceptable.
// Values with control bytes never reach this point because the HTTP server
// refuses malformed header lines.
func validUserAgent(s string) bool {
	return len(s) >= 1 && len(s) <= MaxUserAgentLength
}

// validDeduplicationID requires exactly ten lowercase hex characters.
func validDeduplicationID(s string) bool {
	if len(s) != DeduplicationIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// validExtensionVersion accepts 1 to 4 dot-separated groups, each a decimal
// integer in [0, 65535] with no leading zeros and no empty group (which also
// rules out leading, trailing, and doubled dots).
func validExtensionVersion(s string) bool {
	groups := strings.Split(s, ".")
	if len(groups) > MaxVersionGroups {
		return false
	}
	for _, g := range groups {
		if g == "" {
			return false
		}
		if len(g) > 1 && g[0] == '0' {
			return false
		}
		if _, err := strconv.ParseUint(g, 10, 16); err != nil {
			return false
		}
	}
	return true
}
