// Package logging wires logrus to the places diskplanner logs to.
package logging

import (
	"fmt"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/sirupsen/logrus"
)

// JournalHook forwards logrus entries to the systemd journal.
type JournalHook struct{}

var severityMap = map[logrus.Level]journal.Priority{
	logrus.DebugLevel: journal.PriDebug,
	logrus.InfoLevel:  journal.PriInfo,
	logrus.WarnLevel:  journal.PriWarning,
	logrus.ErrorLevel: journal.PriErr,
	logrus.FatalLevel: journal.PriCrit,
	logrus.PanicLevel: journal.PriEmerg,
}

func fieldKey(key string) string {
	key = strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'a' && r <= 'z':
			return r - 32
		default:
			return '_'
		}
	}, key)
	return strings.TrimPrefix(key, "_")
}

// The journal wants string fields but logrus takes anything.
func fieldEntries(data map[string]interface{}) map[string]string {
	entries := make(map[string]string, len(data))
	for k, v := range data {
		entries[fieldKey(k)] = fmt.Sprint(v)
	}
	return entries
}

func (hook *JournalHook) Fire(entry *logrus.Entry) error {
	return journal.Send(entry.Message, severityMap[entry.Level], fieldEntries(entry.Data))
}

func (hook *JournalHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
		logrus.DebugLevel,
	}
}

// Setup configures the global logger: verbosity, and the journal
// hook when the journal is available.
func Setup(verbose bool, useJournal bool) {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if useJournal && journal.Enabled() {
		logrus.AddHook(&JournalHook{})
		// the hook delivers the message, keep stderr quiet
		logrus.SetOutput(nullWriter{})
	}
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }
