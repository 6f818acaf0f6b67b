package investigate

import (
	"fmt"
	"sync"
	"time"

	"listing-trust-eval/internal/util"
)

// Agent names the pipeline stage that wrote a log line.
type Agent string

const (
	AgentInvestigator Agent = "INVESTIGATOR"
	AgentAuditor      Agent = "AUDITOR"
)

// LogEntry is one timestamped line of agent activity.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Agent   Agent     `json:"agent"`
	Message string    `json:"message"`
}

// String renders the entry as "[15:04:05] [AGENT] message".
func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] [%s] %s", e.Time.Format("15:04:05"), e.Agent, e.Message)
}

// agentLog collects entries for one run and forwards each to the observer as it is written.
type agentLog struct {
	mu      sync.Mutex
	clock   util.Clock
	entries []LogEntry
	emit    func(LogEntry)
}

func (l *agentLog) add(agent Agent, format string, args ...any) {
	entry := LogEntry{Time: l.clock(), Agent: agent, Message: fmt.Sprintf(format, args...)}
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
	if l.emit != nil {
		l.emit(entry)
	}
}

func (l *agentLog) snapshot() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Lines renders log entries in display form.
func Lines(entries []LogEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.String())
	}
	return out
}
