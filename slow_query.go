package ygggo_cassandra

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// SlowQueryRecord is one captured slow statement.
type SlowQueryRecord struct {
	Statement  string        `json:"statement"`
	Normalized string        `json:"normalized"`
	Duration   time.Duration `json:"duration"`
	Timestamp  time.Time     `json:"timestamp"`
	Error      string        `json:"error,omitempty"`
}

// SlowQueryStats summarizes the captured records.
type SlowQueryStats struct {
	TotalCount      int64         `json:"total_count"`
	UniqueQueries   int64         `json:"unique_queries"`
	AverageDuration time.Duration `json:"average_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
	LastRecordTime  time.Time     `json:"last_record_time"`
}

const slowQueryLogCapacity = 256

var (
	wsPattern  = regexp.MustCompile(`\s+`)
	numPattern = regexp.MustCompile(`\b\d+\b`)
	strPattern = regexp.MustCompile(`'[^']*'`)
)

// SlowQueryLog keeps a bounded in-memory ring of statements slower than the
// configured threshold. A zero threshold disables capture.
type SlowQueryLog struct {
	threshold time.Duration
	mu        sync.Mutex
	records   []SlowQueryRecord
	byPattern map[string]int64
	total     int64
	maxDur    time.Duration
	sumDur    time.Duration
	last      time.Time
}

func newSlowQueryLog(threshold time.Duration) *SlowQueryLog {
	return &SlowQueryLog{threshold: threshold, byPattern: make(map[string]int64)}
}

func (l *SlowQueryLog) observe(stmt string, duration time.Duration, err error) {
	if l == nil || l.threshold <= 0 || duration < l.threshold {
		return
	}
	rec := SlowQueryRecord{
		Statement:  stmt,
		Normalized: normalizeStatement(stmt),
		Duration:   duration,
		Timestamp:  time.Now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total++
	l.sumDur += duration
	if duration > l.maxDur {
		l.maxDur = duration
	}
	l.last = rec.Timestamp
	l.byPattern[rec.Normalized]++
	l.records = append(l.records, rec)
	if len(l.records) > slowQueryLogCapacity {
		l.records = l.records[len(l.records)-slowQueryLogCapacity:]
	}
}

// Records returns the retained slow query records, oldest first.
func (l *SlowQueryLog) Records() []SlowQueryRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]SlowQueryRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Stats summarizes everything observed since startup.
func (l *SlowQueryLog) Stats() SlowQueryStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := SlowQueryStats{
		TotalCount:     l.total,
		UniqueQueries:  int64(len(l.byPattern)),
		MaxDuration:    l.maxDur,
		LastRecordTime: l.last,
	}
	if l.total > 0 {
		s.AverageDuration = l.sumDur / time.Duration(l.total)
	}
	return s
}

// TopPatterns returns the most frequent normalized statements.
func (l *SlowQueryLog) TopPatterns(n int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	patterns := make([]string, 0, len(l.byPattern))
	for p := range l.byPattern {
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool {
		if l.byPattern[patterns[i]] != l.byPattern[patterns[j]] {
			return l.byPattern[patterns[i]] > l.byPattern[patterns[j]]
		}
		return patterns[i] < patterns[j]
	})
	if n > 0 && len(patterns) > n {
		patterns = patterns[:n]
	}
	return patterns
}

func (l *SlowQueryLog) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}

// SlowQueries exposes the pool's slow query log.
func (p *Pool) SlowQueries() *SlowQueryLog { return p.slowLog }

// normalizeStatement collapses literals and whitespace so similar statements
// aggregate under one pattern.
func normalizeStatement(stmt string) string {
	s := strPattern.ReplaceAllString(stmt, "'?'")
	s = numPattern.ReplaceAllString(s, "?")
	s = wsPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(strings.ToLower(s))
}
