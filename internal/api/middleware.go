package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aclements/go-moremath/stats"
	"github.com/google/uuid"
)

// CorrelationHeader carries the id that ties a request to its log lines.
const CorrelationHeader = "X-Correlation-ID"

type ctxKey int

const correlationKey ctxKey = iota

// CorrelationID returns the id stored by the correlation middleware.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// timedWriter stamps X-Response-Time just before the header is sent.
type timedWriter struct {
	http.ResponseWriter
	start  time.Time
	status int
}

func (w *timedWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
		w.Header().Set("X-Response-Time", fmt.Sprintf("%.3f", time.Since(w.start).Seconds()))
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *timedWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// correlate echoes or generates X-Correlation-ID, times the request and
// records the duration in m.
func correlate(m *requestMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(CorrelationHeader)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			w.Header().Set(CorrelationHeader, id)
			tw := &timedWriter{ResponseWriter: w, start: time.Now()}
			next.ServeHTTP(tw, r.WithContext(context.WithValue(r.Context(), correlationKey, id)))
			m.record(time.Since(tw.start))
		})
	}
}

const metricsWindow = 1000

// requestMetrics keeps the most recent request durations.
type requestMetrics struct {
	mu    sync.Mutex
	total int
	ring  []float64
	next  int
}

func (m *requestMetrics) record(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	if len(m.ring) < metricsWindow {
		m.ring = append(m.ring, d.Seconds())
		return
	}
	m.ring[m.next] = d.Seconds()
	m.next = (m.next + 1) % metricsWindow
}

// DurationSummary describes recent request durations in seconds.
type DurationSummary struct {
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
}

func (m *requestMetrics) summary() DurationSummary {
	m.mu.Lock()
	xs := append([]float64(nil), m.ring...)
	total := m.total
	m.mu.Unlock()
	if len(xs) == 0 {
		return DurationSummary{}
	}
	s := &stats.Sample{Xs: xs}
	s.Sort()
	lo, hi := s.Bounds()
	return DurationSummary{
		Count: total,
		Avg:   s.Mean(),
		Min:   lo,
		Max:   hi,
		P50:   s.Quantile(0.5),
		P95:   s.Quantile(0.95),
	}
}
