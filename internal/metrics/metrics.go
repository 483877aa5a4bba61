// Package metrics exposes prometheus collectors for vote casting, tallying
// and ballot listing.
package metrics

import (
	"strconv"
	"time"

	"ballot-app-go/internal/apperr"
	"ballot-app-go/internal/domain/ballots"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ballot"

// Metrics implements the observer interfaces of the voting, tally and ballots
// services. A nil *Metrics is valid and records nothing.
type Metrics struct {
	castsTotal   *prometheus.CounterVec
	castDuration *prometheus.HistogramVec
	tallyTotal   *prometheus.CounterVec
	listTotal    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		castsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_cast_total",
			Help:      "Vote submissions by outcome.",
		}, []string{"result"}),
		castDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cast_duration_seconds",
			Help:      "Time spent recording a vote submission.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		tallyTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tally_total",
			Help:      "Tally requests by whether the cache served them.",
		}, []string{"cached"}),
		listTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_total",
			Help:      "Ballot list queries by status filter, sort field and outcome.",
		}, []string{"status", "sort", "result"}),
	}
}

func (m *Metrics) ObserveCast(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	result = castLabel(result)
	m.castsTotal.WithLabelValues(result).Inc()
	m.castDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveTally(cached bool) {
	if m == nil {
		return
	}
	m.tallyTotal.WithLabelValues(strconv.FormatBool(cached)).Inc()
}

func (m *Metrics) ObserveList(status ballots.StatusFilter, sort ballots.SortField, err error) {
	if m == nil {
		return
	}
	if status == "" {
		status = ballots.StatusFilterAll
	}
	if sort == "" {
		sort = ballots.SortStartDate
	}
	statusLabel := "invalid"
	switch status {
	case ballots.StatusFilterAll, ballots.StatusFilterOpen, ballots.StatusFilterClosed:
		statusLabel = string(status)
	}
	sortLabel := string(sort)
	if !sort.Valid() {
		sortLabel = "invalid"
	}
	result := "ok"
	if err != nil {
		result = apperr.KindOf(err).String()
	}
	m.listTotal.WithLabelValues(statusLabel, sortLabel, result).Inc()
}

// castLabel bounds the label set to the known cast outcomes.
func castLabel(result string) string {
	switch result {
	case "ok", "duplicate_vote", "ballot_not_open", "invalid_selection", "too_many_selections",
		"unknown_selection", "ballot_not_found", "user_not_found", "store_unavailable", "invariant_violation":
		return result
	}
	return "error"
}
