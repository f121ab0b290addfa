package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Donation sources used as the "source" label
const (
	SourceDonor = "donor"
	SourceGrant = "grant"
	SourceRetry = "record"
)

// Metrics tracks the verification and donation workflows.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	NGOsRegistered      prometheus.Counter
	NGOsApproved        prometheus.Counter
	DonationsRecorded   *prometheus.CounterVec
	EvidenceAttached    prometheus.Counter
	DonationsRejected   prometheus.Counter
	TransferFailures    prometheus.Counter
	PersistenceFailures prometheus.Counter
	TransferDuration    prometheus.Histogram
}

// New registers every metric with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NGOsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "ngo_tracker_ngos_registered_total",
			Help: "Total number of NGO registrations",
		}),
		NGOsApproved: factory.NewCounter(prometheus.CounterOpts{
			Name: "ngo_tracker_ngos_approved_total",
			Help: "Total number of verification codes redeemed",
		}),
		DonationsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ngo_tracker_donations_recorded_total",
			Help: "Total number of donation records written, by source",
		}, []string{"source"}),
		EvidenceAttached: factory.NewCounter(prometheus.CounterOpts{
			Name: "ngo_tracker_evidence_attached_total",
			Help: "Total number of evidence uploads",
		}),
		DonationsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "ngo_tracker_donations_rejected_total",
			Help: "Total number of donations rejected by an authorizer",
		}),
		TransferFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ngo_tracker_transfer_failures_total",
			Help: "Transfers that failed to broadcast or confirm",
		}),
		PersistenceFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ngo_tracker_persistence_failures_total",
			Help: "Confirmed transfers whose record could not be written",
		}),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ngo_tracker_transfer_duration_seconds",
			Help:    "Time from broadcast to confirmation",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		}),
	}
}

func (m *Metrics) IncNGORegistered() {
	if m != nil {
		m.NGOsRegistered.Inc()
	}
}

func (m *Metrics) IncNGOApproved() {
	if m != nil {
		m.NGOsApproved.Inc()
	}
}

func (m *Metrics) IncDonationRecorded(source string) {
	if m != nil {
		m.DonationsRecorded.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) IncEvidenceAttached() {
	if m != nil {
		m.EvidenceAttached.Inc()
	}
}

func (m *Metrics) IncDonationRejected() {
	if m != nil {
		m.DonationsRejected.Inc()
	}
}

func (m *Metrics) IncTransferFailure() {
	if m != nil {
		m.TransferFailures.Inc()
	}
}

func (m *Metrics) IncPersistenceFailure() {
	if m != nil {
		m.PersistenceFailures.Inc()
	}
}

// ObserveTransfer records the duration of a transfer.
// Call with time.Now() taken before SendValue.
func (m *Metrics) ObserveTransfer(start time.Time) {
	if m != nil {
		m.TransferDuration.Observe(time.Since(start).Seconds())
	}
}
