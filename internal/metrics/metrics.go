package metrics

import (
	"inventory-audit/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type AuditMetrics struct {
	EventsAppended  *prometheus.CounterVec
	AppendFailures  *prometheus.CounterVec
	PublishFailures prometheus.Counter
	IDCoercionMiss  *prometheus.CounterVec
}

// NewAuditMetrics registers the audit write-path metrics on reg. A nil reg
// gets a private registry so tests never collide on the default one.
func NewAuditMetrics(reg prometheus.Registerer) *AuditMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &AuditMetrics{
		EventsAppended: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_audit_events_appended_total",
			Help: "Audit events persisted, by entity kind and action.",
		}, []string{"entity_kind", "action"}),

		AppendFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_audit_append_failures_total",
			Help: "Audit batches that could not be persisted.",
		}, []string{"entity_kind"}),

		PublishFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "inventory_audit_publish_failures_total",
			Help: "Audit batches that could not be mirrored to the message broker.",
		}),

		IDCoercionMiss: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_audit_entity_id_unparsed_total",
			Help: "Audit events stored without entity id because it was not an integer.",
		}, []string{"entity_kind"}),
	}
}

func (m *AuditMetrics) ObserveAppended(events []domain.AuditEvent) {
	if m == nil {
		return
	}
	for _, ev := range events {
		m.EventsAppended.WithLabelValues(string(ev.EntityKind), string(ev.Action)).Inc()
	}
}

func (m *AuditMetrics) ObserveAppendFailure(kind domain.EntityKind) {
	if m == nil {
		return
	}
	m.AppendFailures.WithLabelValues(string(kind)).Inc()
}

func (m *AuditMetrics) ObservePublishFailure() {
	if m == nil {
		return
	}
	m.PublishFailures.Inc()
}

func (m *AuditMetrics) ObserveUnparsedID(kind domain.EntityKind) {
	if m == nil {
		return
	}
	m.IDCoercionMiss.WithLabelValues(string(kind)).Inc()
}
