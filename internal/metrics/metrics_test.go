package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsRegistered(t *testing.T) {
	// Vec collectors only show up once a label set is used.
	Allocations.WithLabelValues("direct")
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["grantdesk_budget_allocations_total"])
	assert.True(t, names["grantdesk_budget_requests_created_total"])
	assert.True(t, names["grantdesk_budget_archived_entries_total"])
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(RequestDecisions.WithLabelValues("APPROVED"))
	RequestDecisions.WithLabelValues("APPROVED").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RequestDecisions.WithLabelValues("APPROVED")))

	before = testutil.ToFloat64(AllocatedAmount.WithLabelValues("direct"))
	AllocatedAmount.WithLabelValues("direct").Add(Float(decimal.RequireFromString("1250.50")))
	assert.InDelta(t, before+1250.5, testutil.ToFloat64(AllocatedAmount.WithLabelValues("direct")), 0.001)
}
