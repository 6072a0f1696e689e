package metrics

import (
	"testing"

	"github.com/anonto42/nano-midea/notifier/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestReporterCountsOutcomes(t *testing.T) {
	r := NewReporter(prometheus.NewRegistry())

	r.Report(services.Outcome{Operation: services.OpBroadcastNewBlog, Type: "new_blog", Status: services.StatusDelivered, Recipients: 3})
	r.Report(services.Outcome{Operation: services.OpBroadcastNewBlog, Type: "new_blog", Status: services.StatusDelivered, Recipients: 2})
	r.Report(services.Outcome{Operation: services.OpSingleRecipient, Type: "like", Status: services.StatusSkipped})
	r.Report(services.Outcome{Operation: services.OpSingleRecipient, Type: "like", Status: services.StatusFailed})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.outcomes.WithLabelValues(services.OpBroadcastNewBlog, "new_blog", string(services.StatusDelivered))))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.written.WithLabelValues("new_blog")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.outcomes.WithLabelValues(services.OpSingleRecipient, "like", string(services.StatusSkipped))))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.written.WithLabelValues("like")))
}
