package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// sample returns the series of family name whose labels include every
// name/value pair in kv.
func sample(t *testing.T, reg *prometheus.Registry, name string, kv ...string) *dto.Metric {
	t.Helper()
	require.Zero(t, len(kv)%2, "labels come in name/value pairs")

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if hasLabels(metric, kv) {
				return metric
			}
		}
		t.Fatalf("%s has no series with labels %v", name, kv)
	}
	t.Fatalf("%s not exported", name)
	return nil
}

func hasLabels(metric *dto.Metric, kv []string) bool {
	got := make(map[string]string, len(metric.GetLabel()))
	for _, pair := range metric.GetLabel() {
		got[pair.GetName()] = pair.GetValue()
	}
	for i := 0; i < len(kv); i += 2 {
		if got[kv[i]] != kv[i+1] {
			return false
		}
	}
	return true
}
