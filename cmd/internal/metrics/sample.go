package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// HistogramCount returns the sample count of the histogram family called name
// in g, or an error when the family is missing or not a histogram.
func HistogramCount(g prometheus.Gatherer, name string) (uint64, error) {
	families, err := g.Gather()
	if err != nil {
		return 0, err
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var total uint64
		for _, m := range mf.GetMetric() {
			h := m.GetHistogram()
			if h == nil {
				return 0, fmt.Errorf("metrics: %s is not a histogram", name)
			}
			total += h.GetSampleCount()
		}
		return total, nil
	}
	return 0, fmt.Errorf("metrics: %s not found", name)
}
