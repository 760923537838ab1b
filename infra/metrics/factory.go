package metrics

import (
	"github.com/kilianp07/brunch/core/factory"
	coremetrics "github.com/kilianp07/brunch/core/metrics"
	"github.com/kilianp07/brunch/infra/logger"
)

// logSinkConf is the "conf" block of a log sink entry.
type logSinkConf struct {
	Component string `json:"component"`
}

func newNopSink(map[string]any) (coremetrics.MetricsSink, error) {
	return coremetrics.NopSink{}, nil
}

func newPromSink(map[string]any) (coremetrics.MetricsSink, error) {
	return NewPromSink()
}

func newLogSink(conf map[string]any) (coremetrics.MetricsSink, error) {
	c := logSinkConf{Component: "metrics"}
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	return NewLogSink(logger.New(c.Component)), nil
}

func init() {
	for name, f := range map[string]factory.Factory[coremetrics.MetricsSink]{
		"nop":        newNopSink,
		"prometheus": newPromSink,
		"log":        newLogSink,
	} {
		_ = coremetrics.RegisterSink(name, f)
	}
}
