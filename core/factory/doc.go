// Package factory provides a small generic registry used to instantiate
// pluggable modules from configuration. In rota it backs the metrics.sinks
// section: core/metrics owns the registry and infra/metrics registers the
// nop, prometheus and influx sinks. A module is defined by a type string and
// a map of raw settings; its factory decodes the settings into a typed struct
// and returns the concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	reg.Register("influx", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c struct{ URL string `json:"url"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newInfluxSink(c.URL), nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "influx", Conf: map[string]any{"url": "http://localhost:8086"}})
package factory
