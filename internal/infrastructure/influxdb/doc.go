// Package influxdb records diagnostic command metrics in InfluxDB v2.
//
// Each accepted command writes a diagnostics_issued point and each terminal
// outcome writes a diagnostics point tagged with command, path and status
// (plus step for transport failures) and carrying code and duration_ms.
// Observer plugs the client into the dispatcher's lifecycle hook.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	observers = append(observers, influxdb.Observer{Client: client})
//
// Writes are non-blocking and batched per batch_size and flush_interval.
// Asynchronous write failures are delivered to the SetOnError callback.
package influxdb
