// Package metrics implements sim.Metric observers for a running cradle.
package metrics
