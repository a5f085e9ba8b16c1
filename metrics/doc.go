// Package metrics computes the objective and semantic measurements attached to
// each analyzed response.
package metrics
