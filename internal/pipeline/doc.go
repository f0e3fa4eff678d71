// Package pipeline loads galleries through a fixed sequence of steps.
//
// A load runs fetch, decode, normalize, body files, order and index over a
// model.LoadReport. Each step fills in part of the report; the first
// failing step ends the load with a *model.LoadError naming that step.
// Loads are never retried.
//
// BatchProcessor loads many galleries concurrently with errgroup, keeping
// each gallery's error in its own report.
package pipeline
