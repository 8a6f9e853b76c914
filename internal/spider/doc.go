// Package spider implements the crawl engine: URL canonicalization,
// scope filtering, the deduplicating frontier, the concurrent fetch
// scheduler, and the controller that drives a run through its lifecycle.
//
// The engine follows a breadth-first discipline. Seeds enter the
// frontier at depth zero; every candidate a parser extracts is offered
// back to the frontier, which admits it only if it is in scope, within
// the depth and child limits, and not yet visited. A run completes when
// the queue is empty and no worker holds an in-flight task.
package spider
