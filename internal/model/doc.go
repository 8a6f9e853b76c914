// Package model defines the core data types shared across the crawler:
// extracted URI candidates, fetch tasks, crawl run state, and the
// resource records emitted for every completed fetch.
package model
