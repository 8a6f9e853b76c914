// Package main provides the entry point for the webspider CLI.
//
// Webspider is a scoped web crawler. It starts from one or more seed
// URLs, follows links breadth-first within the configured scope, and
// reports the site structure it discovered.
//
// Usage:
//
//	webspider crawl <seed-url>
//	webspider runs
//
// See --help for all available options.
package main

// main is the entry point for webspider.
func main() {
	Execute()
}
