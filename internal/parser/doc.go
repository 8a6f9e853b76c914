// Package parser extracts URI candidates from fetched responses.
//
// Each content parser implements the Parser capability pair: CanParse
// reports whether the parser understands a message, and Parse yields the
// candidates it finds. A Registry invokes parsers in registration order,
// accumulating candidates until a parser that fully owns a content type
// (robots.txt, sitemap XML) vetoes the rest. A failing parser is logged
// and skipped; it never aborts the remaining parsers or the crawl.
//
// Parsers receive an immutable Context holding the fetched response,
// the crawl configuration, the authentication identity, and the current
// depth. Derived values (base URL, parsed HTML document) are computed on
// first access and memoized; a Context is owned by exactly one worker,
// so the memoization needs no locking.
package parser
