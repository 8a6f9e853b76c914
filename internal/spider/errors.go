package spider

import "errors"

var (
	// ErrAlreadyRunning is returned when Start is called while a run is
	// active or paused.
	ErrAlreadyRunning = errors.New("crawl is already running")

	// ErrNotStarted is returned by lifecycle operations before the first
	// Start call.
	ErrNotStarted = errors.New("crawl has not been started")

	// ErrNotRunning is returned by Pause when the run is not running.
	ErrNotRunning = errors.New("crawl is not running")

	// ErrNotPaused is returned by Resume when the run is not paused.
	ErrNotPaused = errors.New("crawl is not paused")

	// ErrAlreadyFinished is returned by Stop after the run reached a
	// terminal state.
	ErrAlreadyFinished = errors.New("crawl already finished")

	// ErrNoSeedAccepted is returned by Start when every seed URL was
	// rejected (malformed or out of scope).
	ErrNoSeedAccepted = errors.New("no seed URL was accepted into the frontier")

	// ErrUnsupportedScheme is returned when a URL is not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrInvalidSeed is returned when a seed URL cannot be parsed or has
	// no host.
	ErrInvalidSeed = errors.New("invalid seed URL")
)
