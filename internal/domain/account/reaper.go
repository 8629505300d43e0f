package account

// Reaper periodically disposes of Owners left behind by interrupted merges
type Reaper interface {
	Start()
	// Stop stops scheduling new runs and waits for a running one to finish
	Stop()
}
