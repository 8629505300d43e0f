package merge

import "fmt"

// <-- Domain Errors

// NoOwner is returned when a merge is attempted without an Owner
type NoOwner struct{}

func (e NoOwner) Error() string {
	return "Cannot merge notes without an owner"
}

// InvalidBatch is returned when an incoming note cannot be merged. Nothing is
// read or written when this is returned.
type InvalidBatch struct {
	Index      int
	Underlying error
}

func (e InvalidBatch) Error() string {
	return fmt.Sprintf("Invalid note at index [%d]: %v", e.Index, e.Underlying)
}

func (e InvalidBatch) Unwrap() error {
	return e.Underlying
}

// StorageFailure is returned when reading or writing Notes fails. No Checkpoint is
// handed out, so retrying with the same Checkpoint is safe.
type StorageFailure struct {
	Underlying error
}

func (e StorageFailure) Error() string {
	return fmt.Sprintf("Failed to merge notes due to a storage error: %v", e.Underlying)
}

func (e StorageFailure) Unwrap() error {
	return e.Underlying
}

// Aborted is returned when the merge's context ended before it could complete
type Aborted struct {
	Underlying error
}

func (e Aborted) Error() string {
	return fmt.Sprintf("Merge aborted: %v", e.Underlying)
}

func (e Aborted) Unwrap() error {
	return e.Underlying
}

//     Errors -->
