package entity

// FileCleanupEvent asks for a stored file to be removed after an inline
// removal failed.
type FileCleanupEvent struct {
	EventID string
	Path    string
	Reason  string
}
