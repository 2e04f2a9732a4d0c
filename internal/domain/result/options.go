package result

// ListOptions provides paging and filtering for listing results.
type ListOptions struct {
	OwnerUserID string
	Source      SourceKind
	Limit       int
	Offset      int
}

// SearchOptions provides paging for search.
type SearchOptions struct {
	Limit  int
	Offset int
}
