package result

// FriendlyTitle returns the display title for a result. Widget results
// and direct results currently title the same way; new source kinds get
// their case here.
func FriendlyTitle(rec *Record) string {
	title := rec.Name
	if rec.Snapshot != nil && rec.Snapshot.Title != "" {
		title = rec.Snapshot.Title
	}

	switch rec.Source {
	case SourceWidget:
		// Widget snapshots are titled when the widget generates them.
		return title
	default:
		return title
	}
}
