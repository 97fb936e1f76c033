package search

// SyntaxHelp returns a static description of the boolean query syntax,
// suitable for display by the caller's UI layer.
func SyntaxHelp() string {
	return `Search syntax:

  word word        every word must appear (implicit AND)
  "exact phrase"   the quoted text must appear verbatim
  a OR b           either side may appear (| also works)
  a AND b          both sides must appear (& also works)
  NOT a            leading NOT excludes matches (- also works)

Matching is case-insensitive and based on substrings. Operators are only
honored when surrounded by spaces; a leading NOT applies to the whole
rest of the query. An empty query matches every thread.`
}
