package models

// Page is one document page assembled from partitioned elements. Metadata
// carries the last element's metadata seen on the page.
type Page struct {
	Number   int
	Text     string
	Metadata map[string]string
}
