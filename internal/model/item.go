package model

import "time"

// Item is one to-do entry as the /api/todo endpoint sends it.
// Field names follow the server's casing; there is no renaming layer.
type Item struct {
	Id          int    `json:"Id"`
	IsDone      bool   `json:"IsDone"`
	Description string `json:"Description"`
	DueDate     string `json:"DueDate"`
}

// Sortable columns understood by the server.
const (
	ColumnDescription = "Description"
	ColumnDueDate     = "DueDate"
	ColumnIsDone      = "IsDone"
)

var dueLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Due parses DueDate. ok is false when the field is empty or not a date.
func (it Item) Due() (t time.Time, ok bool) {
	for _, layout := range dueLayouts {
		if d, err := time.Parse(layout, it.DueDate); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// Stats counts done and pending items.
func Stats(items []Item) (done, pending int) {
	for _, it := range items {
		if it.IsDone {
			done++
		} else {
			pending++
		}
	}
	return
}
