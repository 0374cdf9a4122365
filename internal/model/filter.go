package model

// Filter is the list query. It is sent verbatim as query parameters.
type Filter struct {
	FilterText    string `schema:"filterText"`
	ColumnName    string `schema:"columnName"`
	SortAscending bool   `schema:"sortAscending"`
}

// DefaultFilter is what a fresh list starts with: newest due date first.
func DefaultFilter() Filter {
	return Filter{ColumnName: ColumnDueDate}
}
