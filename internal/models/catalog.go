package models

// CatalogFilter is the shared search/paging filter for rooms, lecturers,
// groups and program subjects.
type CatalogFilter struct {
	Search    string
	ProgCode  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
