package models

// SortBy orders a list by a UI column.
type SortBy struct {
	ColumnID   string `json:"column_id" validate:"required"`
	Descending bool   `json:"descending"`
}

// ColumnFilter narrows a list by a UI column. Interpretation of Values depends on the column's filter kind.
type ColumnFilter struct {
	ColumnID string   `json:"column_id" validate:"required"`
	Values   []string `json:"values"`
}

// FetchArgs captures the table state that drives a paginated fetch.
type FetchArgs struct {
	PageIndex int            `json:"page_index" validate:"gte=0"`
	PageSize  int            `json:"page_size" validate:"gte=0,lte=500"`
	SortBy    []SortBy       `json:"sort_by" validate:"dive"`
	Filters   []ColumnFilter `json:"filters" validate:"dive"`
}

// Page is the display-ready state of a paginated controller.
type Page[T any] struct {
	IsLoading bool `json:"is_loading"`
	ItemCount int  `json:"item_count"`
	PageCount int  `json:"page_count"`
	Results   []T  `json:"results"`
}

// Pagination metadata attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	PageCount  int `json:"page_count"`
}
