package dto

type CategoryFilters struct {
	ParentID        *string // "" lists root categories
	IsActive        *bool
	IncludeChildren bool
	Page            int
	PageSize        int
}

type CreateCategoryInput struct {
	ParentID    *string
	Name        string
	Description string
	ImageURL    string
	SortOrder   int
}

// UpdateCategoryInput changes only the non-nil fields. An empty ParentID
// moves the category to the root.
type UpdateCategoryInput struct {
	ID          string
	ParentID    *string
	Name        *string
	Description *string
	ImageURL    *string
	SortOrder   *int
	IsActive    *bool
}
