package models

type PaginatedResponse struct {
	Data       any `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

func NewPaginatedResponse(data any, total, page, pageSize int) PaginatedResponse {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}

	return PaginatedResponse{Data: data, Total: total, Page: page, PageSize: pageSize, TotalPages: pages}
}
