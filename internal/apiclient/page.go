package apiclient

import "strconv"

// Page é o envelope de listagens paginadas do backend.
type Page[T any] struct {
	Content       []T `json:"content"`
	Page          int `json:"page"`
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
}

// Last informa se não há próxima página.
func (p Page[T]) Last() bool {
	return p.Page+1 >= p.TotalPages
}

// Pagination é embutido nos filtros de busca.
type Pagination struct {
	Page int `json:"page" validate:"gte=0"`
	Size int `json:"size" validate:"gte=0,lte=100"`
}

// Apply grava page/size na query; size zero deixa o default do backend.
func (p Pagination) Apply(params Params) Params {
	if params == nil {
		params = Params{}
	}
	if p.Size > 0 {
		params["page"] = strconv.Itoa(p.Page)
		params["size"] = strconv.Itoa(p.Size)
	}
	return params
}
