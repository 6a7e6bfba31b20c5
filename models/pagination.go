package models

import "gorm.io/gorm"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

// NormalizePage clamps page/pageSize to sane bounds (page is 1-based).
func NormalizePage(page int, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Paginate is a gorm scope applying offset pagination.
func Paginate(page int, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		page, pageSize := NormalizePage(page, pageSize)
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

func NewPageInfo(page int, pageSize int, totalCount int64) *PageInfo {
	page, pageSize = NormalizePage(page, pageSize)
	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	return &PageInfo{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
