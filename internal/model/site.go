package model

type Site struct {
	ID       int64   `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Address  *string `json:"address" db:"address"`
	Phone    *string `json:"phone" db:"phone"`
	IsActive bool    `json:"is_active" db:"is_active"`
	Timestamps
}

type SiteRequest struct {
	Name     string  `json:"name" binding:"required,min=2,max=255"`
	Address  *string `json:"address" binding:"omitempty,max=500"`
	Phone    *string `json:"phone" binding:"omitempty,max=20"`
	IsActive *bool   `json:"is_active"`
}
