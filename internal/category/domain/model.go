package domain

import "time"

const (
	DefaultIcon  = "package"
	DefaultColor = "#B71C1C"
)

type Category struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	Icon      string    `json:"icon" gorm:"type:varchar(64);not null;default:package"`
	Color     string    `json:"color" gorm:"type:varchar(16);not null;default:#B71C1C"`
	SortOrder int       `json:"sort_order" gorm:"column:sort_order;not null;default:0;index"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (Category) TableName() string { return "categories" }
