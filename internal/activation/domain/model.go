package domain

import "time"

// Alphabet omits the look-alike symbols I, O, 0 and 1.
const (
	Alphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength = 6
)

type ActivationCode struct {
	ID            int64      `json:"id" gorm:"primaryKey"`
	Code          string     `json:"code" gorm:"type:varchar(16);not null;uniqueIndex"`
	IsUsed        bool       `json:"is_used" gorm:"not null;default:false;index"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
	UsedBy        *string    `json:"used_by,omitempty" gorm:"type:varchar(32)"`
	TransactionID *string    `json:"transaction_id,omitempty" gorm:"type:varchar(64)"`
	CreatedAt     time.Time  `json:"created_at" gorm:"not null;index"`
}

func (ActivationCode) TableName() string { return "activation_codes" }

type Status string

const (
	StatusAll    Status = "all"
	StatusUsed   Status = "used"
	StatusUnused Status = "unused"
)

type Cursor struct {
	ID        int64
	CreatedAt time.Time
}

type ListFilter struct {
	Status Status
	Cursor *Cursor
	Limit  int
}
