package model

import (
	"time"
)

// BaseModel handles the surrogate ID and standard timestamps
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{&Category{}, &User{}, &Product{}, &Sale{}, &SaleItem{}}
}
