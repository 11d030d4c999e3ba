package model

import "time"

// Category groups products. It cannot be removed while products reference it.
type Category struct {
	BaseModel
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	Products    []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// CategoryRef is the short form embedded in product responses
type CategoryRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type CategoryResponse struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Description *string            `json:"description"`
	Products    []ProductReference `json:"products"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (c *Category) ToResponse() CategoryResponse {
	products := make([]ProductReference, 0, len(c.Products))
	for i := range c.Products {
		products = append(products, c.Products[i].ToReference())
	}
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Products:    products,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
