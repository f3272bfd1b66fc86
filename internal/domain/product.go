package domain

import "time"

// Product is a ready-made catalog item from the shop page.
type Product struct {
	ID         string    `json:"id"`
	Key        string    `json:"key"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"priceCents"`
	Currency   string    `json:"currency"`
	Image      string    `json:"image,omitempty"`
	Category   string    `json:"category,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CartItem turns the product into a line item candidate.
func (p Product) CartItem() CartItemInput {
	return CartItemInput{
		ID:    p.ID,
		Name:  p.Name,
		Image: p.Image,
		Price: p.PriceCents,
	}
}
