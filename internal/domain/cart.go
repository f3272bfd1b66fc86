package domain

// CartItem is one line item of a cart. Price is a unit price in minor currency units.
type CartItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Image        string `json:"image"`
	Price        int64  `json:"price"`
	Quantity     int    `json:"quantity"`
	FabricType   string `json:"fabricType,omitempty"`
	Length       int    `json:"length,omitempty"`
	PatternScale *int   `json:"patternScale,omitempty"`
}

// CartItemInput is a line item candidate before it has a quantity.
type CartItemInput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Image        string `json:"image"`
	Price        int64  `json:"price"`
	FabricType   string `json:"fabricType,omitempty"`
	Length       int    `json:"length,omitempty"`
	PatternScale *int   `json:"patternScale,omitempty"`
}

// LineTotal is Price times Quantity.
func (i CartItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Currency is the storefront's settlement currency.
const Currency = "KES"
