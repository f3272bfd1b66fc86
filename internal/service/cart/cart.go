package cart

import "tfashion-storefront/internal/domain"

// Cart is an ordered list of line items, unique by ID.
type Cart struct {
	Items []domain.CartItem
}

// Find returns the index of the item with id, or -1.
func (c *Cart) Find(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add inserts the candidate with quantity 1, or bumps the quantity of the existing
// item with the same ID. It reports whether an existing item was bumped.
func (c *Cart) Add(in domain.CartItemInput) (merged bool) {
	if i := c.Find(in.ID); i >= 0 {
		c.Items[i].Quantity++
		return true
	}
	c.Items = append(c.Items, domain.CartItem{
		ID:           in.ID,
		Name:         in.Name,
		Image:        in.Image,
		Price:        in.Price,
		Quantity:     1,
		FabricType:   in.FabricType,
		Length:       in.Length,
		PatternScale: in.PatternScale,
	})
	return false
}

// Remove deletes the item with id. It reports whether anything was removed.
func (c *Cart) Remove(id string) bool {
	i := c.Find(id)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// SetQuantity moves the item's quantity by delta, never below 1.
func (c *Cart) SetQuantity(id string, delta int) bool {
	i := c.Find(id)
	if i < 0 {
		return false
	}
	q := c.Items[i].Quantity + delta
	if q < 1 {
		q = 1
	}
	c.Items[i].Quantity = q
	return true
}

func (c *Cart) Clear() {
	c.Items = nil
}

// Total is the sum of price times quantity over all items.
func (c *Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// Count is the sum of quantities.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

// Deduct subtracts the quantities of paid lines. A line drops out once nothing
// of it is left; lines absent from paid and any quantity added since stay.
func (c *Cart) Deduct(paid []domain.CartItem) {
	for _, p := range paid {
		i := c.Find(p.ID)
		if i < 0 {
			continue
		}
		if q := c.Items[i].Quantity - p.Quantity; q > 0 {
			c.Items[i].Quantity = q
			continue
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// normalize restores the cart's invariants on data read from storage: quantities
// are at least 1 and duplicate ids fold into the first line.
func (c *Cart) normalize() (changed bool) {
	if len(c.Items) == 0 {
		return false
	}
	out := make([]domain.CartItem, 0, len(c.Items))
	seen := make(map[string]int, len(c.Items))
	for _, item := range c.Items {
		if item.Quantity < 1 {
			item.Quantity = 1
			changed = true
		}
		if i, ok := seen[item.ID]; ok {
			out[i].Quantity += item.Quantity
			changed = true
			continue
		}
		seen[item.ID] = len(out)
		out = append(out, item)
	}
	c.Items = out
	return changed
}
