package services

// Catalog maps store product ids to the credits they grant.
type Catalog struct {
	products map[string]int
}

func NewCatalog(products map[string]int) *Catalog {
	c := &Catalog{products: make(map[string]int, len(products))}
	for id, amount := range products {
		if amount > 0 {
			c.products[id] = amount
		}
	}
	return c
}

func (c *Catalog) Lookup(productID string) (int, bool) {
	amount, ok := c.products[productID]
	return amount, ok
}
