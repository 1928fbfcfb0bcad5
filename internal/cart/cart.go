// Package cart is the client-held cart: a keyed collection of line items
// that snapshots prices at add time and persists itself through a pluggable
// storage on every mutation. It only becomes durable server-side when
// converted into orders at checkout.
package cart

import (
	"encoding/json"
	"fmt"

	"github.com/wakiullah/Torit-multivandor/internal/models"
	"github.com/wakiullah/Torit-multivandor/internal/service/pricing"
)

// Storage is the client-storage analogue the cart saves into. Load returns
// ("", nil) when nothing was saved yet.
type Storage interface {
	Save(state string) error
	Load() (string, error)
}

type Cart struct {
	items map[string]*pricing.LineItem
	keys  []string
	store Storage
}

func New(store Storage) *Cart {
	return &Cart{
		items: map[string]*pricing.LineItem{},
		store: store,
	}
}

// Key identifies one distinct (product, variation) pair.
func Key(productID uint, variation *models.Variation) string {
	if variation == nil {
		return fmt.Sprintf("%d", productID)
	}
	return fmt.Sprintf("%d_%d", productID, variation.ID)
}

// Add merges into an existing line or inserts a new one snapshotting the
// current price, mrp and image. Later catalog price changes do not touch
// lines already in the cart.
func (c *Cart) Add(p *models.Product, variation *models.Variation, quantity uint) error {
	if quantity < 1 {
		quantity = 1
	}

	key := Key(p.ID, variation)
	if it, ok := c.items[key]; ok {
		it.Quantity += quantity
		return c.persist()
	}

	it := &pricing.LineItem{
		ProductID: p.ID,
		StoreID:   p.StoreID,
		Name:      p.Name,
		Quantity:  quantity,
		Price:     p.Price,
		MRP:       p.MRP,
	}
	if len(p.Images) > 0 {
		it.Image = p.Images[0]
	}
	if variation != nil {
		it.Price = variation.Price
		it.MRP = variation.MRP
		it.Variation = models.VariationSnapshot{
			VariationID: variation.ID,
			Attributes:  variation.Attributes,
		}
	}

	c.items[key] = it
	c.keys = append(c.keys, key)
	return c.persist()
}

func (c *Cart) Increment(key string) error {
	if it, ok := c.items[key]; ok {
		it.Quantity++
		return c.persist()
	}
	return nil
}

// Decrement lowers the quantity; reaching zero removes the line, so the
// cart never holds a zero-quantity entry.
func (c *Cart) Decrement(key string) error {
	it, ok := c.items[key]
	if !ok {
		return nil
	}
	if it.Quantity > 1 {
		it.Quantity--
		return c.persist()
	}
	return c.Remove(key)
}

func (c *Cart) Remove(key string) error {
	if _, ok := c.items[key]; !ok {
		return nil
	}
	delete(c.items, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
	return c.persist()
}

func (c *Cart) Clear() error {
	c.items = map[string]*pricing.LineItem{}
	c.keys = nil
	return c.persist()
}

func (c *Cart) Get(key string) (pricing.LineItem, bool) {
	if it, ok := c.items[key]; ok {
		return *it, true
	}
	return pricing.LineItem{}, false
}

// Items returns the lines in insertion order, ready for checkout.
func (c *Cart) Items() []pricing.LineItem {
	out := make([]pricing.LineItem, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, *c.items[k])
	}
	return out
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) Total() float64 {
	var total float64
	for _, it := range c.items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

type savedState struct {
	Keys  []string                     `json:"keys"`
	Items map[string]*pricing.LineItem `json:"items"`
}

func (c *Cart) persist() error {
	if c.store == nil {
		return nil
	}
	data, err := json.Marshal(savedState{Keys: c.keys, Items: c.items})
	if err != nil {
		return fmt.Errorf("cart: encode state: %w", err)
	}
	return c.store.Save(string(data))
}

// Restore rebuilds the cart from storage, e.g. on session start. A missing
// or empty saved state leaves the cart empty.
func (c *Cart) Restore() error {
	if c.store == nil {
		return nil
	}
	raw, err := c.store.Load()
	if err != nil {
		return err
	}
	if raw == "" {
		return nil
	}

	var st savedState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return fmt.Errorf("cart: decode state: %w", err)
	}
	if st.Items == nil {
		st.Items = map[string]*pricing.LineItem{}
	}
	c.items = st.Items
	c.keys = st.Keys
	return nil
}
