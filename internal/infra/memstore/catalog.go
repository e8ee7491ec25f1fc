package memstore

import (
	"context"
	"sync"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/infra"
	"studio-booking/internal/usecase/commands"

	"github.com/google/uuid"
)

// Catalog keeps pricing configuration in process. Catalog writes are rare,
// so one lock guards all of it.
type Catalog struct {
	mu      sync.RWMutex
	version int64
	tables  map[uuid.UUID]*pricing.PriceTable
	items   map[uuid.UUID]*pricing.PriceItem
	rules   map[uuid.UUID]*pricing.PriceRule
}

func NewCatalog() *Catalog {
	return &Catalog{
		tables: make(map[uuid.UUID]*pricing.PriceTable),
		items:  make(map[uuid.UUID]*pricing.PriceItem),
		rules:  make(map[uuid.UUID]*pricing.PriceRule),
	}
}

func (c *Catalog) UpsertTable(_ context.Context, t *pricing.PriceTable) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[t.ID()] = t
	c.version++
	return nil
}

func (c *Catalog) UpsertItem(_ context.Context, item *pricing.PriceItem, check commands.ItemCheck) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tables[item.PriceTableID()]; !ok {
		return infra.NewRepoErr(infra.KindNotFound, "price table "+item.PriceTableID().String())
	}
	var siblings []*pricing.PriceItem
	for _, i := range c.items {
		if i.PriceTableID() == item.PriceTableID() {
			siblings = append(siblings, i)
		}
	}
	ruleCount := 0
	for _, r := range c.rules {
		if r.PriceItemID() == item.ID() {
			ruleCount++
		}
	}
	if err := check(siblings, c.items[item.ID()], ruleCount); err != nil {
		return err
	}

	c.items[item.ID()] = item
	c.version++
	return nil
}

func (c *Catalog) UpsertRule(_ context.Context, rule *pricing.PriceRule, check commands.RuleCheck) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[rule.PriceItemID()]; !ok {
		return infra.NewRepoErr(infra.KindNotFound, "price item "+rule.PriceItemID().String())
	}
	if err := check(c.rulesOf(rule.PriceItemID())); err != nil {
		return err
	}

	c.rules[rule.ID()] = rule
	c.version++
	return nil
}

func (c *Catalog) AdvanceLifecycle(_ context.Context, advance func(*pricing.PriceTable) (*pricing.PriceTable, bool)) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for id, t := range c.tables {
		if t.Status() == pricing.LifecycleEnded {
			continue
		}
		if next, changed := advance(t); changed {
			c.tables[id] = next
			n++
		}
	}
	if n > 0 {
		c.version++
	}
	return n, nil
}

func (c *Catalog) Version(context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version, nil
}

func (c *Catalog) Snapshot(_ context.Context, studioTypeID uuid.UUID, date pricing.Date) (pricing.CatalogSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := pricing.CatalogSnapshot{Version: c.version}
	for _, t := range c.tables {
		if !t.Covers(date) {
			continue
		}
		item := c.itemFor(t.ID(), studioTypeID)
		if item == nil {
			continue
		}
		snap.Candidates = append(snap.Candidates, pricing.Candidate{
			Table: t,
			Item:  item,
			Rules: c.rulesOf(item.ID()),
		})
	}
	return snap, nil
}

func (c *Catalog) FindTablesCovering(_ context.Context, studioTypeID uuid.UUID, date pricing.Date) ([]*pricing.PriceTable, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*pricing.PriceTable
	for _, t := range c.tables {
		if t.IsActive() && t.Covers(date) && c.itemFor(t.ID(), studioTypeID) != nil {
			out = append(out, t)
		}
	}
	pricing.RankTables(out)
	return out, nil
}

func (c *Catalog) itemFor(tableID, studioTypeID uuid.UUID) *pricing.PriceItem {
	for _, i := range c.items {
		if i.PriceTableID() == tableID && i.StudioTypeID() == studioTypeID {
			return i
		}
	}
	return nil
}

func (c *Catalog) rulesOf(itemID uuid.UUID) []*pricing.PriceRule {
	var out []*pricing.PriceRule
	for _, r := range c.rules {
		if r.PriceItemID() == itemID {
			out = append(out, r)
		}
	}
	return out
}
