package pricing

import (
	"studio-booking/internal/pkg/errs"
)

// ValidateRuleAgainst rejects a rule that could tie with one of the siblings
// already stored for the same item. A sibling with the same id is the row
// being replaced and is skipped.
func ValidateRuleAgainst(rule *PriceRule, siblings []*PriceRule) error {
	for _, s := range siblings {
		if s.ID() == rule.ID() {
			continue
		}
		if rule.ConflictsWith(s) {
			return errs.Wrapf(ErrInvalidCatalogEntry,
				"price rule %s is ambiguous with rule %s (%s, %s)",
				rule.ID(), s.ID(), s.Window(), s.Unit())
		}
	}
	return nil
}

// ValidateItemUnique rejects a second item for the same table and studio type.
func ValidateItemUnique(item *PriceItem, existing []*PriceItem) error {
	for _, e := range existing {
		if e.ID() == item.ID() {
			continue
		}
		if e.PriceTableID() == item.PriceTableID() && e.StudioTypeID() == item.StudioTypeID() {
			return errs.Wrapf(ErrInvalidCatalogEntry,
				"price table %s already has item %s for studio type %s",
				item.PriceTableID(), e.ID(), item.StudioTypeID())
		}
	}
	return nil
}

// ValidateItemMove rejects re-parenting an item that already has rules.
func ValidateItemMove(item *PriceItem, previous *PriceItem, ruleCount int) error {
	if previous == nil || ruleCount == 0 {
		return nil
	}
	if previous.PriceTableID() != item.PriceTableID() || previous.StudioTypeID() != item.StudioTypeID() {
		return errs.Wrapf(ErrInvalidCatalogEntry, "price item %s has %d rules and cannot change owner", item.ID(), ruleCount)
	}
	return nil
}
