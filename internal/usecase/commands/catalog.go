package commands

import (
	"context"
	"log/slog"
	"time"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/infra"
	"studio-booking/internal/pkg/clock"
	"studio-booking/internal/pkg/errs"
	"studio-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type UpsertItemCommand struct {
	ID                  uuid.UUID
	PriceTableID        uuid.UUID
	StudioTypeID        uuid.UUID
	DefaultPricePerUnit int64
}

type CatalogCommands interface {
	// UpsertTable derives the lifecycle status from today when p.Status is unset.
	UpsertTable(ctx context.Context, p pricing.PriceTableParams) (*pricing.PriceTable, error)
	UpsertItem(ctx context.Context, cmd UpsertItemCommand) (*pricing.PriceItem, error)
	UpsertRule(ctx context.Context, p pricing.PriceRuleParams) (*pricing.PriceRule, error)
	// AdvanceLifecycle moves tables UPCOMING->ACTIVE->ENDED as of today.
	AdvanceLifecycle(ctx context.Context) (int, error)
}

type catalogCommandsImpl struct {
	repo   CatalogRepository
	clock  clock.Clock
	loc    *time.Location
	logger *slog.Logger
}

func NewCatalogCommands(repo CatalogRepository, clk clock.Clock, loc *time.Location, logger *slog.Logger) CatalogCommands {
	return &catalogCommandsImpl{repo: repo, clock: clk, loc: loc, logger: logger}
}

func (c *catalogCommandsImpl) today() pricing.Date {
	return pricing.DateOf(c.clock.Now().In(c.loc))
}

func (c *catalogCommandsImpl) UpsertTable(ctx context.Context, p pricing.PriceTableParams) (*pricing.PriceTable, error) {
	derive := p.Status == 0
	if derive {
		p.Status = pricing.LifecycleActive
	}
	table, err := pricing.NewPriceTable(p)
	if err != nil {
		return nil, err
	}
	if derive {
		table = table.WithStatus(table.LifecycleAt(c.today()))
	}

	if err := c.repo.UpsertTable(ctx, table); err != nil {
		return nil, shared.Transient(err, "saving price table")
	}
	c.logger.Info("price table saved",
		"price_table_id", table.ID(),
		"priority", table.Priority(),
		"status", table.Status().String())
	return table, nil
}

func (c *catalogCommandsImpl) UpsertItem(ctx context.Context, cmd UpsertItemCommand) (*pricing.PriceItem, error) {
	item, err := pricing.NewPriceItem(cmd.ID, cmd.PriceTableID, cmd.StudioTypeID, cmd.DefaultPricePerUnit)
	if err != nil {
		return nil, err
	}

	err = c.repo.UpsertItem(ctx, item, func(siblings []*pricing.PriceItem, previous *pricing.PriceItem, ruleCount int) error {
		if err := pricing.ValidateItemUnique(item, siblings); err != nil {
			return err
		}
		return pricing.ValidateItemMove(item, previous, ruleCount)
	})
	if err != nil {
		return nil, c.mapWriteErr(err, "price table", cmd.PriceTableID)
	}
	c.logger.Info("price item saved", "price_item_id", item.ID(), "price_table_id", item.PriceTableID())
	return item, nil
}

func (c *catalogCommandsImpl) UpsertRule(ctx context.Context, p pricing.PriceRuleParams) (*pricing.PriceRule, error) {
	rule, err := pricing.NewPriceRule(p)
	if err != nil {
		return nil, err
	}

	err = c.repo.UpsertRule(ctx, rule, func(siblings []*pricing.PriceRule) error {
		return pricing.ValidateRuleAgainst(rule, siblings)
	})
	if err != nil {
		return nil, c.mapWriteErr(err, "price item", p.PriceItemID)
	}
	c.logger.Info("price rule saved",
		"price_rule_id", rule.ID(),
		"price_item_id", rule.PriceItemID(),
		"window", rule.Window().String(),
		"unit", rule.Unit().String())
	return rule, nil
}

func (c *catalogCommandsImpl) AdvanceLifecycle(ctx context.Context) (int, error) {
	today := c.today()
	n, err := c.repo.AdvanceLifecycle(ctx, func(t *pricing.PriceTable) (*pricing.PriceTable, bool) {
		return t.Advance(today)
	})
	if err != nil {
		return 0, shared.Transient(err, "advancing price table lifecycle")
	}
	return n, nil
}

func (c *catalogCommandsImpl) mapWriteErr(err error, parent string, parentID uuid.UUID) error {
	switch {
	case errs.Is(err, pricing.ErrInvalidCatalogEntry):
		return err
	case infra.IsKind(err, infra.KindNotFound):
		return errs.Wrapf(pricing.ErrInvalidCatalogEntry, "unknown %s %s", parent, parentID)
	case infra.IsKind(err, infra.KindDuplicateKey):
		return errs.Wrapf(pricing.ErrInvalidCatalogEntry, "duplicate entry under %s %s", parent, parentID)
	default:
		return shared.Transient(err, "saving "+parent+" child")
	}
}
