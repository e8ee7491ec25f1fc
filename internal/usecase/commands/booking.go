package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"studio-booking/internal/domain/booking"
	"studio-booking/internal/domain/ledger"
	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/domain/studio"
	"studio-booking/internal/infra"
	"studio-booking/internal/pkg/clock"
	"studio-booking/internal/pkg/errs"
	"studio-booking/internal/usecase/queries"
	"studio-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	ErrTransient           = shared.ErrTransient
	ErrMissingRequestID    = errs.New("booking request id is required")
	ErrIdempotencyKeyReuse = errs.New("idempotency key was used for a different request")
)

type SlotRequest struct {
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	ServiceIDs []uuid.UUID `json:"serviceIds"`
	ResourceID *uuid.UUID  `json:"resourceId,omitempty"`
}

type CreateBookingCommand struct {
	RequestID    uuid.UUID     `json:"-"`
	Actor        shared.Actor  `json:"-"`
	StudioTypeID uuid.UUID     `json:"studioTypeId"`
	LocationID   uuid.UUID     `json:"locationId"`
	Slots        []SlotRequest `json:"slots"`
	PhoneNumber  string        `json:"phoneNumber"`
	Note         string        `json:"note"`
	PaymentInfo  string        `json:"paymentInfo"`
}

type CreateBookingResult struct {
	Booking    *booking.Booking
	IsReplayed bool
}

type BookingCommands interface {
	CreateBooking(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error)
	CancelBooking(ctx context.Context, actor shared.Actor, bookingID uuid.UUID) (*booking.Booking, error)
}

type bookingCommandsImpl struct {
	bookings  BookingRepository
	ledger    SlotLedger
	directory shared.StudioDirectory
	quoter    queries.PriceQuoter
	clock     clock.Clock
	logger    *slog.Logger
	inflight  singleflight.Group
}

func NewBookingCommands(
	bookings BookingRepository,
	ledger SlotLedger,
	directory shared.StudioDirectory,
	quoter queries.PriceQuoter,
	clk clock.Clock,
	logger *slog.Logger,
) BookingCommands {
	return &bookingCommandsImpl{
		bookings:  bookings,
		ledger:    ledger,
		directory: directory,
		quoter:    quoter,
		clock:     clk,
		logger:    logger,
	}
}

// CreateBooking coalesces concurrent calls carrying the same request id; the
// callers that did not run the work see the result as a replay. The shared
// work is detached from any single caller's cancellation.
func (o *bookingCommandsImpl) CreateBooking(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	if cmd.RequestID == uuid.Nil {
		return nil, ErrMissingRequestID
	}
	hash := requestHash(cmd)

	ran := false
	ch := o.inflight.DoChan(cmd.RequestID.String(), func() (any, error) {
		ran = true
		return o.create(context.WithoutCancel(ctx), cmd, hash)
	})
	var out singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out = <-ch:
	}
	if out.Err != nil {
		return nil, out.Err
	}
	res := out.Val.(*CreateBookingResult)
	if res.Booking.RequestHash() != hash {
		return nil, errs.Wrapf(ErrIdempotencyKeyReuse, "%s", cmd.RequestID)
	}
	if !ran {
		return &CreateBookingResult{Booking: res.Booking, IsReplayed: true}, nil
	}
	return res, nil
}

type pricedSlot struct {
	req      SlotRequest
	interval ledger.Interval
	quote    *queries.Quote
}

func (o *bookingCommandsImpl) create(ctx context.Context, cmd CreateBookingCommand, hash string) (*CreateBookingResult, error) {
	if existing, err := o.findByRequestID(ctx, cmd.RequestID); err != nil || existing != nil {
		if err != nil {
			return nil, err
		}
		return &CreateBookingResult{Booking: existing, IsReplayed: true}, nil
	}

	if len(cmd.Slots) == 0 {
		return nil, booking.ErrNoSlots
	}
	if err := booking.ValidateContact(cmd.PhoneNumber, cmd.Note); err != nil {
		return nil, err
	}

	st, windows, err := o.validateWindows(ctx, cmd)
	if err != nil {
		return nil, err
	}

	priced := make([]pricedSlot, len(cmd.Slots))
	for i, req := range cmd.Slots {
		q, err := o.quoter.PriceWindow(ctx, st, windows[i].date, windows[i].window, req.ServiceIDs)
		if err != nil {
			return nil, err
		}
		interval, err := ledger.NewInterval(req.Start, req.End)
		if err != nil {
			return nil, errs.Wrap(booking.ErrInvalidTimeWindow, err.Error())
		}
		priced[i] = pricedSlot{req: req, interval: interval, quote: q}
	}

	bookingID := uuid.New()
	slots, lines, err := o.reserveAll(ctx, cmd, bookingID, priced)
	if err != nil {
		return nil, err
	}

	now := o.clock.Now()
	b, err := booking.NewBooking(booking.NewBookingParams{
		ID:           bookingID,
		RequestID:    cmd.RequestID,
		RequestHash:  hash,
		UserID:       cmd.Actor.UserID,
		StudioTypeID: cmd.StudioTypeID,
		LocationID:   cmd.LocationID,
		PhoneNumber:  cmd.PhoneNumber,
		Note:         cmd.Note,
		PaymentInfo:  cmd.PaymentInfo,
		Slots:        slots,
		Lines:        lines,
		Now:          now,
	})
	if err != nil {
		o.release(ctx, bookingID)
		return nil, err
	}
	event, err := booking.NewEvent(booking.EventConfirmed, b, now)
	if err != nil {
		o.release(ctx, bookingID)
		return nil, err
	}

	if err := o.bookings.Save(ctx, b, event); err != nil {
		o.release(ctx, bookingID)
		if infra.IsKind(err, infra.KindDuplicateKey) {
			winner, findErr := o.findByRequestID(ctx, cmd.RequestID)
			if findErr != nil {
				return nil, findErr
			}
			if winner != nil {
				return &CreateBookingResult{Booking: winner, IsReplayed: true}, nil
			}
		}
		return nil, shared.Transient(err, "saving booking")
	}

	o.logger.Info("booking confirmed",
		"booking_id", b.ID(),
		"request_id", b.RequestID(),
		"user_id", b.UserID(),
		"slots", len(slots),
		"total", b.Snapshot().Total)
	return &CreateBookingResult{Booking: b}, nil
}

func (o *bookingCommandsImpl) findByRequestID(ctx context.Context, requestID uuid.UUID) (*booking.Booking, error) {
	b, err := o.bookings.FindByRequestID(ctx, requestID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil
		}
		return nil, shared.Transient(err, "looking up booking request")
	}
	return b, nil
}

type slotWindow struct {
	date   pricing.Date
	window pricing.TimeWindow
}

// validateWindows checks every requested window before any pricing work.
func (o *bookingCommandsImpl) validateWindows(ctx context.Context, cmd CreateBookingCommand) (*studio.StudioType, []slotWindow, error) {
	var st *studio.StudioType
	windows := make([]slotWindow, len(cmd.Slots))
	for i, req := range cmd.Slots {
		loaded, date, w, err := o.quoter.StudioWindow(ctx, cmd.StudioTypeID, req.Start, req.End)
		if err != nil {
			return nil, nil, err
		}
		st = loaded
		windows[i] = slotWindow{date: date, window: w}
	}
	return st, windows, nil
}

// reserveAll reserves every slot or nothing. Slots of one request that
// overlap on a resource conflict with each other, so an auto-assigned slot
// moves on to the next room.
func (o *bookingCommandsImpl) reserveAll(
	ctx context.Context,
	cmd CreateBookingCommand,
	bookingID uuid.UUID,
	priced []pricedSlot,
) ([]booking.Slot, []booking.PriceLine, error) {
	slots := make([]booking.Slot, 0, len(priced))
	lines := make([]booking.PriceLine, 0, len(priced))
	for _, p := range priced {
		resourceID, err := o.reserveOne(ctx, cmd, bookingID, p)
		if err != nil {
			o.release(ctx, bookingID)
			return nil, nil, err
		}
		slots = append(slots, booking.Slot{ResourceID: resourceID, Interval: p.interval, ServiceIDs: p.req.ServiceIDs})
		lines = append(lines, booking.NewPriceLine(resourceID, p.quote.Plan, p.quote.Window, p.quote.Breakdown))
	}
	return slots, lines, nil
}

// reserveOne claims the requested resource, or the first resource of the
// studio type at the location that accepts the interval.
func (o *bookingCommandsImpl) reserveOne(ctx context.Context, cmd CreateBookingCommand, bookingID uuid.UUID, p pricedSlot) (uuid.UUID, error) {
	candidates, err := o.candidates(ctx, cmd, p.req)
	if err != nil {
		return uuid.Nil, err
	}
	for _, res := range candidates {
		err := o.ledger.Reserve(ctx, ledger.NewReservedSlot(res.ID(), p.interval, bookingID))
		if err == nil {
			return res.ID(), nil
		}
		if !errs.Is(err, ledger.ErrSlotConflict) {
			return uuid.Nil, shared.Transient(err, "reserving slot")
		}
		o.logger.Debug("slot taken", "resource_id", res.ID(), "interval", p.interval.String())
	}
	if p.req.ResourceID != nil {
		return uuid.Nil, ledger.Conflict(*p.req.ResourceID, p.interval)
	}
	return uuid.Nil, errs.Wrapf(ledger.ErrSlotConflict, "no resource free at location %s for %s", cmd.LocationID, p.interval)
}

func (o *bookingCommandsImpl) candidates(ctx context.Context, cmd CreateBookingCommand, req SlotRequest) ([]*studio.Resource, error) {
	if req.ResourceID != nil {
		res, err := o.directory.Resource(ctx, *req.ResourceID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, errs.Wrapf(studio.ErrResourceNotFound, "%s", *req.ResourceID)
			}
			return nil, shared.Transient(err, "loading resource")
		}
		if res.StudioTypeID() != cmd.StudioTypeID || res.LocationID() != cmd.LocationID {
			return nil, errs.Wrapf(studio.ErrResourceNotFound, "%s is not a %s room at location %s", res.ID(), cmd.StudioTypeID, cmd.LocationID)
		}
		return []*studio.Resource{res}, nil
	}

	resources, err := o.directory.ResourcesAt(ctx, cmd.StudioTypeID, cmd.LocationID)
	if err != nil {
		return nil, shared.Transient(err, "listing resources")
	}
	if len(resources) == 0 {
		return nil, errs.Wrapf(studio.ErrNoResourceAvailable, "studio type %s at location %s", cmd.StudioTypeID, cmd.LocationID)
	}
	return resources, nil
}

// release runs detached from the request context so that a canceled client
// does not leave slots behind.
func (o *bookingCommandsImpl) release(ctx context.Context, bookingID uuid.UUID) {
	if err := o.ledger.Release(context.WithoutCancel(ctx), bookingID); err != nil {
		o.logger.Error("failed to release slots", "booking_id", bookingID, "error", err)
	}
}

func (o *bookingCommandsImpl) CancelBooking(ctx context.Context, actor shared.Actor, bookingID uuid.UUID) (*booking.Booking, error) {
	b, err := o.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Wrapf(booking.ErrNotFound, "%s", bookingID)
		}
		return nil, shared.Transient(err, "loading booking")
	}
	if !b.CanBeCanceledBy(actor.UserID, actor.IsAdmin()) {
		return nil, errs.Wrapf(booking.ErrForbidden, "%s", bookingID)
	}

	now := o.clock.Now()
	if b.Cancel(now) {
		event, err := booking.NewEvent(booking.EventCanceled, b, now)
		if err != nil {
			return nil, err
		}
		if err := o.bookings.MarkCanceled(ctx, b, event); err != nil {
			return nil, shared.Transient(err, "canceling booking")
		}
	}

	if err := o.ledger.Release(ctx, b.ID()); err != nil {
		return nil, shared.Transient(err, "releasing slots")
	}
	o.logger.Info("booking canceled", "booking_id", b.ID(), "actor_id", actor.UserID)
	return b, nil
}

func requestHash(cmd CreateBookingCommand) string {
	data, _ := json.Marshal(struct {
		UserID uuid.UUID `json:"userId"`
		CreateBookingCommand
	}{cmd.Actor.UserID, cmd})
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
