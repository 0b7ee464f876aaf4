package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/storage"
	"github.com/google/uuid"
)

// DateLayout is how event dates are rendered, matching the input form
// with seconds.
const DateLayout = "2006-01-02T15:04:05"

const msgEventNotFound = "Event not found"

// validID reports whether id could name a stored record. Anything that
// is not a UUID cannot exist and is reported as not found without a
// round trip to storage.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ParseEventDate accepts "YYYY-MM-DD HH:MM" with a space or a "T"
// separator. Seconds and fractional seconds are ignored.
func ParseEventDate(raw string) (time.Time, error) {
	clean := strings.TrimSpace(strings.Replace(raw, "T", " ", 1))
	clean = strings.SplitN(clean, ".", 2)[0]
	if len(clean) > 16 {
		clean = clean[:16]
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", clean, time.UTC)
	if err != nil {
		return time.Time{}, newError(KindValidation, "Invalid date %q. Use YYYY-MM-DDTHH:MM", raw)
	}
	return t, nil
}

// EventService orchestrates the event catalog and its image assets.
type EventService struct {
	events EventStore
	images ImageStore
	logger *slog.Logger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, images ImageStore, logger *slog.Logger) *EventService {
	return &EventService{events: events, images: images, logger: logger}
}

func requireAdmin(caller model.Identity) error {
	if caller.Role != model.RoleAdmin {
		return newError(KindForbidden, "Forbidden: Only Admins can manage events")
	}
	return nil
}

func validateEventInput(in model.EventInput) error {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return newError(KindValidation, "Title must not be empty")
	}
	if in.Location != nil && strings.TrimSpace(*in.Location) == "" {
		return newError(KindValidation, "Location must not be empty")
	}
	if in.Capacity != nil && *in.Capacity < 0 {
		return newError(KindValidation, "Capacity must be zero or more")
	}
	if in.TicketPrice != nil && *in.TicketPrice < 0 {
		return newError(KindValidation, "Ticket price must be zero or more")
	}
	return nil
}

// saveImage stores an upload, if any, and returns its generated name.
func (s *EventService) saveImage(img *model.ImageUpload) (*string, error) {
	if img == nil {
		return nil, nil
	}
	name, err := s.images.Save(img.Filename, img.Content)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidImage) {
			return nil, newError(KindValidation, "Invalid image format. Only JPG, PNG, and GIF allowed.")
		}
		return nil, fmt.Errorf("save image: %w", err)
	}
	return &name, nil
}

// discardImage removes an asset that is no longer referenced. Failures
// are logged; the caller's outcome does not depend on them.
func (s *EventService) discardImage(name *string, reason string) {
	if name == nil {
		return
	}
	if err := s.images.Delete(*name); err != nil {
		s.logger.Error("delete image failed", "image", *name, "reason", reason, "err", err)
	}
}

// Create adds an event owned by caller. A stored image is removed again
// if the event cannot be persisted.
func (s *EventService) Create(ctx context.Context, caller model.Identity, in model.EventInput) (*model.Event, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	switch {
	case in.Title == nil:
		return nil, newError(KindValidation, "Title is required")
	case in.Date == nil:
		return nil, newError(KindValidation, "Date is required")
	case in.Location == nil:
		return nil, newError(KindValidation, "Location is required")
	case in.Capacity == nil:
		return nil, newError(KindValidation, "Capacity is required")
	case in.TicketPrice == nil:
		return nil, newError(KindValidation, "Ticket price is required")
	}
	if err := validateEventInput(in); err != nil {
		return nil, err
	}

	image, err := s.saveImage(in.Image)
	if err != nil {
		return nil, err
	}

	e := &model.Event{
		OrganizerID:   caller.UserID,
		Title:         strings.TrimSpace(*in.Title),
		Date:          *in.Date,
		Location:      strings.TrimSpace(*in.Location),
		Capacity:      *in.Capacity,
		TicketPrice:   *in.TicketPrice,
		ImageFilename: image,
	}
	if in.Description != nil {
		e.Description = *in.Description
	}

	if err := s.events.Create(ctx, e); err != nil {
		s.discardImage(image, "create failed")
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created", "event_id", e.ID, "organizer_id", e.OrganizerID, "capacity", e.Capacity)
	return e, nil
}

// Update applies the non-nil fields of in. A replacement image is
// stored first and the old one deleted only after the row is updated,
// so a failed update never leaves the event without its image.
func (s *EventService) Update(ctx context.Context, caller model.Identity, id string, in model.EventInput) (*model.Event, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, newError(KindNotFound, msgEventNotFound)
	}
	if err := validateEventInput(in); err != nil {
		return nil, err
	}

	newImage, err := s.saveImage(in.Image)
	if err != nil {
		return nil, err
	}

	var oldImage *string
	e, err := s.events.Update(ctx, id, func(e *model.Event) error {
		if in.Title != nil {
			e.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			e.Description = *in.Description
		}
		if in.Date != nil {
			e.Date = *in.Date
		}
		if in.Location != nil {
			e.Location = strings.TrimSpace(*in.Location)
		}
		if in.Capacity != nil {
			e.Capacity = *in.Capacity
		}
		if in.TicketPrice != nil {
			e.TicketPrice = *in.TicketPrice
		}
		if newImage != nil {
			oldImage = e.ImageFilename
			e.ImageFilename = newImage
		}
		return nil
	})
	if err != nil {
		s.discardImage(newImage, "update failed")
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, msgEventNotFound)
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	s.discardImage(oldImage, "replaced")
	s.logger.Info("event updated", "event_id", e.ID)
	return e, nil
}

// Delete removes the event and then its image.
func (s *EventService) Delete(ctx context.Context, caller model.Identity, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if !validID(id) {
		return newError(KindNotFound, msgEventNotFound)
	}
	image, err := s.events.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, msgEventNotFound)
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.discardImage(image, "event deleted")
	s.logger.Info("event deleted", "event_id", id)
	return nil
}

// List returns all events.
func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	if !validID(id) {
		return nil, newError(KindNotFound, msgEventNotFound)
	}
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, msgEventNotFound)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// View renders e for API responses, resolving its image URL.
func (s *EventService) View(e model.Event) model.EventView {
	return model.EventView{
		ID:          e.ID,
		Title:       e.Title,
		ImageURL:    s.images.URL(e.ImageFilename),
		Description: e.Description,
		Date:        e.Date.UTC().Format(DateLayout),
		Location:    e.Location,
		Capacity:    e.Capacity,
		TicketPrice: e.TicketPrice,
		OrganizerID: e.OrganizerID,
	}
}

// ImageURL resolves a stored image name.
func (s *EventService) ImageURL(name *string) *string {
	return s.images.URL(name)
}
