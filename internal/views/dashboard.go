package views

import (
	"context"
	"log/slog"
	"time"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/entity"
	"github.com/vbonduro/homeinspect/internal/form"
	"github.com/vbonduro/homeinspect/internal/notify"
	"github.com/vbonduro/homeinspect/internal/search"
	"github.com/vbonduro/homeinspect/internal/session"
)

// Dashboard lists the caller's houses.
type Dashboard struct {
	sess     *session.Session
	notifier notify.Notifier
	logger   *slog.Logger
	houses   *entity.Store[domain.HouseWithCount]

	Now func() time.Time
}

type DashboardStats struct {
	TotalHouses      int
	TotalInspections int
	HousesThisMonth  int
}

func NewDashboard(sess *session.Session, notifier notify.Notifier, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		sess:     sess,
		notifier: notifier,
		logger:   logger,
		houses:   newHouseStore(),
		Now:      time.Now,
	}
}

// Load requires a signed-in caller and fetches their houses with counts.
func (d *Dashboard) Load(ctx context.Context) error {
	if _, err := d.sess.Current(ctx); err != nil {
		return authRequired(d.sess, err)
	}
	houses, err := d.sess.Client().ListHouses(ctx, "")
	if err != nil {
		return failed(d.sess, d.notifier, "Failed to load houses", err)
	}
	d.houses.Reset(houses)
	return nil
}

// Houses returns the loaded houses matching query by name or address.
func (d *Dashboard) Houses(query string) []domain.HouseWithCount {
	return search.Filter(d.houses.Items(), query, houseFields...)
}

func (d *Dashboard) House(id string) (domain.HouseWithCount, bool) {
	return d.houses.Get(id)
}

func (d *Dashboard) CreateHouse(ctx context.Context, in form.HouseInput) (domain.HouseWithCount, error) {
	if _, err := in.Validate(); err != nil {
		return domain.HouseWithCount{}, err
	}
	house, err := d.sess.Client().CreateHouse(ctx, in)
	if err != nil {
		return domain.HouseWithCount{}, failed(d.sess, d.notifier, "Failed to create house", err)
	}
	item := domain.HouseWithCount{House: *house}
	d.houses.Prepend(item)
	d.notifier.Success("House created successfully")
	return item, nil
}

func (d *Dashboard) UpdateHouse(ctx context.Context, id string, in form.HouseInput) (domain.HouseWithCount, error) {
	if _, err := in.Validate(); err != nil {
		return domain.HouseWithCount{}, err
	}
	house, err := d.sess.Client().UpdateHouse(ctx, id, in)
	if err != nil {
		return domain.HouseWithCount{}, failed(d.sess, d.notifier, "Failed to update house", err)
	}
	patched(d.logger, "house", id, d.houses.Update(domain.HouseWithCount{House: *house}))
	d.notifier.Success("House updated successfully")
	item, ok := d.houses.Get(id)
	if !ok {
		item = domain.HouseWithCount{House: *house}
	}
	return item, nil
}

// DeleteHouse removes a house. Its inspections and images go with it on the
// server.
func (d *Dashboard) DeleteHouse(ctx context.Context, id string) error {
	if err := d.sess.Client().DeleteHouse(ctx, id); err != nil {
		return failed(d.sess, d.notifier, "Failed to delete house", err)
	}
	patched(d.logger, "house", id, d.houses.Delete(id))
	d.notifier.Success("House deleted successfully")
	return nil
}

func (d *Dashboard) Stats() DashboardStats {
	now := d.Now()
	var stats DashboardStats
	for _, h := range d.houses.Items() {
		stats.TotalHouses++
		stats.TotalInspections += h.InspectionCount
		if sameMonth(h.CreatedAt.In(now.Location()), now) {
			stats.HousesThisMonth++
		}
	}
	return stats
}
