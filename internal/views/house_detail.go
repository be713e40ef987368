package views

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/entity"
	"github.com/vbonduro/homeinspect/internal/form"
	"github.com/vbonduro/homeinspect/internal/notify"
	"github.com/vbonduro/homeinspect/internal/search"
	"github.com/vbonduro/homeinspect/internal/session"
)

// countLimit bounds the image listings Load runs at once.
const countLimit = 4

// HouseDetail shows one house and its inspections.
type HouseDetail struct {
	sess        *session.Session
	notifier    notify.Notifier
	logger      *slog.Logger
	house       *domain.House
	inspections *entity.Store[InspectionItem]

	Now func() time.Time
}

type HouseStats struct {
	Inspections int
	Latest      *time.Time
	ThisMonth   int
}

func NewHouseDetail(sess *session.Session, notifier notify.Notifier, logger *slog.Logger) *HouseDetail {
	return &HouseDetail{
		sess:        sess,
		notifier:    notifier,
		logger:      logger,
		inspections: newInspectionStore(),
		Now:         time.Now,
	}
}

// Load fetches the house, its inspections and each inspection's image count.
// A house that is missing or not the caller's yields a *NotFoundError
// pointing back at the dashboard. A count that cannot be fetched stays nil.
func (v *HouseDetail) Load(ctx context.Context, houseID string) error {
	if _, err := v.sess.Current(ctx); err != nil {
		return authRequired(v.sess, err)
	}
	c := v.sess.Client()
	house, err := c.GetHouse(ctx, houseID)
	if err != nil {
		return notFound(failed(v.sess, v.notifier, "Failed to load house data", err), "house", "/dashboard")
	}
	inspections, err := c.ListInspections(ctx, houseID)
	if err != nil {
		return notFound(failed(v.sess, v.notifier, "Failed to load house data", err), "house", "/dashboard")
	}
	v.house = house
	v.inspections.Reset(v.countImages(ctx, inspections))
	return nil
}

func (v *HouseDetail) countImages(ctx context.Context, inspections []domain.Inspection) []InspectionItem {
	items := make([]InspectionItem, len(inspections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(countLimit)
	for i, insp := range inspections {
		items[i] = InspectionItem{Inspection: insp}
		g.Go(func() error {
			images, err := v.sess.Client().ListObjects(gctx, domain.ImagePrefix(insp.ID))
			if err != nil {
				v.logger.Warn("failed to count images", "inspection_id", insp.ID, "error", err)
				return nil
			}
			n := len(images)
			items[i].ImageCount = &n
			return nil
		})
	}
	_ = g.Wait()
	return items
}

// House returns the loaded house, or nil before Load succeeded.
func (v *HouseDetail) House() *domain.House {
	return v.house
}

func (v *HouseDetail) Inspections(query string) []InspectionItem {
	return search.Filter(v.inspections.Items(), query, inspectionFields...)
}

// CreateInspection adds an inspection to the loaded house. A new inspection
// has no images.
func (v *HouseDetail) CreateInspection(ctx context.Context, in form.InspectionInput) (InspectionItem, error) {
	if _, err := in.Validate(); err != nil {
		return InspectionItem{}, err
	}
	if v.house == nil {
		return InspectionItem{}, &NotFoundError{Entity: "house", Redirect: "/dashboard"}
	}
	insp, err := v.sess.Client().CreateInspection(ctx, v.house.ID, in)
	if err != nil {
		return InspectionItem{}, failed(v.sess, v.notifier, "Failed to create inspection", err)
	}
	zero := 0
	item := InspectionItem{Inspection: *insp, ImageCount: &zero}
	v.inspections.Prepend(item)
	v.notifier.Success("Inspection created successfully")
	return item, nil
}

// UpdateInspection saves the edit. The listed image count is carried over.
func (v *HouseDetail) UpdateInspection(ctx context.Context, id string, in form.InspectionInput) (InspectionItem, error) {
	if _, err := in.Validate(); err != nil {
		return InspectionItem{}, err
	}
	insp, err := v.sess.Client().UpdateInspection(ctx, id, in)
	if err != nil {
		return InspectionItem{}, failed(v.sess, v.notifier, "Failed to update inspection", err)
	}
	patched(v.logger, "inspection", id, v.inspections.Update(InspectionItem{Inspection: *insp}))
	v.notifier.Success("Inspection updated successfully")
	item, ok := v.inspections.Get(id)
	if !ok {
		item = InspectionItem{Inspection: *insp}
	}
	return item, nil
}

func (v *HouseDetail) DeleteInspection(ctx context.Context, id string) error {
	if err := v.sess.Client().DeleteInspection(ctx, id); err != nil {
		return failed(v.sess, v.notifier, "Failed to delete inspection", err)
	}
	patched(v.logger, "inspection", id, v.inspections.Delete(id))
	v.notifier.Success("Inspection deleted successfully")
	return nil
}

// Stats counts inspections, finds the most recent inspection date and counts
// the inspections dated this month.
func (v *HouseDetail) Stats() HouseStats {
	now := v.Now()
	var stats HouseStats
	for _, insp := range v.inspections.Items() {
		stats.Inspections++
		d := insp.InspectionDate
		if stats.Latest == nil || d.After(*stats.Latest) {
			stats.Latest = &d
		}
		if sameMonth(d.In(now.Location()), now) {
			stats.ThisMonth++
		}
	}
	return stats
}
