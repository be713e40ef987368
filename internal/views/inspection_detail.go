package views

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/entity"
	"github.com/vbonduro/homeinspect/internal/notify"
	"github.com/vbonduro/homeinspect/internal/session"
	"github.com/vbonduro/homeinspect/internal/upload"
)

// InspectionDetail shows one inspection and its image gallery.
type InspectionDetail struct {
	sess       *session.Session
	notifier   notify.Notifier
	logger     *slog.Logger
	uploader   *upload.Uploader
	house      *domain.House
	inspection *domain.Inspection
	images     *entity.Store[domain.Image]
}

func NewInspectionDetail(sess *session.Session, notifier notify.Notifier, logger *slog.Logger) *InspectionDetail {
	return &InspectionDetail{
		sess:     sess,
		notifier: notifier,
		logger:   logger,
		uploader: upload.NewUploader(sess.Client(), notifier, logger),
		images:   newImageStore(),
	}
}

// Uploader exposes the batch uploader so callers can watch its progress.
func (v *InspectionDetail) Uploader() *upload.Uploader {
	return v.uploader
}

// Load fetches the house, the inspection and its images. A missing house
// redirects to the dashboard; a missing inspection to the house's list.
func (v *InspectionDetail) Load(ctx context.Context, houseID, inspectionID string) error {
	if _, err := v.sess.Current(ctx); err != nil {
		return authRequired(v.sess, err)
	}
	c := v.sess.Client()
	house, err := c.GetHouse(ctx, houseID)
	if err != nil {
		return notFound(failed(v.sess, v.notifier, "House not found", err), "house", "/dashboard")
	}
	insp, err := c.GetInspection(ctx, houseID, inspectionID)
	if err != nil {
		redirect := fmt.Sprintf("/houses/%s/inspections", houseID)
		return notFound(failed(v.sess, v.notifier, "Inspection not found", err), "inspection", redirect)
	}
	images, err := c.ListObjects(ctx, domain.ImagePrefix(inspectionID))
	if err != nil {
		return failed(v.sess, v.notifier, "Error loading inspection details", err)
	}
	v.house = house
	v.inspection = insp
	v.images.Reset(images)
	return nil
}

func (v *InspectionDetail) House() *domain.House {
	return v.house
}

func (v *InspectionDetail) Inspection() *domain.Inspection {
	return v.inspection
}

func (v *InspectionDetail) Images() []domain.Image {
	return v.images.Items()
}

// UploadImages validates the selection, uploads what passes and appends the
// stored images to the gallery. Rejected files are reported and skipped.
func (v *InspectionDetail) UploadImages(ctx context.Context, files []upload.File) (upload.Result, []upload.Rejection, error) {
	if v.inspection == nil {
		return upload.Result{}, nil, &NotFoundError{Entity: "inspection", Redirect: "/dashboard"}
	}
	accepted, rejected, err := upload.Validate(files)
	if err != nil {
		v.notifier.Error(err.Error())
		return upload.Result{}, nil, err
	}
	for _, r := range rejected {
		v.notifier.Error(fmt.Sprintf("%s: %v", r.File, r.Reason))
	}
	res, err := v.uploader.Upload(ctx, v.inspection.ID, accepted, func(images []domain.Image) {
		v.images.Append(images...)
	})
	return res, rejected, err
}

// DeleteImage removes the stored image at path.
func (v *InspectionDetail) DeleteImage(ctx context.Context, path string) error {
	if err := v.sess.Client().DeleteObject(ctx, path); err != nil {
		return failed(v.sess, v.notifier, "Failed to delete image", err)
	}
	patched(v.logger, "image", path, v.images.Delete(path))
	v.notifier.Success("Image deleted successfully")
	return nil
}
