// Package views holds the page-level state of the client: the collections a
// page fetched, kept in step with each successful mutation, and the
// notifications the user sees. Every view takes the Session it works for.
package views

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/homeinspect/internal/client"
	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/entity"
	"github.com/vbonduro/homeinspect/internal/notify"
	"github.com/vbonduro/homeinspect/internal/search"
	"github.com/vbonduro/homeinspect/internal/session"
)

// ErrNotFound matches any *NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError means a parent entity is missing or belongs to someone else.
// Redirect names the view the caller should go back to.
type NotFoundError struct {
	Entity   string
	Redirect string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// SignInPath is where an unauthenticated caller is sent.
const SignInPath = "/auth/signin"

// SignInError means the caller has no usable identity, either because they
// never signed in or because the server rejected their token. It matches
// session.ErrNotSignedIn.
type SignInError struct {
	Redirect string
	Err      error
}

func (e *SignInError) Error() string {
	return e.Err.Error()
}

func (e *SignInError) Unwrap() error {
	return e.Err
}

// InspectionItem is an inspection as a house's list shows it. ImageCount is
// nil until the count is known.
type InspectionItem struct {
	domain.Inspection
	ImageCount *int
}

var (
	houseFields = []search.Field[domain.HouseWithCount]{
		func(h domain.HouseWithCount) string { return h.Name },
		search.Optional(func(h domain.HouseWithCount) *string { return h.Address }),
	}
	inspectionFields = []search.Field[InspectionItem]{
		func(i InspectionItem) string { return i.Title },
		search.Optional(func(i InspectionItem) *string { return i.Notes }),
	}
)

func newHouseStore() *entity.Store[domain.HouseWithCount] {
	return entity.New(
		func(h domain.HouseWithCount) string { return h.ID },
		func(old, updated domain.HouseWithCount) domain.HouseWithCount {
			updated.InspectionCount = old.InspectionCount
			return updated
		},
	)
}

func newInspectionStore() *entity.Store[InspectionItem] {
	return entity.New(
		func(i InspectionItem) string { return i.ID },
		func(old, updated InspectionItem) InspectionItem {
			updated.ImageCount = old.ImageCount
			return updated
		},
	)
}

func newImageStore() *entity.Store[domain.Image] {
	return entity.New[domain.Image](func(i domain.Image) string { return i.Path }, nil)
}

// patched logs a store patch that found nothing to patch. The backend call
// already succeeded, so the operation itself does not fail.
func patched(logger *slog.Logger, kind, id string, err error) {
	if err != nil {
		logger.Warn("local store out of sync", "entity", kind, "id", id, "error", err)
	}
}

// authRequired wraps a missing or rejected identity in a *SignInError. A
// rejected token is forgotten by the session first.
func authRequired(sess *session.Session, err error) error {
	err = sess.CheckAuth(err)
	if errors.Is(err, session.ErrNotSignedIn) {
		return &SignInError{Redirect: SignInPath, Err: err}
	}
	return err
}

// failed maps a backend error for the caller. Auth failures are returned
// without a notification; anything else is announced with msg.
func failed(sess *session.Session, n notify.Notifier, msg string, err error) error {
	err = authRequired(sess, err)
	var se *SignInError
	if !errors.As(err, &se) {
		n.Error(msg)
	}
	return err
}

func notFound(err error, entityName, redirect string) error {
	if client.IsNotFound(err) {
		return &NotFoundError{Entity: entityName, Redirect: redirect}
	}
	return err
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
