package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestInspectionStoreCreate(t *testing.T) {
	d := openTestDB(t)
	ann := createUser(t, d, "ann@example.com")
	house, err := NewHouseStore(d).Create(context.Background(), ann.ID, "Main St", nil)
	require.NoError(t, err)
	inspections := NewInspectionStore(d)

	in, err := inspections.Create(context.Background(), ann.ID, house.ID, "Roof", strPtr("moss"), day("2024-03-15"))
	require.NoError(t, err)
	assert.NotEmpty(t, in.ID)
	assert.Equal(t, house.ID, in.HouseID)
	assert.Equal(t, ann.ID, in.UserID)
	assert.Equal(t, "Roof", in.Title)
	require.NotNil(t, in.Notes)
	assert.Equal(t, "moss", *in.Notes)
	assert.True(t, in.InspectionDate.Equal(day("2024-03-15")))
}

func TestInspectionStoreCreate_ForeignHouse(t *testing.T) {
	d := openTestDB(t)
	ann := createUser(t, d, "ann@example.com")
	bob := createUser(t, d, "bob@example.com")
	house, err := NewHouseStore(d).Create(context.Background(), ann.ID, "Main St", nil)
	require.NoError(t, err)

	_, err = NewInspectionStore(d).Create(context.Background(), bob.ID, house.ID, "Sneaky", nil, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInspectionStoreListByHouse_OrderedByDate(t *testing.T) {
	d := openTestDB(t)
	ann := createUser(t, d, "ann@example.com")
	house, err := NewHouseStore(d).Create(context.Background(), ann.ID, "Main St", nil)
	require.NoError(t, err)
	inspections := NewInspectionStore(d)
	ctx := context.Background()

	_, err = inspections.Create(ctx, ann.ID, house.ID, "Spring", nil, day("2024-03-01"))
	require.NoError(t, err)
	_, err = inspections.Create(ctx, ann.ID, house.ID, "Summer", nil, day("2024-07-01"))
	require.NoError(t, err)
	_, err = inspections.Create(ctx, ann.ID, house.ID, "Winter", nil, day("2024-01-01"))
	require.NoError(t, err)

	list, err := inspections.ListByHouse(ctx, ann.ID, house.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Summer", list[0].Title)
	assert.Equal(t, "Spring", list[1].Title)
	assert.Equal(t, "Winter", list[2].Title)

	ids, err := inspections.ListIDsByHouse(ctx, ann.ID, house.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func TestInspectionStoreGetInHouse(t *testing.T) {
	d := openTestDB(t)
	ann := createUser(t, d, "ann@example.com")
	houses := NewHouseStore(d)
	ctx := context.Background()
	a, err := houses.Create(ctx, ann.ID, "A", nil)
	require.NoError(t, err)
	b, err := houses.Create(ctx, ann.ID, "B", nil)
	require.NoError(t, err)
	inspections := NewInspectionStore(d)

	in, err := inspections.Create(ctx, ann.ID, a.ID, "Roof", nil, time.Now())
	require.NoError(t, err)

	got, err := inspections.GetInHouse(ctx, ann.ID, a.ID, in.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = inspections.GetInHouse(ctx, ann.ID, b.ID, in.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInspectionStoreUpdate(t *testing.T) {
	d := openTestDB(t)
	ann := createUser(t, d, "ann@example.com")
	house, err := NewHouseStore(d).Create(context.Background(), ann.ID, "Main St", nil)
	require.NoError(t, err)
	inspections := NewInspectionStore(d)
	ctx := context.Background()

	in, err := inspections.Create(ctx, ann.ID, house.ID, "Roof", strPtr("moss"), day("2024-03-15"))
	require.NoError(t, err)

	updated, err := inspections.Update(ctx, ann.ID, in.ID, "Roof and gutters", nil, day("2024-03-16"))
	require.NoError(t, err)
	assert.Equal(t, "Roof and gutters", updated.Title)
	assert.Nil(t, updated.Notes)
	assert.True(t, updated.InspectionDate.Equal(day("2024-03-16")))
	assert.Equal(t, house.ID, updated.HouseID)
}

func TestInspectionStoreUpdate_NotFound(t *testing.T) {
	d := openTestDB(t)
	ann := createUser(t, d, "ann@example.com")

	_, err := NewInspectionStore(d).Update(context.Background(), ann.ID, "missing", "x", nil, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInspectionStoreDelete(t *testing.T) {
	d := openTestDB(t)
	ann := createUser(t, d, "ann@example.com")
	house, err := NewHouseStore(d).Create(context.Background(), ann.ID, "Main St", nil)
	require.NoError(t, err)
	inspections := NewInspectionStore(d)
	ctx := context.Background()

	in, err := inspections.Create(ctx, ann.ID, house.ID, "Roof", nil, time.Now())
	require.NoError(t, err)

	require.NoError(t, inspections.Delete(ctx, ann.ID, in.ID))

	got, err := inspections.GetByID(ctx, ann.ID, in.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, inspections.Delete(ctx, ann.ID, in.ID), ErrNotFound)
}
