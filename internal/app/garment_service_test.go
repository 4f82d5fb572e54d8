package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"technowear/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGarment(t *testing.T, svc *GarmentService, userID, name string) domain.Garment {
	t.Helper()
	g, err := svc.Create(context.Background(), domain.Garment{
		UserID: userID, Name: name, Type: domain.GarmentShirt, BluetoothID: "BT-1", Paired: true,
	})
	require.NoError(t, err)
	return g
}

func TestGarmentService_CreatePublishes(t *testing.T) {
	repo, feed := newFakeRepo(), newFakeFeed()
	svc := NewGarmentService(repo, feed, nopLog())

	g := seedGarment(t, svc, "u1", "Test Shirt")
	assert.NotEmpty(t, g.ID)
	assert.False(t, g.CreatedAt.IsZero())
	require.Len(t, feed.published, 1)
	assert.Equal(t, domain.Change{Table: domain.TableGarments, Kind: domain.ChangeInsert, UserID: "u1", RowID: g.ID}, feed.published[0])

	views, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Bluetooth", views[0].Method)
	assert.Equal(t, "Connected", views[0].Status)
}

func TestViewGarmentLabels(t *testing.T) {
	v := viewGarment(domain.Garment{QRCode: "QR-1"})
	assert.Equal(t, "QR Code", v.Method)
	assert.Equal(t, "Disconnected", v.Status)
}

func TestGarmentService_DeleteRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewGarmentService(repo, newFakeFeed(), nopLog())
	g := seedGarment(t, svc, "u1", "Test Shirt")

	c, err := svc.RequestDelete(ctx, "u1", g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Shirt", c.Name)
	n, _ := svc.Count(ctx, "u1")
	assert.Equal(t, 1, n, "request alone must not delete")

	require.NoError(t, svc.CancelDelete("u1", c.Token))
	n, _ = svc.Count(ctx, "u1")
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, svc.ConfirmDelete(ctx, "u1", c.Token), ErrConfirmationNotFound)

	c, err = svc.RequestDelete(ctx, "u1", g.ID)
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmDelete(ctx, "u1", c.Token))
	n, _ = svc.Count(ctx, "u1")
	assert.Equal(t, 0, n)
}

func TestGarmentService_DeleteOtherUsersToken(t *testing.T) {
	ctx := context.Background()
	svc := NewGarmentService(newFakeRepo(), newFakeFeed(), nopLog())
	g := seedGarment(t, svc, "u1", "Test Shirt")

	_, err := svc.RequestDelete(ctx, "u2", g.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := svc.RequestDelete(ctx, "u1", g.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.ConfirmDelete(ctx, "u2", c.Token), ErrConfirmationNotFound)
}

func TestGarmentService_ConfirmationExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	svc := NewGarmentService(newFakeRepo(), newFakeFeed(), nopLog())
	svc.now = func() time.Time { return now }
	g := seedGarment(t, svc, "u1", "Test Shirt")

	c, err := svc.RequestDelete(ctx, "u1", g.ID)
	require.NoError(t, err)
	now = now.Add(DeleteConfirmationTTL)
	assert.ErrorIs(t, svc.ConfirmDelete(ctx, "u1", c.Token), ErrConfirmationExpired)
	n, _ := svc.Count(ctx, "u1")
	assert.Equal(t, 1, n)

	c, err = svc.RequestDelete(ctx, "u1", g.ID)
	require.NoError(t, err)
	now = now.Add(time.Hour)
	assert.NoError(t, svc.CancelDelete("u1", c.Token), "expired cancel is silent")
}

func TestGarmentService_WatchRefetchesOnChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo, feed := newFakeRepo(), newFakeFeed()
	svc := NewGarmentService(repo, feed, nopLog())

	var mu sync.Mutex
	var lens []int
	emitted := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- svc.Watch(ctx, "u1", func(items []GarmentView) error {
			mu.Lock()
			lens = append(lens, len(items))
			mu.Unlock()
			emitted <- struct{}{}
			return nil
		})
	}()

	<-emitted
	seedGarment(t, svc, "u1", "Shirt")
	<-emitted
	seedGarment(t, svc, "u2", "Not mine")
	seedGarment(t, svc, "u1", "Jacket")
	<-emitted

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, lens[0])
	assert.Equal(t, 2, lens[len(lens)-1])
}

func TestGarmentService_WatchEmitError(t *testing.T) {
	svc := NewGarmentService(newFakeRepo(), newFakeFeed(), nopLog())
	boom := errors.New("socket closed")

	err := svc.Watch(context.Background(), "u1", func([]GarmentView) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestGarmentService_BackendFailuresCarryMessages(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewGarmentService(repo, newFakeFeed(), nopLog())
	g := seedGarment(t, svc, "u1", "Shirt")
	c, err := svc.RequestDelete(ctx, "u1", g.ID)
	require.NoError(t, err)

	dbDown := errors.New("db down")
	repo.failGarments = dbDown

	_, err = svc.List(ctx, "u1")
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, MsgLoadGarments, f.Message)
	assert.ErrorIs(t, err, dbDown)

	err = svc.ConfirmDelete(ctx, "u1", c.Token)
	require.ErrorAs(t, err, &f)
	assert.Equal(t, MsgRemoveGarment, f.Message)
}
