package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/asset-service/internal/domain"
)

func TestPublishInvokesSubscribersInOrder(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var seen []string
	d.Subscribe(EventAssetDeployed, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+e.AssetID)
		return errors.New("handler failure")
	})
	d.Subscribe(EventAssetDeployed, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.AssetID)
		return nil
	})
	d.Subscribe(EventAssetReturned, func(context.Context, Event) error {
		seen = append(seen, "unrelated")
		return nil
	})

	err := d.Publish(context.Background(), New(EventAssetDeployed, domain.Scope{BusinessUnitID: "bu-1"}, "asset-1", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"first:asset-1", "second:asset-1"}, seen)
}

func TestNewStampsEvent(t *testing.T) {
	e := New(EventAssetCreated, domain.Scope{BusinessUnitID: "bu-1", UserID: "user-1"}, "asset-1", AssetCreatedPayload{Name: "Laptop"})
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "bu-1", e.BusinessUnitID)
	require.NotNil(t, e.ActorUserID)
	assert.Equal(t, "user-1", *e.ActorUserID)
	assert.False(t, e.Timestamp.IsZero())
}
