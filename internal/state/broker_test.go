package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/health-alerts/internal/model"
	"github.com/nhle/health-alerts/tests/testutil"
)

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker[string]()

	var a, c []string
	unsubA := b.Subscribe(func(v string) { a = append(a, v) })
	b.Subscribe(func(v string) { c = append(c, v) })
	require.Equal(t, 2, b.Len())

	b.Publish("one")
	unsubA()
	unsubA()
	b.Publish("two")

	require.Equal(t, []string{"one"}, a)
	require.Equal(t, []string{"one", "two"}, c)
	require.Equal(t, 1, b.Len())
}

func TestBrokerSubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	b := NewBroker[int]()

	var unsub func()
	calls := 0
	unsub = b.Subscribe(func(int) {
		calls++
		unsub()
	})

	b.Publish(1)
	b.Publish(2)
	require.Equal(t, 1, calls)
}

func TestToastQueueDropsWhenFull(t *testing.T) {
	q := NewToastQueue(1)
	q.Notify(NewToast(ToastInfo, "first"))
	q.Notify(NewToast(ToastInfo, "second"))

	got := <-q.C()
	require.Equal(t, "first", got.Message)
	require.NotEmpty(t, got.ID)

	select {
	case extra := <-q.C():
		t.Fatalf("unexpected toast %q", extra.Message)
	default:
	}
}

func TestServicesShareLocationAuthority(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	require.NoError(t, st.Set(ctx, model.KeyLocationEnabled, "true"))

	svc := New(ctx, Deps{
		Backend: &fakeBackend{},
		Locator: staticLocator(3, 4),
		Store:   st,
	})
	t.Cleanup(svc.Close)

	require.True(t, svc.Notifications.LocationStatus().Enabled)

	require.True(t, svc.Location.DisableLocation(ctx))
	require.False(t, svc.Notifications.LocationStatus().Enabled)
}
