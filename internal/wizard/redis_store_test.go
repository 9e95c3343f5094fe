package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/ayurdiet-portal/internal/catalog"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour, nil), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	sess := &Session{
		PatientID: "pat-1",
		Token:     "tok",
		State: PlanReady{
			Assessment: catalog.Assessment{Age: 34, Gender: "Female", Prakriti: "Vata-Pitta", Vikriti: "Pitta"},
			Plan:       catalog.DietPlan{DoshaImbalance: "Pitta", RecommendedFoods: []string{"Cucumber"}},
			PlanID:     "plan-1",
		},
		Transcript: []Message{{Role: RoleBot, Content: "hi"}},
		UpdatedAt:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Put(ctx, sess))
	assert.Equal(t, time.Hour, mr.TTL("wizard:pat-1"))

	got, err := store.Get(ctx, "pat-1")
	require.NoError(t, err)
	assert.Equal(t, sess.Token, got.Token)
	assert.Equal(t, sess.State, got.State)
	assert.Equal(t, sess.Transcript, got.Transcript)
	assert.True(t, sess.UpdatedAt.Equal(got.UpdatedAt))

	_, err = store.Get(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRedisStoreUpdateChecksToken(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, &Session{PatientID: "pat-1", Token: "tok", State: AwaitingVikriti{Age: 34, Gender: "Male", Prakriti: "Kapha"}}))

	updated, err := store.Update(ctx, "pat-1", "tok", func(s *Session) error {
		st := s.State.(AwaitingVikriti)
		st.Failed = true
		s.State = st
		s.Generating = false
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.State.(AwaitingVikriti).Failed)

	got, err := store.Get(ctx, "pat-1")
	require.NoError(t, err)
	assert.Equal(t, AwaitingVikriti{Age: 34, Gender: "Male", Prakriti: "Kapha", Failed: true}, got.State)

	_, err = store.Update(ctx, "pat-1", "old", func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrStaleToken)

	_, err = store.Update(ctx, "nobody", "tok", func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRedisStoreUpdateAbortsOnError(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, &Session{PatientID: "pat-1", Token: "tok", State: AwaitingAge{}}))

	boom := errors.New("boom")
	_, err := store.Update(ctx, "pat-1", "tok", func(s *Session) error {
		s.State = AwaitingGender{Age: 40}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, "pat-1")
	require.NoError(t, err)
	assert.Equal(t, AwaitingAge{}, got.State)
}

func TestRedisStoreExpires(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, &Session{PatientID: "pat-1", Token: "tok", State: AwaitingAge{}}))

	mr.FastForward(2 * time.Hour)
	_, err := store.Get(ctx, "pat-1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestWizardOverRedis(t *testing.T) {
	store, _ := newRedisStore(t)
	gw := &fakeGateway{}
	svc := NewService(store, gw, nil, Options{})
	ctx := context.Background()

	view, err := svc.Open(ctx, patientUser)
	require.NoError(t, err)
	for _, answer := range []string{"34", "Female", "Vata-Pitta", "Pitta"} {
		view, err = svc.Submit(ctx, patientUser, view.Token, answer)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, view.Step)
	assert.Equal(t, []string{"assessment:pat-1", "generate:pat-1"}, gw.calls)
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &Session{PatientID: "pat-1", Token: "tok", State: AwaitingAge{}}))
	_, err := store.Get(ctx, "pat-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "pat-1")
	assert.ErrorIs(t, err, ErrNoSession)
}
