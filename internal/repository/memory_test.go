package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type role string

type testDoc struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Slug      string    `json:"slug" bson:"slug"`
	Role      role      `json:"role,omitempty" bson:"role,omitempty"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func seed(t *testing.T, s Store[testDoc], docs ...testDoc) {
	t.Helper()
	for _, d := range docs {
		require.NoError(t, s.Insert(context.Background(), d.ID, d))
	}
}

func TestMemoryStore_ListAndFilter(t *testing.T) {
	s := NewMemoryStore[testDoc]("slug")
	seed(t, s,
		testDoc{ID: "1", Name: "A", Slug: "a", Role: "admin"},
		testDoc{ID: "2", Name: "B", Slug: "b", Role: "user"},
		testDoc{ID: "3", Name: "C", Slug: "c", Role: "user"},
	)
	ctx := context.Background()

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{all[0].ID, all[1].ID, all[2].ID})

	users, err := s.List(ctx, Eq("role", role("user")))
	require.NoError(t, err)
	assert.Len(t, users, 2)

	none, err := s.List(ctx, Eq("role", "root"))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryStore_FindOneMatchesAny(t *testing.T) {
	s := NewMemoryStore[testDoc]()
	seed(t, s, testDoc{ID: "1", Name: "A", Slug: "a"})
	ctx := context.Background()

	got, err := s.FindOne(ctx, Eq("slug", "zzz"), Eq("name", "A"))
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	_, err = s.FindOne(ctx, Eq("slug", "zzz"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UniqueFields(t *testing.T) {
	s := NewMemoryStore[testDoc]("slug")
	seed(t, s, testDoc{ID: "1", Name: "A", Slug: "a"}, testDoc{ID: "2", Name: "B", Slug: "b"})
	ctx := context.Background()

	err := s.Insert(ctx, "3", testDoc{ID: "3", Name: "A again", Slug: "a"})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = s.Insert(ctx, "1", testDoc{ID: "1", Slug: "new"})
	assert.ErrorIs(t, err, ErrDuplicate)

	var ch Changes
	ch.Put("slug", "a")
	_, err = s.Update(ctx, "2", ch)
	assert.ErrorIs(t, err, ErrDuplicate)

	// the failed update must not have been applied
	got, err := s.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Slug)
}

func TestMemoryStore_UpdateIsPartial(t *testing.T) {
	s := NewMemoryStore[testDoc]()
	seed(t, s, testDoc{ID: "1", Name: "A", Slug: "a", Role: "admin"})
	ctx := context.Background()

	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	var ch Changes
	ch.Put("name", "Renamed")
	ch.Put("updatedAt", now)
	ch.Remove("role")

	got, err := s.Update(ctx, "1", ch)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "a", got.Slug)
	assert.Empty(t, got.Role)
	assert.True(t, now.Equal(got.UpdatedAt))

	_, err = s.Update(ctx, "missing", ch)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_GetDelete(t *testing.T) {
	s := NewMemoryStore[testDoc]()
	seed(t, s, testDoc{ID: "1", Name: "A"})
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, "1"))
	_, err := s.Get(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "1"), ErrNotFound)
}

func TestMemoryStore_ConcurrentInsertSameUniqueValue(t *testing.T) {
	s := NewMemoryStore[testDoc]("slug")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			errs[i] = s.Insert(ctx, id, testDoc{ID: id, Slug: "same"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrDuplicate)
		}
	}
	assert.Equal(t, 1, ok)
}
