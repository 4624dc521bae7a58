package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vipul43/jobtrail/internal/models"
)

func TestMemory_LoadMissing(t *testing.T) {
	m := NewMemory()
	entry, err := m.Load(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestMemory_UpdateCreatesAndRecounts(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	saved, err := m.Update(ctx, "me@example.com", func(current *models.CacheEntry) (*models.CacheEntry, error) {
		assert.Nil(t, current)
		return &models.CacheEntry{
			EarliestDate: "2025-01-01",
			LatestDate:   "2025-02-01",
			Companies:    models.CompanyList{{Name: "Acme", Positions: []models.PositionRecord{{Position: "A"}}}},
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", saved.UserID)
	assert.Equal(t, 1, saved.TotalCompanies)
	assert.Equal(t, 1, saved.TotalApplications)
	assert.False(t, saved.CreatedAt.IsZero())

	loaded, err := m.Load(ctx, "me@example.com")
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestMemory_UpdateNilWritesNothing(t *testing.T) {
	m := NewMemory()
	entry, err := m.Update(context.Background(), "u", func(*models.CacheEntry) (*models.CacheEntry, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, entry)

	loaded, _ := m.Load(context.Background(), "u")
	assert.Nil(t, loaded)
}

func TestMemory_UpdateErrorWritesNothing(t *testing.T) {
	m := NewMemory()
	boom := errors.New("boom")
	_, err := m.Update(context.Background(), "u", func(*models.CacheEntry) (*models.CacheEntry, error) {
		return &models.CacheEntry{}, boom
	})
	assert.ErrorIs(t, err, boom)

	loaded, _ := m.Load(context.Background(), "u")
	assert.Nil(t, loaded)
}

func TestMemory_LoadReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, err := m.Update(ctx, "u", func(*models.CacheEntry) (*models.CacheEntry, error) {
		return &models.CacheEntry{Companies: models.CompanyList{{Name: "Acme"}}}, nil
	})
	require.NoError(t, err)

	loaded, _ := m.Load(ctx, "u")
	loaded.Companies[0].Name = "Changed"

	again, _ := m.Load(ctx, "u")
	assert.Equal(t, "Acme", again.Companies[0].Name)
}

func TestMemory_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Update(ctx, "u", func(current *models.CacheEntry) (*models.CacheEntry, error) {
				next := &models.CacheEntry{}
				if current != nil {
					next = current
				}
				next.Companies = append(next.Companies, models.CompanyRecord{Name: fmt.Sprintf("c%d", i)})
				return next, nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	loaded, _ := m.Load(ctx, "u")
	require.NotNil(t, loaded)
	assert.Len(t, loaded.Companies, 50)
	assert.Equal(t, 50, loaded.TotalCompanies)
}

func TestMemory_Delete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, _ = m.Update(ctx, "u", func(*models.CacheEntry) (*models.CacheEntry, error) {
		return &models.CacheEntry{}, nil
	})
	require.NoError(t, m.Delete(ctx, "u"))

	loaded, _ := m.Load(ctx, "u")
	assert.Nil(t, loaded)
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("same")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Empty(t, k.locks)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	k := NewKeyedMutex()
	unlockA := k.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := k.Lock("b")
		unlock()
		close(done)
	}()
	<-done
}
