package recipe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/metrics"
	"github.com/YelzhanWeb/orderboard/internal/mocks"
)

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func TestClient_Budgets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/recipes/r-marg":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"r-marg","prepBudgetSeconds":240,"cookBudgetSeconds":420}`))
		case "/recipes/r-broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)

	got, err := client.Budgets(context.Background(), "r-marg")
	require.NoError(t, err)
	assert.Equal(t, metrics.StageBudgets{Prep: 240 * time.Second, Cook: 420 * time.Second, Cut: 60 * time.Second}, got)

	got, err = client.Budgets(context.Background(), "r-unknown")
	require.NoError(t, err)
	assert.Equal(t, metrics.DefaultBudgets, got)

	_, err = client.Budgets(context.Background(), "r-broken")
	assert.Error(t, err)
}

func TestClient_NoBaseURL(t *testing.T) {
	got, err := NewClient("", time.Second).Budgets(context.Background(), "r-marg")
	require.NoError(t, err)
	assert.Equal(t, metrics.DefaultBudgets, got)
}

func TestCachedCatalog(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*MockRedisClient, *mocks.MockRecipeCatalog)
		want       metrics.StageBudgets
		wantErr    bool
	}{
		{
			name: "cache hit",
			setupMocks: func(cache *MockRedisClient, next *mocks.MockRecipeCatalog) {
				cache.On("Get", mock.Anything, "recipe:budgets:r-1").
					Return(redis.NewStringResult(`{"prep_seconds":120,"cook_seconds":200,"cut_seconds":30}`, nil))
			},
			want: metrics.StageBudgets{Prep: 120 * time.Second, Cook: 200 * time.Second, Cut: 30 * time.Second},
		},
		{
			name: "cache miss fills the cache",
			setupMocks: func(cache *MockRedisClient, next *mocks.MockRecipeCatalog) {
				cache.On("Get", mock.Anything, "recipe:budgets:r-1").Return(redis.NewStringResult("", redis.Nil))
				next.On("Budgets", mock.Anything, "r-1").Return(metrics.DefaultBudgets, nil)
				cache.On("Set", mock.Anything, "recipe:budgets:r-1", mock.Anything, 5*time.Minute).
					Return(redis.NewStatusResult("OK", nil))
			},
			want: metrics.DefaultBudgets,
		},
		{
			name: "redis down still answers",
			setupMocks: func(cache *MockRedisClient, next *mocks.MockRecipeCatalog) {
				down := errors.New("connection refused")
				cache.On("Get", mock.Anything, "recipe:budgets:r-1").Return(redis.NewStringResult("", down))
				next.On("Budgets", mock.Anything, "r-1").Return(metrics.DefaultBudgets, nil)
				cache.On("Set", mock.Anything, "recipe:budgets:r-1", mock.Anything, 5*time.Minute).
					Return(redis.NewStatusResult("", down))
			},
			want: metrics.DefaultBudgets,
		},
		{
			name: "catalog failure is returned",
			setupMocks: func(cache *MockRedisClient, next *mocks.MockRecipeCatalog) {
				cache.On("Get", mock.Anything, "recipe:budgets:r-1").Return(redis.NewStringResult("", redis.Nil))
				next.On("Budgets", mock.Anything, "r-1").Return(metrics.StageBudgets{}, errors.New("timeout"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := new(MockRedisClient)
			next := new(mocks.MockRecipeCatalog)
			tt.setupMocks(cache, next)

			catalog := NewCachedCatalog(next, cache, 5*time.Minute, logger.NewNop())
			got, err := catalog.Budgets(context.Background(), "r-1")

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			cache.AssertExpectations(t)
			next.AssertExpectations(t)
		})
	}
}
