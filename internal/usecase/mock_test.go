package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Save(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	args := r.Called(ctx, url)
	saved, _ := args.Get(0).(*entity.URL)
	return saved, args.Error(1)
}

func (r *MockURLRepository) IncrementClicks(ctx context.Context, shortCode string, click entity.Click) (*entity.URL, error) {
	args := r.Called(ctx, shortCode, click)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	args := r.Called(ctx, shortCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) Exists(shortCode string) bool {
	args := r.Called(shortCode)
	return args.Bool(0)
}

func (r *MockURLRepository) List(ctx context.Context) ([]*entity.URL, error) {
	args := r.Called(ctx)
	urls, _ := args.Get(0).([]*entity.URL)
	return urls, args.Error(1)
}

func (r *MockURLRepository) Recent(ctx context.Context, n int) ([]*entity.URL, error) {
	args := r.Called(ctx, n)
	urls, _ := args.Get(0).([]*entity.URL)
	return urls, args.Error(1)
}

func (r *MockURLRepository) Count(ctx context.Context) (int, error) {
	args := r.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (r *MockURLRepository) Events(ctx context.Context) ([]entity.Event, error) {
	args := r.Called(ctx)
	events, _ := args.Get(0).([]entity.Event)
	return events, args.Error(1)
}

func (r *MockURLRepository) LogEvent(ctx context.Context, typ entity.EventType, msg string, data map[string]any) error {
	args := r.Called(ctx, typ, msg, data)
	return args.Error(0)
}
