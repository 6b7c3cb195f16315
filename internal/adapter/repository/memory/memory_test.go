package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type URLRepositoryTestSuite struct {
	suite.Suite
	now  time.Time
	repo *URLRepository
}

func (suite *URLRepositoryTestSuite) SetupSuite() {
	suite.now = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
}

func (suite *URLRepositoryTestSuite) SetupSubTest() {
	suite.repo = NewURLRepository(WithClock(func() time.Time { return suite.now }))
}

func (suite *URLRepositoryTestSuite) newURL(shortCode string) *entity.URL {
	return &entity.URL{
		ID:          "id-" + shortCode,
		ShortCode:   shortCode,
		OriginalURL: "https://example.com/" + shortCode,
		CreatedAt:   suite.now,
		Expiry:      entity.ExpiryFrom(suite.now, 0),
	}
}

func (suite *URLRepositoryTestSuite) TestSave() {
	suite.Run("success", func() {
		url, err := suite.repo.Save(context.Background(), suite.newURL("abc123"))

		suite.NoError(err)
		suite.Equal("abc123", url.ShortCode)
		suite.True(suite.repo.Exists("abc123"))

		events, err := suite.repo.Events(context.Background())
		suite.NoError(err)
		suite.Len(events, 1)
		suite.Equal(entity.EventURLShortened, events[0].Type)
		suite.Equal(suite.now, events[0].Timestamp)
		suite.Equal("abc123", events[0].Data["short_code"])
	})

	suite.Run("short code exists", func() {
		_, err := suite.repo.Save(context.Background(), suite.newURL("abc123"))
		suite.Require().NoError(err)

		url, err := suite.repo.Save(context.Background(), suite.newURL("abc123"))

		suite.ErrorIs(err, entity.ErrShortCodeExists)
		suite.Nil(url)

		urls, err := suite.repo.List(context.Background())
		suite.NoError(err)
		suite.Len(urls, 1)
	})

	suite.Run("stores a copy", func() {
		url := suite.newURL("abc123")
		_, err := suite.repo.Save(context.Background(), url)
		suite.Require().NoError(err)

		url.Clicks = 999

		got, err := suite.repo.RetrieveByShortCode(context.Background(), "abc123")
		suite.NoError(err)
		suite.Zero(got.Clicks)
	})

	suite.Run("cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		url, err := suite.repo.Save(ctx, suite.newURL("abc123"))

		suite.ErrorIs(err, context.Canceled)
		suite.Nil(url)
		suite.False(suite.repo.Exists("abc123"))
	})
}

func (suite *URLRepositoryTestSuite) TestIncrementClicks() {
	click := entity.Click{Timestamp: suite.now, Source: "Direct", Location: "Hyderabad, India"}

	suite.Run("url not found", func() {
		_, err := suite.repo.Save(context.Background(), suite.newURL("abc123"))
		suite.Require().NoError(err)

		url, err := suite.repo.IncrementClicks(context.Background(), "doesnotexist", click)

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)

		got, err := suite.repo.RetrieveByShortCode(context.Background(), "abc123")
		suite.NoError(err)
		suite.Zero(got.Clicks)
		suite.Empty(got.ClickDetails)

		events, _ := suite.repo.Events(context.Background())
		suite.Equal(entity.EventClickFailed, events[len(events)-1].Type)
	})

	suite.Run("success", func() {
		_, err := suite.repo.Save(context.Background(), suite.newURL("abc123"))
		suite.Require().NoError(err)

		url, err := suite.repo.IncrementClicks(context.Background(), "abc123", click)

		suite.NoError(err)
		suite.Equal(int64(1), url.Clicks)
		suite.Equal([]entity.Click{click}, url.ClickDetails)

		url, err = suite.repo.IncrementClicks(context.Background(), "abc123", click)

		suite.NoError(err)
		suite.Equal(int64(2), url.Clicks)
		suite.Len(url.ClickDetails, 2)

		events, _ := suite.repo.Events(context.Background())
		suite.Equal(entity.EventURLClicked, events[len(events)-1].Type)
	})

	suite.Run("concurrent", func() {
		_, err := suite.repo.Save(context.Background(), suite.newURL("abc123"))
		suite.Require().NoError(err)

		const workers, perWorker = 20, 50

		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					_, _ = suite.repo.IncrementClicks(context.Background(), "abc123", click)
				}
			}()
		}
		wg.Wait()

		url, err := suite.repo.RetrieveByShortCode(context.Background(), "abc123")
		suite.NoError(err)
		suite.Equal(int64(workers*perWorker), url.Clicks)
		suite.Len(url.ClickDetails, workers*perWorker)
	})
}

func (suite *URLRepositoryTestSuite) TestRetrieveByShortCode() {
	suite.Run("url not found", func() {
		url, err := suite.repo.RetrieveByShortCode(context.Background(), "abc123")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("returns a copy", func() {
		_, err := suite.repo.Save(context.Background(), suite.newURL("abc123"))
		suite.Require().NoError(err)

		url, err := suite.repo.RetrieveByShortCode(context.Background(), "abc123")
		suite.Require().NoError(err)
		url.Clicks = 10

		url, err = suite.repo.RetrieveByShortCode(context.Background(), "abc123")
		suite.NoError(err)
		suite.Zero(url.Clicks)
	})
}

func (suite *URLRepositoryTestSuite) TestRecent() {
	suite.Run("empty", func() {
		urls, err := suite.repo.Recent(context.Background(), 5)

		suite.NoError(err)
		suite.Empty(urls)
	})

	suite.Run("keeps creation order", func() {
		for i := 0; i < 7; i++ {
			_, err := suite.repo.Save(context.Background(), suite.newURL(fmt.Sprintf("code%d", i)))
			suite.Require().NoError(err)
		}

		urls, err := suite.repo.Recent(context.Background(), 5)
		suite.NoError(err)
		suite.Len(urls, 5)
		suite.Equal("code2", urls[0].ShortCode)
		suite.Equal("code6", urls[4].ShortCode)

		all, err := suite.repo.List(context.Background())
		suite.NoError(err)
		suite.Len(all, 7)
		suite.Equal("code0", all[0].ShortCode)

		count, err := suite.repo.Count(context.Background())
		suite.NoError(err)
		suite.Equal(7, count)
	})
}

func (suite *URLRepositoryTestSuite) TestLogEvent() {
	suite.Run("success", func() {
		err := suite.repo.LogEvent(context.Background(), entity.EventRedirectFailed, "not found", map[string]any{"short_code": "abc123"})
		suite.NoError(err)

		events, err := suite.repo.Events(context.Background())
		suite.NoError(err)
		suite.Require().Len(events, 1)
		suite.Equal(entity.EventRedirectFailed, events[0].Type)
		suite.Equal("abc123", events[0].Data["short_code"])
	})

	suite.Run("cancelled context", func() {
		var notified bool
		defer suite.repo.Subscribe(func(entity.Event) { notified = true })()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := suite.repo.LogEvent(ctx, entity.EventRedirectSuccess, "redirected", nil)
		suite.ErrorIs(err, context.Canceled)
		suite.False(notified)

		events, err := suite.repo.Events(context.Background())
		suite.NoError(err)
		suite.Empty(events)
	})
}

func (suite *URLRepositoryTestSuite) TestSubscribe() {
	suite.Run("notified per mutation", func() {
		var got []entity.EventType
		unsubscribe := suite.repo.Subscribe(func(ev entity.Event) {
			got = append(got, ev.Type)
		})

		_, _ = suite.repo.Save(context.Background(), suite.newURL("abc123"))
		_, _ = suite.repo.IncrementClicks(context.Background(), "abc123", entity.Click{})
		suite.NoError(suite.repo.LogEvent(context.Background(), entity.EventRedirectSuccess, "redirected", nil))

		unsubscribe()
		_, _ = suite.repo.IncrementClicks(context.Background(), "abc123", entity.Click{})

		suite.Equal([]entity.EventType{
			entity.EventURLShortened,
			entity.EventURLClicked,
			entity.EventRedirectSuccess,
		}, got)
	})

	suite.Run("multiple subscribers", func() {
		var a, b atomic.Int32
		unsubA := suite.repo.Subscribe(func(entity.Event) { a.Add(1) })
		defer suite.repo.Subscribe(func(entity.Event) { b.Add(1) })()

		_, _ = suite.repo.Save(context.Background(), suite.newURL("abc123"))
		unsubA()
		_, _ = suite.repo.Save(context.Background(), suite.newURL("def456"))

		suite.Equal(int32(1), a.Load())
		suite.Equal(int32(2), b.Load())
	})
}

func TestURLRepository(t *testing.T) {
	suite.Run(t, new(URLRepositoryTestSuite))
}
