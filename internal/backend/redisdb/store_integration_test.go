//go:build integration

package redisdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lord-william/lalalika-logistics/internal/backend"
	"github.com/lord-william/lalalika-logistics/internal/backend/redisdb"
	"github.com/lord-william/lalalika-logistics/pkg/platform/sentinel"
	"github.com/lord-william/lalalika-logistics/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	db    *redisdb.Database
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.db = redisdb.NewDatabase(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.redis.FlushAll(ctx)
	s.Require().NoError(err)
}

func (s *RedisStoreSuite) TestSetGetRoundTrip() {
	ctx := context.Background()

	rec := backend.Record{
		"trackingNumber": "LLK123456789",
		"status":         "pending",
		"sender":         backend.Record{"name": "Ada"},
	}
	err := s.db.Set(ctx, "shipments/ship-1", rec)
	s.Require().NoError(err)

	got, err := s.db.Get(ctx, "shipments/ship-1")
	s.Require().NoError(err)
	s.Equal("LLK123456789", got["trackingNumber"])
	s.Equal("pending", got["status"])

	sender, ok := got["sender"].(map[string]any)
	s.Require().True(ok)
	s.Equal("Ada", sender["name"])
}

func (s *RedisStoreSuite) TestGetMissingRecord() {
	ctx := context.Background()

	_, err := s.db.Get(ctx, "shipments/absent")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestUpdateMergesTopLevelFields() {
	ctx := context.Background()

	err := s.db.Set(ctx, "shipments/ship-1", backend.Record{
		"status":   "out_for_delivery",
		"driverId": "drv-1",
	})
	s.Require().NoError(err)

	err = s.db.Update(ctx, "shipments/ship-1", backend.Record{"status": "delivered"})
	s.Require().NoError(err)

	got, err := s.db.Get(ctx, "shipments/ship-1")
	s.Require().NoError(err)
	s.Equal("delivered", got["status"])
	s.Equal("drv-1", got["driverId"])
}

func (s *RedisStoreSuite) TestUpdateNilDeletesField() {
	ctx := context.Background()

	err := s.db.Set(ctx, "shipments/ship-1", backend.Record{
		"status":   "out_for_delivery",
		"driverId": "drv-1",
	})
	s.Require().NoError(err)

	err = s.db.Update(ctx, "shipments/ship-1", backend.Record{
		"status":   "pending",
		"driverId": nil,
	})
	s.Require().NoError(err)

	got, err := s.db.Get(ctx, "shipments/ship-1")
	s.Require().NoError(err)
	s.Equal("pending", got["status"])
	s.NotContains(got, "driverId")
}

func (s *RedisStoreSuite) TestUpdateMissingRecord() {
	ctx := context.Background()

	err := s.db.Update(ctx, "shipments/absent", backend.Record{"status": "delivered"})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestPushKeysAreChronological() {
	ctx := context.Background()

	first, err := s.db.Push(ctx, "shipments")
	s.Require().NoError(err)
	second, err := s.db.Push(ctx, "shipments")
	s.Require().NoError(err)

	s.Less(first, second)
}

func (s *RedisStoreSuite) TestQueryOnceFiltersAndLimits() {
	ctx := context.Background()

	for i, driver := range []string{"drv-1", "drv-2", "drv-1"} {
		key, err := s.db.Push(ctx, "shipments")
		s.Require().NoError(err)
		err = s.db.Set(ctx, "shipments/"+key, backend.Record{
			"driverId": driver,
			"seq":      i,
		})
		s.Require().NoError(err)
	}

	matches, err := s.db.QueryOnce(ctx, "shipments", backend.Query{
		OrderBy: "driverId",
		Equals:  "drv-1",
	})
	s.Require().NoError(err)
	s.Len(matches, 2)

	limited, err := s.db.QueryOnce(ctx, "shipments", backend.Query{
		OrderBy: "driverId",
		Equals:  "drv-1",
		Limit:   1,
	})
	s.Require().NoError(err)
	s.Len(limited, 1)
}

func (s *RedisStoreSuite) TestSubscribeDeliversSnapshots() {
	ctx := context.Background()

	err := s.db.Set(ctx, "shipments/ship-1", backend.Record{"driverId": "drv-1"})
	s.Require().NoError(err)

	snapshots := make(chan []backend.KeyedRecord, 8)
	detach, err := s.db.Subscribe("shipments",
		backend.Query{OrderBy: "driverId", Equals: "drv-1"},
		func(snap []backend.KeyedRecord) { snapshots <- snap },
		func(err error) { s.T().Logf("subscription error: %v", err) },
	)
	s.Require().NoError(err)
	defer detach()

	initial := s.waitSnapshot(snapshots)
	s.Len(initial, 1)

	err = s.db.Set(ctx, "shipments/ship-2", backend.Record{"driverId": "drv-1"})
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		select {
		case snap := <-snapshots:
			return len(snap) == 2
		default:
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)
}

func (s *RedisStoreSuite) TestDetachStopsDelivery() {
	ctx := context.Background()

	snapshots := make(chan []backend.KeyedRecord, 8)
	detach, err := s.db.Subscribe("shipments",
		backend.Query{},
		func(snap []backend.KeyedRecord) { snapshots <- snap },
		nil,
	)
	s.Require().NoError(err)

	s.waitSnapshot(snapshots)
	detach()

	err = s.db.Set(ctx, "shipments/ship-1", backend.Record{"status": "pending"})
	s.Require().NoError(err)

	select {
	case snap := <-snapshots:
		s.Failf("unexpected delivery after detach", "snapshot: %v", snap)
	case <-time.After(500 * time.Millisecond):
	}
}

func (s *RedisStoreSuite) waitSnapshot(ch <-chan []backend.KeyedRecord) []backend.KeyedRecord {
	s.T().Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(5 * time.Second):
		s.FailNow("timed out waiting for snapshot")
		return nil
	}
}

type BlobStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	blobs *redisdb.BlobStore
}

func TestBlobStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(BlobStoreSuite))
}

func (s *BlobStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.blobs = redisdb.NewBlobStore(s.redis.Client, "https://blobs.lalalika.example")
}

func (s *BlobStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.redis.FlushAll(ctx)
	s.Require().NoError(err)
}

func (s *BlobStoreSuite) TestUploadAndURL() {
	ctx := context.Background()

	err := s.blobs.Upload(ctx, "signatures/drv-1/ship-1.png", []byte{0x89, 0x50}, "image/png")
	s.Require().NoError(err)

	url, err := s.blobs.URL(ctx, "signatures/drv-1/ship-1.png")
	s.Require().NoError(err)
	s.Equal("https://blobs.lalalika.example/signatures/drv-1/ship-1.png", url)
}

func (s *BlobStoreSuite) TestURLMissingBlob() {
	ctx := context.Background()

	_, err := s.blobs.URL(ctx, "signatures/drv-1/absent.png")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
