package localstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"), nil)
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundtrip(t *testing.T) {
	convey.Convey("values survive a save/get roundtrip", t, func() {
		store := newTestSQLiteStore(t)
		ctx := context.Background()

		type payload struct {
			Name  string  `json:"name"`
			Price float64 `json:"price"`
		}

		err := store.Save(ctx, "products", "product:1", payload{Name: "Widget", Price: 9.99}, []string{"product"}, 0)
		convey.So(err, convey.ShouldBeNil)

		var got payload
		found, err := store.Get(ctx, "products", "product:1", &got)
		convey.So(err, convey.ShouldBeNil)
		convey.So(found, convey.ShouldBeTrue)
		convey.So(got.Name, convey.ShouldEqual, "Widget")
		convey.So(got.Price, convey.ShouldEqual, 9.99)

		convey.Convey("overwriting replaces both value and tags", func() {
			err := store.Save(ctx, "products", "product:1", payload{Name: "Widget v2"}, []string{"archive"}, 0)
			convey.So(err, convey.ShouldBeNil)

			values, err := store.GetByTags(ctx, "products", []string{"product"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(values, convey.ShouldBeEmpty)

			values, err = store.GetByTags(ctx, "products", []string{"archive"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(values, convey.ShouldHaveLength, 1)
		})
	})
}

func TestSQLiteStoreExpiration(t *testing.T) {
	convey.Convey("expired entries are evicted on read", t, func() {
		store := newTestSQLiteStore(t)
		ctx := context.Background()

		err := store.Save(ctx, "db", "short", "soon gone", []string{"t"}, 30*time.Millisecond)
		convey.So(err, convey.ShouldBeNil)
		err = store.Save(ctx, "db", "long", "still here", []string{"t"}, time.Hour)
		convey.So(err, convey.ShouldBeNil)

		time.Sleep(60 * time.Millisecond)

		var got string
		found, err := store.Get(ctx, "db", "short", &got)
		convey.So(err, convey.ShouldBeNil)
		convey.So(found, convey.ShouldBeFalse)

		values, err := store.GetByTags(ctx, "db", []string{"t"})
		convey.So(err, convey.ShouldBeNil)
		convey.So(values, convey.ShouldHaveLength, 1)
		convey.So(values, convey.ShouldContainKey, "long")
	})
}

func TestSQLiteStoreDeleteByTags(t *testing.T) {
	convey.Convey("tag deletion only touches matching entries", t, func() {
		store := newTestSQLiteStore(t)
		ctx := context.Background()

		convey.So(store.Save(ctx, "db", "p1", "1", []string{"pagination"}, 0), convey.ShouldBeNil)
		convey.So(store.Save(ctx, "db", "e1", "2", []string{"product"}, 0), convey.ShouldBeNil)

		convey.So(store.DeleteByTags(ctx, "db", []string{"pagination"}), convey.ShouldBeNil)

		var got string
		found, err := store.Get(ctx, "db", "p1", &got)
		convey.So(err, convey.ShouldBeNil)
		convey.So(found, convey.ShouldBeFalse)

		found, err = store.Get(ctx, "db", "e1", &got)
		convey.So(err, convey.ShouldBeNil)
		convey.So(found, convey.ShouldBeTrue)
	})
}
