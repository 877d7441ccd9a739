package cache

import (
	"context"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"shelfsync.io/shelfsync/app/infrastructure/localstore"
)

func TestGatewayGetOrSet(t *testing.T) {
	convey.Convey("given a gateway over a fresh store", t, func() {
		gateway := NewGateway(localstore.NewMemoryStore(nil), "test")
		ctx := context.Background()

		calls := 0
		fetch := func() (any, error) {
			calls++
			return "fetched", nil
		}

		convey.Convey("repeated GetOrSet invokes the fallback at most once", func() {
			var first, second string
			err := gateway.GetOrSet(ctx, "k", &first, fetch, []string{"t"}, time.Minute)
			convey.So(err, convey.ShouldBeNil)
			err = gateway.GetOrSet(ctx, "k", &second, fetch, []string{"t"}, time.Minute)
			convey.So(err, convey.ShouldBeNil)

			convey.So(calls, convey.ShouldEqual, 1)
			convey.So(first, convey.ShouldEqual, "fetched")
			convey.So(second, convey.ShouldEqual, first)
		})

		convey.Convey("ClearByTags forces the next call back to the fallback", func() {
			var got string
			convey.So(gateway.GetOrSet(ctx, "k", &got, fetch, []string{"t"}, time.Minute), convey.ShouldBeNil)
			convey.So(gateway.ClearByTags(ctx, []string{"t"}), convey.ShouldBeNil)
			convey.So(gateway.GetOrSet(ctx, "k", &got, fetch, []string{"t"}, time.Minute), convey.ShouldBeNil)

			convey.So(calls, convey.ShouldEqual, 2)
		})

		convey.Convey("a fallback error is surfaced and nothing is cached", func() {
			boom := func() (any, error) {
				return nil, context.DeadlineExceeded
			}
			var got string
			err := gateway.GetOrSet(ctx, "k", &got, boom, nil, time.Minute)
			convey.So(err, convey.ShouldNotBeNil)

			found, err := gateway.Get(ctx, "k", &got)
			convey.So(err, convey.ShouldBeNil)
			convey.So(found, convey.ShouldBeFalse)
		})
	})
}

func TestGatewayStructValues(t *testing.T) {
	convey.Convey("struct values roundtrip through the codec", t, func() {
		gateway := NewGateway(localstore.NewMemoryStore(nil), "test")
		ctx := context.Background()

		type view struct {
			Items []string `json:"items"`
			Total int      `json:"total"`
		}

		fetched := &view{Items: []string{"a", "b"}, Total: 2}
		var got view
		err := gateway.GetOrSet(ctx, "page", &got, func() (any, error) {
			return fetched, nil
		}, []string{"pagination"}, 0)
		convey.So(err, convey.ShouldBeNil)
		convey.So(got.Total, convey.ShouldEqual, 2)
		convey.So(got.Items, convey.ShouldResemble, []string{"a", "b"})
	})
}
