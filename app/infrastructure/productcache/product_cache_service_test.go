package productcache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"shelfsync.io/shelfsync/app/domain/product"
	"shelfsync.io/shelfsync/app/infrastructure/cache"
	"shelfsync.io/shelfsync/app/infrastructure/localstore"
)

func newTestService() *Service {
	return NewService(cache.NewGateway(localstore.NewMemoryStore(nil), "products"))
}

func sampleProduct(id, name string) product.Product {
	return product.Product{
		ID: id, SKU: "SKU-" + id, Name: name,
		Category: "gadgets", Price: 10, Currency: "USD", UnitOfMeasure: "pcs",
	}
}

func TestEntityCache(t *testing.T) {
	convey.Convey("products roundtrip through the entity cache", t, func() {
		svc := newTestService()
		ctx := context.Background()

		p := sampleProduct("p1", "Widget")
		convey.So(svc.SaveProduct(ctx, &p), convey.ShouldBeNil)

		got, found, err := svc.GetProduct(ctx, "p1")
		convey.So(err, convey.ShouldBeNil)
		convey.So(found, convey.ShouldBeTrue)
		convey.So(*got, convey.ShouldResemble, p)

		_, found, err = svc.GetProduct(ctx, "missing")
		convey.So(err, convey.ShouldBeNil)
		convey.So(found, convey.ShouldBeFalse)
	})
}

func TestPageConsistency(t *testing.T) {
	convey.Convey("given a cached page of three products", t, func() {
		svc := newTestService()
		ctx := context.Background()

		a := sampleProduct("a", "Anvil")
		b := sampleProduct("b", "Bolt")
		c := sampleProduct("c", "Crate")
		page := &product.ProductPage{
			Items: []product.Product{a, b, c}, TotalItems: 3, CurrentPage: 1, PageSize: 10,
		}
		key := product.ProductQuery{}.CacheKey()
		convey.So(svc.SavePage(ctx, key, page), convey.ShouldBeNil)

		convey.Convey("RemoveProducts filters the page and decrements the total by one", func() {
			convey.So(svc.SaveProduct(ctx, &b), convey.ShouldBeNil)
			convey.So(svc.RemoveProducts(ctx, []string{"b"}), convey.ShouldBeNil)

			got, found, err := svc.GetPage(ctx, key)
			convey.So(err, convey.ShouldBeNil)
			convey.So(found, convey.ShouldBeTrue)
			convey.So(got.TotalItems, convey.ShouldEqual, 2)
			convey.So(got.Items, convey.ShouldHaveLength, 2)
			for _, item := range got.Items {
				convey.So(item.ID, convey.ShouldNotEqual, "b")
			}

			_, found, err = svc.GetProduct(ctx, "b")
			convey.So(err, convey.ShouldBeNil)
			convey.So(found, convey.ShouldBeFalse)
		})

		convey.Convey("ApplyCreate prepends the new product and bumps the total", func() {
			d := sampleProduct("d", "Drill")
			convey.So(svc.ApplyCreate(ctx, &d), convey.ShouldBeNil)

			got, _, err := svc.GetPage(ctx, key)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.TotalItems, convey.ShouldEqual, 4)
			convey.So(got.Items[0].ID, convey.ShouldEqual, "d")
		})

		convey.Convey("ApplyUpdate replaces the item in place", func() {
			b2 := sampleProduct("b", "Bolt v2")
			convey.So(svc.ApplyUpdate(ctx, &b2), convey.ShouldBeNil)

			got, _, err := svc.GetPage(ctx, key)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.TotalItems, convey.ShouldEqual, 3)
			convey.So(got.Items[1].Name, convey.ShouldEqual, "Bolt v2")
		})

		convey.Convey("AllPages returns every cached view", func() {
			other := product.ProductQuery{PageNumber: 2}.CacheKey()
			convey.So(svc.SavePage(ctx, other, page), convey.ShouldBeNil)

			pages, err := svc.AllPages(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(pages, convey.ShouldHaveLength, 2)
			convey.So(pages, convey.ShouldContainKey, key)
			convey.So(pages, convey.ShouldContainKey, other)
		})
	})
}

func TestPendingQueues(t *testing.T) {
	convey.Convey("given mutations queued in order", t, func() {
		svc := newTestService()
		ctx := context.Background()

		convey.So(svc.EnqueueCreate(ctx, product.CreateProductCommand{ID: "c1", Name: "one", SKU: "s1"}), convey.ShouldBeNil)
		convey.So(svc.EnqueueCreate(ctx, product.CreateProductCommand{ID: "c2", Name: "two", SKU: "s2"}), convey.ShouldBeNil)
		convey.So(svc.EnqueueUpdate(ctx, product.UpdateProductCommand{ID: "u1"}), convey.ShouldBeNil)
		convey.So(svc.EnqueueDelete(ctx, product.DeleteProductsCommand{IDs: []string{"d1"}}), convey.ShouldBeNil)

		convey.Convey("the snapshot preserves FIFO order per kind", func() {
			pending, err := svc.PendingMutations(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(pending.Total(), convey.ShouldEqual, 4)
			convey.So(pending.Creates[0].ID, convey.ShouldEqual, "c1")
			convey.So(pending.Creates[1].ID, convey.ShouldEqual, "c2")
			convey.So(pending.Updates[0].ID, convey.ShouldEqual, "u1")
			convey.So(pending.Deletes[0].IDs, convey.ShouldResemble, []string{"d1"})
		})

		convey.Convey("TrimPending drops only the replayed prefix", func() {
			convey.So(svc.TrimPending(ctx, 1, 0, 0), convey.ShouldBeNil)

			pending, err := svc.PendingMutations(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(pending.Total(), convey.ShouldEqual, 3)
			convey.So(pending.Creates, convey.ShouldHaveLength, 1)
			convey.So(pending.Creates[0].ID, convey.ShouldEqual, "c2")
		})

		convey.Convey("ClearPending empties all three queues", func() {
			convey.So(svc.ClearPending(ctx), convey.ShouldBeNil)

			pending, err := svc.PendingMutations(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(pending.Total(), convey.ShouldEqual, 0)
			convey.So(pending.Creates, convey.ShouldBeEmpty)
			convey.So(pending.Updates, convey.ShouldBeEmpty)
			convey.So(pending.Deletes, convey.ShouldBeEmpty)
		})
	})
}

func TestConcurrentEnqueue(t *testing.T) {
	convey.Convey("concurrent enqueues lose no mutations", t, func() {
		svc := newTestService()
		ctx := context.Background()

		const n = 25
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = svc.EnqueueCreate(ctx, product.CreateProductCommand{ID: fmt.Sprintf("c%d", i)})
			}(i)
		}
		wg.Wait()

		pending, err := svc.PendingMutations(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(pending.Creates, convey.ShouldHaveLength, n)
	})
}
