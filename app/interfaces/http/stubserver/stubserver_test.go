package stubserver_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"shelfsync.io/shelfsync/app/domain/common"
	"shelfsync.io/shelfsync/app/domain/product"
	"shelfsync.io/shelfsync/app/interfaces/http/stubserver"
	"shelfsync.io/shelfsync/app/utils/httpclients/productapi"
)

func TestStubServerWithAPIClient(t *testing.T) {
	convey.Convey("given the stub backend behind the api client", t, func() {
		server := httptest.NewServer(stubserver.New().Engine())
		defer server.Close()
		client := productapi.NewClient(server.URL)
		defer client.Close()
		ctx := context.Background()

		convey.Convey("the health endpoint answers the prober", func() {
			convey.So(client.Ping(ctx), convey.ShouldBeNil)
		})

		convey.Convey("products can be created, fetched, updated and deleted", func() {
			created, err := client.Create(ctx, product.CreateProductCommand{
				Name: "Widget", SKU: "WID-1", Category: "gadgets", Price: 9.99, Currency: "USD", UnitOfMeasure: "pcs",
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(created.ID, convey.ShouldNotBeEmpty)

			got, err := client.GetByID(ctx, created.ID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Name, convey.ShouldEqual, "Widget")

			err = client.Update(ctx, product.UpdateProductCommand{
				ID: created.ID, Name: "Widget v2", SKU: created.SKU,
			})
			convey.So(err, convey.ShouldBeNil)

			page, err := client.QueryPaginated(ctx, product.ProductQuery{Keywords: "widget"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(page.TotalItems, convey.ShouldEqual, 1)
			convey.So(page.Items[0].Name, convey.ShouldEqual, "Widget v2")

			err = client.Delete(ctx, []string{created.ID})
			convey.So(err, convey.ShouldBeNil)

			_, err = client.GetByID(ctx, created.ID)
			convey.So(common.IsKind(err, common.KindNotFound), convey.ShouldBeTrue)
		})

		convey.Convey("a client-supplied id is honored", func() {
			created, err := client.Create(ctx, product.CreateProductCommand{
				ID: "prod_local1", Name: "Offline Widget", SKU: "OFF-1",
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(created.ID, convey.ShouldEqual, "prod_local1")
		})

		convey.Convey("missing required fields surface as a validation error", func() {
			_, err := client.Create(ctx, product.CreateProductCommand{Description: "no name or sku"})
			convey.So(common.IsKind(err, common.KindValidation), convey.ShouldBeTrue)

			var domainErr *common.Error
			convey.So(errors.As(err, &domainErr), convey.ShouldBeTrue)
			convey.So(domainErr.Fields, convey.ShouldContainKey, "name")
			convey.So(domainErr.Fields, convey.ShouldContainKey, "sku")
		})

		convey.Convey("pagination slices and sorts the result set", func() {
			for _, name := range []string{"Anvil", "Bolt", "Crate"} {
				_, err := client.Create(ctx, product.CreateProductCommand{Name: name, SKU: "SKU-" + name})
				convey.So(err, convey.ShouldBeNil)
			}

			page, err := client.QueryPaginated(ctx, product.ProductQuery{
				PageNumber: 2, PageSize: 2, OrderBy: "name", SortDirection: product.SortAscending,
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(page.TotalItems, convey.ShouldEqual, 3)
			convey.So(page.Items, convey.ShouldHaveLength, 1)
			convey.So(page.Items[0].Name, convey.ShouldEqual, "Crate")
		})
	})
}
