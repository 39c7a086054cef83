package admin

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/catalog"
)

// SearchProducts handles GET /admin/products with status, activity, shop and
// price filters plus sorting.
func SearchProducts(store *catalog.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		f := catalog.SearchFilter{
			Status: c.QueryParam("status"),
			SortBy: c.QueryParam("sort_by"),
			Limit:  50,
		}
		if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 200 {
			f.Limit = v
		}
		if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
			f.Offset = v
		}
		if v := c.QueryParam("is_active"); v != "" {
			active := v == "true"
			f.IsActive = &active
		}
		if v, err := strconv.ParseInt(c.QueryParam("shop_id"), 10, 64); err == nil {
			f.ShopID = v
		}
		if v, err := strconv.ParseFloat(c.QueryParam("min_price"), 64); err == nil {
			f.MinPrice = &v
		}
		if v, err := strconv.ParseFloat(c.QueryParam("max_price"), 64); err == nil {
			f.MaxPrice = &v
		}
		f.SortDesc = c.QueryParam("sort_order") != "asc"

		items, total, err := store.Search(c.Request().Context(), f)
		if err != nil {
			log.Println("admin product search:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not search products"})
		}
		if items == nil {
			items = []catalog.Product{}
		}
		return c.JSON(http.StatusOK, echo.Map{
			"products": items,
			"total":    total,
		})
	}
}
