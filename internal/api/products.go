package api

import (
	"net/http"
	"strconv"

	"ecommerce-service/internal/apperr"
	"ecommerce-service/internal/models"
	"ecommerce-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// productFilter reads the catalog query: keyword, category, price[gte],
// price[lte], ratings[gte] and page
func productFilter(c *gin.Context) (models.ProductFilter, int, error) {
	f := models.ProductFilter{
		Keyword:  c.Query("keyword"),
		Category: c.Query("category"),
	}

	for _, bound := range []struct {
		param string
		dst   **decimal.Decimal
	}{
		{"price[gte]", &f.PriceGTE},
		{"price[lte]", &f.PriceLTE},
	} {
		raw := c.Query(bound.param)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return f, 0, apperr.Validation("Invalid value for %s", bound.param)
		}
		*bound.dst = &v
	}

	if raw := c.Query("ratings[gte]"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, 0, apperr.Validation("Invalid value for ratings[gte]")
		}
		f.RatingsGTE = &v
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return f, 0, apperr.Validation("Invalid value for page")
		}
		page = p
	}
	return f, page, nil
}

func (h *Handler) listProducts(c *gin.Context) {
	filter, page, err := productFilter(c)
	if err != nil {
		c.Error(err)
		return
	}

	result, err := h.products.ListProducts(c.Request.Context(), filter, page)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"products":              result.Products,
		"productsCount":         result.ProductsCount,
		"resultPerPage":         result.ResultPerPage,
		"filteredProductsCount": result.FilteredProductsCount,
	})
}

func (h *Handler) listAllProducts(c *gin.Context) {
	products, err := h.products.ListAllProducts(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"products": products,
	})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"product": product,
	})
}

func (h *Handler) createProduct(c *gin.Context) {
	var req service.ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.products.CreateProduct(c.Request.Context(), currentUser(c).ID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"product": product,
	})
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.products.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"product": product,
	})
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product Delete Successfully",
	})
}

func (h *Handler) upsertReview(c *gin.Context) {
	var req service.ReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.products.UpsertReview(c.Request.Context(), currentUser(c), &req); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) listReviews(c *gin.Context) {
	productID, ok := parseUUID(c, c.Query("id"), "id")
	if !ok {
		return
	}

	reviews, err := h.products.ListReviews(c.Request.Context(), productID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"reviews": reviews,
	})
}

func (h *Handler) deleteReview(c *gin.Context) {
	productID, ok := parseUUID(c, c.Query("productId"), "productId")
	if !ok {
		return
	}
	reviewID, ok := parseUUID(c, c.Query("id"), "id")
	if !ok {
		return
	}

	if err := h.products.DeleteReview(c.Request.Context(), currentUser(c), productID, reviewID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
