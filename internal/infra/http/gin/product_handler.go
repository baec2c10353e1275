package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	productsapp "hirely/internal/app/handlers/products"
	"hirely/internal/app/queries"
)

type ProductHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type tiersRequest struct {
	OneDay   int64  `json:"one_day"`
	ThreeDay *int64 `json:"three_day"`
	SevenDay *int64 `json:"seven_day"`
}

func (r tiersRequest) input() productsapp.TierInput {
	return productsapp.TierInput{OneDay: r.OneDay, ThreeDay: r.ThreeDay, SevenDay: r.SevenDay}
}

type createProductRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Quantity    int          `json:"quantity"`
	Tiers       tiersRequest `json:"tiers"`
}

func (h ProductHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := productsapp.CreateProductCommand{
		OwnerID:     user.UserID,
		Title:       req.Title,
		Description: req.Description,
		Tiers:       req.Tiers.input(),
		Quantity:    req.Quantity,
	}
	result, err := commands.Dispatch[productsapp.CreateProductCommand, *dto.Product](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "create product", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ProductHandler) Get(c *gin.Context) {
	q := productsapp.GetProductQuery{ProductID: c.Param("id")}
	result, err := queries.Ask[productsapp.GetProductQuery, dto.Product](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, "get product", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ProductHandler) UpdatePricing(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req tiersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := productsapp.UpdateProductPricingCommand{ProductID: c.Param("id"), ActorID: user.UserID, Tiers: req.input()}
	result, err := commands.Dispatch[productsapp.UpdateProductPricingCommand, *dto.Product](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "update pricing", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ProductHandler) Delete(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := productsapp.DeleteProductCommand{ProductID: c.Param("id"), ActorID: user.UserID}
	result, err := commands.Dispatch[productsapp.DeleteProductCommand, *dto.Product](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "delete product", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListMine lists the caller's products, deleted ones only with ?include_deleted=true.
func (h ProductHandler) ListMine(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	includeDeleted, _ := strconv.ParseBool(c.Query("include_deleted"))
	q := productsapp.ListOwnerProductsQuery{OwnerID: user.UserID, IncludeDeleted: includeDeleted}
	result, err := queries.Ask[productsapp.ListOwnerProductsQuery, dto.ProductCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, "list products", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Preview serves GET /products/:id/price-preview?start=&end=&quantity=.
func (h ProductHandler) Preview(c *gin.Context) {
	start, err := parseInstant(c.Query("start"))
	if err != nil {
		badRequest(c, "start: "+err.Error())
		return
	}
	end, err := parseInstant(c.Query("end"))
	if err != nil {
		badRequest(c, "end: "+err.Error())
		return
	}
	q := productsapp.PreviewPriceQuery{
		ProductID: c.Param("id"),
		Start:     start,
		End:       end,
		Quantity:  parsePositiveInt(c.Query("quantity"), 1),
	}
	result, err := queries.Ask[productsapp.PreviewPriceQuery, dto.PricePreview](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, "price preview", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
