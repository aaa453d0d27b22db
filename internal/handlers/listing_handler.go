package handlers

import (
	"net/http"

	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/models"
	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
)

type ListingHandler struct {
	listingService *services.ListingService
}

func NewListingHandler(listingService *services.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

type listingRequest struct {
	Title       *string `json:"title"       binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Category    *string `json:"category"`
	Condition   *string `json:"condition"`
	PriceCents  *int64  `json:"price_cents"`
	Quantity    *int    `json:"quantity"`
	ImageURL    *string `json:"image_url"   binding:"omitempty,max=500"`
	Location    *string `json:"location"    binding:"omitempty,max=160"`
}

func (r listingRequest) input() services.ListingInput {
	return services.ListingInput{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Condition:   r.Condition,
		PriceCents:  r.PriceCents,
		Quantity:    r.Quantity,
		ImageURL:    r.ImageURL,
		Location:    r.Location,
	}
}

func listingFilter(c *gin.Context) (models.ListingFilter, error) {
	f := models.ListingFilter{
		Query:     c.Query("q"),
		Category:  c.Query("category"),
		Condition: c.Query("condition"),
		Page:      pageFrom(c),
	}
	var err error
	if f.MinPrice, err = queryInt64(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryInt64(c, "max_price"); err != nil {
		return f, err
	}
	if f.SellerID, err = queryUUID(c, "seller_id"); err != nil {
		return f, err
	}
	return f, nil
}

func (h *ListingHandler) List(c *gin.Context) {
	f, err := listingFilter(c)
	if err != nil {
		badRequest(c, err, "Invalid filter")
		return
	}
	listings, meta, err := h.listingService.List(c.Request.Context(), middlewares.UserID(c), f)
	if err != nil {
		fail(c, err, "Failed to retrieve listings")
		return
	}
	responses.Paged(c, listings, meta, "Listings retrieved successfully")
}

func (h *ListingHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	listing, err := h.listingService.Get(c.Request.Context(), middlewares.CurrentActor(c), id)
	if err != nil {
		fail(c, err, "Failed to retrieve listing")
		return
	}
	responses.Success(c, http.StatusOK, listing, "Listing retrieved successfully")
}

func (h *ListingHandler) Create(c *gin.Context) {
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid listing data")
		return
	}
	if req.Title == nil || req.Category == nil || req.Condition == nil || req.PriceCents == nil {
		badRequest(c, nil, "title, category, condition and price_cents are required")
		return
	}

	listing, err := h.listingService.Create(c.Request.Context(), middlewares.UserID(c), req.input())
	if err != nil {
		fail(c, err, "Could not create listing")
		return
	}
	responses.Success(c, http.StatusCreated, listing, "Listing created successfully")
}

func (h *ListingHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid listing data")
		return
	}

	listing, err := h.listingService.Update(c.Request.Context(), middlewares.CurrentActor(c), id, req.input())
	if err != nil {
		fail(c, err, "Could not update listing")
		return
	}
	responses.Success(c, http.StatusOK, listing, "Listing updated successfully")
}

func (h *ListingHandler) MarkSold(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	listing, err := h.listingService.MarkSold(c.Request.Context(), middlewares.CurrentActor(c), id)
	if err != nil {
		fail(c, err, "Could not mark listing as sold")
		return
	}
	responses.Success(c, http.StatusOK, listing, "Listing marked as sold")
}

func (h *ListingHandler) Remove(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.listingService.Remove(c.Request.Context(), middlewares.CurrentActor(c), id); err != nil {
		fail(c, err, "Could not remove listing")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Listing removed")
}
