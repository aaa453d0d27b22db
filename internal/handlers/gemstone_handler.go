package handlers

import (
	"net/http"

	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/models"
	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
)

type GemstoneHandler struct {
	gemstoneService *services.GemstoneService
}

func NewGemstoneHandler(gemstoneService *services.GemstoneService) *GemstoneHandler {
	return &GemstoneHandler{gemstoneService: gemstoneService}
}

type gemstoneRequest struct {
	Name          *string  `json:"name"          binding:"omitempty,min=1,max=200"`
	GemType       *string  `json:"gem_type"      binding:"omitempty,min=1,max=80"`
	Shape         *string  `json:"shape"         binding:"omitempty,max=80"`
	Carat         *float64 `json:"carat"`
	Color         *string  `json:"color"         binding:"omitempty,max=40"`
	Clarity       *string  `json:"clarity"       binding:"omitempty,max=40"`
	Origin        *string  `json:"origin"        binding:"omitempty,max=120"`
	Certification *string  `json:"certification" binding:"omitempty,max=120"`
	Treatment     *string  `json:"treatment"     binding:"omitempty,max=120"`
	Description   *string  `json:"description"   binding:"omitempty,max=5000"`
	PriceCents    *int64   `json:"price_cents"`
	Stock         *int     `json:"stock"`
	ImageURL      *string  `json:"image_url"     binding:"omitempty,max=500"`
}

func (r gemstoneRequest) input() services.GemstoneInput {
	return services.GemstoneInput{
		Name:          r.Name,
		GemType:       r.GemType,
		Shape:         r.Shape,
		Carat:         r.Carat,
		Color:         r.Color,
		Clarity:       r.Clarity,
		Origin:        r.Origin,
		Certification: r.Certification,
		Treatment:     r.Treatment,
		Description:   r.Description,
		PriceCents:    r.PriceCents,
		Stock:         r.Stock,
		ImageURL:      r.ImageURL,
	}
}

func gemstoneFilter(c *gin.Context) (models.GemstoneFilter, error) {
	f := models.GemstoneFilter{
		Query:         c.Query("q"),
		GemType:       c.Query("gem_type"),
		Shape:         c.Query("shape"),
		Color:         c.Query("color"),
		Clarity:       c.Query("clarity"),
		Certification: c.Query("certification"),
		InStock:       queryBool(c, "in_stock"),
		Sort:          c.Query("sort"),
		Page:          pageFrom(c),
	}
	var err error
	if f.MinCarat, err = queryFloat(c, "min_carat"); err != nil {
		return f, err
	}
	if f.MaxCarat, err = queryFloat(c, "max_carat"); err != nil {
		return f, err
	}
	if f.MinPrice, err = queryInt64(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryInt64(c, "max_price"); err != nil {
		return f, err
	}
	return f, nil
}

func (h *GemstoneHandler) List(c *gin.Context) {
	f, err := gemstoneFilter(c)
	if err != nil {
		badRequest(c, err, "Invalid filter")
		return
	}
	gems, meta, err := h.gemstoneService.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err, "Failed to retrieve gemstones")
		return
	}
	responses.Paged(c, gems, meta, "Gemstones retrieved successfully")
}

func (h *GemstoneHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	gem, err := h.gemstoneService.Get(c.Request.Context(), middlewares.CurrentActor(c), id)
	if err != nil {
		fail(c, err, "Failed to retrieve gemstone")
		return
	}
	responses.Success(c, http.StatusOK, gem, "Gemstone retrieved successfully")
}

func (h *GemstoneHandler) Create(c *gin.Context) {
	var req gemstoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid gemstone data")
		return
	}
	if req.Name == nil || req.GemType == nil || req.Carat == nil || req.PriceCents == nil {
		badRequest(c, nil, "name, gem_type, carat and price_cents are required")
		return
	}

	gem, err := h.gemstoneService.Create(c.Request.Context(), middlewares.UserID(c), req.input())
	if err != nil {
		fail(c, err, "Could not create gemstone")
		return
	}
	responses.Success(c, http.StatusCreated, gem, "Gemstone listed successfully")
}

func (h *GemstoneHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req gemstoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid gemstone data")
		return
	}

	gem, err := h.gemstoneService.Update(c.Request.Context(), middlewares.CurrentActor(c), id, req.input())
	if err != nil {
		fail(c, err, "Could not update gemstone")
		return
	}
	responses.Success(c, http.StatusOK, gem, "Gemstone updated successfully")
}

func (h *GemstoneHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.gemstoneService.Delete(c.Request.Context(), middlewares.CurrentActor(c), id); err != nil {
		fail(c, err, "Could not remove gemstone")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Gemstone removed successfully")
}
