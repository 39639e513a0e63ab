package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/agristat/internal/errors"
	"github.com/stwalsh4118/agristat/internal/location"
	"github.com/stwalsh4118/agristat/internal/middleware"
	"github.com/stwalsh4118/agristat/internal/services"
)

var registerFieldNames sync.Once

// RecordsHandler serves the record collections, their filters and summaries.
type RecordsHandler struct {
	service   services.RecordService
	hierarchy *location.Hierarchy
}

// NewRecordsHandler creates a new RecordsHandler instance.
func NewRecordsHandler(service services.RecordService, hierarchy *location.Hierarchy) *RecordsHandler {
	registerFieldNames.Do(useJSONFieldNames)

	return &RecordsHandler{
		service:   service,
		hierarchy: hierarchy,
	}
}

// useJSONFieldNames makes validation errors report the json or form name of
// a field instead of the Go struct field name.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
}

// FilterRequest is the body of the filter endpoints. Absent fields and "All"
// impose no constraint.
type FilterRequest struct {
	County    string `json:"county" binding:"omitempty,max=100"`
	Subcounty string `json:"subcounty" binding:"omitempty,max=100"`
	Ward      string `json:"ward" binding:"omitempty,max=100"`
}

// LocationQuery holds the optional location query parameters of the summary
// and options endpoints.
type LocationQuery struct {
	County    string `form:"county" binding:"omitempty,max=100"`
	Subcounty string `form:"subcounty" binding:"omitempty,max=100"`
	Ward      string `form:"ward" binding:"omitempty,max=100"`
}

func (q LocationQuery) criteria() services.Criteria {
	return services.Criteria{County: q.County, Subcounty: q.Subcounty, Ward: q.Ward}
}

// LocationsResponse is the hierarchy served by GET /api/locations.
type LocationsResponse struct {
	Counties []location.County `json:"counties"`
}

// RegisterRoutes mounts every record endpoint on the /api group.
func (h *RecordsHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/farmers", list(h.service.FilterFarmers))
	api.POST("/farmers/filter", filterBy(h.service.FilterFarmers))
	api.GET("/crops", list(h.service.FilterCrops))
	api.POST("/crops/filter", filterBy(h.service.FilterCrops))
	api.GET("/crops/summary", summarize(h.service.CropSummary))
	api.GET("/livestock", list(h.service.FilterLivestock))
	api.POST("/livestock/filter", filterBy(h.service.FilterLivestock))
	api.GET("/livestock/summary", summarize(h.service.LivestockSummary))
	api.GET("/aquaculture", list(h.service.FilterAquaculture))
	api.POST("/aquaculture/filter", filterBy(h.service.FilterAquaculture))
	api.GET("/aquaculture/summary", summarize(h.service.AquacultureSummary))

	api.GET("/summary", summarize(h.service.FarmerSummary))
	api.GET("/locations", h.Locations)
	api.GET("/options/:dataset", h.Options)
}

// list returns the whole collection.
func list[T any](query func(services.Criteria) []T) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, query(services.Criteria{}))
	}
}

// filterBy returns the records matching the location in the request body.
func filterBy[T any](query func(services.Criteria) []T) gin.HandlerFunc {
	return func(c *gin.Context) {
		criteria, ok := bindFilter(c)
		if !ok {
			return
		}

		records := query(criteria)

		if log := middleware.GetLogger(c); log != nil {
			log.Debug("Filtered records", map[string]interface{}{
				"county":    criteria.County,
				"subcounty": criteria.Subcounty,
				"ward":      criteria.Ward,
				"matched":   len(records),
			})
		}

		c.JSON(http.StatusOK, records)
	}
}

// summarize aggregates the records matching the optional query parameters.
func summarize[S any](query func(services.Criteria) S) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q LocationQuery
		if !bindQuery(c, &q) {
			return
		}
		c.JSON(http.StatusOK, query(q.criteria()))
	}
}

// bindFilter decodes the filter body. An empty body means no constraint. It
// writes the error response itself and reports false on failure.
func bindFilter(c *gin.Context) (services.Criteria, bool) {
	body, err := c.GetRawData()
	if err != nil {
		apierrors.BadRequest(c, "Failed to read request body", nil)
		return services.Criteria{}, false
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return services.Criteria{}, true
	}

	var req FilterRequest
	object, ok := singleObject(body)
	if ok {
		err = binding.JSON.BindBody(object, &req)
	}
	if !ok || err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return services.Criteria{}, false
		}
		apierrors.BadRequest(c, "Request body must be a JSON object of string location fields", map[string]interface{}{
			"fields": []string{"county", "subcounty", "ward"},
		})
		return services.Criteria{}, false
	}

	return services.Criteria{County: req.County, Subcounty: req.Subcounty, Ward: req.Ward}, true
}

// singleObject returns body if it holds exactly one JSON object. null,
// other JSON values and trailing data after the object are rejected.
func singleObject(body []byte) (json.RawMessage, bool) {
	if len(body) == 0 || body[0] != '{' {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	var object json.RawMessage
	if err := dec.Decode(&object); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return object, true
}

func bindQuery(c *gin.Context, q *LocationQuery) bool {
	if err := c.ShouldBindQuery(q); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return false
	}
	return true
}

// Locations handles GET /api/locations.
func (h *RecordsHandler) Locations(c *gin.Context) {
	c.JSON(http.StatusOK, LocationsResponse{Counties: h.hierarchy.Tree()})
}

// Options handles GET /api/options/:dataset. Subcounty options require a
// county and ward options require a subcounty; otherwise only "All" is
// offered.
func (h *RecordsHandler) Options(c *gin.Context) {
	var q LocationQuery
	if !bindQuery(c, &q) {
		return
	}

	options, err := h.service.LocationOptions(c.Param("dataset"), q.County, q.Subcounty)
	if err != nil {
		if errors.Is(err, services.ErrUnknownDataset) {
			apierrors.NotFound(c, "Unknown dataset: "+c.Param("dataset"))
			return
		}
		apierrors.InternalServerError(c, "Failed to compute filter options", err)
		return
	}

	c.JSON(http.StatusOK, options)
}
