package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bloomsight/bloom-engine/internal/models"
	"github.com/bloomsight/bloom-engine/internal/service"
	"github.com/bloomsight/bloom-engine/internal/utils"
)

type handlers struct {
	svc    *service.BloomService
	logger *slog.Logger
}

// maxWindowDays caps explicit windows; provider gateways bound query spans.
const maxWindowDays = 366

// regionRequest carries a bounding box as [minLon, minLat, maxLon, maxLat]
// and an optional explicit RFC3339 observation window.
type regionRequest struct {
	Region []float64 `json:"region"`
	Start  string    `json:"start,omitempty"`
	End    string    `json:"end,omitempty"`
}

func (r regionRequest) boundingBox() (models.BoundingBox, error) {
	if len(r.Region) != 4 {
		return models.BoundingBox{}, fmt.Errorf("%w: region must have 4 coordinates, got %d",
			models.ErrInvalidRegion, len(r.Region))
	}
	box := models.BoundingBox{
		MinLon: r.Region[0],
		MinLat: r.Region[1],
		MaxLon: r.Region[2],
		MaxLat: r.Region[3],
	}
	return box, box.Validate()
}

// advisoryRequest carries a grower profile inline.
type advisoryRequest struct {
	Name       string    `json:"name"`
	RegionName string    `json:"region_name"`
	Region     []float64 `json:"region"`
	Crops      []string  `json:"crops"`
	Language   string    `json:"language"`
}

// window parses the optional explicit window. ok is false when the request
// leaves the window to the configured lookback.
func (r regionRequest) window() (window models.TimeWindow, ok bool, err error) {
	if r.Start == "" && r.End == "" {
		return models.TimeWindow{}, false, nil
	}

	start, err := utils.ParseRFC3339(r.Start)
	if err != nil {
		return models.TimeWindow{}, false, fmt.Errorf("%w: start: %v", models.ErrInvalidWindow, err)
	}
	end, err := utils.ParseRFC3339(r.End)
	if err != nil {
		return models.TimeWindow{}, false, fmt.Errorf("%w: end: %v", models.ErrInvalidWindow, err)
	}
	if !end.After(start) {
		return models.TimeWindow{}, false, fmt.Errorf("%w: end %s not after start %s",
			models.ErrInvalidWindow, r.End, r.Start)
	}
	if days := utils.DaysBetween(start, end); days > maxWindowDays {
		return models.TimeWindow{}, false, fmt.Errorf("%w: %d days exceeds the %d-day limit",
			models.ErrInvalidWindow, days, maxWindowDays)
	}
	return models.TimeWindow{Start: start, End: end}, true, nil
}

func (r advisoryRequest) profile() (models.GrowerProfile, error) {
	region, err := regionRequest{Region: r.Region}.boundingBox()
	if err != nil {
		return models.GrowerProfile{}, err
	}
	crops := make([]models.Crop, 0, len(r.Crops))
	for _, crop := range r.Crops {
		crops = append(crops, models.Crop(crop))
	}
	return models.GrowerProfile{
		Name:       r.Name,
		RegionName: r.RegionName,
		Region:     region,
		Crops:      crops,
		Language:   models.Language(r.Language),
	}, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// httpError maps caller contract violations to 400 and everything else to 500.
// The pipeline recovers its own degraded states, so a 500 here is genuinely
// unexpected.
func (h *handlers) httpError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	if errors.Is(err, models.ErrInvalidRegion) ||
		errors.Is(err, models.ErrInvalidWindow) ||
		errors.Is(err, models.ErrUnsupportedLanguage) ||
		errors.Is(err, models.ErrInvalidThreshold) {
		status = http.StatusBadRequest
	} else {
		h.logger.Error("request failed",
			slog.String("path", c.Path()),
			slog.Any("error", err))
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}

func (h *handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"prediction_mode": h.svc.Mode(),
		"snapshot_p95_ms": h.svc.LatencyP95().Milliseconds(),
	})
}

func (h *handlers) snapshot(c echo.Context) error {
	var req regionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	region, err := req.boundingBox()
	if err != nil {
		return h.httpError(c, err)
	}
	window, explicit, err := req.window()
	if err != nil {
		return h.httpError(c, err)
	}

	var obs models.Observation
	if explicit {
		obs, err = h.svc.FetchSnapshotWindow(c.Request().Context(), region, window)
	} else {
		obs, err = h.svc.FetchRegionSnapshot(c.Request().Context(), region)
	}
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, obs)
}

func (h *handlers) detect(c echo.Context) error {
	var req regionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	region, err := req.boundingBox()
	if err != nil {
		return h.httpError(c, err)
	}

	obs, area, err := h.svc.DetectBloom(c.Request().Context(), region)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"observation": obs,
		"bloom_area":  area,
	})
}

// trainingSet returns the set's shape, not the full matrix; the matrix only
// matters to the trainer.
func (h *handlers) trainingSet(c echo.Context) error {
	var req regionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	region, err := req.boundingBox()
	if err != nil {
		return h.httpError(c, err)
	}

	set, err := h.svc.PrepareTrainingSet(c.Request().Context(), region)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"samples":       len(set.Features),
		"feature_names": set.FeatureNames,
		"class_balance": set.ClassBalance,
		"degenerate":    set.Degenerate,
		"is_synthetic":  set.Synthetic,
	})
}

func (h *handlers) train(c echo.Context) error {
	var req regionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	region, err := req.boundingBox()
	if err != nil {
		return h.httpError(c, err)
	}

	model, err := h.svc.Train(c.Request().Context(), region)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"model_version": model.Version,
		"trained_at":    model.TrainedAt,
		"metrics":       model.Metrics,
	})
}

func (h *handlers) predict(c echo.Context) error {
	var req regionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	region, err := req.boundingBox()
	if err != nil {
		return h.httpError(c, err)
	}

	obs, pred, err := h.svc.Predict(c.Request().Context(), region)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"observation": obs,
		"prediction":  pred,
	})
}

func (h *handlers) advisory(c echo.Context) error {
	var req advisoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	profile, err := req.profile()
	if err != nil {
		return h.httpError(c, err)
	}

	advisories, pred, err := h.svc.ComposeAdvisory(c.Request().Context(), profile)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"advisories": advisories,
		"prediction": pred,
	})
}

// run executes the whole chain for one grower in a single request.
func (h *handlers) run(c echo.Context) error {
	var req advisoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	profile, err := req.profile()
	if err != nil {
		return h.httpError(c, err)
	}

	report, err := h.svc.RunRegion(c.Request().Context(), profile)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
