package license

import (
	"errors"
	"time"

	"license-manager/core/logger"
	"license-manager/feature/license/models"
	"license-manager/feature/license/sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the license feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the license routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	syncGroup := app.Group("/sync")
	syncGroup.Post("/run", h.HandleRunComprehensive)
	syncGroup.Post("/legacy", h.HandleRunLegacy)
	syncGroup.Get("/status", h.HandleSyncStatus)
	syncGroup.Get("/reports", h.HandleListReports)
	syncGroup.Get("/reports/:run_id", h.HandleFetchReport)
	syncGroup.Delete("/reports", h.HandlePruneReports)

	app.Get("/license/:identifier", h.HandleCheckLicense)
	app.Post("/licenses/import", h.HandleImport)
}

// HandleRunComprehensive triggers the full two-pass reconciliation.
// @Summary Run Comprehensive Sync
// @Description Run the full two-pass license reconciliation and return the run summary.
// @Tags sync
// @Produce json
// @Success 200 {object} sync.Summary "Run Summary"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/run [post]
func (h *Handler) HandleRunComprehensive(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	summary, err := h.service.RunComprehensiveSync(c.Context())
	if err != nil {
		l.Error("Comprehensive sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(summary)
}

// HandleRunLegacy triggers the single-pass sync variant.
// @Summary Run Legacy Sync
// @Description Run the single-pass sync variant retained for small datasets.
// @Tags sync
// @Produce json
// @Success 200 {object} sync.Summary "Run Summary"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/legacy [post]
func (h *Handler) HandleRunLegacy(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	summary, err := h.service.RunLegacySync(c.Context())
	if err != nil {
		l.Error("Legacy sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(summary)
}

// HandleSyncStatus returns the most recent run summary.
// @Summary Get Sync Status
// @Description Get the summary of the most recent reconciliation run.
// @Tags sync
// @Produce json
// @Success 200 {object} sync.Summary "Last Run Summary"
// @Failure 404 {object} map[string]string "No Run Yet"
// @Router /sync/status [get]
func (h *Handler) HandleSyncStatus(c *fiber.Ctx) error {
	summary := h.service.LastRun()
	if summary == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no sync run recorded yet",
		})
	}
	return c.JSON(summary)
}

// HandleListReports lists the archived run reports.
// @Summary List Run Reports
// @Description List the reconciliation run reports archived in object storage.
// @Tags sync
// @Produce json
// @Success 200 {array} sync.ReportInfo "Archived Reports"
// @Failure 404 {object} map[string]string "Archiving Disabled"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/reports [get]
func (h *Handler) HandleListReports(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	reports, err := h.service.ListReports(c.Context())
	if err != nil {
		if errors.Is(err, ErrArchivingDisabled) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Failed to list run reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(reports)
}

// HandleFetchReport returns one archived run report.
// @Summary Get Run Report
// @Description Fetch the archived JSON report of one reconciliation run.
// @Tags sync
// @Produce json
// @Param run_id path string true "Run ID"
// @Success 200 {object} sync.Summary "Archived Report"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/reports/{run_id} [get]
func (h *Handler) HandleFetchReport(c *fiber.Ctx) error {
	runID := c.Params("run_id")
	l := logger.WithRayID(h.service.logger, c)

	data, err := h.service.FetchReport(c.Context(), runID)
	if err != nil {
		if errors.Is(err, ErrArchivingDisabled) || errors.Is(err, sync.ErrReportNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Failed to fetch run report", zap.String("run_id", runID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

// HandlePruneReports deletes archived reports older than the retention
// window.
// @Summary Prune Run Reports
// @Description Delete archived run reports older than the given number of days (default 30).
// @Tags sync
// @Produce json
// @Param days query int false "Retention window in days" default(30)
// @Success 200 {object} map[string]int "Removed count"
// @Failure 404 {object} map[string]string "Archiving Disabled"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/reports [delete]
func (h *Handler) HandlePruneReports(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	days := c.QueryInt("days", 30)
	if days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "days must be positive",
		})
	}

	removed, err := h.service.PruneReports(c.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		if errors.Is(err, ErrArchivingDisabled) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Failed to prune run reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"removed": removed})
}

// HandleCheckLicense reports one license's reconciliation state.
// @Summary Check License
// @Description Resolve an identifier (app_id, count_id or internal key) against both stores and report outstanding gap fields.
// @Tags license
// @Produce json
// @Param identifier path string true "License identifier (e.g. 'a1b2c3' or '42')"
// @Success 200 {object} LicenseDetail "License Detail"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /license/{identifier} [get]
func (h *Handler) HandleCheckLicense(c *fiber.Ctx) error {
	identifier := c.Params("identifier")
	l := logger.WithRayID(h.service.logger, c)

	detail, err := h.service.CheckLicense(c.Context(), identifier)
	if err != nil {
		l.Error("License check failed", zap.String("identifier", identifier), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(detail)
}

// HandleImport upserts a batch of partner records into the mirror table.
// @Summary Import External Licenses
// @Description Upsert a batch of partner license records, conflict-resolving on app_id.
// @Tags license
// @Accept json
// @Produce json
// @Param records body []models.ExternalLicense true "Partner records"
// @Success 200 {object} map[string]int "Written count"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /licenses/import [post]
func (h *Handler) HandleImport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var recs []models.ExternalLicense
	if err := c.BodyParser(&recs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}

	written, err := h.service.ImportExternal(c.Context(), recs)
	if err != nil {
		l.Error("License import failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"written": written, "received": len(recs)})
}
