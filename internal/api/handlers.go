package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Skufu/hearttriage/internal/export"
	"github.com/Skufu/hearttriage/internal/store"
	"github.com/Skufu/hearttriage/internal/triage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Predictor scores a validated record.
type Predictor interface {
	Predict(ctx context.Context, rec triage.ClinicalRecord) (triage.PredictionResult, error)
	Err() error
}

// Handler serves every route. It holds no request state of its own.
type Handler struct {
	predictor Predictor
	store     store.Store
	log       *logrus.Logger
	recordAPI bool
}

// NewHandler builds the handler set. recordAPI also stores results scored
// through POST /api/predict.
func NewHandler(p Predictor, s store.Store, log *logrus.Logger, recordAPI bool) *Handler {
	return &Handler{predictor: p, store: s, log: log, recordAPI: recordAPI}
}

func (h *Handler) entry(c *gin.Context) *logrus.Entry {
	return h.log.WithField("request_id", c.GetString("request_id"))
}

func (h *Handler) index(c *gin.Context) {
	results, err := h.store.All(c.Request.Context())
	if err != nil {
		h.entry(c).WithError(err).Error("list patients")
		c.HTML(http.StatusInternalServerError, "index.html", gin.H{"Error": err.Error(), "Ready": h.predictor.Err() == nil})
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"PatientCount": len(results),
		"Ready":        h.predictor.Err() == nil,
	})
}

func (h *Handler) predictPage(c *gin.Context) {
	c.HTML(http.StatusOK, "predict.html", gin.H{
		"Fields": newFormFields(triage.DefaultRecord()),
	})
}

func (h *Handler) predictForm(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		h.renderPredictError(c, triage.DefaultRecord(), badBody(err))
		return
	}

	rec, err := triage.ParseFormRecord(c.Request.PostForm)
	if err != nil {
		h.renderPredictError(c, triage.DefaultRecord(), err)
		return
	}

	result, err := h.predictor.Predict(c.Request.Context(), rec)
	if err != nil {
		h.renderPredictError(c, rec, err)
		return
	}
	if err := h.store.Append(c.Request.Context(), result); err != nil {
		h.renderPredictError(c, rec, &storeError{cause: err})
		return
	}
	h.logPrediction(c, result, true)

	c.HTML(http.StatusOK, "predict.html", gin.H{
		"Fields":      newFormFields(rec),
		"Result":      newPatientView(result),
		"Probability": probabilityRows(result.Probability),
	})
}

func (h *Handler) renderPredictError(c *gin.Context, rec triage.ClinicalRecord, err error) {
	status, body := errorResponse(err)
	h.logError(c, status, err)
	c.HTML(status, "predict.html", gin.H{
		"Fields": newFormFields(rec),
		"Error":  "Prediction error: " + body.Error,
	})
}

func (h *Handler) apiPredict(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.writeError(c, badBody(err))
		return
	}

	rec, err := triage.ParseRecord(raw)
	if err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.predictor.Predict(c.Request.Context(), rec)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if h.recordAPI {
		if err := h.store.Append(c.Request.Context(), result); err != nil {
			h.writeError(c, &storeError{cause: err})
			return
		}
	}
	h.logPrediction(c, result, h.recordAPI)

	c.JSON(http.StatusOK, predictResponse{
		Success:     true,
		Prediction:  newPredictionView(result),
		Explanation: result.Explanation,
		Timestamp:   formatTimestamp(result.Timestamp),
	})
}

func (h *Handler) patientsPage(c *gin.Context) {
	results, err := h.store.All(c.Request.Context())
	if err != nil {
		h.logError(c, http.StatusInternalServerError, err)
		c.HTML(http.StatusInternalServerError, "patients.html", gin.H{"Error": err.Error()})
		return
	}
	c.HTML(http.StatusOK, "patients.html", gin.H{"Patients": newPatientViews(results)})
}

func (h *Handler) apiPatients(c *gin.Context) {
	results, err := h.store.All(c.Request.Context())
	if err != nil {
		h.writeError(c, &storeError{cause: err})
		return
	}
	c.JSON(http.StatusOK, newPatientViews(results))
}

func (h *Handler) exportPatients(c *gin.Context) {
	results, err := h.store.All(c.Request.Context())
	if err != nil {
		h.writeError(c, &storeError{cause: err})
		return
	}

	var buf bytes.Buffer
	if err := export.WritePatients(&buf, results); err != nil {
		h.writeError(c, err)
		return
	}

	filename := fmt.Sprintf("patients-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handler) insightsPage(c *gin.Context) {
	results, err := h.store.All(c.Request.Context())
	if err != nil {
		h.logError(c, http.StatusInternalServerError, err)
		c.HTML(http.StatusInternalServerError, "insights.html", gin.H{"Error": err.Error()})
		return
	}

	insights, ok := triage.Summarize(results)
	if !ok {
		c.HTML(http.StatusOK, "insights.html", gin.H{"Empty": true})
		return
	}
	c.HTML(http.StatusOK, "insights.html", gin.H{
		"Insights":     insights,
		"Distribution": distributionRows(insights),
	})
}

func (h *Handler) apiInsights(c *gin.Context) {
	results, err := h.store.All(c.Request.Context())
	if err != nil {
		h.writeError(c, &storeError{cause: err})
		return
	}

	insights, ok := triage.Summarize(results)
	if !ok {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, insights)
}

func (h *Handler) apiFeatures(c *gin.Context) {
	fields := triage.Fields()
	out := make([]featureView, 0, len(fields))
	for _, f := range fields {
		out = append(out, featureView{Name: f.Name, Description: f.Description, Default: f.Default})
	}
	c.JSON(http.StatusOK, gin.H{"features": out})
}

func (h *Handler) readyz(c *gin.Context) {
	modelStatus := "ok"
	storeStatus := "ok"
	ready := true

	if err := h.predictor.Err(); err != nil {
		modelStatus = fmt.Sprintf("unavailable: %v", err)
		ready = false
	}

	if checker, ok := h.store.(store.HealthChecker); ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := checker.Ping(ctx); err != nil {
			storeStatus = fmt.Sprintf("unhealthy: %v", err)
			ready = false
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"model":  modelStatus,
			"store":  storeStatus,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"model":  modelStatus,
		"store":  storeStatus,
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	h.logError(c, status, err)
	c.JSON(status, body)
}

func (h *Handler) logError(c *gin.Context, status int, err error) {
	entry := h.entry(c).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
		return
	}
	entry.Warn("request rejected")
}

func (h *Handler) logPrediction(c *gin.Context, result triage.PredictionResult, stored bool) {
	h.entry(c).WithFields(logrus.Fields{
		"patient_id": result.ID,
		"risk_level": int(result.Tier),
		"stored":     stored,
	}).Info("prediction completed")
}

type probabilityRow struct {
	Label string
	Color string
	Value float64
}

func probabilityRows(probs []float64) []probabilityRow {
	rows := make([]probabilityRow, 0, len(probs))
	for i, p := range probs {
		info, err := triage.Describe(triage.Tier(i))
		if err != nil {
			continue
		}
		rows = append(rows, probabilityRow{Label: info.Label, Color: info.Color, Value: p})
	}
	return rows
}

type distributionRow struct {
	Label string
	Color string
	Count int
	Share float64
}

func distributionRows(in triage.Insights) []distributionRow {
	rows := make([]distributionRow, 0, len(triage.Tiers()))
	for _, t := range triage.Tiers() {
		info, _ := triage.Describe(t)
		count := in.RiskDistribution[info.Label]
		if count == 0 {
			continue
		}
		rows = append(rows, distributionRow{
			Label: info.Label,
			Color: info.Color,
			Count: count,
			Share: float64(count) / float64(in.TotalPatients),
		})
	}
	return rows
}
