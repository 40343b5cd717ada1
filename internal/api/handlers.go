package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"salessense-go/internal/logger"
	"salessense-go/internal/processor"
	"salessense-go/internal/report"
	"salessense-go/internal/types"
)

// Version is reported by /health.
const Version = "1.0.0"

// Multipart bodies above this size spill to temporary files.
const maxMemory = 32 << 20

// Handler serves the analysis API.
type Handler struct {
	svc       *processor.Service
	log       *logger.Logger
	maxUpload int64
}

func NewHandler(svc *processor.Service, log *logger.Logger, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, log: log, maxUpload: maxUploadBytes}
}

// Router wires middleware and routes.
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(h.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(allowedOrigins))

	r.Get("/health", h.Health)
	r.Post("/transcribe/", h.Transcribe)
	r.Post("/analyze/", h.Analyze)
	r.Post("/analyze_call", h.AnalyzeCall)
	r.Get("/cache/stats", h.CacheStats)
	r.Delete("/cache", h.CacheClear)
	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Multi-stage analysis backend is running",
		"version": Version,
	}, nil)
}

// Transcribe accepts a multipart "file" and returns {"transcript": ...}.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "transcribe")
	audio, status, err := h.readUpload(w, r, "file")
	if err != nil {
		reqLog.WithError(err).Warn("invalid upload")
		writeError(w, status, err.Error(), reqLog)
		return
	}

	transcript, err := h.svc.Transcribe(r.Context(), audio)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error(), reqLog)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transcript": transcript}, reqLog)
}

// Analyze runs the cold path on a transcript supplied as form fields.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "analyze")
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form: "+err.Error(), reqLog)
		return
	}
	transcript := strings.TrimSpace(r.FormValue("transcript"))
	callContext := strings.TrimSpace(r.FormValue("context"))
	if missing := missingFields(map[string]string{"transcript": transcript, "context": callContext}); missing != "" {
		writeError(w, http.StatusBadRequest, "missing required field(s): "+missing, reqLog)
		return
	}

	res := h.svc.Analyze(r.Context(), callContext, transcript)
	reqLog.WithField("processing_time", res.ProcessingTime).Info("analysis returned")
	writeJSON(w, http.StatusOK, res, reqLog)
}

// AnalyzeCall transcribes an uploaded recording and analyzes it, with the
// result cache in front of both steps. ?format=xlsx returns a workbook.
func (h *Handler) AnalyzeCall(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "analyze_call")
	audio, status, err := h.readUpload(w, r, "audio_file")
	if err != nil {
		reqLog.WithError(err).Warn("invalid upload")
		writeError(w, status, err.Error(), reqLog)
		return
	}

	participants := strings.TrimSpace(r.FormValue("participants"))
	details := strings.TrimSpace(r.FormValue("details"))
	callTypes := splitList(r.FormValue("call_types"))
	fields := map[string]string{"participants": participants, "details": details, "call_types": strings.Join(callTypes, ",")}
	if missing := missingFields(fields); missing != "" {
		writeError(w, http.StatusBadRequest, "missing required field(s): "+missing, reqLog)
		return
	}

	callContext := processor.BuildContext(participants, details, callTypes)
	res, err := h.svc.AnalyzeRecording(r.Context(), audio, callContext)
	if err != nil {
		body := types.FallbackResult(fmt.Sprintf("Error occurred during processing: %v", err))
		writeJSON(w, http.StatusBadGateway, struct {
			Error string `json:"error"`
			types.FinalResult
		}{Error: "Processing failed: " + err.Error(), FinalResult: body}, reqLog)
		return
	}
	reqLog.WithFields(logrus.Fields{
		"audio_bytes":     len(audio),
		"cached":          res.Cached,
		"processing_time": res.ProcessingTime,
	}).Info("call analyzed")

	if r.URL.Query().Get("format") == "xlsx" {
		h.writeReport(w, res, reqLog)
		return
	}
	writeJSON(w, http.StatusOK, res, reqLog)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.CacheStats(), nil)
}

func (h *Handler) CacheClear(w http.ResponseWriter, r *http.Request) {
	h.svc.CacheClear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"}, nil)
}

func (h *Handler) writeReport(w http.ResponseWriter, res types.FinalResult, reqLog *logrus.Entry) {
	f, err := report.Build(res)
	if err != nil {
		reqLog.WithError(err).Error("report build failed")
		writeError(w, http.StatusInternalServerError, "report generation failed", reqLog)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="call-analysis.xlsx"`)
	if _, err := f.WriteTo(w); err != nil {
		reqLog.WithError(err).Error("failed to write report")
	}
}

// readUpload returns the bytes of one multipart file field.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", h.maxUpload)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err)
	}
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("missing required file field %q", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, http.StatusBadRequest, fmt.Errorf("uploaded file %q is empty", field)
	}
	return data, http.StatusOK, nil
}

// parseForm accepts both multipart and urlencoded bodies.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func missingFields(fields map[string]string) string {
	var missing []string
	for _, name := range []string{"transcript", "context", "participants", "details", "call_types"} {
		if v, ok := fields[name]; ok && v == "" {
			missing = append(missing, name)
		}
	}
	return strings.Join(missing, ", ")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeError(w http.ResponseWriter, status int, msg string, reqLog *logrus.Entry) {
	writeJSON(w, status, map[string]string{"error": msg}, reqLog)
}

func writeJSON(w http.ResponseWriter, status int, v any, reqLog *logrus.Entry) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil && reqLog != nil {
		reqLog.WithField("error", err.Error()).Error("failed to write response")
	}
}
