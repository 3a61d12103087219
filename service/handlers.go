package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dnldd/vwapchart/chart"
	"github.com/dnldd/vwapchart/export"
	"github.com/dnldd/vwapchart/pipeline"
	"github.com/dnldd/vwapchart/shared"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// chartResponse is the json response of a chart request.
type chartResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message,omitempty"`
	Dates     []string `json:"dates"`
	Date      string   `json:"date,omitempty"`
	Timeframe string   `json:"timeframe"`
	Bars      int      `json:"bars"`
	Skipped   int      `json:"skipped"`
	Chart     string   `json:"chart,omitempty"`
}

// healthResponse is the json response of a health request.
type healthResponse struct {
	Status   string  `json:"status"`
	Renders  uint64  `json:"renders"`
	Exports  uint64  `json:"exports"`
	Failures uint64  `json:"failures"`
	Uptime   float64 `json:"uptime"`
}

// timeframeOption is a timeframe entry of the index page selector.
type timeframeOption struct {
	Value    string
	Label    string
	Selected bool
}

// indexData is the data the index page is rendered with.
type indexData struct {
	Title       string
	Timeframes  []timeframeOption
	MaxUploadMB int64
}

// requestLogger tags the provided response with a new request id and returns a
// logger carrying it.
func (c *Chart) requestLogger(w http.ResponseWriter, r *http.Request) zerolog.Logger {
	id := uuid.NewString()
	w.Header().Set("X-Request-ID", id)

	return c.logger.With().
		Str("request", id).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Logger()
}

// writeJSON writes the provided value as a json response.
func writeJSON(w http.ResponseWriter, logger *zerolog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		logger.Error().Msgf("encoding response: %v", err)
	}
}

// readRequest parses the pipeline request from the provided multipart form.
func (c *Chart) readRequest(w http.ResponseWriter, r *http.Request) (*pipeline.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, c.cfg.MaxUploadSize)

	err := r.ParseMultipartForm(multipartMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("parsing upload form: %w", err)
	}

	req := &pipeline.Request{
		Timeframe: DefaultTimeframe,
	}

	if tf := r.FormValue("timeframe"); tf != "" {
		req.Timeframe, err = shared.ParseTimeframe(tf)
		if err != nil {
			return nil, err
		}
	}

	if date := r.FormValue("date"); date != "" {
		req.Date, err = time.Parse(shared.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parsing selected date %q: %w", date, err)
		}
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return req, nil
	case err != nil:
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	defer file.Close()

	req.Filename = header.Filename
	req.Data, err = io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", header.Filename, err)
	}

	return req, nil
}

// compute reads and runs the pipeline for the provided request.
func (c *Chart) compute(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger) (*pipeline.Request, *pipeline.Result, error) {
	req, err := c.readRequest(w, r)
	if err != nil {
		return nil, nil, err
	}

	res, err := pipeline.Run(req)
	if err != nil {
		return req, res, err
	}

	logger.Debug().Msgf("computed %d %s bars from %d rows of %s (%d skipped)",
		len(res.Bars), res.Timeframe.String(), res.Rows, req.Filename, res.Skipped)

	return req, res, nil
}

// failureResponse builds the response of a failed chart run.
func (c *Chart) failureResponse(err error, req *pipeline.Request, res *pipeline.Result, logger *zerolog.Logger) (int, *chartResponse) {
	severity := pipeline.Classify(err)

	resp := &chartResponse{
		Status:  severity.String(),
		Message: err.Error(),
		Dates:   []string{},
	}
	if req != nil {
		resp.Timeframe = req.Timeframe.String()
	}
	if res != nil {
		resp.Dates = formatDates(res.Dates)
		resp.Date = res.Date.Format(shared.DateLayout)
		resp.Skipped = res.Skipped
	}

	switch severity {
	case pipeline.Info:
		return http.StatusOK, resp
	case pipeline.Warning:
		c.failures.Inc()
		logger.Warn().Msg(err.Error())
		return http.StatusOK, resp
	default:
		c.failures.Inc()
		logger.Error().Msgf("charting upload: %v", err)
		return http.StatusBadRequest, resp
	}
}

// formatDates formats the provided trading dates.
func formatDates(dates []time.Time) []string {
	formatted := make([]string, 0, len(dates))
	for idx := range dates {
		formatted = append(formatted, dates[idx].Format(shared.DateLayout))
	}

	return formatted
}

// handleIndex serves the upload page.
func (c *Chart) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := c.requestLogger(w, r)

	data := indexData{
		Title:       chartTitle,
		Timeframes:  make([]timeframeOption, 0, len(shared.Timeframes())),
		MaxUploadMB: c.cfg.MaxUploadSize >> 20,
	}
	for _, tf := range shared.Timeframes() {
		data.Timeframes = append(data.Timeframes, timeframeOption{
			Value:    tf.String(),
			Label:    tf.Label(),
			Selected: tf == DefaultTimeframe,
		})
	}

	var buf bytes.Buffer
	err := c.index.Execute(&buf, data)
	if err != nil {
		logger.Error().Msgf("rendering index: %v", err)
		http.Error(w, "unable to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	if err != nil {
		logger.Error().Msgf("writing index: %v", err)
	}
}

// handleChart computes and renders the chart for an upload.
func (c *Chart) handleChart(w http.ResponseWriter, r *http.Request) {
	logger := c.requestLogger(w, r)

	req, res, err := c.compute(w, r, &logger)
	if err != nil {
		status, resp := c.failureResponse(err, req, res, &logger)
		writeJSON(w, &logger, status, resp)
		return
	}

	var buf bytes.Buffer
	err = chart.Render(&buf, res.Bars, &chart.Options{
		Title:       chartTitle,
		Timeframe:   res.Timeframe,
		TickSpacing: c.cfg.TickSpacing,
		ShowVolume:  c.cfg.ShowVolume,
		AssetsHost:  c.cfg.AssetsHost,
	})
	if err != nil {
		status, resp := c.failureResponse(err, req, res, &logger)
		writeJSON(w, &logger, status, resp)
		return
	}

	c.renders.Inc()

	writeJSON(w, &logger, http.StatusOK, &chartResponse{
		Status:    "ok",
		Dates:     formatDates(res.Dates),
		Date:      res.Date.Format(shared.DateLayout),
		Timeframe: res.Timeframe.String(),
		Bars:      len(res.Bars),
		Skipped:   res.Skipped,
		Chart:     buf.String(),
	})
}

// exportFilename returns the attachment filename of an export.
func exportFilename(req *pipeline.Request, res *pipeline.Result, ext string) string {
	base := strings.TrimSuffix(filepath.Base(req.Filename), filepath.Ext(req.Filename))
	return fmt.Sprintf("%s-%s-%s.%s", base, res.Date.Format(shared.DateLayout), res.Timeframe.String(), ext)
}

// handleExport serves the computed bars of an upload as a download.
func (c *Chart) handleExport(w http.ResponseWriter, r *http.Request) {
	logger := c.requestLogger(w, r)

	format := r.URL.Query().Get("format")
	exporter := export.NewExporter(format)
	if exporter == nil {
		c.failures.Inc()
		writeJSON(w, &logger, http.StatusBadRequest, &chartResponse{
			Status:  pipeline.Error.String(),
			Message: fmt.Sprintf("unsupported export format %q", format),
			Dates:   []string{},
		})
		return
	}

	req, res, err := c.compute(w, r, &logger)
	if err != nil {
		status, resp := c.failureResponse(err, req, res, &logger)
		writeJSON(w, &logger, status, resp)
		return
	}

	var buf bytes.Buffer
	err = exporter.Write(&buf, res.Bars)
	if err != nil {
		c.failures.Inc()
		logger.Error().Msgf("exporting %s bars: %v", exporter.Extension(), err)
		http.Error(w, "unable to export bars", http.StatusInternalServerError)
		return
	}

	c.exports.Inc()

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", exportFilename(req, res, exporter.Extension())))
	_, err = buf.WriteTo(w)
	if err != nil {
		logger.Error().Msgf("writing export: %v", err)
	}
}

// handleHealth serves the service counters.
func (c *Chart) handleHealth(w http.ResponseWriter, r *http.Request) {
	logger := c.requestLogger(w, r)

	writeJSON(w, &logger, http.StatusOK, &healthResponse{
		Status:   "ok",
		Renders:  c.renders.Load(),
		Exports:  c.exports.Load(),
		Failures: c.failures.Load(),
		Uptime:   time.Since(c.startTime).Seconds(),
	})
}
