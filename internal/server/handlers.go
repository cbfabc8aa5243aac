package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"traffic-infographic/internal/features/delivery"
	"traffic-infographic/internal/infra/failure"

	"go.uber.org/zap"
)

const (
	msgNoFilePart     = "No file part"
	msgNoSelectedFile = "No selected file"
	msgFileTooLarge   = "File too large"
	msgServerUp       = "Server is up and running!"
)

type uploadResponse struct {
	Success bool   `json:"success"`
	Image   string `json:"image"`
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(msgServerUp))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqLog := s.requestLogger(r)

	if r.ContentLength > s.opts.MaxUploadBytes {
		reqLog.Warn("Upload rejected",
			zap.Int64("content_length", r.ContentLength),
			zap.Int64("limit_bytes", s.opts.MaxUploadBytes))
		http.Error(w, msgFileTooLarge, http.StatusRequestEntityTooLarge)
		return
	}

	body := &limitedBody{ReadCloser: http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)}
	r.Body = body
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		// the multipart reader may replace the limit error with a header parse error
		if body.exceeded {
			reqLog.Warn("Upload rejected", zap.Int64("limit_bytes", s.opts.MaxUploadBytes))
			http.Error(w, msgFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		reqLog.Debug("Multipart form unreadable", zap.Error(err))
		http.Error(w, msgNoFilePart, http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// a file input submitted empty arrives as a plain value
		if _, ok := r.MultipartForm.Value["file"]; ok {
			http.Error(w, msgNoSelectedFile, http.StatusBadRequest)
			return
		}
		http.Error(w, msgNoFilePart, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		http.Error(w, msgNoSelectedFile, http.StatusBadRequest)
		return
	}

	reqLog.Debug("CSV upload received",
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size))

	ig, err := s.pipeline.WithLogger(reqLog).Build(file)
	if err != nil {
		writeFailure(w, err)
		return
	}

	res, err := s.adapter.Deliver(ig)
	if err != nil {
		reqLog.Error("Infographic delivery failed",
			zap.String("mode", string(s.adapter.Mode())),
			zap.Error(err))
		writeFailure(w, err)
		return
	}

	reqLog.Success("Infographic generated",
		zap.String("filename", header.Filename),
		zap.String("mode", string(res.Mode)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))

	if res.Mode == delivery.ModeEncode {
		writeJSON(w, http.StatusOK, uploadResponse{Success: true, Image: res.Image})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(res.Message()))
}

// limitedBody records whether the MaxBytesReader underneath hit its limit.
type limitedBody struct {
	io.ReadCloser
	exceeded bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		b.exceeded = true
	}
	return n, err
}

func writeFailure(w http.ResponseWriter, err error) {
	http.Error(w, failure.Message(err), failure.StatusCode(err))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
