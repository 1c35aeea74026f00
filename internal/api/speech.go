package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/flowsketch/flowsketch/internal/ai"
)

// maxAudioBytes caps uploaded recordings.
const maxAudioBytes = 25 << 20

type speechHandler struct {
	transcriber Transcriber
	logger      *slog.Logger
}

// transcribe accepts a multipart upload with the recording in the
// "file" field and relays it to the transcription service. The
// service's JSON reply is passed through as the data field.
func (h *speechHandler) transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, h.logger, "audio file too large")
			return
		}
		writeError(w, http.StatusBadRequest, h.logger, "audio file is required")
		return
	}
	defer file.Close() //nolint:errcheck

	result, err := h.transcriber.Transcribe(r.Context(), file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, ai.ErrUpstream) {
			writeError(w, http.StatusBadGateway, h.logger, "transcription failed")
			return
		}
		h.logger.Error("transcription failed", "error", err)
		writeError(w, http.StatusInternalServerError, h.logger, "internal server error")
		return
	}

	writeData(w, http.StatusOK, result, h.logger)
}
