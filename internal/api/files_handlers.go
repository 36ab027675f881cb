package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jaevor/go-nanoid"

	"magazyn-plikow/internal/database"
	"magazyn-plikow/internal/models"
)

// maxFileSize caps a single upload; it matches the per-user quota.
const maxFileSize = 50 << 20

// generateFileKey builds the storage key for a payload: a random
// component plus a timestamp, so keys never collide, with the original
// extension preserved for convenience.
func generateFileKey(originalName string) (string, error) {
	generateID, err := nanoid.Standard(21)
	if err != nil {
		return "", fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s_%d%s", generateID(), time.Now().Unix(), ext), nil
}

func fileErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, database.ErrQuotaExceeded):
		return http.StatusInsufficientStorage, "Storage quota exceeded"
	case errors.Is(err, database.ErrFileNotFound):
		return http.StatusNotFound, "File not found"
	default:
		return 0, ""
	}
}

// @Summary      Upload a file
// @Description  Stores a multipart file (field "file") against the caller's quota.
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "File to upload"
// @Success      201   {object}  MessageResponse
// @Failure      400   {object}  FailureResponse
// @Failure      413   {object}  FailureResponse
// @Failure      507   {object}  FailureResponse
// @Router       /files [post]
func (s *Server) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	// One MiB of slack over the payload cap for the multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+(1<<20))

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "Error parsing multipart form")
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if handler.Size > maxFileSize {
		respondError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	key, err := generateFileKey(handler.Filename)
	if err != nil {
		log.Printf("ERROR: %v", err)
		respondError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	written, err := s.storage.Save(key, file)
	if err != nil {
		log.Printf("ERROR: payload write failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}

	// The multipart header's size is client-declared; the byte count
	// actually persisted is what the ledger accounts for.
	if written > maxFileSize {
		s.removePayload(key)
		respondError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	mimeType := handler.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	created, err := s.store.CreateFile(r.Context(), database.CreateFileParams{
		UserID:       user.ID,
		Filename:     key,
		OriginalName: handler.Filename,
		MimeType:     mimeType,
		SizeBytes:    written,
	})
	if err != nil {
		// The payload is already on disk; remove it so a failed insert
		// leaves no orphan.
		s.removePayload(key)
		if status, msg := fileErrorStatus(err); status != 0 {
			respondError(w, status, msg)
			return
		}
		log.Printf("ERROR: file record creation failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	s.logFileEvent(r, user.ID, "file_uploaded", created)
	respondMessage(w, http.StatusCreated, "File uploaded successfully")
}

type SaveTextRequest struct {
	Text string `json:"text" example:"notatka do zapamiętania"`
}

// @Summary      Save a text snippet
// @Description  Stores a text snippet as a file; its UTF-8 byte length counts against the quota.
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        saveTextRequest  body      SaveTextRequest  true  "Snippet"
// @Success      201              {object}  MessageResponse
// @Failure      400              {object}  FailureResponse
// @Failure      507              {object}  FailureResponse
// @Router       /files [post]
func (s *Server) SaveTextHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req SaveTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" {
		respondError(w, http.StatusBadRequest, "No text provided")
		return
	}

	sizeBytes := int64(len(req.Text))
	if sizeBytes > maxFileSize {
		respondError(w, http.StatusRequestEntityTooLarge, "Text too large")
		return
	}

	now := time.Now()
	key, err := generateFileKey(".txt")
	if err != nil {
		log.Printf("ERROR: %v", err)
		respondError(w, http.StatusInternalServerError, "Save failed")
		return
	}

	written, err := s.storage.Save(key, strings.NewReader(req.Text))
	if err != nil {
		log.Printf("ERROR: payload write failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to save text")
		return
	}

	created, err := s.store.CreateFile(r.Context(), database.CreateFileParams{
		UserID:        user.ID,
		Filename:      key,
		OriginalName:  fmt.Sprintf("text-snippet-%d.txt", now.Unix()),
		MimeType:      "text/plain",
		SizeBytes:     written,
		IsTextSnippet: true,
	})
	if err != nil {
		s.removePayload(key)
		if status, msg := fileErrorStatus(err); status != 0 {
			respondError(w, status, msg)
			return
		}
		log.Printf("ERROR: snippet record creation failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Save failed")
		return
	}

	s.logFileEvent(r, user.ID, "file_uploaded", created)
	respondMessage(w, http.StatusCreated, "Text saved successfully")
}

type ListFilesResponse struct {
	Success bool          `json:"success" example:"true"`
	Files   []models.File `json:"files"`
}

// @Summary      List own files
// @Description  Lists the caller's stored items, newest first.
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ListFilesResponse
// @Router       /files [get]
func (s *Server) ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	files, err := s.store.ListFilesForUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("ERROR: file listing failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch files")
		return
	}

	respondJSON(w, http.StatusOK, ListFilesResponse{Success: true, Files: files})
}

// @Summary      Download a file
// @Description  Streams the payload as an attachment under its original name. Files of other users are reported as missing.
// @Tags         files
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id   query     int  true  "File ID"
// @Success      200  {file}    binary
// @Failure      400  {object}  FailureResponse
// @Failure      404  {object}  FailureResponse
// @Router       /files [get]
func (s *Server) DownloadFileHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	fileID, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "File ID required")
		return
	}

	file, err := s.store.GetFileByID(r.Context(), fileID, user.ID)
	if err != nil {
		log.Printf("ERROR: file lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Download failed")
		return
	}
	if file == nil {
		respondError(w, http.StatusNotFound, "File not found")
		return
	}

	payload, err := s.storage.Get(file.Filename)
	if err != nil {
		log.Printf("ERROR: payload missing for file %d (%s): %v", file.ID, file.Filename, err)
		respondError(w, http.StatusNotFound, "File not found")
		return
	}
	defer payload.Close()

	w.Header().Set("Content-Disposition", "attachment; filename=\""+file.OriginalName+"\"")
	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.SizeBytes, 10))

	io.Copy(w, payload)
}

// @Summary      Delete a file
// @Description  Removes an owned file, its payload and the quota it occupied.
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        id   query     int  true  "File ID"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  FailureResponse
// @Failure      404  {object}  FailureResponse
// @Router       /files [delete]
func (s *Server) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	fileID, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "File ID required")
		return
	}

	file, err := s.store.DeleteFile(r.Context(), fileID, user.ID)
	if err != nil {
		if status, msg := fileErrorStatus(err); status != 0 {
			respondError(w, status, msg)
			return
		}
		log.Printf("ERROR: file delete failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Delete failed")
		return
	}

	s.removePayload(file.Filename)
	s.logFileEvent(r, user.ID, "file_deleted", file)
	respondMessage(w, http.StatusOK, "File deleted successfully")
}

// removePayload unlinks a payload and only logs on failure; the
// database record is already consistent at every call site.
func (s *Server) removePayload(key string) {
	if err := s.storage.Delete(key); err != nil {
		log.Printf("ERROR: failed to remove payload %s: %v", key, err)
	}
}

func (s *Server) logFileEvent(r *http.Request, userID int64, eventType string, file *models.File) {
	if err := s.store.LogEvent(r.Context(), userID, eventType, file); err != nil {
		log.Printf("ERROR: failed to journal %s event: %v", eventType, err)
	}
}
