package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"magazyn-plikow/internal/auth"
	"magazyn-plikow/internal/database"
)

type StatsResponse struct {
	Success bool                  `json:"success" example:"true"`
	Stats   *database.SystemStats `json:"stats"`
}

// @Summary      System statistics
// @Description  User, file, session and storage totals. The admin account itself is not counted as a user.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatsResponse
// @Failure      403  {object}  FailureResponse
// @Router       /admin [get]
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetSystemStats(r.Context(), auth.ReservedAdminUsername)
	if err != nil {
		log.Printf("ERROR: stats query failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}

	respondJSON(w, http.StatusOK, StatsResponse{Success: true, Stats: stats})
}

type AdminUsersResponse struct {
	Success bool                 `json:"success" example:"true"`
	Users   []database.AdminUser `json:"users"`
}

// @Summary      List all users
// @Description  Lists every regular account with storage usage and file count.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  AdminUsersResponse
// @Failure      403  {object}  FailureResponse
// @Router       /files [get]
func (s *Server) AdminListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsersWithFileCount(r.Context(), auth.ReservedAdminUsername)
	if err != nil {
		log.Printf("ERROR: user listing failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	respondJSON(w, http.StatusOK, AdminUsersResponse{Success: true, Users: users})
}

type AdminFilesResponse struct {
	Success bool                 `json:"success" example:"true"`
	Files   []database.AdminFile `json:"files"`
}

// @Summary      List a user's files
// @Description  Lists any user's files, bypassing the ownership scope.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  query     int  true  "User ID"
// @Success      200      {object}  AdminFilesResponse
// @Failure      400      {object}  FailureResponse
// @Failure      403      {object}  FailureResponse
// @Router       /files [get]
func (s *Server) AdminListUserFilesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "User ID required")
		return
	}

	files, err := s.store.ListFilesForUserWithOwner(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR: admin file listing failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch files")
		return
	}

	respondJSON(w, http.StatusOK, AdminFilesResponse{Success: true, Files: files})
}

// @Summary      Delete a user
// @Description  Removes an account with all its sessions, files and payloads. The admin account cannot be deleted.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  query     int  true  "User ID"
// @Success      200      {object}  MessageResponse
// @Failure      400      {object}  FailureResponse
// @Failure      403      {object}  FailureResponse
// @Failure      404      {object}  FailureResponse
// @Router       /admin [delete]
func (s *Server) AdminDeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "User ID required")
		return
	}

	keys, err := s.store.DeleteUser(r.Context(), userID, auth.ReservedAdminUsername)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found or cannot delete admin")
			return
		}
		log.Printf("ERROR: user delete failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Delete failed")
		return
	}

	for _, key := range keys {
		s.removePayload(key)
	}

	respondMessage(w, http.StatusOK, "User deleted successfully")
}

// @Summary      Delete any file
// @Description  Removes a file regardless of owner and releases the owner's quota.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        file_id  query     int  true  "File ID"
// @Success      200      {object}  MessageResponse
// @Failure      400      {object}  FailureResponse
// @Failure      403      {object}  FailureResponse
// @Failure      404      {object}  FailureResponse
// @Router       /admin [delete]
func (s *Server) AdminDeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	fileID, err := strconv.ParseInt(r.URL.Query().Get("file_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "File ID required")
		return
	}

	file, err := s.store.DeleteAnyFile(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, database.ErrFileNotFound) {
			respondError(w, http.StatusNotFound, "File not found")
			return
		}
		log.Printf("ERROR: admin file delete failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Delete failed")
		return
	}

	s.removePayload(file.Filename)
	s.logFileEvent(r, file.UserID, "file_deleted", file)
	respondMessage(w, http.StatusOK, "File deleted successfully")
}
