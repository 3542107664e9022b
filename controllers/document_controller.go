package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"mindclone_server/services"
)

// DocumentController hands out presigned S3 URLs for knowledge-base
// documents. Uploads go straight from the client to S3; the backend only
// mints URLs and flips the profile flag once an upload is confirmed.
type DocumentController struct {
	ProfileService *services.ProfileService
	AuthService    *services.AuthService
}

// NewDocumentController creates a new DocumentController instance
func NewDocumentController(profileService *services.ProfileService, authService *services.AuthService) *DocumentController {
	return &DocumentController{ProfileService: profileService, AuthService: authService}
}

// GetUploadURL generates a presigned upload URL for a knowledge document
func (dc *DocumentController) GetUploadURL(w http.ResponseWriter, r *http.Request) {
	userID, err := dc.AuthService.AuthenticateRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	fileName := r.URL.Query().Get("fileName")
	fileType := r.URL.Query().Get("fileType")
	if fileName == "" || fileType == "" {
		http.Error(w, "fileName and fileType are required", http.StatusBadRequest)
		return
	}

	uploadURL, key, err := services.GenerateDocumentUploadURL(userID, fileName, fileType)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate upload URL: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"uploadUrl": uploadURL,
		"key":       key,
	})
}

// ConfirmUpload marks the caller's profile as having a knowledge base
func (dc *DocumentController) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	userID, err := dc.AuthService.AuthenticateRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	if err := dc.ProfileService.SetKnowledgeBaseFlag(r.Context(), userID, true); err != nil {
		http.Error(w, fmt.Sprintf("Failed to confirm upload: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Knowledge base updated",
	})
}

// GetReadURL generates a presigned read URL for a previously uploaded document
func (dc *DocumentController) GetReadURL(w http.ResponseWriter, r *http.Request) {
	if _, err := dc.AuthService.AuthenticateRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}

	readURL, err := services.GenerateDocumentReadURL(key)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate read URL: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"readUrl": readURL,
	})
}
