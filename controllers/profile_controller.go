package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"mindclone_server/models"
	"mindclone_server/services"
)

// ProfileController handles HTTP requests for matching-profile operations.
// Every operation is scoped to the authenticated caller: a profile is only
// ever mutated by its owner.
type ProfileController struct {
	ProfileService *services.ProfileService
	AuthService    *services.AuthService
}

// NewProfileController creates a new ProfileController instance
func NewProfileController(profileService *services.ProfileService, authService *services.AuthService) *ProfileController {
	return &ProfileController{ProfileService: profileService, AuthService: authService}
}

// PutProfile creates or replaces the caller's matching profile
func (pc *ProfileController) PutProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pc.AuthService.AuthenticateRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var profile models.MatchingProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	profile.UserID = userID // a caller can only write their own profile

	saved, err := pc.ProfileService.PutProfile(r.Context(), profile)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to save profile: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Profile saved successfully",
		"profile": saved,
	})
}

// GetMyProfile returns the caller's matching profile
func (pc *ProfileController) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pc.AuthService.AuthenticateRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	profile, err := pc.ProfileService.GetProfile(r.Context(), userID)
	if err != nil {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"profile": profile,
	})
}

// UpdatePreferences applies a targeted update to the caller's matching
// preferences (interests, industries, contact visibility, goal flags).
func (pc *ProfileController) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := pc.AuthService.AuthenticateRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var body struct {
		Preferences *models.MatchingPreferences `json:"preferences,omitempty"`
		Goals       map[string]bool             `json:"goals,omitempty"`
		IsActive    *bool                       `json:"isActive,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	updates := map[string]interface{}{}
	if body.Preferences != nil {
		updates["preferences"] = *body.Preferences
	}
	if body.Goals != nil {
		updates["goals"] = body.Goals
	}
	if body.IsActive != nil {
		updates["isActive"] = *body.IsActive
	}
	if len(updates) == 0 {
		http.Error(w, "No fields to update", http.StatusBadRequest)
		return
	}

	profile, err := pc.ProfileService.UpdateProfileFields(r.Context(), userID, updates)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to update preferences: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Preferences updated successfully",
		"profile": profile,
	})
}
