package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"registration-sync-go/internal/models"
	"registration-sync-go/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// handleDuePayments returns the current due-payments set with per-sport
// breakdowns, recomputed on demand.
func (s *Server) handleDuePayments(w http.ResponseWriter, r *http.Request) {
	results, err := s.engine.DueReconciliations(r.Context())
	if err != nil {
		zap.L().Error("Failed to compute due payments", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch due payments")
		return
	}

	if results == nil {
		results = []models.ReconciliationResult{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    results,
	})
}

// handleSyncDuePayments triggers a full propagation refresh. The response
// reports the size of the due set; the sink writes themselves continue in
// the background.
func (s *Server) handleSyncDuePayments(w http.ResponseWriter, r *http.Request) {
	results, err := s.engine.DueReconciliations(r.Context())
	if err != nil {
		zap.L().Error("Failed to compute due payments for sync", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to compute due payments")
		return
	}

	users, err := s.storage.GetUsers(r.Context())
	if err != nil {
		zap.L().Error("Failed to list users for sync", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	s.dispatcher.FullRefresh(users)

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"count":   len(results),
	})
}

type userPatchRequest struct {
	Deleted *bool `json:"deleted"`
}

// handleUserPatch supports soft delete and restore of a user, mirroring the
// change to the Users tab and the allow-list in the background.
func (s *Server) handleUserPatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body userPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Deleted == nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := s.storage.SetUserDeleted(r.Context(), id, *body.Deleted)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		zap.L().Error("Failed to update user", zap.String("user_id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	s.dispatcher.UserUpdated(user, user.Email)

	message := "User restored successfully"
	if *body.Deleted {
		message = "User deleted successfully"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
	})
}

func (s *Server) handleRegistrationGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := s.storage.GetUserById(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		zap.L().Error("Failed to fetch user", zap.String("user_id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    user,
	})
}

type submittedForm struct {
	Title  string            `json:"title"`
	Status string            `json:"status"`
	Fields models.FormFields `json:"fields"`
}

type registrationPatchRequest struct {
	Name             *string                  `json:"name"`
	Email            *string                  `json:"email"`
	Phone            *string                  `json:"phone"`
	UniversityName   *string                  `json:"universityName"`
	RegistrationDone *bool                    `json:"registrationDone"`
	PaymentDone      *bool                    `json:"paymentDone"`
	SubmittedForms   map[string]submittedForm `json:"submittedForms"`
}

// handleRegistrationPatch updates the whitelisted user fields and upserts
// one form per sport from the submittedForms payload. Propagation (sheet
// rows, allow-list, due-payments refresh) runs after the response.
func (s *Server) handleRegistrationPatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body registrationPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	previous, err := s.storage.GetUserById(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		zap.L().Error("Failed to fetch user", zap.String("user_id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	user, err := s.storage.UpdateUser(r.Context(), id, store.UpdateUserParams{
		Name:             body.Name,
		Email:            body.Email,
		Phone:            body.Phone,
		UniversityName:   body.UniversityName,
		RegistrationDone: body.RegistrationDone,
		PaymentDone:      body.PaymentDone,
	})
	if err != nil {
		zap.L().Error("Failed to update user", zap.String("user_id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	var savedForms []*models.Form
	for sportKey, sportData := range body.SubmittedForms {
		title := sportData.Title
		if title == "" {
			title = sportKey
		}
		form, err := s.storage.UpsertForm(r.Context(), store.UpsertFormParams{
			OwnerId: user.Id,
			Title:   title,
			Status:  sportData.Status,
			Fields:  sportData.Fields,
		})
		if err != nil {
			zap.L().Error("Failed to upsert form",
				zap.String("user_id", id),
				zap.String("sport", title),
				zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to update forms")
			return
		}
		savedForms = append(savedForms, form)
	}

	s.dispatcher.UserUpdated(user, previous.Email)
	for _, form := range savedForms {
		s.dispatcher.FormSaved(form, user.UniversityName)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    user,
	})
}

type completeRegistrationRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleCompleteRegistration(w http.ResponseWriter, r *http.Request) {
	var body completeRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := s.storage.CompleteRegistration(r.Context(), body.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		zap.L().Error("Failed to complete registration", zap.String("email", body.Email), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to complete registration")
		return
	}

	s.dispatcher.UserUpdated(user, user.Email)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Registration completed successfully",
		"data":    user,
	})
}

type verifyPaymentRequest struct {
	UserId        string          `json:"userId"`
	TransactionId string          `json:"transactionId"`
	Snapshot      json.RawMessage `json:"snapshot"`
}

// handleVerifyPayment records a verified payment with its baseline snapshot
// and marks the user's payment as done.
func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var body verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserId == "" {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if _, err := s.storage.GetUserById(r.Context(), body.UserId); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		zap.L().Error("Failed to fetch user", zap.String("user_id", body.UserId), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	payment, err := s.storage.VerifyPayment(r.Context(), store.VerifyPaymentParams{
		OwnerId:       body.UserId,
		TransactionId: body.TransactionId,
		Snapshot:      body.Snapshot,
	})
	if err != nil {
		zap.L().Error("Failed to verify payment", zap.String("user_id", body.UserId), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to verify payment")
		return
	}

	paymentDone := true
	if _, err := s.storage.UpdateUser(r.Context(), body.UserId, store.UpdateUserParams{PaymentDone: &paymentDone}); err != nil {
		zap.L().Error("Failed to mark payment done", zap.String("user_id", body.UserId), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	s.dispatcher.PaymentVerified(body.UserId)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    payment,
	})
}

// handleDebugConfig reports redacted configuration state for operators.
func (s *Server) handleDebugConfig(w http.ResponseWriter, _ *http.Request) {
	sheetId := s.cfg.Sheets.SpreadsheetID
	sheetIdPrefix := sheetId
	if len(sheetIdPrefix) > 10 {
		sheetIdPrefix = sheetIdPrefix[:10] + "..."
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"config": map[string]interface{}{
			"googleSheets": map[string]interface{}{
				"sheetIdPrefix": sheetIdPrefix,
				"sheetIdLength": len(sheetId),
				"hasCredential": s.cfg.Sheets.ServiceCredential != "" || s.cfg.Sheets.CredentialFile != "",
				"syncEnabled":   s.cfg.Sheets.SyncEnabled,
			},
			"allowList": map[string]interface{}{
				"configured": s.cfg.AllowList.BaseURL != "" && s.cfg.AllowList.APIKey != "",
			},
			"registration": map[string]interface{}{
				"perPlayerRate": s.cfg.Registration.PerPlayerRate.String(),
				"timezone":      s.cfg.Registration.Timezone,
			},
		},
	})
}
