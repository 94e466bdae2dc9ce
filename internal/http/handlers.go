package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"medtriage/internal/core"
	"medtriage/internal/db"
	"medtriage/pkg"
)

// Server bundles the dependencies required by the HTTP handlers. Repo may
// be nil when the server runs without Postgres; the collaborator endpoints
// (profiles, reminders, donors) then answer 503 while triage keeps working
// against the in-memory store.
type Server struct {
	Engine *core.Engine
	Repo   *db.Repository
	Log    *zap.Logger
}

// NewServer constructs a Server.
func NewServer(engine *core.Engine, repo *db.Repository, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{Engine: engine, Repo: repo, Log: log}
}

// Router builds the chi router for the JSON API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/triage", s.handleTriage)
		r.Get("/triage/{userRef}/history", s.handleHistory)

		r.Get("/profiles/{userRef}", s.handleGetProfile)
		r.Put("/profiles/{userRef}", s.handlePutProfile)

		r.Get("/reminders/{userRef}", s.handleListReminders)
		r.Post("/reminders/{userRef}", s.handleCreateReminder)
		r.Put("/reminders/{userRef}/{id}", s.handleUpdateReminder)
		r.Delete("/reminders/{userRef}/{id}", s.handleDeleteReminder)

		r.Post("/donors", s.handleCreateDonor)
		r.Get("/donors", s.handleFindDonors)
	})
	return r
}

type triageRequest struct {
	UserRef      string `json:"user_ref"`
	SymptomText  string `json:"symptom_text"`
	ImageRef     string `json:"image_ref"`
	SubmissionID string `json:"submission_id"`
}

func (s *Server) handleTriage(w http.ResponseWriter, r *http.Request) {
	var req triageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assessment, err := s.Engine.SubmitSymptoms(r.Context(), req.UserRef, req.SymptomText, req.ImageRef, req.SubmissionID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrValidation):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, core.ErrPersistence):
			s.writeError(w, http.StatusBadGateway, "could not store the report, please retry")
		default:
			s.Log.Error("triage submission failed", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "submission failed, please retry")
		}
		return
	}
	s.writeJSON(w, http.StatusOK, assessment)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userRef := chi.URLParam(r, "userRef")
	reports, err := s.Engine.History(r.Context(), userRef)
	if err != nil {
		s.Log.Error("history lookup failed", zap.String("user_ref", userRef), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not load history")
		return
	}
	if reports == nil {
		reports = []pkg.Report{}
	}
	s.writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}
	profile, err := s.Repo.GetProfile(r.Context(), chi.URLParam(r, "userRef"))
	if err != nil {
		s.Log.Error("profile lookup failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not load profile")
		return
	}
	if profile == nil {
		s.writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}
	var profile pkg.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	profile.UserRef = chi.URLParam(r, "userRef")
	if err := s.Repo.PutProfile(r.Context(), &profile); err != nil {
		s.Log.Error("profile save failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not save profile")
		return
	}
	s.writeJSON(w, http.StatusOK, &profile)
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}
	reminders, err := s.Repo.ListReminders(r.Context(), chi.URLParam(r, "userRef"))
	if err != nil {
		s.Log.Error("reminder list failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not load reminders")
		return
	}
	if reminders == nil {
		reminders = []pkg.Reminder{}
	}
	s.writeJSON(w, http.StatusOK, reminders)
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}
	var rem pkg.Reminder
	if err := json.NewDecoder(r.Body).Decode(&rem); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if rem.Title == "" {
		s.writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	rem.UserRef = chi.URLParam(r, "userRef")
	created, err := s.Repo.CreateReminder(r.Context(), &rem)
	if err != nil {
		s.Log.Error("reminder create failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not create reminder")
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}
	var rem pkg.Reminder
	if err := json.NewDecoder(r.Body).Decode(&rem); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rem.UserRef = chi.URLParam(r, "userRef")
	rem.ID = chi.URLParam(r, "id")
	if err := s.Repo.UpdateReminder(r.Context(), &rem); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "reminder not found")
			return
		}
		s.Log.Error("reminder update failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not update reminder")
		return
	}
	s.writeJSON(w, http.StatusOK, &rem)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}
	err := s.Repo.DeleteReminder(r.Context(), chi.URLParam(r, "userRef"), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "reminder not found")
			return
		}
		s.Log.Error("reminder delete failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not delete reminder")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateDonor(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}
	var donor pkg.BloodDonor
	if err := json.NewDecoder(r.Body).Decode(&donor); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if donor.FullName == "" || donor.BloodGroup == "" || donor.PhoneNumber == "" || donor.Location == "" {
		s.writeError(w, http.StatusBadRequest, "full_name, blood_group, phone_number and location are required")
		return
	}
	created, err := s.Repo.CreateDonor(r.Context(), &donor)
	if err != nil {
		s.Log.Error("donor create failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not register donor")
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleFindDonors(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}
	bloodGroup := r.URL.Query().Get("blood_group")
	if bloodGroup == "" {
		s.writeError(w, http.StatusBadRequest, "blood_group is required")
		return
	}
	donors, err := s.Repo.FindDonors(r.Context(), bloodGroup, r.URL.Query().Get("location"))
	if err != nil {
		s.Log.Error("donor search failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not search donors")
		return
	}
	if donors == nil {
		donors = []pkg.BloodDonor{}
	}
	s.writeJSON(w, http.StatusOK, donors)
}

func (s *Server) requireRepo(w http.ResponseWriter) bool {
	if s.Repo == nil {
		s.writeError(w, http.StatusServiceUnavailable, "database not configured")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Warn("response encode failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
