package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"boardhub/internal/db"
	"boardhub/internal/httputil"
	"boardhub/internal/service"
	"boardhub/internal/store"
	"boardhub/internal/tourney"
	users "boardhub/internal/user"
)

type createTournamentRequest struct {
	GameID            uuid.UUID `json:"game_id"`
	Name              string    `json:"name"`
	RegistrationStart time.Time `json:"registration_start_date"`
	RegistrationEnd   time.Time `json:"registration_end_date"`
	TournamentStart   time.Time `json:"tournament_start_date"`
	TournamentEnd     time.Time `json:"tournament_end_date"`
	MaxPlayers        int       `json:"max_players"`
	NumWinner         int       `json:"num_winner"`
	Description       string    `json:"description"`
	Rules             string    `json:"rules"`
	DrawRules         string    `json:"draw_rules"`
}

type createUserRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

type registrationRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type registrationResponse struct {
	OK   bool   `json:"ok"`
	Code string `json:"code"`
}

type outcomeRequest struct {
	UserID  uuid.UUID `json:"user_id"`
	Outcome string    `json:"outcome"`
}

func newRouter(sweeper *service.SweeperService) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	r.Post("/users", func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		if req.Email == "" || req.Username == "" {
			httputil.BadRequest(w, "Email and username are required", nil)
			return
		}

		user := &users.User{ID: uuid.New(), Email: req.Email, Username: req.Username}
		if err := store.NewUserStore(db.GetDB()).CreateUser(r.Context(), user); err != nil {
			httputil.InternalServerError(w, "Failed to create user", err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID.String()})
	})

	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid user ID", err)
			return
		}

		user, err := store.NewUserStore(db.GetDB()).GetUser(r.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "User not found", err)
				return
			}
			httputil.InternalServerError(w, "Failed to get user", err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	})

	r.Get("/games", func(w http.ResponseWriter, r *http.Request) {
		games, err := store.NewGameStore(db.GetDB()).ListGames(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to list games", err)
			return
		}
		writeJSON(w, http.StatusOK, games)
	})

	r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
		var req createTournamentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}

		dbConn := db.GetDB()
		tournamentService := service.NewTournamentService(dbConn, store.NewTournamentStore(dbConn), store.NewGameStore(dbConn), sweeper)

		tournament := &tourney.Tournament{
			GameID:            req.GameID,
			Name:              req.Name,
			RegistrationStart: req.RegistrationStart,
			RegistrationEnd:   req.RegistrationEnd,
			TournamentStart:   req.TournamentStart,
			TournamentEnd:     req.TournamentEnd,
			MaxPlayers:        req.MaxPlayers,
			NumWinner:         req.NumWinner,
			Description:       req.Description,
			Rules:             req.Rules,
			DrawRules:         req.DrawRules,
		}

		id, err := tournamentService.CreateTournament(r.Context(), tournament)
		if err != nil {
			var validationErr service.ValidationError
			if errors.As(err, &validationErr) {
				writeJSON(w, http.StatusUnprocessableEntity, validationErr)
				return
			}
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "Game not found", err)
				return
			}
			httputil.InternalServerError(w, "Failed to create tournament", err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
	})

	r.Get("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid tournament ID", err)
			return
		}

		dbConn := db.GetDB()
		tournamentService := service.NewTournamentService(dbConn, store.NewTournamentStore(dbConn), store.NewGameStore(dbConn), sweeper)

		detail, err := tournamentService.GetTournamentDetail(r.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "Tournament not found", err)
				return
			}
			httputil.InternalServerError(w, "Failed to get tournament", err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	})

	r.Get("/tournaments/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid tournament ID", err)
			return
		}

		dbConn := db.GetDB()
		tournamentService := service.NewTournamentService(dbConn, store.NewTournamentStore(dbConn), store.NewGameStore(dbConn), sweeper)

		status, err := tournamentService.GetStatus(r.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "Tournament not found", err)
				return
			}
			httputil.InternalServerError(w, "Failed to get status", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
	})

	r.Post("/tournaments/{id}/signup", func(w http.ResponseWriter, r *http.Request) {
		handleRegistration(w, r, writeJSON, func(s *service.RegistrationService, tournamentID, userID uuid.UUID) error {
			return s.SignUp(r.Context(), tournamentID, userID)
		})
	})

	r.Post("/tournaments/{id}/withdraw", func(w http.ResponseWriter, r *http.Request) {
		handleRegistration(w, r, writeJSON, func(s *service.RegistrationService, tournamentID, userID uuid.UUID) error {
			return s.Withdraw(r.Context(), tournamentID, userID)
		})
	})

	r.Post("/tournaments/{id}/rounds", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid tournament ID", err)
			return
		}

		dbConn := db.GetDB()
		bracketService := service.NewBracketService(dbConn, store.NewTournamentStore(dbConn), store.NewMatchStore(dbConn), store.NewGameStore(dbConn))

		matches, err := bracketService.EnsureCurrentRound(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				httputil.NotFound(w, "Tournament not found", err)
			case errors.Is(err, service.ErrBracketsNotReady), errors.Is(err, service.ErrNoEligiblePlayers):
				httputil.Conflict(w, err.Error(), err)
			default:
				httputil.InternalServerError(w, "Failed to create round", err)
			}
			return
		}
		writeJSON(w, http.StatusOK, matches)
	})

	r.Post("/tournaments/{id}/advance", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid tournament ID", err)
			return
		}

		dbConn := db.GetDB()
		tournamentStore := store.NewTournamentStore(dbConn)
		matchStore := store.NewMatchStore(dbConn)
		gameStore := store.NewGameStore(dbConn)
		bracketService := service.NewBracketService(dbConn, tournamentStore, matchStore, gameStore)
		roundService := service.NewRoundService(dbConn, tournamentStore, matchStore, gameStore, bracketService)

		result, err := roundService.AdvanceOrFinalize(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				httputil.NotFound(w, "Tournament not found", err)
			case errors.Is(err, service.ErrRoundInProgress):
				httputil.Conflict(w, err.Error(), err)
			default:
				httputil.InternalServerError(w, "Failed to advance tournament", err)
			}
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	r.Post("/tournaments/{id}/sweep", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid tournament ID", err)
			return
		}

		swept, err := sweeper.Sweep(r.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "Tournament not found", err)
				return
			}
			httputil.InternalServerError(w, "Failed to sweep tournament", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"swept": swept})
	})

	r.Post("/matches/{id}/outcome", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid match ID", err)
			return
		}
		var req outcomeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}

		dbConn := db.GetDB()
		tournamentStore := store.NewTournamentStore(dbConn)
		matchStore := store.NewMatchStore(dbConn)
		gameStore := store.NewGameStore(dbConn)
		bracketService := service.NewBracketService(dbConn, tournamentStore, matchStore, gameStore)
		roundService := service.NewRoundService(dbConn, tournamentStore, matchStore, gameStore, bracketService)

		err = roundService.ReportOutcome(r.Context(), id, req.UserID, tourney.Outcome(req.Outcome))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidOutcome):
				httputil.BadRequest(w, err.Error(), err)
			case errors.Is(err, service.ErrNotCurrentMatch), errors.Is(err, service.ErrNotParticipant):
				httputil.NotFound(w, err.Error(), err)
			case errors.Is(err, service.ErrOutcomeAlreadySet):
				httputil.Conflict(w, err.Error(), err)
			default:
				httputil.InternalServerError(w, "Failed to report outcome", err)
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	return r
}

func handleRegistration(w http.ResponseWriter, r *http.Request, writeJSON func(http.ResponseWriter, int, any), op func(*service.RegistrationService, uuid.UUID, uuid.UUID) error) {
	tournamentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "Invalid tournament ID", err)
		return
	}
	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return
	}

	dbConn := db.GetDB()
	registrationService := service.NewRegistrationService(dbConn, store.NewTournamentStore(dbConn))

	opErr := op(registrationService, tournamentID, req.UserID)
	code := service.RegistrationCode(opErr)
	if code == "ERROR" {
		if errors.Is(opErr, sql.ErrNoRows) {
			httputil.NotFound(w, "Tournament not found", opErr)
			return
		}
		httputil.InternalServerError(w, "Registration operation failed", opErr)
		return
	}
	writeJSON(w, http.StatusOK, registrationResponse{OK: opErr == nil, Code: code})
}
