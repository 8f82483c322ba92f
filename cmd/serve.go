package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/solar-leads/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only API over the scored leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/leads", func(w http.ResponseWriter, req *http.Request) {
			filter := store.LeadFilter{EligibleOnly: true}
			if v := req.URL.Query().Get("min_score"); v != "" {
				n, convErr := strconv.Atoi(v)
				if convErr != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "min_score must be an integer"})
					return
				}
				filter.MinScore = n
			}
			if v := req.URL.Query().Get("limit"); v != "" {
				n, convErr := strconv.Atoi(v)
				if convErr != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be an integer"})
					return
				}
				filter.Limit = n
			}
			filter.Bucket = req.URL.Query().Get("bucket")

			leads, listErr := st.QualifiedLeads(req.Context(), filter)
			if listErr != nil {
				zap.L().Error("serve: list leads failed", zap.Error(listErr))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
				return
			}
			writeJSON(w, http.StatusOK, leads)
		})

		r.Get("/leads/{id}", func(w http.ResponseWriter, req *http.Request) {
			rec, getErr := st.GetRecord(req.Context(), chi.URLParam(req, "id"))
			if getErr != nil {
				zap.L().Error("serve: get record failed", zap.Error(getErr))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
				return
			}
			if rec == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
				return
			}
			writeJSON(w, http.StatusOK, rec)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
