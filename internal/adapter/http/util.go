package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"

	"technowear/internal/app"
	"technowear/internal/domain"
	"technowear/internal/validate"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// statusFor maps an application error to an HTTP status.
func statusFor(err error) int {
	var ve *validate.Error
	var be *domain.BackendError
	var f *app.Failure
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case app.IsAddGarmentFailure(err):
		return http.StatusBadRequest
	case errors.As(err, &f):
		return http.StatusInternalServerError
	case errors.As(err, &be):
		if be.Status == http.StatusUnauthorized {
			return http.StatusUnauthorized
		}
		return http.StatusBadRequest
	case errors.Is(err, app.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrInvalidTransition), errors.Is(err, app.ErrInvalidStep):
		return http.StatusConflict
	case errors.Is(err, app.ErrNotFound), errors.Is(err, app.ErrConfirmationNotFound), errors.Is(err, app.ErrOAuthUnavailable):
		return http.StatusNotFound
	case errors.Is(err, app.ErrConfirmationExpired):
		return http.StatusGone
	case errors.Is(err, app.ErrUnknownTab):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as {"error": msg} with the field for validation
// failures. Unknown errors are logged and reported generically.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := map[string]any{}

	var ve *validate.Error
	var be *domain.BackendError
	var f *app.Failure
	switch {
	case errors.As(err, &ve):
		body["error"] = ve.Message
		body["field"] = ve.Field
	case app.IsAddGarmentFailure(err):
		body["error"] = "Failed to add garment"
	case errors.As(err, &f):
		s.log.Errorw("request failed", "error", err)
		body["error"] = f.Message
	case errors.As(err, &be) && be.Message != "":
		body["error"] = be.Message
	case status == http.StatusInternalServerError:
		s.log.Errorw("request failed", "error", err)
		body["error"] = "Something went wrong. Please try again."
	default:
		body["error"] = err.Error()
	}
	writeJSON(w, status, body)
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func spaFromDisk(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	indexPath := path.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqPath := path.Clean(r.URL.Path)
		if reqPath == "/" {
			http.ServeFile(w, r, indexPath)
			return
		}

		staticPath := path.Join(dir, reqPath)
		if fi, err := os.Stat(staticPath); err == nil && !fi.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, indexPath)
	})
}

// gatedPage redirects page per the session policy before serving the SPA.
func (s *Server) gatedPage(page app.Route, spa http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.svc.Auth.Client(sidFrom(r.Context())).GetSession(r.Context())
		if err != nil {
			s.log.Warnw("load session for page", "page", page, "error", err)
		}
		if to, redirect := app.Decide(page, sess); redirect {
			http.Redirect(w, r, string(to), http.StatusFound)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		spa.ServeHTTP(w, r)
	}
}
