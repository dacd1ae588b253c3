package httpx

import (
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/ports"
)

// MediaHandlers serves pictures kept by a local profile backend.
type MediaHandlers struct {
	Avatars ports.AvatarStore
	Logger  *slog.Logger
}

// Avatar writes a stored profile picture. GET /media/avatars/{id}.
func (h *MediaHandlers) Avatar(w http.ResponseWriter, r *http.Request) {
	av, err := h.Avatars.Avatar(r.Context(), r.PathValue("id"))
	if err != nil {
		if !apperrors.IsNotFound(err) && h.Logger != nil {
			h.Logger.ErrorContext(r.Context(), "load avatar", "error", err)
		}
		http.Error(w, http.StatusText(StatusFor(err)), StatusFor(err))
		return
	}
	w.Header().Set("Content-Type", av.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(av.Data)))
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(av.Data)
}
