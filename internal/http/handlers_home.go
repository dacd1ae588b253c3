package httpx

import (
	"net/http"
)

// Root sends visitors to the home screen or to sign in. GET /{$}.
func (h *UIHandlers) Root(w http.ResponseWriter, r *http.Request) {
	if CurrentUser(r) != nil {
		http.Redirect(w, r, PathHome, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, PathSignIn, http.StatusSeeOther)
}

// Home renders the signed-in landing page. GET /home.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	data := NewTemplateData(r, PageMeta{Title: "Home", PageTitle: "Welcome", CurrentPage: PageHome}).
		With("NeedsSetup", user != nil && user.Username == "").
		Build()
	h.Render(w, r, data)
}
