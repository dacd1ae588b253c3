package httpx

// Cookie names shared by the middleware and handlers.
const (
	// InstanceCookieName keys the per-browser application instance.
	InstanceCookieName = "app_instance"
	// SessionCookieName carries the persisted sign-in id.
	SessionCookieName = "session_id"
	// SSOFlowCookieName holds the sealed state, nonce and redirect of an SSO round trip.
	SSOFlowCookieName = "sso_flow"
)

// CurrentPage constants identify the page being rendered and select its content template.
const (
	PageHome     = "home"
	PageSignIn   = "signin"
	PageSignUp   = "signup"
	PageSetup    = "setup"
	PageNotFound = "not-found"
)

// Navigation targets.
const (
	PathHome   = "/home"
	PathSignIn = "/auth/signin"
	PathSignUp = "/auth/signup"
	PathSetup  = "/setup"
)

// Template paths used for loading templates in tests and development.
const (
	TemplatePathFromRoot = "frontend/templates"
	TemplatePathFromTest = "../../frontend/templates"
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageHome:     "home-content",
	PageSignIn:   "signin-content",
	PageSignUp:   "signup-content",
	PageSetup:    "setup-content",
	PageNotFound: "not-found-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Unknown pages render the not-found content.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "not-found-content"
}
