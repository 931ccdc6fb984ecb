package handler

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/yndnr/tokguard-go/internal/core/domain"
	"github.com/yndnr/tokguard-go/internal/core/service"
)

const userKey = "user"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>tokguard</title></head>
<body>
{{if .Notice}}<p class="notice">{{.Notice}}</p>{{end}}
{{if .User}}<p>Signed in as {{.User}}.</p>
<form method="post" action="/logout">{{.Field.HTML}}<button type="submit">Sign out</button></form>
{{else}}<form method="post" action="/login">{{.Field.HTML}}
<input type="text" name="username" placeholder="name">
<button type="submit">Sign in</button></form>
{{end}}
<form method="post" action="/submit">{{.Field.HTML}}
<input type="text" name="message">
<button type="submit">Send</button></form>
<p><a href="{{.ActionLink}}">Run action</a></p>
</body>
</html>
`))

type pageData struct {
	Notice     string
	User       string
	Field      service.FormField
	ActionLink template.URL
}

// session returns the request session placed by the server middleware.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*service.RequestSession, bool) {
	rs := service.FromContext(r.Context())
	if rs == nil {
		WriteDomainError(w, r, domain.ErrInternal.WithDetails("no session in request context"))
		return nil, false
	}
	return rs, true
}

// renderPage renders the demo page for the current session.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, notice string) {
	rs, ok := h.session(w, r)
	if !ok {
		return
	}
	g := h.guard.Bind(rs)

	field, err := g.RenderForPostForm()
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	link, err := g.RenderForGetLink("&")
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	user, _, _ := rs.Get(userKey)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, pageData{
		Notice:     notice,
		User:       user,
		Field:      field,
		ActionLink: template.URL("/action?run=1" + link),
	}); err != nil {
		h.logger.WithContext(r.Context()).Error("render page", "error", err)
	}
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "")
}

// Submit handles POST /submit. The middleware has already verified the
// token.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	msg := strings.TrimSpace(r.PostFormValue("message"))
	if msg == "" {
		msg = "(empty)"
	}
	h.renderPage(w, r, http.StatusOK, "Accepted: "+msg)
}

// Action handles GET /action, a state-changing link carrying the token in
// its query string.
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	rs, ok := h.session(w, r)
	if !ok {
		return
	}
	ok, err := h.guard.Bind(rs).CheckGet(NewAccessor(r))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	if !ok {
		h.logger.WithContext(r.Context()).Warn("csrf verification failed",
			"method", r.Method, "path", r.URL.Path, "source", "query")
		WriteDomainError(w, r, domain.ErrVerificationFailed)
		return
	}
	h.renderPage(w, r, http.StatusOK, "Action executed")
}

// Login handles POST /login. The session id and token are renewed so that
// nothing issued before sign-in stays valid.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rs, ok := h.session(w, r)
	if !ok {
		return
	}
	name := strings.TrimSpace(r.PostFormValue("username"))
	if name == "" {
		WriteDomainError(w, r, domain.ErrInvalidArgument.WithDetails("username is required"))
		return
	}

	if err := h.sessions.Renew(r.Context(), rs); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	if err := rs.Set(userKey, name); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	rs, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.sessions.Destroy(r.Context(), rs); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
