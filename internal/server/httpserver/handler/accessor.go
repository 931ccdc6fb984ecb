package handler

import (
	"mime"
	"net/http"
	"net/url"

	"github.com/yndnr/tokguard-go/internal/core/service"
)

// maxFormMemory bounds multipart parsing; larger parts spill to disk.
const maxFormMemory = 1 << 20

// formAccessor exposes a request's body and query parameters to the guard.
type formAccessor struct {
	post  url.Values
	query url.Values
}

// NewAccessor parses r's form once and returns a RequestAccessor over it.
// A body that fails to parse reads as having no parameters.
func NewAccessor(r *http.Request) service.RequestAccessor {
	a := &formAccessor{query: r.URL.Query()}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	if ct == "multipart/form-data" {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		a.post = r.PostForm
	}
	return a
}

func (a *formAccessor) PostParam(name string) (string, bool) {
	return first(a.post, name)
}

func (a *formAccessor) QueryParam(name string) (string, bool) {
	return first(a.query, name)
}

func first(v url.Values, name string) (string, bool) {
	vs, ok := v[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}
