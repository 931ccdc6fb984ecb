package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"

	"github.com/yndnr/tokguard-go/internal/core/domain"
	"github.com/yndnr/tokguard-go/internal/telemetry/logger"
	"github.com/yndnr/tokguard-go/pkg/token"
)

// Submission paths, used as metric labels.
const (
	PathPost = "post"
	PathGet  = "get"
)

// Verification outcomes, used as metric labels.
const (
	OutcomeOK       = "ok"
	OutcomeMismatch = "mismatch"
	OutcomeAbsent   = "absent"
	OutcomeNoToken  = "no_token"
	OutcomeError    = "error"
)

// Issue reasons, used as metric labels.
const (
	ReasonLazy   = "lazy"
	ReasonRotate = "rotate"
	ReasonVerify = "verify"
)

// GuardConfig holds configuration for TokenGuard.
type GuardConfig struct {
	// FieldName is the form field and query parameter (default: "_token").
	FieldName string

	// TokenBytes is the random byte count per token (default and minimum: 32).
	TokenBytes int

	// RotateOnVerify replaces the token after every successful check,
	// making tokens single-use (default: false).
	RotateOnVerify bool
}

// DefaultGuardConfig returns default configuration.
func DefaultGuardConfig() *GuardConfig {
	return &GuardConfig{
		FieldName:  domain.DefaultTokenField,
		TokenBytes: domain.MinTokenBytes,
	}
}

// Option configures ambient dependencies of a service.
type Option func(*deps)

type deps struct {
	log  logger.Logger
	rec  Recorder
	rand io.Reader
}

func newDeps(opts []Option) deps {
	d := deps{log: logger.Discard(), rec: nopRecorder{}, rand: rand.Reader}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *deps) {
		if l != nil {
			d.log = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(d *deps) {
		if r != nil {
			d.rec = r
		}
	}
}

// WithRandom replaces crypto/rand as the token entropy source.
func WithRandom(r io.Reader) Option {
	return func(d *deps) {
		if r != nil {
			d.rand = r
		}
	}
}

// FormField is the name/value pair a form embeds as a hidden input.
type FormField struct {
	Name  string
	Value string
}

// HTML renders the field as a hidden input element.
func (f FormField) HTML() template.HTML {
	return template.HTML(fmt.Sprintf(`<input type="hidden" name="%s" value="%s">`,
		html.EscapeString(f.Name), html.EscapeString(f.Value)))
}

// TokenGuard issues, exposes and verifies the CSRF token of one session.
//
// A guard built with a nil store acts as a template: Bind returns a copy
// working on a concrete session.
type TokenGuard struct {
	store          SessionStore
	field          string
	size           int
	rotateOnVerify bool
	deps
}

// NewTokenGuard creates a TokenGuard over store.
func NewTokenGuard(store SessionStore, config *GuardConfig, opts ...Option) *TokenGuard {
	if config == nil {
		config = DefaultGuardConfig()
	}

	field := config.FieldName
	if !domain.ValidFieldName(field) {
		field = domain.DefaultTokenField
	}
	size := config.TokenBytes
	if size < domain.MinTokenBytes {
		size = domain.MinTokenBytes
	}

	return &TokenGuard{
		store:          store,
		field:          field,
		size:           size,
		rotateOnVerify: config.RotateOnVerify,
		deps:           newDeps(opts),
	}
}

// Bind returns a guard with the same configuration over store.
func (g *TokenGuard) Bind(store SessionStore) *TokenGuard {
	cp := *g
	cp.store = store
	return &cp
}

// FieldName returns the form field and query parameter name.
func (g *TokenGuard) FieldName() string {
	return g.field
}

// EnsureSession makes sure the session holds a token, issuing one if absent.
func (g *TokenGuard) EnsureSession() error {
	_, err := g.current()
	return err
}

// Token returns the live token, issuing one if absent.
func (g *TokenGuard) Token() (string, error) {
	return g.current()
}

// RenderForPostForm returns the hidden field for a POST form. The value is
// exactly the stored token.
func (g *TokenGuard) RenderForPostForm() (FormField, error) {
	v, err := g.current()
	if err != nil {
		return FormField{}, err
	}
	return FormField{Name: g.field, Value: v}, nil
}

// RenderForGetLink returns sep + field + "=" + token for appending to a link.
// sep must be "?" or "&".
func (g *TokenGuard) RenderForGetLink(sep string) (string, error) {
	if sep != "?" && sep != "&" {
		return "", domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("link separator must be \"?\" or \"&\", got %q", sep))
	}
	v, err := g.current()
	if err != nil {
		return "", err
	}
	return sep + g.field + "=" + v, nil
}

// VerifyPostSubmission reports whether submitted equals the stored token.
// An empty submission counts as absent. It never returns an error; use
// CheckPostSubmission where a storage failure must be told apart from a
// rejected token.
func (g *TokenGuard) VerifyPostSubmission(submitted string) bool {
	ok, _ := g.verify(PathPost, submitted)
	return ok
}

// VerifyGetSubmission is VerifyPostSubmission for query-string submissions.
func (g *TokenGuard) VerifyGetSubmission(queryValue string) bool {
	ok, _ := g.verify(PathGet, queryValue)
	return ok
}

// CheckPostSubmission is VerifyPostSubmission that also reports a store
// read failure as domain.ErrStorageUnavailable. A rejected token is
// (false, nil).
func (g *TokenGuard) CheckPostSubmission(submitted string) (bool, error) {
	return g.verify(PathPost, submitted)
}

// CheckGetSubmission is CheckPostSubmission for query-string submissions.
func (g *TokenGuard) CheckGetSubmission(queryValue string) (bool, error) {
	return g.verify(PathGet, queryValue)
}

// VerifyPost checks the token field of the request body.
func (g *TokenGuard) VerifyPost(req RequestAccessor) bool {
	ok, _ := g.CheckPost(req)
	return ok
}

// VerifyGet checks the token parameter of the query string.
func (g *TokenGuard) VerifyGet(req RequestAccessor) bool {
	ok, _ := g.CheckGet(req)
	return ok
}

// CheckPost is VerifyPost with storage failures reported.
func (g *TokenGuard) CheckPost(req RequestAccessor) (bool, error) {
	v, _ := req.PostParam(g.field)
	return g.CheckPostSubmission(v)
}

// CheckGet is VerifyGet with storage failures reported.
func (g *TokenGuard) CheckGet(req RequestAccessor) (bool, error) {
	v, _ := req.QueryParam(g.field)
	return g.CheckGetSubmission(v)
}

// Rotate replaces the stored token and returns the new value.
func (g *TokenGuard) Rotate() (string, error) {
	if g.store == nil {
		return "", errUnbound
	}
	return g.issue(ReasonRotate)
}

// Clear removes the token from the session.
func (g *TokenGuard) Clear() error {
	if g.store == nil {
		return errUnbound
	}
	if err := g.store.Remove(domain.TokenSessionKey); err != nil {
		g.rec.StorageFailed("remove")
		return storageError(err)
	}
	return nil
}

var errUnbound = domain.ErrStorageUnavailable.WithDetails("guard has no session bound")

func (g *TokenGuard) current() (string, error) {
	if g.store == nil {
		return "", errUnbound
	}
	v, ok, err := g.store.Get(domain.TokenSessionKey)
	if err != nil {
		g.rec.StorageFailed("get")
		return "", storageError(err)
	}
	if ok && v != "" {
		return v, nil
	}
	return g.issue(ReasonLazy)
}

func (g *TokenGuard) issue(reason string) (string, error) {
	v, err := token.GenerateFrom(g.rand, g.size)
	if err != nil {
		return "", domain.ErrInternal.WithCause(err)
	}
	if err := g.store.Set(domain.TokenSessionKey, v); err != nil {
		g.rec.StorageFailed("set")
		return "", storageError(err)
	}
	g.rec.TokenIssued(reason)
	g.log.Debug("csrf token issued", "reason", reason, "token_fp", token.Fingerprint(v))
	return v, nil
}

func (g *TokenGuard) verify(path, submitted string) (bool, error) {
	outcome, err := g.check(submitted)
	g.rec.TokenVerified(path, outcome)
	if err != nil {
		g.log.Warn("csrf token lookup failed", "path", path, "error", err)
		return false, err
	}
	if outcome != OutcomeOK {
		g.log.Debug("csrf token rejected", "path", path, "outcome", outcome)
		return false, nil
	}

	if g.rotateOnVerify {
		if _, err := g.issue(ReasonVerify); err != nil {
			g.log.Warn("csrf token rotation after verify failed", "error", err)
		}
	}
	return true, nil
}

func (g *TokenGuard) check(submitted string) (string, error) {
	if submitted == "" {
		return OutcomeAbsent, nil
	}
	if g.store == nil {
		return OutcomeError, errUnbound
	}
	stored, ok, err := g.store.Get(domain.TokenSessionKey)
	if err != nil {
		g.rec.StorageFailed("get")
		return OutcomeError, storageError(err)
	}
	if !ok || stored == "" {
		return OutcomeNoToken, nil
	}
	if !token.Equal(submitted, stored) {
		return OutcomeMismatch, nil
	}
	return OutcomeOK, nil
}

// storageError maps a store failure to ErrStorageUnavailable, keeping the
// original as cause.
func storageError(err error) error {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return domain.ErrStorageUnavailable.WithCause(err)
}
