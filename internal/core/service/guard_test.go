package service

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/tokguard-go/internal/core/domain"
	"github.com/yndnr/tokguard-go/pkg/token"
)

func TestEnsureSession_IssuesToken(t *testing.T) {
	store := newMapStore()
	g := NewTokenGuard(store, nil)

	if err := g.EnsureSession(); err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}

	field, err := g.RenderForPostForm()
	if err != nil {
		t.Fatalf("RenderForPostForm() error = %v", err)
	}

	if field.Name != domain.DefaultTokenField {
		t.Errorf("field name = %q, want %q", field.Name, domain.DefaultTokenField)
	}
	if field.Value != store.values[domain.TokenSessionKey] {
		t.Error("rendered value differs from stored token")
	}
	if !domain.ValidateTokenFormat(field.Value) {
		t.Errorf("token %q fails format check", field.Value)
	}
	raw, err := token.Decode(field.Value)
	if err != nil {
		t.Fatalf("token is not RawURL base64: %v", err)
	}
	if len(raw) < 32 {
		t.Errorf("token entropy = %d bytes, want >= 32", len(raw))
	}
}

func TestEnsureSession_Idempotent(t *testing.T) {
	store := newMapStore()
	g := NewTokenGuard(store, nil)

	if err := g.EnsureSession(); err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}
	first := store.values[domain.TokenSessionKey]

	if err := g.EnsureSession(); err != nil {
		t.Fatalf("second EnsureSession() error = %v", err)
	}
	if got := store.values[domain.TokenSessionKey]; got != first {
		t.Errorf("token changed from %q to %q", first, got)
	}
	if store.sets != 1 {
		t.Errorf("store written %d times, want 1", store.sets)
	}
}

func TestEnsureSession_KeepsExistingToken(t *testing.T) {
	store := newMapStore()
	store.values[domain.TokenSessionKey] = "preexisting-token-value-preexisting-token-v"
	g := NewTokenGuard(store, nil)

	v, err := g.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if v != "preexisting-token-value-preexisting-token-v" {
		t.Errorf("Token() = %q, want stored value", v)
	}
}

func TestVerifyPostSubmission(t *testing.T) {
	store := newMapStore()
	g := NewTokenGuard(store, nil)
	field, err := g.RenderForPostForm()
	if err != nil {
		t.Fatalf("RenderForPostForm() error = %v", err)
	}

	tests := []struct {
		name      string
		submitted string
		want      bool
	}{
		{"exact value", field.Value, true},
		{"absent", "", false},
		{"wrong value", "wrong-value", false},
		{"suffix appended", field.Value + "x", false},
		{"truncated", field.Value[:len(field.Value)-1], false},
		{"case changed", strings.ToUpper(field.Value), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.VerifyPostSubmission(tt.submitted); got != tt.want {
				t.Errorf("VerifyPostSubmission() = %v, want %v", got, tt.want)
			}
		})
	}

	if store.values[domain.TokenSessionKey] != field.Value {
		t.Error("verification mutated the stored token")
	}
}

func TestVerify_NoStoredToken(t *testing.T) {
	store := newMapStore()
	g := NewTokenGuard(store, nil)

	if g.VerifyPostSubmission("anything") {
		t.Error("VerifyPostSubmission() = true with no stored token")
	}
	if g.VerifyGetSubmission("anything") {
		t.Error("VerifyGetSubmission() = true with no stored token")
	}
	if len(store.values) != 0 {
		t.Error("verification issued a token")
	}
}

func TestScenario_IssueRenderVerify(t *testing.T) {
	g := NewTokenGuard(newMapStore(), nil)

	if err := g.EnsureSession(); err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}
	field, err := g.RenderForPostForm()
	if err != nil {
		t.Fatalf("RenderForPostForm() error = %v", err)
	}
	t1 := field.Value

	if !g.VerifyPostSubmission(t1) {
		t.Error("submitting T1 should verify")
	}
	if g.VerifyPostSubmission(t1 + "x") {
		t.Error("submitting T1+x should not verify")
	}
	if !g.VerifyPostSubmission(t1) {
		t.Error("T1 should stay valid, tokens are reusable by default")
	}
}

func TestRenderForGetLink(t *testing.T) {
	store := newMapStore()
	g := NewTokenGuard(store, nil)

	q, err := g.RenderForGetLink("?")
	if err != nil {
		t.Fatalf("RenderForGetLink(?) error = %v", err)
	}
	tok := store.values[domain.TokenSessionKey]
	if q != "?_token="+tok {
		t.Errorf("RenderForGetLink(?) = %q", q)
	}

	a, err := g.RenderForGetLink("&")
	if err != nil {
		t.Fatalf("RenderForGetLink(&) error = %v", err)
	}
	if a != "&_token="+tok {
		t.Errorf("RenderForGetLink(&) = %q", a)
	}

	for _, bad := range []string{"", "#", "??", " ?"} {
		if _, err := g.RenderForGetLink(bad); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("RenderForGetLink(%q) error = %v, want ErrInvalidArgument", bad, err)
		}
	}
}

func TestVerifyGet_MirrorsPost(t *testing.T) {
	g := NewTokenGuard(newMapStore(), nil)
	link, err := g.RenderForGetLink("?")
	if err != nil {
		t.Fatalf("RenderForGetLink() error = %v", err)
	}
	value := strings.TrimPrefix(link, "?_token=")

	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"exact", value, true},
		{"absent", "", false},
		{"wrong", "wrong-value", false},
		{"suffix", value + "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			get := g.VerifyGetSubmission(tt.value)
			post := g.VerifyPostSubmission(tt.value)
			if get != tt.want || post != tt.want {
				t.Errorf("get=%v post=%v, want %v", get, post, tt.want)
			}
		})
	}
}

func TestVerifyGet_IndependentOfPostState(t *testing.T) {
	g := NewTokenGuard(newMapStore(), nil)
	tok, _ := g.Token()

	req := mockRequest{
		post:  map[string]string{"_token": "forged"},
		query: map[string]string{"_token": tok},
	}
	if !g.VerifyGet(req) {
		t.Error("VerifyGet() = false with valid query token")
	}
	if g.VerifyPost(req) {
		t.Error("VerifyPost() = true with forged body token")
	}

	empty := mockRequest{}
	if g.VerifyGet(empty) || g.VerifyPost(empty) {
		t.Error("absent parameters should not verify")
	}
}

func TestCustomFieldName(t *testing.T) {
	g := NewTokenGuard(newMapStore(), &GuardConfig{FieldName: "csrf", TokenBytes: 48})

	field, err := g.RenderForPostForm()
	if err != nil {
		t.Fatalf("RenderForPostForm() error = %v", err)
	}
	if field.Name != "csrf" {
		t.Errorf("field name = %q, want csrf", field.Name)
	}
	if raw, _ := token.Decode(field.Value); len(raw) != 48 {
		t.Errorf("token bytes = %d, want 48", len(raw))
	}

	link, _ := g.RenderForGetLink("&")
	if !strings.HasPrefix(link, "&csrf=") {
		t.Errorf("RenderForGetLink() = %q", link)
	}
	if !g.VerifyGet(mockRequest{query: map[string]string{"csrf": field.Value}}) {
		t.Error("VerifyGet() should read the custom field")
	}
}

func TestNewTokenGuard_ClampsConfig(t *testing.T) {
	g := NewTokenGuard(newMapStore(), &GuardConfig{FieldName: "bad name", TokenBytes: 8})
	if g.FieldName() != domain.DefaultTokenField {
		t.Errorf("FieldName() = %q, want default", g.FieldName())
	}
	tok, _ := g.Token()
	if raw, _ := token.Decode(tok); len(raw) != domain.MinTokenBytes {
		t.Errorf("token bytes = %d, want %d", len(raw), domain.MinTokenBytes)
	}
}

func TestFormField_HTML(t *testing.T) {
	f := FormField{Name: "_token", Value: "abc"}
	if got := string(f.HTML()); got != `<input type="hidden" name="_token" value="abc">` {
		t.Errorf("HTML() = %s", got)
	}

	f = FormField{Name: "_token", Value: `"><script>`}
	if strings.Contains(string(f.HTML()), "<script>") {
		t.Error("HTML() did not escape the value")
	}
}

func TestStorageUnavailable(t *testing.T) {
	cause := errors.New("session backend down")
	rec := newCountingRecorder()
	g := NewTokenGuard(failingStore{err: cause}, nil, WithRecorder(rec))

	if err := g.EnsureSession(); !errors.Is(err, domain.ErrStorageUnavailable) || !errors.Is(err, cause) {
		t.Errorf("EnsureSession() error = %v, want ErrStorageUnavailable wrapping cause", err)
	}
	if _, err := g.RenderForPostForm(); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("RenderForPostForm() error = %v", err)
	}
	if _, err := g.RenderForGetLink("?"); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("RenderForGetLink() error = %v", err)
	}
	if err := g.Clear(); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("Clear() error = %v", err)
	}

	if g.VerifyPostSubmission("anything") {
		t.Error("VerifyPostSubmission() = true on storage failure")
	}
	if rec.get("verify:post:error") != 1 {
		t.Errorf("error outcome count = %d, want 1", rec.get("verify:post:error"))
	}
	if rec.get("storage:get") == 0 {
		t.Error("storage failure not recorded")
	}
}

func TestCheckSubmission_ReportsStorageFailure(t *testing.T) {
	cause := errors.New("redis: connection refused")
	g := NewTokenGuard(failingStore{err: cause}, nil)
	req := mockRequest{post: map[string]string{"_token": "anything"}, query: map[string]string{"_token": "anything"}}

	checks := []struct {
		name string
		fn   func() (bool, error)
	}{
		{"CheckPostSubmission", func() (bool, error) { return g.CheckPostSubmission("anything") }},
		{"CheckGetSubmission", func() (bool, error) { return g.CheckGetSubmission("anything") }},
		{"CheckPost", func() (bool, error) { return g.CheckPost(req) }},
		{"CheckGet", func() (bool, error) { return g.CheckGet(req) }},
	}
	for _, c := range checks {
		ok, err := c.fn()
		if ok {
			t.Errorf("%s() = true on storage failure", c.name)
		}
		if !errors.Is(err, domain.ErrStorageUnavailable) || !errors.Is(err, cause) {
			t.Errorf("%s() error = %v, want ErrStorageUnavailable wrapping cause", c.name, err)
		}
	}

	if g.VerifyPostSubmission("anything") || g.VerifyGetSubmission("anything") {
		t.Error("bool verification = true on storage failure")
	}
}

func TestCheckSubmission_RejectionIsNotAnError(t *testing.T) {
	g := NewTokenGuard(newMapStore(), nil)
	tok, _ := g.Token()

	tests := []struct {
		name      string
		submitted string
		want      bool
	}{
		{"valid", tok, true},
		{"wrong", tok + "x", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		for path, check := range map[string]func(string) (bool, error){
			"post": g.CheckPostSubmission,
			"get":  g.CheckGetSubmission,
		} {
			ok, err := check(tt.submitted)
			if err != nil {
				t.Errorf("%s %s: error = %v", tt.name, path, err)
			}
			if ok != tt.want {
				t.Errorf("%s %s: ok = %v, want %v", tt.name, path, ok, tt.want)
			}
		}
	}

	empty := NewTokenGuard(newMapStore(), nil)
	if ok, err := empty.CheckPostSubmission("x"); ok || err != nil {
		t.Errorf("no stored token: ok = %v, err = %v", ok, err)
	}
}

func TestStorageUnavailable_OnWrite(t *testing.T) {
	g := NewTokenGuard(readOnlyStore{newMapStore()}, nil)
	if err := g.EnsureSession(); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("EnsureSession() error = %v, want ErrStorageUnavailable", err)
	}
}

func TestUnboundGuard(t *testing.T) {
	g := NewTokenGuard(nil, nil)

	if err := g.EnsureSession(); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("EnsureSession() error = %v", err)
	}
	if _, err := g.Rotate(); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("Rotate() error = %v", err)
	}
	if g.VerifyPostSubmission("x") {
		t.Error("unbound guard verified a value")
	}

	store := newMapStore()
	bound := g.Bind(store)
	if err := bound.EnsureSession(); err != nil {
		t.Fatalf("bound EnsureSession() error = %v", err)
	}
	if g.store != nil {
		t.Error("Bind() modified the template guard")
	}
}

func TestRotate(t *testing.T) {
	store := newMapStore()
	rec := newCountingRecorder()
	g := NewTokenGuard(store, nil, WithRecorder(rec))

	old, _ := g.Token()
	fresh, err := g.Rotate()
	if err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}
	if fresh == old {
		t.Error("Rotate() returned the old token")
	}
	if g.VerifyPostSubmission(old) {
		t.Error("old token verified after rotation")
	}
	if !g.VerifyPostSubmission(fresh) {
		t.Error("new token did not verify")
	}
	if rec.get("issued:lazy") != 1 || rec.get("issued:rotate") != 1 {
		t.Errorf("issue counts = %v", rec.counts)
	}
}

func TestClear(t *testing.T) {
	store := newMapStore()
	g := NewTokenGuard(store, nil)
	tok, _ := g.Token()

	if err := g.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if has, _ := store.Has(domain.TokenSessionKey); has {
		t.Error("token still stored after Clear()")
	}
	if g.VerifyPostSubmission(tok) {
		t.Error("cleared token still verifies")
	}
}

func TestRotateOnVerify(t *testing.T) {
	store := newMapStore()
	rec := newCountingRecorder()
	g := NewTokenGuard(store, &GuardConfig{RotateOnVerify: true}, WithRecorder(rec))

	t1, _ := g.Token()
	if !g.VerifyPostSubmission(t1) {
		t.Fatal("first use should verify")
	}
	if g.VerifyPostSubmission(t1) {
		t.Error("single-use token verified twice")
	}

	t2 := store.values[domain.TokenSessionKey]
	if t2 == t1 || t2 == "" {
		t.Error("token was not rotated after verification")
	}
	if g.VerifyPostSubmission("wrong") {
		t.Error("wrong value verified")
	}
	if store.values[domain.TokenSessionKey] != t2 {
		t.Error("failed verification rotated the token")
	}
	if rec.get("issued:verify") != 1 {
		t.Errorf("verify rotations = %d, want 1", rec.get("issued:verify"))
	}
}

func TestWithRandom_Deterministic(t *testing.T) {
	src := bytes.Repeat([]byte{0x01}, 32)
	g := NewTokenGuard(newMapStore(), nil, WithRandom(bytes.NewReader(src)))

	tok, err := g.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	want, _ := token.GenerateFrom(bytes.NewReader(src), 32)
	if tok != want {
		t.Errorf("Token() = %q, want %q", tok, want)
	}

	if _, err := g.Rotate(); !errors.Is(err, domain.ErrInternal) {
		t.Errorf("Rotate() with exhausted entropy error = %v, want ErrInternal", err)
	}
}

func TestTokens_NoCollisions(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)

	for i := 0; i < n; i++ {
		g := NewTokenGuard(newMapStore(), nil)
		if err := g.EnsureSession(); err != nil {
			t.Fatalf("EnsureSession() error = %v", err)
		}
		tok, _ := g.Token()
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token after %d sessions", i)
		}
		seen[tok] = struct{}{}
	}
}

func TestVerify_RecordsOutcomes(t *testing.T) {
	rec := newCountingRecorder()
	g := NewTokenGuard(newMapStore(), nil, WithRecorder(rec))

	g.VerifyPostSubmission("x")
	tok, _ := g.Token()
	g.VerifyPostSubmission(tok)
	g.VerifyPostSubmission("wrong")
	g.VerifyGetSubmission("")

	want := map[string]int{
		"verify:post:no_token": 1,
		"verify:post:ok":       1,
		"verify:post:mismatch": 1,
		"verify:get:absent":    1,
	}
	for k, v := range want {
		if rec.get(k) != v {
			t.Errorf("%s = %d, want %d", k, rec.get(k), v)
		}
	}
}
