package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	endpoints "golang.org/x/oauth2/google"

	auth "github.com/authkit/strategy-auth"
	"github.com/authkit/strategy-auth/instrumentation"
	"github.com/authkit/strategy-auth/internal/util"
)

const (
	// StrategyName is the mount name of this strategy.
	StrategyName = "google"

	// DefaultUserinfoEndpoint is where the user profile is fetched after a
	// code exchange, unless overridden by configuration.
	DefaultUserinfoEndpoint = "https://www.googleapis.com/oauth2/v3/userinfo"

	// DefaultTokeninfoEndpoint is where identity tokens are verified when
	// the callback carries an id_token instead of a code.
	DefaultTokeninfoEndpoint = "https://www.googleapis.com/oauth2/v3/tokeninfo"

	// DefaultScope is the scope string requested when neither the
	// configuration nor the request supplies one.
	DefaultScope = "email,profile"

	defaultRequestTimeout = 30 * time.Second
)

// Keys for state stashed on the RequestContext between CompleteAuth and the
// projections. Namespaced with the strategy name.
const (
	keyToken    = "google.token"
	keyProfile  = "google.profile"
	keyIDToken  = "google.id_token"
	keyIDClaims = "google.id_claims"
)

// Config holds the Google strategy configuration.
type Config struct {
	// ClientID is the OAuth client ID (required).
	ClientID string

	// ClientSecret is the OAuth client secret (required).
	ClientSecret string

	// DefaultScope is the scope string requested when the begin request
	// does not carry a "scope" parameter. It is passed through to the
	// authorization URL as given, never rewritten or expanded.
	// Default: "email,profile"
	DefaultScope string

	// HostedDomain restricts sign-in to a Google Workspace domain via the
	// "hd" authorization parameter. Optional.
	HostedDomain string

	// Prompt sets the default "prompt" authorization parameter
	// (e.g. "consent", "select_account"). A request "prompt" parameter
	// overrides it.
	Prompt string

	// AccessType sets the default "access_type" authorization parameter
	// (e.g. "offline" to request refresh tokens). The parameter is
	// emitted only when set here or supplied on the request.
	AccessType string

	// LoginHint sets the default "login_hint" authorization parameter.
	// A request "login_hint" parameter overrides it.
	LoginHint string

	// IncludeGrantedScopes adds "include_granted_scopes=true" to the
	// authorization URL, enabling incremental authorization.
	IncludeGrantedScopes bool

	// UIDField is the profile field used as the stable user identifier.
	// Default: "sub"
	UIDField string

	// UserinfoEndpoint overrides the userinfo URL. Useful for tests and
	// for Google API proxies.
	UserinfoEndpoint string

	// UserinfoEndpointEnvVar names an environment variable consulted for
	// the userinfo URL. It takes precedence over UserinfoEndpoint and is
	// read once, when the strategy is constructed.
	UserinfoEndpointEnvVar string

	// TokeninfoEndpoint overrides the tokeninfo URL used for identity
	// token verification.
	TokeninfoEndpoint string

	// AllowedClientIDs is the audience allow-list for the identity-token
	// callback flow. An id_token whose "aud" claim is not in this list is
	// rejected. Empty means every id_token callback is rejected.
	AllowedClientIDs []string

	// Endpoint overrides the OAuth2 endpoint pair. Defaults to Google's
	// production endpoints.
	Endpoint oauth2.Endpoint

	// HTTPClient is used for tokeninfo verification and, via the oauth2
	// package, for code exchange and userinfo fetches. Defaults to a
	// client with a 30s timeout.
	HTTPClient *http.Client

	// RequestTimeout bounds provider calls when HTTPClient is not set.
	// Default: 30s
	RequestTimeout time.Duration

	// Logger for structured logging (optional, uses default if not provided)
	Logger *slog.Logger

	// Instrumentation provides metrics and tracing for provider API calls.
	// Optional; when nil, no metrics or spans are recorded.
	Instrumentation *instrumentation.Instrumentation
}

// Strategy implements auth.Strategy for Google OAuth 2.0 / OIDC. A single
// Strategy value serves concurrent requests; all per-request state lives on
// the RequestContext.
type Strategy struct {
	oauthConfig *oauth2.Config

	userinfoEndpoint  string
	tokeninfoEndpoint string
	allowedClientIDs  []string

	uidField             string
	defaultScope         string
	hostedDomain         string
	prompt               string
	accessType           string
	loginHint            string
	includeGrantedScopes bool

	httpClient *http.Client
	logger     *slog.Logger

	inst   *instrumentation.Instrumentation
	tracer trace.Tracer
}

// New creates a Google strategy from the given configuration.
func New(cfg *Config) (*Strategy, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client secret is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = endpoints.Endpoint
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	uidField := cfg.UIDField
	if uidField == "" {
		uidField = "sub"
	}

	defaultScope := cfg.DefaultScope
	if defaultScope == "" {
		defaultScope = DefaultScope
	}

	s := &Strategy{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
		},
		userinfoEndpoint:     resolveUserinfoEndpoint(cfg),
		tokeninfoEndpoint:    resolveTokeninfoEndpoint(cfg),
		allowedClientIDs:     slices.Clone(cfg.AllowedClientIDs),
		uidField:             uidField,
		defaultScope:         defaultScope,
		hostedDomain:         cfg.HostedDomain,
		prompt:               cfg.Prompt,
		accessType:           cfg.AccessType,
		loginHint:            cfg.LoginHint,
		includeGrantedScopes: cfg.IncludeGrantedScopes,
		httpClient:           httpClient,
		logger:               logger,
		inst:                 cfg.Instrumentation,
	}

	if s.inst != nil {
		s.tracer = s.inst.Tracer("strategies/google")
	}

	return s, nil
}

// resolveUserinfoEndpoint picks the userinfo URL at construction time. The
// environment variable wins over the static override; both win over the
// default. The environment is not consulted again afterwards.
func resolveUserinfoEndpoint(cfg *Config) string {
	if cfg.UserinfoEndpointEnvVar != "" {
		if v := os.Getenv(cfg.UserinfoEndpointEnvVar); v != "" {
			return v
		}
	}
	if cfg.UserinfoEndpoint != "" {
		return cfg.UserinfoEndpoint
	}
	return DefaultUserinfoEndpoint
}

func resolveTokeninfoEndpoint(cfg *Config) string {
	if cfg.TokeninfoEndpoint != "" {
		return cfg.TokeninfoEndpoint
	}
	return DefaultTokeninfoEndpoint
}

// Name returns the strategy name
func (s *Strategy) Name() string {
	return StrategyName
}

// BeginAuth builds the Google authorization URL for the request. Pure URL
// construction: no network calls, no error path.
//
// Parameter precedence: request parameters (scope, prompt, access_type,
// login_hint, state) override the configured defaults; hd and
// include_granted_scopes come from configuration only. Optional parameters
// appear in the URL only when configuration or the request supplies them,
// and the scope string is emitted as given.
func (s *Strategy) BeginAuth(rc *auth.RequestContext) string {
	cfg := s.requestConfig(rc)

	scope := rc.Param("scope")
	if scope == "" {
		scope = s.defaultScope
	}
	cfg.Scopes = scopeFields(scope)

	var opts []oauth2.AuthCodeOption
	if s.hostedDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", s.hostedDomain))
	}
	if s.includeGrantedScopes {
		opts = append(opts, oauth2.SetAuthURLParam("include_granted_scopes", "true"))
	}

	accessType := s.accessType
	if v := rc.Param("access_type"); v != "" {
		accessType = v
	}
	if accessType != "" {
		opts = append(opts, oauth2.SetAuthURLParam("access_type", accessType))
	}

	prompt := s.prompt
	if v := rc.Param("prompt"); v != "" {
		prompt = v
	}
	if prompt != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", prompt))
	}

	loginHint := s.loginHint
	if v := rc.Param("login_hint"); v != "" {
		loginHint = v
	}
	if loginHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", loginHint))
	}

	return cfg.AuthCodeURL(rc.Param("state"), opts...)
}

// requestConfig returns a per-request copy of the OAuth2 config with the
// callback URL filled in and any request-scoped credential override applied.
// The override applies only when both halves are present.
func (s *Strategy) requestConfig(rc *auth.RequestContext) *oauth2.Config {
	cfg := *s.oauthConfig
	cfg.RedirectURL = rc.CallbackURL()

	if o := rc.Options(); o.ClientID != "" && o.ClientSecret != "" {
		cfg.ClientID = o.ClientID
		cfg.ClientSecret = o.ClientSecret
	}

	return &cfg
}

// CompleteAuth consumes the provider callback. Dispatch order: a "code"
// parameter runs the authorization code flow, otherwise an "id_token"
// parameter runs tokeninfo verification, otherwise the callback is rejected
// as missing_code.
func (s *Strategy) CompleteAuth(ctx context.Context, rc *auth.RequestContext) (*auth.Result, error) {
	switch {
	case rc.Param("code") != "":
		return s.completeCodeFlow(ctx, rc)
	case rc.Param("id_token") != "":
		return s.completeIDTokenFlow(ctx, rc)
	default:
		s.logger.Warn("Callback without code or id_token")
		e := auth.ErrMissingCode()
		rc.Fail(e.Kind, e.Message)
		return nil, rc.Err()
	}
}

// completeCodeFlow exchanges the authorization code, fetches the user
// profile, and stashes both on the context.
func (s *Strategy) completeCodeFlow(ctx context.Context, rc *auth.RequestContext) (*auth.Result, error) {
	cfg := s.requestConfig(rc)

	token, err := s.exchangeCode(ctx, cfg, rc.Param("code"))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode != "" {
			// Provider-reported error codes (invalid_grant, ...) pass
			// through verbatim as the error kind.
			rc.Fail(retrieveErr.ErrorCode, retrieveErr.ErrorDescription)
		} else {
			rc.Fail(auth.ErrorKindOAuth2, err.Error())
		}
		s.logger.Warn("Code exchange failed", "error", err)
		return nil, rc.Err()
	}

	rc.Set(keyToken, token)
	s.stashIDToken(rc, token)

	profile, ok := s.fetchUser(ctx, cfg, token, rc)
	if !ok {
		// A failed callback leaves no projectable state behind.
		s.Cleanup(rc)
		return nil, rc.Err()
	}
	rc.Set(keyProfile, profile)

	s.logger.Debug("Authentication completed", "flow", "code", "uid", s.UID(rc))
	return s.buildResult(rc), nil
}

// exchangeCode redeems the authorization code at the token endpoint, routing
// the oauth2 package's internal HTTP through the strategy client.
func (s *Strategy) exchangeCode(ctx context.Context, cfg *oauth2.Config, code string) (*oauth2.Token, error) {
	ctx, span := s.startSpan(ctx, "google.exchange_code")
	defer endSpan(span)
	start := time.Now()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := cfg.Exchange(ctx, code)

	s.recordAPICall(ctx, "exchange_code", statusFromExchangeErr(err), start, err)
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, err
	}
	instrumentation.SetSpanSuccess(span)
	return token, nil
}

// stashIDToken stores the identity token bundled with an exchange response,
// plus its unverified claims, when the provider issued one.
func (s *Strategy) stashIDToken(rc *auth.RequestContext, token *oauth2.Token) {
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return
	}
	rc.Set(keyIDToken, raw)

	claims, err := decodeUnverifiedClaims(raw)
	if err != nil {
		s.logger.Debug("Could not decode id_token claims",
			"error", err,
			"id_token_prefix", util.SafeTruncate(raw, 12))
		return
	}
	rc.Set(keyIDClaims, claims)
}

// fetchUser retrieves and decodes the user profile with the exchanged token.
// Status handling, in order: 401 is a token failure rendered as
// "unauthorized"; any status in [200,400) is decoded as the profile; every
// other status is an OAuth2 failure carrying the status code. Transport
// errors are OAuth2 failures carrying the reason.
func (s *Strategy) fetchUser(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, rc *auth.RequestContext) (map[string]any, bool) {
	ctx, span := s.startSpan(ctx, "google.fetch_user")
	defer endSpan(span)
	start := time.Now()

	httpCtx := context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	resp, err := cfg.Client(httpCtx, token).Get(s.userinfoEndpoint)
	if err != nil {
		s.recordAPICall(ctx, "fetch_user", 0, start, err)
		instrumentation.RecordError(span, err)
		s.logger.Warn("Userinfo request failed", "error", err)
		rc.Fail(auth.ErrorKindOAuth2, err.Error())
		return nil, false
	}
	defer func() { _ = resp.Body.Close() }()

	s.recordAPICall(ctx, "fetch_user", resp.StatusCode, start, nil)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		instrumentation.SetSpanError(span, "unauthorized")
		s.logger.Warn("Userinfo rejected access token")
		e := auth.ErrUnauthorized()
		rc.Fail(e.Kind, e.Message)
		return nil, false

	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		var profile map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
			instrumentation.RecordError(span, err)
			rc.Fail(auth.ErrorKindOAuth2, fmt.Sprintf("failed to decode userinfo response: %v", err))
			return nil, false
		}
		instrumentation.SetSpanSuccess(span)
		return profile, true

	default:
		msg := fmt.Sprintf("userinfo request failed with status %d", resp.StatusCode)
		instrumentation.SetSpanError(span, msg)
		s.logger.Warn("Userinfo request failed", "status", resp.StatusCode)
		rc.Fail(auth.ErrorKindOAuth2, msg)
		return nil, false
	}
}

// completeIDTokenFlow verifies a callback-supplied identity token at the
// tokeninfo endpoint and uses the verified claims as the profile. No access
// token exists in this flow; an empty placeholder token is stashed so the
// projections stay uniform.
func (s *Strategy) completeIDTokenFlow(ctx context.Context, rc *auth.RequestContext) (*auth.Result, error) {
	raw := rc.Param("id_token")

	profile, verr := s.verifyIDToken(ctx, raw)
	if verr != nil {
		s.logger.Warn("Identity token rejected",
			"error", verr,
			"id_token_prefix", util.SafeTruncate(raw, 12))
		rc.Fail(verr.Kind, verr.Message)
		return nil, rc.Err()
	}

	rc.Set(keyToken, &oauth2.Token{})
	rc.Set(keyProfile, profile)
	rc.Set(keyIDToken, raw)
	if claims, err := decodeUnverifiedClaims(raw); err == nil {
		rc.Set(keyIDClaims, claims)
	}

	s.logger.Debug("Authentication completed", "flow", "id_token", "uid", s.UID(rc))
	return s.buildResult(rc), nil
}

// verifyIDToken submits the identity token to the tokeninfo endpoint and
// checks the reported audience against the allow-list. Any transport error,
// non-200 status, or malformed response is a generic verification failure;
// only a verified token with an unknown audience names the client id.
func (s *Strategy) verifyIDToken(ctx context.Context, raw string) (map[string]any, *auth.Error) {
	ctx, span := s.startSpan(ctx, "google.verify_id_token")
	defer endSpan(span)
	start := time.Now()

	reqURL := s.tokeninfoEndpoint + "?id_token=" + url.QueryEscape(raw)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		s.recordAPICall(ctx, "verify_id_token", 0, start, err)
		instrumentation.RecordError(span, err)
		return nil, auth.ErrTokenVerification()
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.recordAPICall(ctx, "verify_id_token", 0, start, err)
		instrumentation.RecordError(span, err)
		return nil, auth.ErrTokenVerification()
	}
	defer func() { _ = resp.Body.Close() }()

	s.recordAPICall(ctx, "verify_id_token", resp.StatusCode, start, nil)

	if resp.StatusCode != http.StatusOK {
		instrumentation.SetSpanError(span, fmt.Sprintf("tokeninfo status %d", resp.StatusCode))
		return nil, auth.ErrTokenVerification()
	}

	var claims map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		instrumentation.RecordError(span, err)
		return nil, auth.ErrTokenVerification()
	}

	aud, _ := claims["aud"].(string)
	if aud == "" {
		instrumentation.SetSpanError(span, "tokeninfo response missing aud")
		return nil, auth.ErrTokenVerification()
	}
	if !slices.Contains(s.allowedClientIDs, aud) {
		instrumentation.SetSpanError(span, "unknown client id")
		return nil, auth.ErrUnknownClientID(aud)
	}

	instrumentation.SetSpanSuccess(span)
	return claims, nil
}

// UID returns the configured profile field (default "sub") stringified, or
// "" when no profile is stashed or the field is absent.
func (s *Strategy) UID(rc *auth.RequestContext) string {
	profile := s.profile(rc)
	if profile == nil {
		return ""
	}
	v, ok := profile[s.uidField]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Info maps the stashed profile onto the normalized display fields.
func (s *Strategy) Info(rc *auth.RequestContext) auth.UserInfo {
	profile := s.profile(rc)
	if profile == nil {
		return auth.UserInfo{}
	}
	return auth.UserInfo{
		Name:          stringField(profile, "name"),
		Email:         stringField(profile, "email"),
		EmailVerified: boolField(profile, "email_verified"),
		GivenName:     stringField(profile, "given_name"),
		FamilyName:    stringField(profile, "family_name"),
		Picture:       stringField(profile, "picture"),
		Locale:        stringField(profile, "locale"),
		ProfileURL:    stringField(profile, "profile"),
	}
}

// Credentials returns the normalized token view from the stashed exchange
// token. The scope string is split on commas; see auth.Credentials.Scopes.
func (s *Strategy) Credentials(rc *auth.RequestContext) auth.Credentials {
	token := s.token(rc)
	if token == nil {
		return auth.Credentials{}
	}

	creds := auth.Credentials{
		Token:        token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    token.Expiry,
		Expires:      !token.Expiry.IsZero(),
	}
	if scope, ok := token.Extra("scope").(string); ok && scope != "" {
		creds.Scopes = SplitScopes(scope)
	}
	return creds
}

// Extra returns the raw provider payloads stashed by CompleteAuth.
func (s *Strategy) Extra(rc *auth.RequestContext) auth.Extra {
	extra := auth.Extra{
		RawToken:   s.token(rc),
		RawProfile: s.profile(rc),
	}
	if v, ok := rc.Get(keyIDToken); ok {
		extra.IDToken, _ = v.(string)
	}
	if v, ok := rc.Get(keyIDClaims); ok {
		extra.IDClaims, _ = v.(map[string]any)
	}
	return extra
}

// Cleanup removes the strategy's stashed state from the context.
func (s *Strategy) Cleanup(rc *auth.RequestContext) {
	rc.Delete(keyToken)
	rc.Delete(keyProfile)
	rc.Delete(keyIDToken)
	rc.Delete(keyIDClaims)
}

func (s *Strategy) buildResult(rc *auth.RequestContext) *auth.Result {
	return &auth.Result{
		Strategy:    s.Name(),
		UID:         s.UID(rc),
		Info:        s.Info(rc),
		Credentials: s.Credentials(rc),
		Extra:       s.Extra(rc),
	}
}

func (s *Strategy) token(rc *auth.RequestContext) *oauth2.Token {
	v, ok := rc.Get(keyToken)
	if !ok {
		return nil
	}
	token, _ := v.(*oauth2.Token)
	return token
}

func (s *Strategy) profile(rc *auth.RequestContext) map[string]any {
	v, ok := rc.Get(keyProfile)
	if !ok {
		return nil
	}
	profile, _ := v.(map[string]any)
	return profile
}

// decodeUnverifiedClaims decodes an identity token payload WITHOUT signature
// verification. The result feeds Extra.IDClaims only; trust decisions run
// through verifyIDToken.
func decodeUnverifiedClaims(raw string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, err
	}
	return map[string]any(claims), nil
}

func stringField(profile map[string]any, key string) string {
	v, _ := profile[key].(string)
	return v
}

// boolField reads a boolean profile field. Tokeninfo responses carry
// booleans as the strings "true"/"false", so both encodings are accepted.
func boolField(profile map[string]any, key string) bool {
	switch v := profile[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// statusFromExchangeErr extracts the token endpoint's HTTP status from an
// exchange error for metric attribution.
func statusFromExchangeErr(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		return retrieveErr.Response.StatusCode
	}
	return 0
}

// startSpan opens a tracing span when instrumentation is configured. The
// returned span may be nil; the instrumentation helpers are nil-safe.
func (s *Strategy) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, nil
	}
	ctx, span := s.tracer.Start(ctx, name)
	instrumentation.AddStrategyAPIAttributes(span, StrategyName, name)
	return ctx, span
}

func endSpan(span trace.Span) {
	if span != nil {
		span.End()
	}
}

// recordAPICall records a provider API call metric when instrumentation is
// configured.
func (s *Strategy) recordAPICall(ctx context.Context, operation string, status int, start time.Time, err error) {
	if s.inst == nil {
		return
	}
	durationMs := time.Since(start).Seconds() * 1000
	s.inst.Metrics().RecordStrategyAPICall(ctx, StrategyName, operation, status, durationMs, err)
}
