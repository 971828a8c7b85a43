package core

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"nemis-backend/lib/restyutil"
	"nemis-backend/lib/timezone"

	"github.com/PuerkitoBio/purell"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/nemis/core")

const (
	loginPath   = "/Login.aspx"
	defaultPath = "/Default.aspx"

	// the portal holds one server-side page state per cookie, so the
	// session timeout matters: ASP.NET slides it on every request
	sessionLifetime = time.Minute * 20
)

type Options struct {
	BaseUrl string
	// defaults to 30s, navigation-heavy pages need tens of seconds
	Timeout time.Duration
	// optional request/response dump sink for debugging extractions
	Output restyutil.InstrumentOutput
}

// Session is one authenticated browsing session against the portal.
// It owns the auth cookie (in the resty jar), the current view-state
// token set and the institution identity. A session must never be
// shared across concurrent operations, the portal keeps exactly one
// live page state per cookie.
type Session struct {
	BaseUrl *url.URL
	Http    *resty.Client

	Username  string
	ViewState ViewState
	ExpiresAt time.Time

	password string
	mu       sync.Mutex
}

func NewSession(ctx context.Context, opts Options) (*Session, error) {
	parsed, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	// configs often carry a trailing slash or an explicit landing page
	normalized := purell.NormalizeURL(
		parsed,
		purell.FlagsSafe|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagRemoveTrailingSlash,
	)
	baseUrl, err := url.Parse(normalized)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(normalized)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(timeout)

	restyutil.InstrumentClient(client, otel.Tracer("scrapers/nemis/http"), opts.Output)

	return &Session{
		BaseUrl: baseUrl,
		Http:    client,
	}, nil
}

// Acquire serializes operations on this session. Concurrent postbacks
// on one cookie corrupt each other's view-state tokens.
func (s *Session) Acquire() { s.mu.Lock() }
func (s *Session) Release() { s.mu.Unlock() }

func (s *Session) defaultRedirectPolicy() resty.RedirectPolicy {
	return resty.DomainCheckRedirectPolicy(s.BaseUrl.Hostname())
}

func (s *Session) touch() {
	s.ExpiresAt = timezone.Now().Add(sessionLifetime)
}

// Login performs the credential handshake: a GET of the login page to
// seed the token set, then a POST of the credentials. Success is
// recognized only by the portal redirecting to the landing page,
// anything else is an authentication failure.
func (s *Session) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "session:Login")
	defer span.End()

	res, err := s.Http.R().
		SetContext(ctx).
		Get(loginPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return classifyTransport(err)
	}
	err = AbsorbViewState(s, res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read login page tokens")
		return err
	}

	var redirects []string
	s.Http.SetRedirectPolicy(resty.RedirectPolicyFunc(
		func(req *http.Request, via []*http.Request) error {
			redirects = append(redirects, req.URL.Path)
			return nil
		},
	))
	defer s.Http.SetRedirectPolicy(s.defaultRedirectPolicy())

	fields := s.ViewState.Form()
	fields.Set("ctl00$ContentPlaceHolder1$Login1$UserName", username)
	fields.Set("ctl00$ContentPlaceHolder1$Login1$Password", password)
	fields.Set("ctl00$ContentPlaceHolder1$Login1$LoginButton", "Log In")

	res, err = s.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/x-www-form-urlencoded").
		SetBody(fields.Encode()).
		Post(loginPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return classifyTransport(err)
	}

	loggedIn := false
	for _, path := range redirects {
		if strings.EqualFold(path, defaultPath) {
			loggedIn = true
			break
		}
	}
	span.SetAttributes(attribute.StringSlice("redirects", redirects))
	if !loggedIn {
		span.SetStatus(codes.Error, "credentials rejected")
		return ErrAuthentication{Reason: "portal did not redirect to the landing page"}
	}

	err = AbsorbViewState(s, res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read landing page tokens")
		return err
	}

	s.Username = username
	s.password = password
	s.touch()
	return nil
}

// Relogin re-runs the credential handshake with the credentials from
// the last successful Login. Used for the single mid-operation
// session-expiry recovery.
func (s *Session) Relogin(ctx context.Context) error {
	if s.password == "" {
		return ErrAuthentication{Reason: "no credentials on session to re-login with"}
	}
	return s.Login(ctx, s.Username, s.password)
}

// Get fetches an anchor page, refreshing the session's token set from
// the response. Token-refresh GETs are idempotent so a transient
// network failure is retried once.
func (s *Session) Get(ctx context.Context, path string) (*resty.Response, error) {
	ctx, span := tracer.Start(ctx, "session:Get")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	res, err := s.Http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		classified := classifyTransport(err)
		var netErr ErrNetwork
		if !asNetworkTransient(classified, &netErr) {
			span.SetStatus(codes.Error, "failed to fetch")
			return nil, classified
		}
		span.AddEvent("transient failure, retrying once")
		res, err = s.Http.R().
			SetContext(ctx).
			Get(path)
		if err != nil {
			span.SetStatus(codes.Error, "retry failed")
			return nil, classifyTransport(err)
		}
	}

	err = s.acceptResponse(res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "response rejected")
		return nil, err
	}
	return res, nil
}

// Postback submits a form postback carrying the current token set plus
// the caller's fields. Never retried: a mutation's actual effect must
// be confirmed by re-reading remote state, not by resubmitting blind.
func (s *Session) Postback(ctx context.Context, path string, fields url.Values) (*resty.Response, error) {
	ctx, span := tracer.Start(ctx, "session:Postback")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	form := s.ViewState.Form()
	for key, values := range fields {
		for _, v := range values {
			form.Set(key, v)
		}
	}

	res, err := s.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/x-www-form-urlencoded; charset=UTF-8").
		SetHeader("x-requested-with", "XMLHttpRequest").
		SetHeader("x-microsoftajax", "Delta=true").
		SetBody(form.Encode()).
		Post(path)
	if err != nil {
		span.SetStatus(codes.Error, "failed to post")
		return nil, classifyTransport(err)
	}

	err = s.acceptResponse(res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "response rejected")
		return nil, err
	}
	return res, nil
}

// acceptResponse runs the structural half of the failure classifier
// and, when the response is usable, absorbs the new token set so the
// next postback is built on what the server just rendered.
func (s *Session) acceptResponse(res *resty.Response) error {
	err := Classify(ClassifyInput{
		StatusCode: res.StatusCode(),
		FinalPath:  finalPath(res),
		Body:       res.String(),
	})
	if err != nil {
		return err
	}

	err = AbsorbViewState(s, res.Body())
	if err != nil {
		return err
	}
	s.touch()
	return nil
}

func finalPath(res *resty.Response) string {
	if res.RawResponse != nil && res.RawResponse.Request != nil && res.RawResponse.Request.URL != nil {
		return res.RawResponse.Request.URL.Path
	}
	return ""
}

func asNetworkTransient(err error, target *ErrNetwork) bool {
	ok := asNetwork(err, target)
	return ok && target.Transient
}

func snippet(body string) string {
	body = strings.Trim(body, " \t\n")
	if len(body) > 240 {
		return fmt.Sprintf("%s...", body[:240])
	}
	return body
}
