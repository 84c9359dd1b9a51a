package sandbox

import (
	"context"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
)

// Application-level envelope codes. 1000 is the only success code; everything
// else carries a human-readable message.
const (
	codeOK             = 1000
	codeInvalidRequest = 1001
	codeBadCredentials = 1005
	codeUnauthorized   = 1006
	codeNotFound       = 1007
)

type (
	Options struct {
		Addr           string
		SecretKey      []byte
		TokenTTL       time.Duration
		DisableReqLogs bool
		Bank           *Bank
		Logger         core.Logger
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}

	envelope struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Result  interface{} `json:"result,omitempty"`
	}
)

var _ Server = (*server)(nil)

// NewServer wires the sandbox LMS API: the five portal operations against an
// in-memory bank, envelope responses throughout.
func NewServer(opts *Options) Server {
	if opts.TokenTTL == 0 {
		opts.TokenTTL = time.Hour
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	s.app.HTTPErrorHandler = s.httpErrorHandler
	s.app.HideBanner = true

	v1 := s.app.Group("/v1")
	v1.POST("/auth/token", s.authenticate)

	jwtmw := middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    s.opts.SecretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(session.Claims),
	})
	v1.GET("/quizzes/:id", s.getQuiz, jwtmw)
	v1.POST("/quizzes/:id/preview", s.createAttempt, jwtmw)
	v1.POST("/attempts/:id/answers", s.submitAnswer, jwtmw)
	v1.POST("/attempts/:id/submit", s.submitAttempt, jwtmw)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Addr))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// handlers

func (s *server) authenticate(ctx echo.Context) error {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := ctx.Bind(&creds); err != nil {
		return fail(ctx, http.StatusBadRequest, codeInvalidRequest, "malformed request body")
	}
	scope, ok := s.opts.Bank.Authenticate(creds.Username, creds.Password)
	if !ok {
		return fail(ctx, http.StatusUnauthorized, codeBadCredentials, "invalid username or password")
	}

	now := time.Now()
	claims := &session.Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   creds.Username,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.opts.TokenTTL).Unix(),
		},
		Scope: scope,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.SecretKey)
	if err != nil {
		return err
	}
	return respond(ctx, echo.Map{"token": token})
}

func (s *server) getQuiz(ctx echo.Context) error {
	qz, err := s.opts.Bank.GetQuiz(ctx.Param("id"))
	if err != nil {
		return fail(ctx, http.StatusNotFound, codeNotFound, err.Error())
	}
	return respond(ctx, qz)
}

func (s *server) createAttempt(ctx echo.Context) error {
	att, err := s.opts.Bank.CreateAttempt(ctx.Param("id"), subject(ctx))
	if err != nil {
		return fail(ctx, http.StatusNotFound, codeNotFound, err.Error())
	}
	return respond(ctx, att)
}

func (s *server) submitAnswer(ctx echo.Context) error {
	var body struct {
		QuestionID string `json:"questionId"`
		AnswerID   string `json:"answerId"`
	}
	if err := ctx.Bind(&body); err != nil || body.QuestionID == "" || body.AnswerID == "" {
		return fail(ctx, http.StatusBadRequest, codeInvalidRequest, "questionId and answerId are required")
	}
	ans, err := s.opts.Bank.GradeAnswer(ctx.Param("id"), body.QuestionID, body.AnswerID)
	if err != nil {
		if err == ErrBadQuestion {
			return fail(ctx, http.StatusBadRequest, codeInvalidRequest, err.Error())
		}
		return fail(ctx, http.StatusNotFound, codeNotFound, err.Error())
	}
	return respond(ctx, ans)
}

func (s *server) submitAttempt(ctx echo.Context) error {
	res, err := s.opts.Bank.Score(ctx.Param("id"))
	if err != nil {
		return fail(ctx, http.StatusNotFound, codeNotFound, err.Error())
	}
	return respond(ctx, res)
}

// subject extracts the authenticated username from the JWT middleware context.
func subject(ctx echo.Context) string {
	if token, ok := ctx.Get("userToken").(*jwt.Token); ok {
		if claims, ok := token.Claims.(*session.Claims); ok {
			return claims.Subject
		}
	}
	return ""
}

// envelope helpers

func respond(ctx echo.Context, result interface{}) error {
	return ctx.JSON(http.StatusOK, envelope{Code: codeOK, Message: "success", Result: result})
}

func fail(ctx echo.Context, status, code int, msg string) error {
	return ctx.JSON(status, envelope{Code: code, Message: msg})
}

// httpErrorHandler keeps even framework-raised errors (JWT middleware, 404s,
// panics) in the envelope shape clients expect.
func (s *server) httpErrorHandler(err error, ctx echo.Context) {
	status := http.StatusInternalServerError
	code := codeInvalidRequest
	msg := http.StatusText(status)

	if herr, ok := err.(*echo.HTTPError); ok {
		status = herr.Code
		if m, ok := herr.Message.(string); ok {
			msg = m
		}
		switch status {
		case http.StatusUnauthorized, http.StatusForbidden:
			code = codeUnauthorized
		case http.StatusNotFound:
			code = codeNotFound
		}
	} else if s.opts.Logger != nil {
		s.opts.Logger.Error(msg, err)
	}

	if !ctx.Response().Committed {
		if jerr := fail(ctx, status, code, msg); jerr != nil {
			ctx.Echo().Logger.Error(jerr)
		}
	}
}
