package lmsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/quiz"
)

// codeOK is the application-level success code of the API envelope.
const codeOK = 1000

type (
	// Client talks to the LMS REST API. All responses share the
	// {code, message, result} envelope; any code other than 1000 is an
	// application failure surfaced as *Error.
	Client struct {
		baseURL string
		http    *http.Client
		token   func() string // bearer token source; "" when unauthenticated
		log     core.Logger
	}

	// Error is an application-level API failure.
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}

	envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
)

var _ quiz.Service = (*Client)(nil)

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// NewClient returns a Client for the given API config. token provides the
// session's bearer token per request (the session store's Token method).
func NewClient(conf core.APIConfig, token func() string, log core.Logger) *Client {
	return &Client{
		baseURL: conf.BaseURL,
		http:    &http.Client{Timeout: conf.Timeout},
		token:   token,
		log:     log,
	}
}

// Credentials is the login form payload.
type Credentials struct {
	Username string `json:"username" validate:"required,alphanum_"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate() error {
	c.Username = core.CleanString(c.Username, true /* lower */)
	return core.Validate.Struct(c)
}

// Authenticate exchanges credentials for a bearer token.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}
	var res struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/token", creds, &res); err != nil {
		return "", err
	}
	return res.Token, nil
}

// CreateAttempt starts a preview attempt for a quiz.
func (c *Client) CreateAttempt(ctx context.Context, quizID string) (quiz.Attempt, error) {
	var att quiz.Attempt
	err := c.do(ctx, http.MethodPost, "/quizzes/"+quizID+"/preview", nil, &att)
	return att, err
}

// GetQuiz fetches a quiz with its full question/answer bank.
func (c *Client) GetQuiz(ctx context.Context, quizID string) (quiz.Quiz, error) {
	var qz quiz.Quiz
	err := c.do(ctx, http.MethodGet, "/quizzes/"+quizID, nil, &qz)
	return qz, err
}

// SubmitAnswer grades a single answer within an attempt.
func (c *Client) SubmitAnswer(ctx context.Context, attemptID, questionID, answerID string) (quiz.Answer, error) {
	body := map[string]string{"questionId": questionID, "answerId": answerID}
	var ans quiz.Answer
	err := c.do(ctx, http.MethodPost, "/attempts/"+attemptID+"/answers", body, &ans)
	return ans, err
}

// SubmitAttempt submits the whole attempt for scoring.
func (c *Client) SubmitAttempt(ctx context.Context, attemptID string) (quiz.Result, error) {
	var res quiz.Result
	err := c.do(ctx, http.MethodPost, "/attempts/"+attemptID+"/submit", nil, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return errors.Wrap(err, "encoding request body")
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.Wrapf(err, "decoding response of %s %s (status %d)", method, path, resp.StatusCode)
	}
	if env.Code != codeOK {
		return &Error{Code: env.Code, Message: env.Message}
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return errors.Wrapf(err, "decoding result of %s %s", method, path)
		}
	}
	return nil
}
