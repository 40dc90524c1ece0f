package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"time"

	"github.com/swanix/labgate/pkg/common"
	"github.com/swanix/labgate/pkg/session"
)

// DefaultVerifyTimeout bounds the verification call; if the timer wins
// the race the attempt fails with ErrTimeout and nothing is committed.
const DefaultVerifyTimeout = 10 * time.Second

var (
	ErrTimeout = errors.New("verification request timed out")
	ErrNetwork = errors.New("verification request transport failure")
)

type ServerRejectedError struct {
	StatusCode int
	Code       string
}

func (err *ServerRejectedError) Error() string {
	return fmt.Sprintf("verification endpoint rejected session. Status: %v; Code: %v", err.StatusCode, err.Code)
}

type Verdict struct {
	Authenticated bool               `json:"authenticated"`
	User          *common.PublicUser `json:"user,omitempty"`
}

// Verifier confirms with the verification endpoint that a session is
// still authorized. It never mutates local state; the caller decides
// what to do with the verdict.
type Verifier struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
}

func NewVerifier(endpoint string, timeout time.Duration) *Verifier {
	if endpoint == "" {
		panic("endpoint is required to create Verifier")
	}
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	return &Verifier{
		endpoint: endpoint,
		client:   &http.Client{},
		timeout:  timeout,
	}
}

func (verifier *Verifier) Verify(ctx context.Context, record session.Record) (*Verdict, error) {
	payload, err := json.Marshal(map[string]string{
		"sessionData":  record.Data,
		"sessionToken": record.Token,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, verifier.timeout)
	defer cancel()

	request, err := http.NewRequest("POST", verifier.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	request = request.WithContext(ctx)
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+record.Token)

	response, err := verifier.client.Do(request)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer response.Body.Close()

	body, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return nil, ErrNetwork
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		var apiError common.ApiError
		_ = json.Unmarshal(body, &apiError)
		return nil, &ServerRejectedError{
			StatusCode: response.StatusCode,
			Code:       apiError.Code,
		}
	}

	var verdict Verdict
	if err := json.Unmarshal(body, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return ErrTimeout
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrNetwork
}
