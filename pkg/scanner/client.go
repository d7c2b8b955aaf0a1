package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const ScanPath = "api/scan"

// NewRestyClient builds the backend client.  Retries stay off: every request
// made by this client is fire-once.
func NewRestyClient(serverAddress string, timeout time.Duration) *resty.Client {
	restyClient := resty.New()
	restyClient.SetBaseURL(strings.TrimRight(serverAddress, "/"))
	restyClient.SetRetryCount(0)
	restyClient.SetHeader("Accept", "application/json")
	if timeout > 0 {
		restyClient.SetTimeout(timeout)
	}
	return restyClient
}

// IssueRequest performs one call.  The returned error covers marshaling and
// transport problems only; the caller decides what a status code means.
func IssueRequest(ctx context.Context, restyClient *resty.Client, verb string, path string, body interface{}, params map[string]string) (*resty.Response, error) {
	request := restyClient.R().SetContext(ctx)
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to marshal json")
		}
		logrus.Tracef("request body: %s", string(reqBody))
		request = request.
			SetHeader("Content-Type", "application/json").
			SetBody(reqBody)
	}
	if params != nil {
		request = request.SetQueryParams(params)
	}

	urlPath := fmt.Sprintf("%s/%s", restyClient.BaseURL, path)
	logrus.Debugf("issuing %s to %s", verb, urlPath)

	var resp *resty.Response
	var err error
	switch verb {
	case "GET":
		resp, err = request.Get(path)
	case "POST":
		resp, err = request.Post(path)
	default:
		return nil, errors.Errorf("unrecognized http verb %s to %s", verb, path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to issue %s to %s", verb, path)
	}

	logrus.Debugf("response code %d from %s to %s", resp.StatusCode(), verb, urlPath)
	logrus.Tracef("response body: %s", resp.String())
	return resp, nil
}
