package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"
	log "gopkg.in/inconshreveable/log15.v2"
)

// Response is the decoded JSON object returned by the APOD API.
type Response map[string]any

// Fetcher retrieves the current APOD record. It makes exactly one request per Fetch and never retries.
type Fetcher struct {
	client *http.Client
	url    *url.URL
	apiKey string
	logger log.Logger
}

func NewFetcher(conf NASAConfig, logger log.Logger) (*Fetcher, error) {
	if conf.APIKey == "" {
		return nil, ConfigError{Key: "nasa.api_key"}
	}

	u, err := url.Parse(conf.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ConfigError{Key: "nasa.url", Reason: fmt.Sprintf("%q is not an absolute URL", conf.URL)}
	}

	timeout := conf.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	fetcher := &Fetcher{}
	fetcher.client = &http.Client{Timeout: timeout}
	fetcher.url = u
	fetcher.apiKey = conf.APIKey
	fetcher.logger = logger
	return fetcher, nil
}

// requestURL returns the endpoint with the api_key parameter added. Other query parameters already present in the
// configured URL are kept.
func (f *Fetcher) requestURL() string {
	u := *f.url
	q := u.Query()
	q.Set("api_key", f.apiKey)
	u.RawQuery = q.Encode()
	return u.String()
}

func (f *Fetcher) Fetch(ctx context.Context) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", f.requestURL(), nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		// The transport error includes the URL, which includes the key.
		return nil, &FetchError{Err: redactKey(err, f.apiKey)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Status: resp.Status}
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("Unable to decode response body: %v", err)}
	}

	buf, err := io.ReadAll(body)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("Unable to read response body: %v", err)}
	}

	response, err := decodeResponse(buf)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	f.logger.Debug("fetch succeeded", "status", resp.Status, "bytes", len(buf))
	return response, nil
}

// decodeResponse parses a JSON object. Numbers are kept as json.Number so they are not reformatted as floats. The JSON
// literal null decodes to a nil Response.
func decodeResponse(buf []byte) (Response, error) {
	decoder := json.NewDecoder(bytes.NewReader(buf))
	decoder.UseNumber()

	var response Response
	if err := decoder.Decode(&response); err != nil {
		return nil, fmt.Errorf("Malformed JSON response: %v", err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, fmt.Errorf("Malformed JSON response: trailing data")
	}

	return response, nil
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redactKey(err error, key string) error {
	msg := err.Error()
	redacted := strings.ReplaceAll(msg, key, "REDACTED")
	if redacted == msg {
		return err
	}
	return &redactedError{msg: redacted, err: err}
}
