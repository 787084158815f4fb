package testutil

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// Response is one scripted reply of a FakeTransport.
type Response struct {
	Status int
	Body   string
	Header http.Header
	Err    error
}

// FakeTransport is an http.RoundTripper that serves scripted responses in order.
// Once the script is exhausted the last response is repeated.
type FakeTransport struct {
	mu        sync.Mutex
	responses []Response
	next      int
	Requests  []*http.Request
}

// NewFakeTransport creates a transport replying with the given responses.
func NewFakeTransport(responses ...Response) *FakeTransport {
	return &FakeTransport{responses: responses}
}

// Add appends responses to the script.
func (f *FakeTransport) Add(responses ...Response) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.responses = append(f.responses, responses...)

	return f
}

// Calls returns the number of requests served.
func (f *FakeTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.Requests)
}

// RoundTrip implements http.RoundTripper.
func (f *FakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, req)

	if len(f.responses) == 0 {
		return jsonResponse(req, Response{Status: http.StatusNotFound, Body: `{"message":"Not Found"}`}), nil
	}

	idx := f.next
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	} else {
		f.next++
	}

	r := f.responses[idx]
	if r.Err != nil {
		return nil, r.Err
	}

	return jsonResponse(req, r), nil
}

func jsonResponse(req *http.Request, r Response) *http.Response {
	header := r.Header
	if header == nil {
		header = make(http.Header)
	}

	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/json; charset=utf-8")
	}

	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}

	return &http.Response{
		StatusCode:    status,
		Status:        http.StatusText(status),
		Header:        header,
		Body:          io.NopCloser(bytes.NewBufferString(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}
