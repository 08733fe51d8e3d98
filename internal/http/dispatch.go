package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fivetwenty-io/easemob/internal/constants"
	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

// RequestOptions are the per-call knobs of SendWithBody, SendWithQuery and
// Dispatch. The zero value authenticates and strips internal fields.
type RequestOptions struct {
	Headers            map[string]string
	Query              url.Values
	SkipAuth           bool
	KeepInternalFields bool
	SaveTo             string
	Multipart          *MultipartFile
}

func (o *RequestOptions) request(method, path string) *Request {
	if o == nil {
		o = &RequestOptions{}
	}

	return &Request{
		Method:             method,
		Path:               path,
		Query:              cloneValues(o.Query),
		Headers:            o.Headers,
		SkipAuth:           o.SkipAuth,
		KeepInternalFields: o.KeepInternalFields,
		SaveTo:             o.SaveTo,
		Multipart:          o.Multipart,
	}
}

// SendWithBody sends body as JSON. It is meant for POST and PUT.
func (c *Client) SendWithBody(ctx context.Context, method, path string, body interface{}, opts *RequestOptions) (easemob.Result, error) {
	req := opts.request(method, path)
	req.Body = body

	return c.Send(ctx, req)
}

// SendWithQuery merges query into the request's query string and sends no
// body. It is meant for GET, DELETE and the other verbs.
func (c *Client) SendWithQuery(ctx context.Context, method, path string, query url.Values, opts *RequestOptions) (easemob.Result, error) {
	req := opts.request(method, path)

	for key, values := range query {
		if req.Query == nil {
			req.Query = url.Values{}
		}

		for _, value := range values {
			req.Query.Add(key, value)
		}
	}

	return c.Send(ctx, req)
}

// Dispatch picks the body or query shape by verb. POST and PUT carry params as
// the JSON body; every other verb folds params into the query string.
func (c *Client) Dispatch(ctx context.Context, method, path string, params interface{}, opts *RequestOptions) (easemob.Result, error) {
	if carriesBody(method) {
		return c.SendWithBody(ctx, method, path, params, opts)
	}

	query, err := toValues(params)
	if err != nil {
		return nil, err
	}

	return c.SendWithQuery(ctx, method, path, query, opts)
}

func carriesBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut
}

func toValues(params interface{}) (url.Values, error) {
	switch typed := params.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return typed, nil
	case map[string]string:
		values := make(url.Values, len(typed))
		for key, value := range typed {
			values.Set(key, value)
		}

		return values, nil
	case map[string]interface{}:
		values := make(url.Values, len(typed))
		for key, value := range typed {
			if value == nil {
				continue
			}

			values.Set(key, fmt.Sprint(value))
		}

		return values, nil
	default:
		return nil, fmt.Errorf("%w: %T", constants.ErrUnsupportedParamsType, params)
	}
}

func cloneValues(values url.Values) url.Values {
	if values == nil {
		return nil
	}

	cloned := make(url.Values, len(values))
	for key, list := range values {
		cloned[key] = append([]string(nil), list...)
	}

	return cloned
}
