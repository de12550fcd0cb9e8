package server

import (
	"maps"
	"mime"
	"net/http"

	carbonfootprint "github.com/superdango/carbon-footprint"
	"github.com/superdango/carbon-footprint/internal/form"
)

// RequestSource reads footprint inputs from the query string and, for POST
// requests, from a JSON or url encoded body. Body values take precedence.
type RequestSource struct {
	// fallback is used when the request carries no value at all
	fallback carbonfootprint.InputsSource
}

func NewRequestSource(fallback carbonfootprint.InputsSource) *RequestSource {
	return &RequestSource{fallback: fallback}
}

func (source *RequestSource) Inputs(r *http.Request) (carbonfootprint.Inputs, error) {
	raw := form.Flatten(r.URL.Query())

	if r.Method == http.MethodPost {
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		switch mediaType {
		case "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err != nil {
				return carbonfootprint.Inputs{}, &carbonfootprint.DecodeErr{Source: "form", Err: err}
			}
			maps.Copy(raw, form.Flatten(r.PostForm))
		default:
			body, err := form.ReadJSON(r.Body)
			if err != nil {
				return carbonfootprint.Inputs{}, err
			}
			maps.Copy(raw, body)
		}
	}

	if len(raw) == 0 && source.fallback != nil {
		return source.fallback.Inputs(r)
	}

	return form.Decode(raw), nil
}
