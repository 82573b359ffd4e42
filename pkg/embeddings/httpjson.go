package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError is returned by PostJSON for non-2xx responses.
type StatusError struct {
	Provider string
	Code     int
	Body     []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Code, bytes.TrimSpace(e.Body))
}

// PostJSON sends in as a JSON body to url and decodes the response into out.
// Every failure wraps ErrProviderFailure; non-2xx responses also wrap a
// *StatusError.
func PostJSON(ctx context.Context, client *http.Client, provider, url string, header http.Header, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: marshaling request: %v", ErrProviderFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", ErrProviderFailure, err)
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sending request: %v", ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %w", ErrProviderFailure, &StatusError{Provider: provider, Code: resp.StatusCode, Body: data})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrProviderFailure, err)
	}
	return nil
}
