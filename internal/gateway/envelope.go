package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// SuccessCode is the only envelope code treated as business success. The HTTP
// status of the exchange plays no part in it.
const SuccessCode = 200

// Envelope is the wire shape of every backend response.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// unwrap decodes the envelope's data into out when the code is 200 and turns
// any other code into a *BusinessError.
func unwrap(body []byte, out any) error {
	if !gjson.ValidBytes(body) {
		return ErrMalformedEnvelope
	}

	res := gjson.ParseBytes(body)
	if !res.IsObject() {
		return ErrMalformedEnvelope
	}

	code := res.Get("code")
	if code.Type != gjson.Number || code.Float() != SuccessCode {
		msg := res.Get("message").String()
		if msg == "" {
			msg = FallbackMessage
		}
		return &BusinessError{Code: int(code.Int()), Message: msg}
	}

	data := res.Get("data")
	if out == nil || !data.Exists() || data.Type == gjson.Null {
		return nil
	}

	if err := json.Unmarshal([]byte(data.Raw), out); err != nil {
		return fmt.Errorf("%w: data: %v", ErrMalformedEnvelope, err)
	}
	return nil
}
