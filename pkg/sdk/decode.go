package sdk

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
)

// Response decoding and structural validation. A response claiming
// success but failing validation is a protocol error; it is never
// forwarded to callers as data.

const bodySnippetLimit = 200

// errEnvelope is the server's structured rejection shape. OK is a
// pointer so "ok absent" and "ok:true" are distinguishable from
// "ok:false".
type errEnvelope struct {
	OK      *bool  `json:"ok"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e errEnvelope) rejected() bool { return e.OK != nil && !*e.OK }

func (e errEnvelope) userMessage(status int) string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return http.StatusText(status)
}

// readJSONBody enforces the content-type discipline and the error
// envelope, returning the raw body only for accepted responses.
func readJSONBody(resp *http.Response) ([]byte, error) {
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.Contains(mediaType, "json") {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, bodySnippetLimit))
		return nil, transportError(resp.StatusCode, "non-JSON response: %s", strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(resp.StatusCode, "failed to read response body: %v", err)
	}

	var env errEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, transportError(resp.StatusCode, "malformed JSON response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Kind:    ErrorApplication,
			Status:  resp.StatusCode,
			Code:    env.Code,
			Message: env.userMessage(resp.StatusCode),
		}
	}
	if env.rejected() {
		// 2xx with ok:false still counts as an application rejection.
		return nil, &Error{
			Kind:    ErrorApplication,
			Status:  resp.StatusCode,
			Code:    env.Code,
			Message: env.userMessage(resp.StatusCode),
		}
	}
	return body, nil
}

func decodeListPage(body []byte) (Page[UploadRecord], error) {
	var payload struct {
		Items        *[]UploadRecord `json:"items"`
		NextStartKey string          `json:"nextStartKey"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Page[UploadRecord]{}, transportError(0, "malformed list payload: %v", err)
	}
	if payload.Items == nil {
		return Page[UploadRecord]{}, transportError(0, "list payload missing items")
	}
	return Page[UploadRecord]{Items: *payload.Items, NextStartKey: payload.NextStartKey}, nil
}

func decodeDetailPage(body []byte) (Page[DetailRow], error) {
	var payload struct {
		Rows         *[]DetailRow `json:"rows"`
		NextStartKey string       `json:"nextStartKey"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Page[DetailRow]{}, transportError(0, "malformed detail payload: %v", err)
	}
	if payload.Rows == nil {
		return Page[DetailRow]{}, transportError(0, "detail payload missing rows")
	}
	return Page[DetailRow]{Items: *payload.Rows, NextStartKey: payload.NextStartKey}, nil
}

func decodeCreateResult(body []byte) (CreateResult, error) {
	var payload struct {
		OK       *bool  `json:"ok"`
		UploadID string `json:"uploadId"`
		RowCount *int   `json:"rowCount"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return CreateResult{}, transportError(0, "malformed create payload: %v", err)
	}
	if payload.OK == nil || !*payload.OK || payload.RowCount == nil || *payload.RowCount < 0 {
		return CreateResult{}, transportError(0, "create payload failed validation")
	}
	return CreateResult{UploadID: payload.UploadID, RowCount: *payload.RowCount}, nil
}

func decodeAck(body []byte) error {
	var payload struct {
		OK *bool `json:"ok"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return transportError(0, "malformed ack payload: %v", err)
	}
	if payload.OK == nil || !*payload.OK {
		return transportError(0, "ack payload failed validation")
	}
	return nil
}

func decodeDeleteAck(body []byte) (DeleteAck, error) {
	var payload struct {
		OK       *bool  `json:"ok"`
		UploadID string `json:"uploadId"`
		ClinicID string `json:"clinicId"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return DeleteAck{}, transportError(0, "malformed delete payload: %v", err)
	}
	if payload.OK == nil || !*payload.OK || payload.UploadID == "" || payload.ClinicID == "" {
		return DeleteAck{}, transportError(0, "delete payload failed validation")
	}
	return DeleteAck{UploadID: payload.UploadID, ClinicID: payload.ClinicID}, nil
}
