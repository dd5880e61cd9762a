package sdk_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strelizia53/medisys-sheroll-aws/pkg/sdk"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *sdk.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	opts := []sdk.ClientOption{sdk.WithHTTPClient(server.Client())}
	if token != "" {
		opts = append(opts, sdk.WithTokenSource(sdk.StaticToken(token)))
	}
	return sdk.NewClient(server.URL, opts...)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func TestClient_ListUploads(t *testing.T) {
	var gotQuery map[string]string
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{
				{
					"PK": "CLINIC#clinicA", "SK": "UPLOAD#42",
					"clinicId": "clinicA", "uploadId": "42",
					"filename": "week1.csv", "s3Key": "raw/week1.csv",
					"uploadedAt": "2026-08-20T10:00:00Z",
					"status":     "Completed", "rowCount": 12,
				},
			},
			"nextStartKey": "K1",
		})
	}, "tok-1")

	page, err := client.ListUploads(context.Background(), sdk.ListUploadsInput{
		Scope: sdk.ScopeAll, Limit: 20, StartKey: "K0",
	})
	require.NoError(t, err)

	assert.Equal(t, "list", gotQuery["action"])
	assert.Equal(t, "all", gotQuery["scope"])
	assert.Equal(t, "20", gotQuery["limit"])
	assert.Equal(t, "K0", gotQuery["startKey"])
	assert.Equal(t, "Bearer tok-1", gotAuth)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "clinicA", page.Items[0].ClinicID)
	assert.Equal(t, "42", page.Items[0].UploadID)
	assert.Equal(t, 12, page.Items[0].RowCount)
	assert.Equal(t, "K1", page.NextStartKey)
	assert.True(t, page.HasMore())
}

func TestClient_ListUploads_PublicScope(t *testing.T) {
	var gotQuery map[string][]string
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
	}, "")

	page, err := client.ListUploads(context.Background(), sdk.ListUploadsInput{Scope: sdk.ScopePublic})
	require.NoError(t, err)

	assert.Equal(t, "all", gotQuery["public"][0])
	assert.NotContains(t, gotQuery, "action")
	assert.Empty(t, gotAuth, "public reads must not send a bearer token")
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore())
}

func TestClient_ListUploads_NotSignedIn(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, "")

	_, err := client.ListUploads(context.Background(), sdk.ListUploadsInput{Scope: sdk.ScopeOwn})
	require.Error(t, err)
	assert.True(t, sdk.IsKind(err, sdk.ErrorIdentity))
	assert.False(t, called, "no request should go out without a credential")
}

func TestClient_ListUploads_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind sdk.ErrorKind
		wantMsg  string
	}{
		{
			name: "non-JSON content type",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(http.StatusOK)
				io.WriteString(w, "<html>gateway timeout</html>")
			},
			wantKind: sdk.ErrorTransport,
			wantMsg:  "non-JSON response",
		},
		{
			name: "structured server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"ok": false, "error": "Unauthorized or query failed",
					"message": "token expired",
				})
			},
			wantKind: sdk.ErrorApplication,
			wantMsg:  "token expired",
		},
		{
			name: "status error without message falls back to error code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusForbidden, map[string]any{
					"ok": false, "error": "forbidden",
				})
			},
			wantKind: sdk.ErrorApplication,
			wantMsg:  "forbidden",
		},
		{
			name: "success status with ok:false",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{
					"ok": false, "error": "backing store unavailable",
				})
			},
			wantKind: sdk.ErrorApplication,
			wantMsg:  "backing store unavailable",
		},
		{
			name: "success claiming payload without items",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"nextStartKey": "K9"})
			},
			wantKind: sdk.ErrorTransport,
			wantMsg:  "missing items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler, "tok-1")
			_, err := client.ListUploads(context.Background(), sdk.ListUploadsInput{Scope: sdk.ScopeOwn})
			require.Error(t, err)
			assert.True(t, sdk.IsKind(err, tt.wantKind), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestClient_UploadDetail(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		writeJSON(w, http.StatusOK, map[string]any{
			"uploadId": "42",
			"rows": []map[string]any{
				{
					"SK": "ROW#0001", "patientId": "P-77", "testCode": "HBA1C",
					"value": "5.4", "unit": "%", "collectedAt": "2026-08-19",
					"uploadId": "42", "sourceKey": "raw/week1.csv",
				},
			},
			"nextStartKey": "R1",
		})
	}, "tok-1")

	page, err := client.UploadDetail(context.Background(), sdk.DetailInput{
		ClinicID: "clinicA", UploadID: "42", Limit: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, "detail", gotQuery["action"][0])
	assert.Equal(t, "clinicA", gotQuery["clinicId"][0])
	assert.Equal(t, "42", gotQuery["uploadId"][0])
	require.Len(t, page.Items, 1)
	assert.Equal(t, "P-77", page.Items[0].PatientID)
	assert.Equal(t, "R1", page.NextStartKey)
}

func TestClient_UploadDetail_Public(t *testing.T) {
	var gotQuery map[string][]string
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"rows": []any{}})
	}, "tok-1")

	_, err := client.UploadDetail(context.Background(), sdk.DetailInput{
		ClinicID: "clinicA", UploadID: "42", Public: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "detail", gotQuery["public"][0])
	assert.Empty(t, gotAuth)
}

func TestClient_CreateUpload(t *testing.T) {
	var gotFilename, gotBody string
	var gotMethod string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotFilename = r.URL.Query().Get("filename")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		writeJSON(w, http.StatusOK, map[string]any{
			"ok": true, "uploadId": "101", "rowCount": 3,
		})
	}, "tok-1")

	result, err := client.CreateUpload(context.Background(), "week2.csv", strings.NewReader("a,b,c\n1,2,3\n"))
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "week2.csv", gotFilename)
	assert.Contains(t, gotBody, "a,b,c")
	assert.Equal(t, "101", result.UploadID)
	assert.Equal(t, 3, result.RowCount)
}

func TestClient_CreateUpload_InvalidAck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"uploadId": "101"})
	}, "tok-1")

	_, err := client.CreateUpload(context.Background(), "week2.csv", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, sdk.IsKind(err, sdk.ErrorTransport))
}

func TestClient_UpdateUpload_SendsOnlyNamedFields(t *testing.T) {
	var gotBody map[string]any
	var gotMethod string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}, "tok-1")

	filename := "renamed.csv"
	err := client.UpdateUpload(context.Background(), sdk.UpdateUploadInput{
		UploadID: "42", ClinicID: "clinicA",
		Patch: sdk.UploadPatch{Filename: &filename},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "42", gotBody["uploadId"])
	assert.Equal(t, "clinicA", gotBody["clinicId"])
	assert.Equal(t, "renamed.csv", gotBody["filename"])
	assert.NotContains(t, gotBody, "status", "unnamed fields must not be sent")
}

func TestClient_UpdateUpload_EmptyPatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}, "tok-1")

	err := client.UpdateUpload(context.Background(), sdk.UpdateUploadInput{
		UploadID: "42", ClinicID: "clinicA",
	})
	assert.Error(t, err)
}

func TestClient_DeleteUpload(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		assert.Equal(t, http.MethodDelete, r.Method)
		writeJSON(w, http.StatusOK, map[string]any{
			"ok": true, "uploadId": "42", "clinicId": "clinicA",
		})
	}, "tok-1")

	ack, err := client.DeleteUpload(context.Background(), "clinicA", "42")
	require.NoError(t, err)
	assert.Equal(t, "upload", gotQuery["action"][0])
	assert.Equal(t, "42", ack.UploadID)
	assert.Equal(t, "clinicA", ack.ClinicID)
}

func TestClient_RequestID(t *testing.T) {
	var gotRequestID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-Id")
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
	}, "tok-1")

	_, err := client.ListUploads(context.Background(), sdk.ListUploadsInput{})
	require.NoError(t, err)
	assert.NotEmpty(t, gotRequestID)
}
