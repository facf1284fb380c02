package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-image-enhancer/internal/gemini"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*gemini.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return gemini.NewClientWithHTTP(server.URL+"/v1beta", server.Client()), server
}

func TestClient_EnhanceImage_SendsPromptAndInlineImage(t *testing.T) {
	var gotPath, gotKey string
	var gotBody gemini.GenerateContentRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"UE5H"}}]}}]}`))
	})

	out, err := client.EnhanceImage(context.Background(), "secret-key", "models/gemini-2.5-flash-image", "make it pop", "image/jpeg", "SlBFRw==")
	require.NoError(t, err)

	assert.Equal(t, "UE5H", out.ImageBase64)
	assert.Equal(t, "/v1beta/models/gemini-2.5-flash-image:generateContent", gotPath)
	assert.Equal(t, "secret-key", gotKey)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "user", gotBody.Contents[0].Role)
	require.Len(t, gotBody.Contents[0].Parts, 2)
	assert.Equal(t, "make it pop", gotBody.Contents[0].Parts[0].Text)
	assert.Equal(t, "image/jpeg", gotBody.Contents[0].Parts[1].InlineData.MimeType)
	assert.Equal(t, "SlBFRw==", gotBody.Contents[0].Parts[1].InlineData.Data)
}

func TestClient_EnhanceImage_BareModelGetsPrefix(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"inlineData":{"data":"QQ=="}}]}}]}`))
	})

	_, err := client.EnhanceImage(context.Background(), "k", "gemini-2.5-flash-image", "p", "image/png", "QQ==")
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/gemini-2.5-flash-image:generateContent", gotPath)
}

func TestClient_EnhanceImage_FirstInlinePartWins(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[
			{"content":{"parts":[
				{"text":"here you go"},
				{"inlineData":{"mimeType":"image/png","data":""}},
				{"inlineData":{"mimeType":"image/png","data":"RklSU1Q="}},
				{"inlineData":{"mimeType":"image/png","data":"U0VDT05E"}}
			]}},
			{"content":{"parts":[{"inlineData":{"data":"T1RIRVI="}}]}}
		]}`))
	})

	out, err := client.EnhanceImage(context.Background(), "k", "m", "p", "image/png", "QQ==")
	require.NoError(t, err)
	assert.Equal(t, "RklSU1Q=", out.ImageBase64)
}

func TestClient_EnhanceImage_NoInlineImage(t *testing.T) {
	body := `{"candidates":[{"content":{"parts":[{"text":"I cannot edit this image."}]}}]}`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	_, err := client.EnhanceImage(context.Background(), "k", "m", "p", "image/png", "QQ==")

	var noImage *gemini.NoImageError
	require.ErrorAs(t, err, &noImage)
	assert.JSONEq(t, body, string(noImage.Body))
}

func TestClient_EnhanceImage_NoCandidates(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	})

	_, err := client.EnhanceImage(context.Background(), "k", "m", "p", "image/png", "QQ==")

	var noImage *gemini.NoImageError
	assert.ErrorAs(t, err, &noImage)
}

func TestClient_EnhanceImage_WellFormedNonObjectHasNoImage(t *testing.T) {
	for _, body := range []string{`[]`, `"text"`, `null`} {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})

		_, err := client.EnhanceImage(context.Background(), "k", "m", "p", "image/png", "QQ==")

		var noImage *gemini.NoImageError
		require.ErrorAs(t, err, &noImage, "body %s", body)
		assert.JSONEq(t, body, string(noImage.Body))

		var payloadErr *gemini.PayloadError
		assert.False(t, errors.As(err, &payloadErr), "body %s", body)
	}
}

func TestClient_EnhanceImage_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	})

	_, err := client.EnhanceImage(context.Background(), "k", "m", "p", "image/png", "QQ==")

	var payloadErr *gemini.PayloadError
	require.ErrorAs(t, err, &payloadErr)
	assert.Equal(t, "<html>oops</html>", payloadErr.Body)
}

func TestClient_EnhanceImage_UpstreamStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	})

	_, err := client.EnhanceImage(context.Background(), "k", "m", "p", "image/png", "QQ==")

	var upstream *gemini.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusForbidden, upstream.HTTPStatus())
	assert.False(t, upstream.IsTransport())
	assert.Contains(t, upstream.Body, "API key not valid")
}

func TestClient_EnhanceImage_TransportErrorRedactsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()
	client := gemini.NewClientWithHTTP(server.URL, &http.Client{Timeout: 20 * time.Millisecond})

	_, err := client.EnhanceImage(context.Background(), "super-secret-key", "m", "p", "image/png", "QQ==")

	var upstream *gemini.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.True(t, upstream.IsTransport())
	assert.Equal(t, http.StatusInternalServerError, upstream.HTTPStatus())
	assert.NotContains(t, upstream.TransportErr, "super-secret-key")
}

func TestNewClient_RejectsMissingCAFile(t *testing.T) {
	_, err := gemini.NewClient(gemini.DefaultBaseURL, time.Second, "/nonexistent/ca.pem")
	assert.Error(t, err)
}

func TestNewClient_VerifiesCertificates(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := gemini.NewClient(server.URL, 5*time.Second, "")
	require.NoError(t, err)

	// httptest's self-signed certificate is not trusted by the system pool.
	_, err = client.EnhanceImage(context.Background(), "k", "m", "p", "image/png", "QQ==")
	var upstream *gemini.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.True(t, upstream.IsTransport())
}
