package azure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/infrastructure/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient("secret", "westeurope", nil)
	c.sttBase = srv.URL
	c.ttsBase = srv.URL
	return c
}

func TestRecognizer_Transcribe(t *testing.T) {
	var gotQuery, gotKey, gotType string
	var gotBody []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"RecognitionStatus":"Success","DisplayText":"  Hello world.  "}`))
	})

	text, err := NewRecognizer(c).Transcribe(context.Background(), []byte("RIFFdata"), "es-ES")
	require.NoError(t, err)
	assert.Equal(t, "Hello world.", text)
	assert.Equal(t, "secret", gotKey)
	assert.Contains(t, gotType, "samplerate=16000")
	assert.Contains(t, gotQuery, "language=es-ES")
	assert.Equal(t, "RIFFdata", string(gotBody))
}

func TestRecognizer_NoSpeech(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no match", `{"RecognitionStatus":"NoMatch"}`},
		{"silence", `{"RecognitionStatus":"InitialSilenceTimeout"}`},
		{"empty text", `{"RecognitionStatus":"Success","DisplayText":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := NewRecognizer(c).Transcribe(context.Background(), []byte("x"), "")
			assert.ErrorIs(t, err, domain.ErrEmptyResult)
		})
	}
}

func TestRecognizer_Errors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusUnauthorized)
	})
	_, err := NewRecognizer(c).Transcribe(context.Background(), []byte("x"), "en-US")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Status)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})
	_, err = NewRecognizer(c).Transcribe(context.Background(), []byte("x"), "en-US")
	assert.ErrorIs(t, err, domain.ErrMalformed)
}

func TestSynthesizer_Synthesize(t *testing.T) {
	audio := wav.Encode(wav.Tone(440, 0.1, 24000, 0.3), 24000, 1)

	var gotSSML, gotFormat string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotSSML = string(body)
		gotFormat = r.Header.Get("X-Microsoft-OutputFormat")
		_, _ = w.Write(audio)
	})

	voice := domain.Voice{Name: "en-US-JennyNeural", Language: "en-US", Rate: 0.9, Pitch: 1.1}
	out, err := NewSynthesizer(c).Synthesize(context.Background(), "Score & win!", voice)
	require.NoError(t, err)
	assert.Equal(t, audio, out)
	assert.Equal(t, outputFormat, gotFormat)
	assert.Contains(t, gotSSML, `name="en-US-JennyNeural"`)
	assert.Contains(t, gotSSML, `rate="-10%"`)
	assert.Contains(t, gotSSML, `pitch="+10%"`)
	assert.Contains(t, gotSSML, "Score &amp; win!")
}

func TestSynthesizer_UnknownVoice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := NewSynthesizer(c).Synthesize(context.Background(), "hi", domain.Voice{Name: "xx-Nobody"})
	assert.ErrorIs(t, err, domain.ErrVoiceNotFound)
}

func TestSynthesizer_EmptyAudio(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	_, err := NewSynthesizer(c).Synthesize(context.Background(), "hi", domain.Voice{Name: "en-US-GuyNeural"})
	assert.ErrorIs(t, err, domain.ErrEmptyResult)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "+0%", percent(1))
	assert.Equal(t, "+0%", percent(0))
	assert.Equal(t, "-15%", percent(0.85))
	assert.Equal(t, "+10%", percent(1.1))
}
