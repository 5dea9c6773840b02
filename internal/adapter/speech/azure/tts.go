package azure

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/port"
)

const outputFormat = "riff-24khz-16bit-mono-pcm"

type Synthesizer struct {
	client *Client
}

func NewSynthesizer(c *Client) *Synthesizer {
	return &Synthesizer{client: c}
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string, voice domain.Voice) ([]byte, error) {
	body, err := buildSSML(text, voice)
	if err != nil {
		return nil, err
	}

	audio, err := s.client.send(ctx, s.client.ttsBase+"/cognitiveservices/v1", body, map[string]string{
		"Content-Type":             "application/ssml+xml",
		"X-Microsoft-OutputFormat": outputFormat,
		"User-Agent":               "retell",
	})
	if err != nil {
		var se *StatusError
		// The service answers 400 for an unknown voice name.
		if errors.As(err, &se) && (se.Status == http.StatusBadRequest || se.Status == http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrVoiceNotFound, voice.Name)
		}
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	if len(audio) == 0 {
		return nil, domain.ErrEmptyResult
	}
	return audio, nil
}

type ssmlSpeak struct {
	XMLName xml.Name  `xml:"speak"`
	Version string    `xml:"version,attr"`
	Xmlns   string    `xml:"xmlns,attr"`
	Lang    string    `xml:"xml:lang,attr"`
	Voice   ssmlVoice `xml:"voice"`
}

type ssmlVoice struct {
	Name    string      `xml:"name,attr"`
	Prosody ssmlProsody `xml:"prosody"`
}

type ssmlProsody struct {
	Rate  string `xml:"rate,attr"`
	Pitch string `xml:"pitch,attr"`
	Text  string `xml:",chardata"`
}

// buildSSML renders the request document. Rate and pitch multipliers become
// relative percentages ("-10%", "+5%").
func buildSSML(text string, voice domain.Voice) ([]byte, error) {
	lang := voice.Language
	if lang == "" {
		lang = domain.DefaultLanguageCode
	}
	doc := ssmlSpeak{
		Version: "1.0",
		Xmlns:   "http://www.w3.org/2001/10/synthesis",
		Lang:    lang,
		Voice: ssmlVoice{
			Name: voice.Name,
			Prosody: ssmlProsody{
				Rate:  percent(voice.Rate),
				Pitch: percent(voice.Pitch),
				Text:  strings.TrimSpace(text),
			},
		},
	}
	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode ssml: %w", err)
	}
	return out, nil
}

func percent(multiplier float64) string {
	if multiplier <= 0 {
		multiplier = 1
	}
	p := int(math.Round((multiplier - 1) * 100))
	if p >= 0 {
		return fmt.Sprintf("+%d%%", p)
	}
	return fmt.Sprintf("%d%%", p)
}

var _ port.TextToSpeech = (*Synthesizer)(nil)
