package mocks

import (
	"context"

	"github.com/bnema/retell/internal/domain"
	"github.com/stretchr/testify/mock"
)

type SpeechToTextMock struct {
	mock.Mock
}

func NewSpeechToTextMock(t testingT) *SpeechToTextMock {
	m := &SpeechToTextMock{}
	register(&m.Mock, t)
	return m
}

type SpeechToTextMock_Expecter struct {
	mock *mock.Mock
}

func (_m *SpeechToTextMock) EXPECT() *SpeechToTextMock_Expecter {
	return &SpeechToTextMock_Expecter{mock: &_m.Mock}
}

func (_m *SpeechToTextMock) Transcribe(ctx context.Context, wav []byte, language string) (string, error) {
	ret := _m.Called(ctx, wav, language)
	return ret.String(0), ret.Error(1)
}

type SpeechToTextMock_Transcribe_Call struct {
	*mock.Call
}

func (_e *SpeechToTextMock_Expecter) Transcribe(ctx, wav, language any) *SpeechToTextMock_Transcribe_Call {
	return &SpeechToTextMock_Transcribe_Call{Call: _e.mock.On("Transcribe", ctx, wav, language)}
}

func (_c *SpeechToTextMock_Transcribe_Call) Return(text string, err error) *SpeechToTextMock_Transcribe_Call {
	_c.Call.Return(text, err)
	return _c
}

type TextToSpeechMock struct {
	mock.Mock
}

func NewTextToSpeechMock(t testingT) *TextToSpeechMock {
	m := &TextToSpeechMock{}
	register(&m.Mock, t)
	return m
}

type TextToSpeechMock_Expecter struct {
	mock *mock.Mock
}

func (_m *TextToSpeechMock) EXPECT() *TextToSpeechMock_Expecter {
	return &TextToSpeechMock_Expecter{mock: &_m.Mock}
}

func (_m *TextToSpeechMock) Synthesize(ctx context.Context, text string, voice domain.Voice) ([]byte, error) {
	ret := _m.Called(ctx, text, voice)
	var audio []byte
	if v := ret.Get(0); v != nil {
		audio = v.([]byte)
	}
	return audio, ret.Error(1)
}

type TextToSpeechMock_Synthesize_Call struct {
	*mock.Call
}

func (_e *TextToSpeechMock_Expecter) Synthesize(ctx, text, voice any) *TextToSpeechMock_Synthesize_Call {
	return &TextToSpeechMock_Synthesize_Call{Call: _e.mock.On("Synthesize", ctx, text, voice)}
}

func (_c *TextToSpeechMock_Synthesize_Call) Return(audio []byte, err error) *TextToSpeechMock_Synthesize_Call {
	_c.Call.Return(audio, err)
	return _c
}
