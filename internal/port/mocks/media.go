package mocks

import (
	"context"

	"github.com/bnema/retell/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MediaToolMock struct {
	mock.Mock
}

func NewMediaToolMock(t testingT) *MediaToolMock {
	m := &MediaToolMock{}
	register(&m.Mock, t)
	return m
}

type MediaToolMock_Expecter struct {
	mock *mock.Mock
}

func (_m *MediaToolMock) EXPECT() *MediaToolMock_Expecter {
	return &MediaToolMock_Expecter{mock: &_m.Mock}
}

// errorCall resolves a call that returns only an error, honouring Run hooks
// given as a func returning error.
func errorCall(ret mock.Arguments, run func(fn any) (error, bool)) error {
	if err, ok := run(ret.Get(0)); ok {
		return err
	}
	return ret.Error(0)
}

func (_m *MediaToolMock) ExtractAudio(ctx context.Context, videoPath, outPath string) error {
	ret := _m.Called(ctx, videoPath, outPath)
	return errorCall(ret, func(fn any) (error, bool) {
		f, ok := fn.(func(context.Context, string, string) error)
		if !ok {
			return nil, false
		}
		return f(ctx, videoPath, outPath), true
	})
}

func (_m *MediaToolMock) ExtractSegment(ctx context.Context, videoPath, outPath string, start, duration float64) error {
	ret := _m.Called(ctx, videoPath, outPath, start, duration)
	return errorCall(ret, func(fn any) (error, bool) {
		f, ok := fn.(func(context.Context, string, string, float64, float64) error)
		if !ok {
			return nil, false
		}
		return f(ctx, videoPath, outPath, start, duration), true
	})
}

func (_m *MediaToolMock) Concat(ctx context.Context, inputs []string, outPath string) error {
	ret := _m.Called(ctx, inputs, outPath)
	return errorCall(ret, func(fn any) (error, bool) {
		f, ok := fn.(func(context.Context, []string, string) error)
		if !ok {
			return nil, false
		}
		return f(ctx, inputs, outPath), true
	})
}

func (_m *MediaToolMock) ReplaceAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	ret := _m.Called(ctx, videoPath, audioPath, outPath)
	return errorCall(ret, func(fn any) (error, bool) {
		f, ok := fn.(func(context.Context, string, string, string) error)
		if !ok {
			return nil, false
		}
		return f(ctx, videoPath, audioPath, outPath), true
	})
}

func (_m *MediaToolMock) MixAudio(ctx context.Context, videoPath, narrationPath, musicPath, outPath string, musicVolume float64) error {
	ret := _m.Called(ctx, videoPath, narrationPath, musicPath, outPath, musicVolume)
	return errorCall(ret, func(fn any) (error, bool) {
		f, ok := fn.(func(context.Context, string, string, string, string, float64) error)
		if !ok {
			return nil, false
		}
		return f(ctx, videoPath, narrationPath, musicPath, outPath, musicVolume), true
	})
}

func (_m *MediaToolMock) Probe(ctx context.Context, path string) (*domain.ProbeResult, error) {
	ret := _m.Called(ctx, path)
	var res *domain.ProbeResult
	if v := ret.Get(0); v != nil {
		res = v.(*domain.ProbeResult)
	}
	return res, ret.Error(1)
}

type MediaToolMock_Call struct {
	*mock.Call
}

// RunAndReturn installs fn as the implementation. fn must match the mocked
// method's signature.
func (_c *MediaToolMock_Call) RunAndReturn(fn any) *MediaToolMock_Call {
	_c.Call.Return(fn)
	return _c
}

func (_c *MediaToolMock_Call) Return(values ...any) *MediaToolMock_Call {
	_c.Call.Return(values...)
	return _c
}

func (_e *MediaToolMock_Expecter) ExtractAudio(ctx, videoPath, outPath any) *MediaToolMock_Call {
	return &MediaToolMock_Call{Call: _e.mock.On("ExtractAudio", ctx, videoPath, outPath)}
}

func (_e *MediaToolMock_Expecter) ExtractSegment(ctx, videoPath, outPath, start, duration any) *MediaToolMock_Call {
	return &MediaToolMock_Call{Call: _e.mock.On("ExtractSegment", ctx, videoPath, outPath, start, duration)}
}

func (_e *MediaToolMock_Expecter) Concat(ctx, inputs, outPath any) *MediaToolMock_Call {
	return &MediaToolMock_Call{Call: _e.mock.On("Concat", ctx, inputs, outPath)}
}

func (_e *MediaToolMock_Expecter) ReplaceAudio(ctx, videoPath, audioPath, outPath any) *MediaToolMock_Call {
	return &MediaToolMock_Call{Call: _e.mock.On("ReplaceAudio", ctx, videoPath, audioPath, outPath)}
}

func (_e *MediaToolMock_Expecter) MixAudio(ctx, videoPath, narrationPath, musicPath, outPath, musicVolume any) *MediaToolMock_Call {
	return &MediaToolMock_Call{Call: _e.mock.On("MixAudio", ctx, videoPath, narrationPath, musicPath, outPath, musicVolume)}
}

func (_e *MediaToolMock_Expecter) Probe(ctx, path any) *MediaToolMock_Call {
	return &MediaToolMock_Call{Call: _e.mock.On("Probe", ctx, path)}
}
