package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type VisualGeneratorMock struct {
	mock.Mock
}

func NewVisualGeneratorMock(t testingT) *VisualGeneratorMock {
	m := &VisualGeneratorMock{}
	register(&m.Mock, t)
	return m
}

type VisualGeneratorMock_Expecter struct {
	mock *mock.Mock
}

func (_m *VisualGeneratorMock) EXPECT() *VisualGeneratorMock_Expecter {
	return &VisualGeneratorMock_Expecter{mock: &_m.Mock}
}

func (_m *VisualGeneratorMock) Generate(ctx context.Context, prompt, outPath string) error {
	ret := _m.Called(ctx, prompt, outPath)
	if fn, ok := ret.Get(0).(func(context.Context, string, string) error); ok {
		return fn(ctx, prompt, outPath)
	}
	return ret.Error(0)
}

type VisualGeneratorMock_Generate_Call struct {
	*mock.Call
}

func (_e *VisualGeneratorMock_Expecter) Generate(ctx, prompt, outPath any) *VisualGeneratorMock_Generate_Call {
	return &VisualGeneratorMock_Generate_Call{Call: _e.mock.On("Generate", ctx, prompt, outPath)}
}

func (_c *VisualGeneratorMock_Generate_Call) Return(err error) *VisualGeneratorMock_Generate_Call {
	_c.Call.Return(err)
	return _c
}

func (_c *VisualGeneratorMock_Generate_Call) RunAndReturn(run func(context.Context, string, string) error) *VisualGeneratorMock_Generate_Call {
	_c.Call.Return(run)
	return _c
}
