package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type RewriterMock struct {
	mock.Mock
}

func NewRewriterMock(t testingT) *RewriterMock {
	m := &RewriterMock{}
	register(&m.Mock, t)
	return m
}

type RewriterMock_Expecter struct {
	mock *mock.Mock
}

func (_m *RewriterMock) EXPECT() *RewriterMock_Expecter {
	return &RewriterMock_Expecter{mock: &_m.Mock}
}

func (_m *RewriterMock) Rewrite(ctx context.Context, system, text string) (string, error) {
	ret := _m.Called(ctx, system, text)
	if fn, ok := ret.Get(0).(func(context.Context, string, string) (string, error)); ok {
		return fn(ctx, system, text)
	}
	return ret.String(0), ret.Error(1)
}

type RewriterMock_Rewrite_Call struct {
	*mock.Call
}

func (_e *RewriterMock_Expecter) Rewrite(ctx, system, text any) *RewriterMock_Rewrite_Call {
	return &RewriterMock_Rewrite_Call{Call: _e.mock.On("Rewrite", ctx, system, text)}
}

func (_c *RewriterMock_Rewrite_Call) Return(out string, err error) *RewriterMock_Rewrite_Call {
	_c.Call.Return(out, err)
	return _c
}

func (_c *RewriterMock_Rewrite_Call) RunAndReturn(run func(context.Context, string, string) (string, error)) *RewriterMock_Rewrite_Call {
	_c.Call.Return(run)
	return _c
}
