package websvc

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	assert.Equal(t, "add_two-integers", NewService(" add_two-integers ").Name())
	assert.Equal(t, "new-service", NewService("").Name())
	assert.Equal(t, "new-service", NewService("a b").Name())

	s := NewService("x")
	assert.False(t, s.SetName("x/y"))
	assert.Equal(t, "x", s.Name())
	assert.True(t, s.SetName("y"))
	assert.Equal(t, "y", s.Name())

	assert.Equal(t, "desc", s.SetDescription(" desc ").Description())
	assert.Nil(t, s.Manager())
	assert.False(t, s.IsAuthRequired())
}

func TestBasicService_Methods(t *testing.T) {
	s := NewService("x").AddMethods("get", " POST", "Get", "")
	assert.Equal(t, []string{"GET", "POST"}, s.RequestMethods())

	assert.True(t, isMethodAllowed(s, "POST"))
	assert.False(t, isMethodAllowed(s, "PUT"))
	assert.True(t, isMethodAllowed(NewService("any"), "PUT"))
}

func TestBasicService_Parameters(t *testing.T) {
	s := NewService("x")
	assert.False(t, s.AddParameter(nil))
	assert.True(t, s.AddParameter(NewRequestParameter("a", ParamTypeInt, false)))
	assert.False(t, s.AddParameter(NewRequestParameter("a", ParamTypeString, true)))

	err := s.AddParameterOptions(
		map[string]any{ParamOptionName: "b", ParamOptionType: "double", ParamOptionMin: 1},
		map[string]any{ParamOptionName: "a", ParamOptionType: "bool"},
	)
	require.NoError(t, err)

	names := []string{}
	for _, p := range s.Parameters() {
		names = append(names, p.String())
	}
	assert.Equal(t, []string{"a:integer", "b:double"}, names)

	assert.Error(t, s.AddParameterOptions(map[string]any{ParamOptionType: "int"}))

	assert.NotNil(t, s.GetParameter("b"))
	assert.True(t, s.RemoveParameter("b"))
	assert.False(t, s.RemoveParameter("b"))
	assert.Nil(t, s.GetParameter("b"))
	assert.Len(t, s.Parameters(), 1)
}

func TestBasicService_Auth(t *testing.T) {
	state := &ApiState{}

	s := NewService("x").SetAuthRequired(true)
	assert.True(t, s.IsAuthRequired())
	assert.False(t, s.IsAuthorized(state))

	s.RequireAuth(func(state *ApiState) bool { return true })
	assert.True(t, s.IsAuthorized(state))

	s.SetAuthRequired(false)
	assert.False(t, s.IsAuthRequired())
}

func TestBasicService_ProcessRequest(t *testing.T) {
	state := &ApiState{RawRequest: httptest.NewRequest("GET", "/", nil)}

	err := NewService("x").ProcessRequest(state)
	var reqErr RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 404, reqErr.HttpCode)
	assert.Equal(t, MsgServiceNotImplemented, reqErr.Message)

	want := errors.New("w")
	s := NewService("x").Handle(func(*ApiState) error { return want })
	assert.Same(t, want, s.ProcessRequest(state))
}

func TestDispatchResult_String(t *testing.T) {
	assert.Equal(t, "none", ResultNone.String())
	assert.Equal(t, "contentTypeUnsupported", ResultContentTypeUnsupported.String())
	assert.Equal(t, "invalidParamValues", ResultInvalidParamValues.String())
	assert.Equal(t, "dispatched", ResultDispatched.String())
	assert.Equal(t, "unknown", DispatchResult(-1).String())
	assert.Equal(t, "unknown", DispatchResult(100).String())
}
