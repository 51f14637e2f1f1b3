package websvc

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApiUserHostResolver(t *testing.T) {
	testOne := func(ip, want string) {
		t.Run(ip, func(t *testing.T) {
			state := &ApiState{
				RawRequest: &http.Request{
					RemoteAddr: ip,
					Header:     http.Header{},
				},
			}
			NewBasicApiUserHostResolver(false).FillUserHost(state)
			assert.Equal(t, want, state.UserHost)
		})
	}

	testOne("", "")
	testOne("1.2.3.4", "1.2.3.4")
	testOne("1.2.3.4:666", "1.2.3.4")
	testOne("::1", "::1")
	testOne("[::1]", "::1")
	testOne("[::1]:1234", "::1")
	testOne("[1:2::3:4]:1234", "1:2::3:4")

	// Bad IPs.
	testOne(":", ":")
	testOne("::", "::")
	testOne("[", "[")
	testOne(":[", ":[")
	testOne("]", "]")
	testOne("100", "100")
}

func TestApiUserHostResolver_ForwardedFor(t *testing.T) {
	newState := func(forwardedFor string) *ApiState {
		req := &http.Request{
			RemoteAddr: "10.0.0.1:8080",
			Header:     http.Header{},
		}
		if forwardedFor != "" {
			req.Header.Set(HttpHeaderForwardedFor, forwardedFor)
		}
		return &ApiState{RawRequest: req}
	}

	t.Run("trusted", func(t *testing.T) {
		state := newState("1.2.3.4, 10.0.0.2")
		NewBasicApiUserHostResolver(true).FillUserHost(state)
		assert.Equal(t, "1.2.3.4", state.UserHost)
	})

	t.Run("trusted-no-header", func(t *testing.T) {
		state := newState("")
		NewBasicApiUserHostResolver(true).FillUserHost(state)
		assert.Equal(t, "10.0.0.1", state.UserHost)
	})

	t.Run("not-trusted", func(t *testing.T) {
		state := newState("1.2.3.4")
		NewBasicApiUserHostResolver(false).FillUserHost(state)
		assert.Equal(t, "10.0.0.1", state.UserHost)
	})
}
