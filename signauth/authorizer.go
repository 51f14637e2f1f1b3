package signauth

import (
	"fmt"
	"time"

	"github.com/cmstar/go-websvc"
)

// SecretFinder 根据 key 查找对应的 secret ， key 不存在时返回 false 。
type SecretFinder func(key string) (secret string, ok bool)

// TimeChecker 校验签名中的时间戳，不通过时返回描述原因的 error 。
type TimeChecker func(timestamp int64) error

var (
	// NoTimeChecker 不校验时间戳。
	NoTimeChecker TimeChecker = func(int64) error { return nil }

	// DefaultTimeChecker 要求时间戳与当前时间的误差在 5 分钟内。
	DefaultTimeChecker = MaxDeviationTimeChecker(300)
)

// MaxDeviationTimeChecker 返回一个 TimeChecker ，要求时间戳与当前时间的误差不超过 maxDeviation 秒。
func MaxDeviationTimeChecker(maxDeviation int64) TimeChecker {
	return func(timestamp int64) error {
		now := time.Now().Unix()
		d := now - timestamp
		if d < 0 {
			d = -d
		}

		if d > maxDeviation {
			return fmt.Errorf("the deviation of time should be less than %ds, the time is %d, got %d", maxDeviation, now, timestamp)
		}
		return nil
	}
}

// Authorizer 校验请求的签名，用于 websvc.BasicService.RequireAuth ：
//
//	a := signauth.NewAuthorizer(secrets)
//	svc := websvc.NewService("get-user-profile").RequireAuth(a.Authorize)
//
// 校验不通过的原因以 AuthError 为 key 追加到 ApiState.LogMessage 。
type Authorizer struct {
	// AuthScheme 是 Authorization 头的 scheme 部分，为空时使用 DefaultAuthScheme 。
	AuthScheme string

	// Secrets 查找 key 对应的 secret 。
	Secrets SecretFinder

	// TimeChecker 校验时间戳，为 nil 时使用 DefaultTimeChecker 。
	TimeChecker TimeChecker
}

// NewAuthorizer 创建使用 DefaultAuthScheme 和 DefaultTimeChecker 的 Authorizer 。
func NewAuthorizer(secrets SecretFinder) *Authorizer {
	return &Authorizer{
		Secrets:     secrets,
		TimeChecker: DefaultTimeChecker,
	}
}

// MapSecretFinder 返回从给定的 key-secret 表中查找的 SecretFinder 。
func MapSecretFinder(secrets map[string]string) SecretFinder {
	return func(key string) (string, bool) {
		v, ok := secrets[key]
		return v, ok
	}
}

// Authorize 判断请求的签名是否正确。
func (a *Authorizer) Authorize(state *websvc.ApiState) bool {
	key, err := a.verify(state)
	if key != "" {
		state.LogMessage = append(state.LogMessage, "AuthKey", key)
	}
	if err != nil {
		state.LogMessage = append(state.LogMessage, "AuthError", err.Error())
		return false
	}
	return true
}

func (a *Authorizer) verify(state *websvc.ApiState) (string, error) {
	r := state.RawRequest
	auth, err := ReadAuthorization(r, a.AuthScheme)
	if err != nil {
		return "", err
	}

	if auth.Version != DefaultSignVersion {
		return auth.Key, fmt.Errorf("unsupported sign version %d", auth.Version)
	}

	checker := a.TimeChecker
	if checker == nil {
		checker = DefaultTimeChecker
	}
	if err := checker(auth.Timestamp); err != nil {
		return auth.Key, err
	}

	if a.Secrets == nil {
		return auth.Key, fmt.Errorf("no secret finder")
	}
	secret, ok := a.Secrets(auth.Key)
	if !ok {
		return auth.Key, fmt.Errorf("unknown key")
	}

	sign, err := Sign(secret, r.Method, r.URL, r.Header.Get(websvc.HttpHeaderContentType), state.RequestBody, auth.Timestamp)
	if err != nil {
		return auth.Key, err
	}

	if !hmacEqual(sign, auth.Sign) {
		return auth.Key, fmt.Errorf("signature mismatch")
	}
	return auth.Key, nil
}
