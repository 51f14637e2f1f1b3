// demo 包提供 websvcd 使用的示例服务。
package demo

import (
	"fmt"
	"net/http"

	"github.com/cmstar/go-errx"
	"github.com/cmstar/go-websvc"
	"github.com/cmstar/go-websvc/signauth"
)

// Services 返回全部示例服务。 authorizer 用于需要授权的服务，为 nil 时不注册这些服务。
func Services(authorizer *signauth.Authorizer) []websvc.Service {
	res := []websvc.Service{
		AddTwoIntegers(),
		SayHello(),
		SumArray(),
	}

	if authorizer != nil {
		res = append(res, GetUserProfile(authorizer))
	}
	return res
}

// AddTwoIntegers 计算两个整数的和。
func AddTwoIntegers() *websvc.BasicService {
	s := websvc.NewService("add-two-integers").
		SetDescription("Adds two integers.").
		AddMethods(http.MethodGet, http.MethodPost).
		Handle(func(state *websvc.ApiState) error {
			a, _ := state.Param("first-number")
			b, _ := state.Param("second-number")
			sum := a.(int64) + b.(int64)

			state.SendResponse(
				fmt.Sprintf("The sum of %d and %d is %d.", a, b, sum),
				websvc.ResponseTypeSuccess, http.StatusOK,
				map[string]any{"sum": sum})
			return nil
		})

	s.AddParameter(websvc.NewRequestParameter("first-number", websvc.ParamTypeInt, false))
	s.AddParameter(websvc.NewRequestParameter("second-number", websvc.ParamTypeInt, false))
	return s
}

// SayHello 向给定的名字问好。 language 可选，不支持的语言按 en 处理。
func SayHello() *websvc.BasicService {
	greetings := map[string]string{
		"en": "Hello",
		"fr": "Bonjour",
		"es": "Hola",
		"zh": "你好",
	}

	s := websvc.NewService("say-hello").
		SetDescription("Greets someone.").
		Handle(func(state *websvc.ApiState) error {
			name, _ := state.Param("name")
			lang, _ := state.Param("language")

			state.SendResponse(
				fmt.Sprintf("%s, %s!", greetings[lang.(string)], name),
				websvc.ResponseTypeInfo, http.StatusOK, nil)
			return nil
		})

	name := websvc.NewRequestParameter("name", websvc.ParamTypeString, false)
	name.SetMaxLength(50)
	s.AddParameter(name)

	lang := websvc.NewRequestParameter("language", websvc.ParamTypeString, true)
	lang.SetDefault("en")
	lang.SetCustomFilter(websvc.CustomFilterFunc(func(original, basicResult any, p *websvc.RequestParameter) (any, bool) {
		s, ok := basicResult.(string)
		if !ok {
			return nil, false
		}
		if _, ok := greetings[s]; !ok {
			return nil, false
		}
		return s, true
	}), true)
	s.AddParameter(lang)

	return s
}

// SumArray 计算数组中全部数值的和，数组中不能有其他类型的元素。
func SumArray() *websvc.BasicService {
	s := websvc.NewService("sum-array").
		SetDescription("Sums up an array of numbers.").
		Handle(func(state *websvc.ApiState) error {
			v, _ := state.Param("numbers")

			var sum float64
			for i, elem := range v.([]any) {
				switch x := elem.(type) {
				case int64:
					sum += float64(x)
				case float64:
					sum += x
				default:
					return errx.NewBizError(http.StatusBadRequest, fmt.Sprintf("Element %d is not a number.", i), nil)
				}
			}

			state.SendResponse("The sum of the array.", websvc.ResponseTypeSuccess, http.StatusOK,
				map[string]any{"sum": sum})
			return nil
		})

	s.AddParameter(websvc.NewRequestParameter("numbers", websvc.ParamTypeArray, false))
	return s
}

// GetUserProfile 返回用户的资料，需要签名授权。仅接受 JSON 请求，用户信息放在 user 对象中。
func GetUserProfile(authorizer *signauth.Authorizer) *websvc.BasicService {
	s := websvc.NewService("get-user-profile").
		SetDescription("Returns the profile of a user.").
		AddMethods(http.MethodPost).
		RequireAuth(authorizer.Authorize).
		Handle(func(state *websvc.ApiState) error {
			user, _ := state.Param("user")
			email, _ := state.Param("email")
			age, _ := state.Param("age")

			state.SendJson(http.StatusOK, map[string]any{
				"user":  user,
				"email": email,
				"age":   age,
			})
			return nil
		})

	s.AddParameter(websvc.NewRequestParameter("user", websvc.ParamTypeJsonObject, false))
	s.AddParameter(websvc.NewRequestParameter("email", websvc.ParamTypeEmail, false))

	age := websvc.NewRequestParameter("age", websvc.ParamTypeInt, true)
	age.SetMinValue(0)
	age.SetMaxValue(150)
	s.AddParameter(age)

	return s
}
