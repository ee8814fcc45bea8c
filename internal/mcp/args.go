package mcp

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// argumentGetter is satisfied by mcp.CallToolRequest.
type argumentGetter interface {
	GetArguments() map[string]any
}

// bindArguments decodes tool arguments into target using json tags. Some MCP
// clients send every parameter as a string, so "true", "3" and JSON-encoded
// arrays are coerced to the field's type.
func bindArguments[T any](request argumentGetter, target *T) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonStringHook,
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:  target,
		TagName: "json",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(request.GetArguments())
}

// jsonStringHook unpacks JSON-encoded arrays and objects sent as strings.
func jsonStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	if to.Kind() != reflect.Slice && to.Kind() != reflect.Map {
		return data, nil
	}

	raw := strings.TrimSpace(data.(string))
	if !(strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]")) &&
		!(strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}")) {
		return data, nil
	}

	out := reflect.New(to)
	if err := json.Unmarshal([]byte(raw), out.Interface()); err != nil {
		return data, nil
	}
	return out.Elem().Interface(), nil
}
