package server

import (
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/decoder"
	"github.com/labstack/echo/v4"
)

// sonicSerializer 用 sonic 替换 echo 默认的 encoding/json
type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := sonic.ConfigDefault.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (sonicSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := sonic.ConfigDefault.NewDecoder(c.Request().Body).Decode(i)
	if se, ok := err.(decoder.SyntaxError); ok {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("syntax error: offset=%v, error=%v", se.Pos, se.Error()))
	}
	return err
}
