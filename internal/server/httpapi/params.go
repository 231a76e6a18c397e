package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// param reads a request parameter from the query string, falling back to
// a form body.
func param(c *gin.Context, name string) string {
	if v, ok := c.GetQuery(name); ok {
		return v
	}
	return c.PostForm(name)
}

func requiredParam(c *gin.Context, name string) (string, error) {
	v := param(c, name)
	if v == "" {
		return "", badRequest("Required parameter '" + name + "' is not present")
	}
	return v, nil
}

func int64Param(c *gin.Context, name string) (int64, error) {
	v, err := requiredParam(c, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, badRequest("Parameter '" + name + "' must be a number")
	}
	return n, nil
}

func boolParam(c *gin.Context, name string) (bool, error) {
	v, err := requiredParam(c, name)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, badRequest("Parameter '" + name + "' must be true or false")
	}
	return b, nil
}

// pathID parses a numeric path segment.
func pathID(c *gin.Context, name string) (int64, error) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n <= 0 {
		return 0, badRequest("Invalid id")
	}
	return n, nil
}

func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return badRequest("Invalid request body")
	}
	return nil
}
