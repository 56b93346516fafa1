package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type signUpRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=12"`
	Tags     []string `json:"tags,omitempty" binding:"omitempty,dive,max=5"`
}

func bind(t *testing.T, body string) error {
	t.Helper()
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req signUpRequest
	return BindJSON(c, &req)
}

func TestBindJSON_Valid(t *testing.T) {
	err := bind(t, `{"email":"a@example.com","password":"correct horse battery"}`)
	assert.NoError(t, err)
}

func TestBindJSON_FieldErrorsUseJSONNames(t *testing.T) {
	err := bind(t, `{"email":"nope","password":"short"}`)
	require.Error(t, err)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, http.StatusUnprocessableEntity, verr.Status)
	assert.Equal(t, []string{"must be a valid email address"}, verr.Fields["email"])
	assert.Equal(t, []string{"must be at least 12 characters"}, verr.Fields["password"])
}

func TestBindJSON_Required(t *testing.T) {
	err := bind(t, `{}`)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"is required"}, verr.Fields["email"])
	assert.Equal(t, []string{"is required"}, verr.Fields["password"])
}

func TestBindJSON_MalformedBody(t *testing.T) {
	err := bind(t, `{"email":`)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, http.StatusBadRequest, verr.Status)
	assert.Contains(t, verr.Fields, "body")
}

func TestBindJSON_WrongType(t *testing.T) {
	err := bind(t, `{"email":"a@example.com","password":"correct horse battery","tags":"x"}`)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, http.StatusBadRequest, verr.Status)
	assert.Contains(t, verr.Fields["body"][0], "tags")
}

func TestFieldErrors_Error(t *testing.T) {
	fe := FieldErrors{}
	fe.Add("url", "is required")
	fe.Add("tags", "contains an invalid item")
	assert.Equal(t, "validation failed: tags: contains an invalid item; url: is required", fe.Error())
}
