package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func runCorrelationRequest(t *testing.T, setHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	router := gin.New()
	router.Use(CorrelationID())

	var contextID string
	router.GET("/probe", func(c *gin.Context) {
		contextID = c.GetString(CorrelationIDKey)
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	if setHeader != "" {
		req.Header.Set(CorrelationIDHeader, setHeader)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr, contextID
}

func TestCorrelationID_GeneratesWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rr, contextID := runCorrelationRequest(t, "")

	assert.Equal(t, http.StatusOK, rr.Code)

	headerID := rr.Header().Get(CorrelationIDHeader)
	assert.NotEmpty(t, headerID)
	_, err := uuid.Parse(headerID)
	assert.NoError(t, err, "generated correlation ID should be a UUID")

	assert.Equal(t, headerID, contextID, "header and context must carry the same ID")
}

func TestCorrelationID_PropagatesProvidedValue(t *testing.T) {
	gin.SetMode(gin.TestMode)

	provided := uuid.New().String()
	rr, contextID := runCorrelationRequest(t, provided)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, provided, rr.Header().Get(CorrelationIDHeader))
	assert.Equal(t, provided, contextID)
}

func TestGetCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("StringValue", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		want := uuid.New().String()
		c.Set(CorrelationIDKey, want)

		assert.Equal(t, want, GetCorrelationID(c))
	})

	t.Run("Unset", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.Empty(t, GetCorrelationID(c))
	})

	t.Run("NonStringValue", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(CorrelationIDKey, 12345)

		assert.Empty(t, GetCorrelationID(c))
	})
}
