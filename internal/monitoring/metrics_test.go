package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("footprint", "200"))

	RecordHTTPRequest("footprint", 200, 3*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("footprint", "200")))
}

func TestRecordEstimate(t *testing.T) {
	before := testutil.ToFloat64(EstimatesTotal.WithLabelValues("json"))

	RecordEstimate("json")
	RecordEstimate("json")

	assert.Equal(t, before+2, testutil.ToFloat64(EstimatesTotal.WithLabelValues("json")))
}

func TestRecordDecodeError(t *testing.T) {
	before := testutil.ToFloat64(DecodeErrorsTotal.WithLabelValues("json"))

	RecordDecodeError("json")

	assert.Equal(t, before+1, testutil.ToFloat64(DecodeErrorsTotal.WithLabelValues("json")))
}
