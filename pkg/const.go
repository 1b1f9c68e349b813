package pkg

const (
	HeaderTraceId   string = "X-Trace-Id"
	HeaderRequestId string = "X-Request-Id"
)

const (
	TraceId   string = "trace_id"
	SessionId string = "session_id"
	RequestId string = "request_id"
)

// InputSource identifies how the raw transaction input entered the pipeline.
type InputSource string

const (
	SourceScanned InputSource = "scanned"
	SourceManual  InputSource = "manual"
)

// RiskLabel is the discrete policy bucket derived from a fraud probability.
type RiskLabel string

const (
	RiskLow    RiskLabel = "LOW"
	RiskMedium RiskLabel = "MEDIUM"
	RiskHigh   RiskLabel = "HIGH"
)

// FrequencyBand buckets the user-declared monthly transaction count.
type FrequencyBand string

const (
	BandUnknown FrequencyBand = ""
	BandRare    FrequencyBand = "rare"    // <=3 per month
	BandRegular FrequencyBand = "regular" // 4-10 per month
	BandActive  FrequencyBand = "active"  // >10 per month
)

// SessionState is the lifecycle state of one interactive evaluation session.
type SessionState string

const (
	StateIdle             SessionState = "idle"
	StateCapturingScan    SessionState = "capturing_scan"
	StateCapturingManual  SessionState = "capturing_manual"
	StateScoring          SessionState = "scoring"
	StateDecided          SessionState = "decided"
	StatePermissionDenied SessionState = "permission_denied"
)
