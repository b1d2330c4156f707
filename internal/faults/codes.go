package faults

import (
	"fmt"
	"time"

	"subflow/internal/stage"
)

// Category groups error codes by origin. Every code belongs to exactly one
// category; the mapping is fixed, never contextual.
type Category string

const (
	CategoryNetwork      Category = "network"
	CategoryAPI          Category = "api"
	CategoryResource     Category = "resource"
	CategoryInput        Category = "input"
	CategoryProcessing   Category = "processing"
	CategorySystem       Category = "system"
	CategoryCancellation Category = "cancellation"
	CategoryUnknown      Category = "unknown"
)

// Code identifies one failure mode in the closed taxonomy.
type Code string

const (
	CodeNetworkTimeout     Code = "network_timeout"
	CodeNetworkUnreachable Code = "network_unreachable"
	CodeConnectionRefused  Code = "connection_refused"
	CodeRateLimited        Code = "rate_limited"
	CodeQuotaExceeded      Code = "quota_exceeded"
	CodeAPIKeyMissing      Code = "api_key_missing"
	CodeAPIKeyInvalid      Code = "api_key_invalid"
	CodeModelNotFound      Code = "model_not_found"
	CodeBinaryNotFound     Code = "binary_not_found"
	CodeFileNotFound       Code = "file_not_found"
	CodeInsufficientMemory Code = "insufficient_memory"
	CodeDiskFull           Code = "disk_full"
	CodeVideoPrivate       Code = "video_private"
	CodeVideoAgeRestricted Code = "video_age_restricted"
	CodeVideoGeoBlocked    Code = "video_geo_blocked"
	CodeVideoCopyright     Code = "video_copyright_blocked"
	CodeVideoIsLive        Code = "video_is_live"
	CodeEncodingFailed     Code = "encoding_failed"
	CodePermissionDenied   Code = "permission_denied"
	CodeCancelled          Code = "cancelled"
	CodeUnknown            Code = "unknown"
)

var categories = map[Code]Category{
	CodeNetworkTimeout:     CategoryNetwork,
	CodeNetworkUnreachable: CategoryNetwork,
	CodeConnectionRefused:  CategoryNetwork,
	CodeRateLimited:        CategoryAPI,
	CodeQuotaExceeded:      CategoryAPI,
	CodeAPIKeyMissing:      CategoryAPI,
	CodeAPIKeyInvalid:      CategoryAPI,
	CodeModelNotFound:      CategoryResource,
	CodeBinaryNotFound:     CategoryResource,
	CodeFileNotFound:       CategoryResource,
	CodeInsufficientMemory: CategoryResource,
	CodeDiskFull:           CategoryResource,
	CodeVideoPrivate:       CategoryInput,
	CodeVideoAgeRestricted: CategoryInput,
	CodeVideoGeoBlocked:    CategoryInput,
	CodeVideoCopyright:     CategoryInput,
	CodeVideoIsLive:        CategoryInput,
	CodeEncodingFailed:     CategoryProcessing,
	CodePermissionDenied:   CategorySystem,
	CodeCancelled:          CategoryCancellation,
	CodeUnknown:            CategoryUnknown,
}

// AllCodes lists every code in the taxonomy.
func AllCodes() []Code {
	codes := make([]Code, 0, len(categories))
	for code := range categories {
		codes = append(codes, code)
	}
	return codes
}

// Category returns the fixed category for the code. Unlisted codes report
// CategoryUnknown, which only happens for values outside the taxonomy.
func (c Code) Category() Category {
	if category, ok := categories[c]; ok {
		return category
	}
	return CategoryUnknown
}

// Error is a classified pipeline failure. The user-facing Message and the
// TechnicalDetails are kept separate; the message is never replaced by raw
// tool output.
type Error struct {
	Code             Code
	Stage            stage.Name
	Message          string
	TechnicalDetails string
	Suggestion       string
	Recoverable      bool
	Retryable        bool
	Timestamp        time.Time
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Code, e.Message)
}

// Category returns the category of the underlying code.
func (e *Error) Category() Category {
	return e.Code.Category()
}
