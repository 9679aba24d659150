package errors

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeStorageError       ErrorCode = "COMMON_017"
	ErrCodeMessagingError     ErrorCode = "COMMON_018"
)

// Tabular input Error Codes
const (
	ErrCodeTableMissingColumn ErrorCode = "TAB_001"
	ErrCodeTableParseFailed   ErrorCode = "TAB_002"
	ErrCodeTableWriteFailed   ErrorCode = "TAB_003"
)

// Classification Error Codes
const (
	ErrCodeEntityNotFound        ErrorCode = "CF_001"
	ErrCodeClassyFireUnavailable ErrorCode = "CF_002"
	ErrCodeClassyFireBadResponse ErrorCode = "CF_003"
	ErrCodeQueryPending          ErrorCode = "CF_004"
)

// Network Error Codes
const (
	ErrCodeInvalidNodeID     ErrorCode = "NET_001"
	ErrCodeInvalidThresholds ErrorCode = "NET_002"
)

// Aliases used at call sites.
const (
	CodeOK                 = ErrorCode("OK")
	CodeUnknown            = ErrorCode("UNKNOWN")
	CodeInternal           = ErrCodeInternal
	CodeInvalidParam       = ErrCodeBadRequest
	CodeNotFound           = ErrCodeNotFound
	CodeServiceUnavailable = ErrCodeServiceUnavailable
	CodeValidation         = ErrCodeValidation
	CodeCacheError         = ErrCodeCacheError
	CodeDatabaseError      = ErrCodeDatabaseError
	CodeStorageError       = ErrCodeStorageError
	CodeMessagingError     = ErrCodeMessagingError

	CodeTableMissingColumn    = ErrCodeTableMissingColumn
	CodeTableParseFailed      = ErrCodeTableParseFailed
	CodeTableWriteFailed      = ErrCodeTableWriteFailed
	CodeEntityNotFound        = ErrCodeEntityNotFound
	CodeClassyFireUnavailable = ErrCodeClassyFireUnavailable
	CodeClassyFireBadResponse = ErrCodeClassyFireBadResponse
	CodeQueryPending          = ErrCodeQueryPending
	CodeInvalidNodeID         = ErrCodeInvalidNodeID
	CodeInvalidThresholds     = ErrCodeInvalidThresholds
)

// retryableCodes lists codes whose failures are transient.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable:    true,
	ErrCodeTimeout:               true,
	ErrCodeClassyFireUnavailable: true,
	ErrCodeQueryPending:          true,
}

// IsRetryable reports whether the first AppError in err's chain carries a
// transient failure code.
func IsRetryable(err error) bool {
	return retryableCodes[GetCode(err)]
}
