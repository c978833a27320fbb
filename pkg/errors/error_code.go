package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidConfig     ErrorCode = 100
	ErrCodeInvalidParameter  ErrorCode = 101
	ErrCodeMissingParameter  ErrorCode = 102
	ErrCodeInvalidPeriod     ErrorCode = 103
	ErrCodeInvalidTimeRange  ErrorCode = 104
	ErrCodeInvalidOrder      ErrorCode = 105
	ErrCodeInvalidParamRange ErrorCode = 106

	// Data errors (200-299)
	ErrCodeDataNotFound     ErrorCode = 200
	ErrCodeDataSourceFailed ErrorCode = 201
	ErrCodeQueryFailed      ErrorCode = 202
	ErrCodeInsufficientData ErrorCode = 203
	ErrCodeMissingColumn    ErrorCode = 204
	ErrCodeDataDirEmpty     ErrorCode = 205

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyNotFound ErrorCode = 400
	ErrCodeStrategyConfig   ErrorCode = 401
	ErrCodeStrategyRuntime  ErrorCode = 402

	// Backtest errors (500-599)
	ErrCodeInsufficientBuyingPower  ErrorCode = 500
	ErrCodeInsufficientSellingPower ErrorCode = 501
	ErrCodeBacktestNoStrategies     ErrorCode = 502
	ErrCodeBacktestNoData           ErrorCode = 503
	ErrCodeBacktestNoResultsDir     ErrorCode = 504
	ErrCodeBacktestStateFailed      ErrorCode = 505

	// Report and dashboard errors (600-699)
	ErrCodeReportWriteFailed   ErrorCode = 600
	ErrCodeResultsNotFound     ErrorCode = 601
	ErrCodeResultsIncompatible ErrorCode = 602

	// Market data download errors (700-799)
	ErrCodeDownloadFailed  ErrorCode = 700
	ErrCodeInvalidProvider ErrorCode = 701
	ErrCodeInvalidInterval ErrorCode = 702
	ErrCodeWriteFailed     ErrorCode = 703
)
