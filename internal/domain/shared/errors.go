package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound              = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists         = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput          = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState          = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInvalidTenant         = NewDomainError("INVALID_TENANT", "No tenant could be derived from the request")
	ErrTenantUnavailable     = NewDomainError("TENANT_UNAVAILABLE", "Tenant database is unavailable")
	ErrInsufficientStock     = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrInvalidQuantity       = NewDomainError("INVALID_QUANTITY", "Quantity is outside the allowed range")
	ErrConnectionUnavailable = NewDomainError("CONNECTION_UNAVAILABLE", "Database connection could not be acquired")
)

// IsRetryable reports whether the caller may retry the failed operation.
// Only pool exhaustion/timeouts are retryable; validation and constraint
// violations are not.
func IsRetryable(err error) bool {
	return err == ErrConnectionUnavailable
}
