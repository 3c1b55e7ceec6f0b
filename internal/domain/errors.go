package domain

import (
	"errors"
	"runtime"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrClosed        = errors.New("store closed")
)

type ErrorCategory int

const (
	CategoryValidation ErrorCategory = iota
	CategorySchema
	CategoryGraph
	CategoryNode
	CategoryRegistry
	CategoryStorage
	CategoryWorkflow
	CategoryConfiguration
	CategoryTimeout
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategorySchema:
		return "schema"
	case CategoryGraph:
		return "graph"
	case CategoryNode:
		return "node"
	case CategoryRegistry:
		return "registry"
	case CategoryStorage:
		return "storage"
	case CategoryWorkflow:
		return "workflow"
	case CategoryConfiguration:
		return "configuration"
	case CategoryTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
	SeverityCritical
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

type ErrorContext struct {
	Component  string
	Operation  string
	WorkflowID string
	NodeID     string
	NodeType   string
	Details    map[string]interface{}

	File     string
	Line     int
	Function string
}

type DomainError struct {
	Category   ErrorCategory
	Severity   ErrorSeverity
	Code       string
	Message    string
	Retryable  bool
	UserFacing bool
	Timestamp  time.Time
	Context    ErrorContext
	Cause      error
}

func (e *DomainError) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(e.Category.String())
	if e.Context.Component != "" {
		b.WriteString(":")
		b.WriteString(e.Context.Component)
	}
	b.WriteString("] ")
	b.WriteString(e.Code)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Category == other.Category
}

func (e *DomainError) WithNodeID(nodeID string) *DomainError {
	e.Context.NodeID = nodeID
	return e
}

func (e *DomainError) WithNodeType(nodeType string) *DomainError {
	e.Context.NodeType = nodeType
	return e
}

func (e *DomainError) WithWorkflowID(workflowID string) *DomainError {
	e.Context.WorkflowID = workflowID
	return e
}

func (e *DomainError) WithOperation(operation string) *DomainError {
	e.Context.Operation = operation
	return e
}

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context.Details == nil {
		e.Context.Details = make(map[string]interface{})
	}
	e.Context.Details[key] = value
	return e
}

type ErrorOption func(*DomainError)

func WithComponent(component string) ErrorOption {
	return func(e *DomainError) {
		e.Context.Component = component
	}
}

func WithOperation(operation string) ErrorOption {
	return func(e *DomainError) {
		e.Context.Operation = operation
	}
}

func WithNodeID(nodeID string) ErrorOption {
	return func(e *DomainError) {
		e.Context.NodeID = nodeID
	}
}

func WithCode(code string) ErrorOption {
	return func(e *DomainError) {
		e.Code = code
	}
}

func WithDetails(details map[string]interface{}) ErrorOption {
	return func(e *DomainError) {
		if e.Context.Details == nil {
			e.Context.Details = make(map[string]interface{}, len(details))
		}
		for k, v := range details {
			e.Context.Details[k] = v
		}
	}
}

func newDomainError(category ErrorCategory, message string, cause error, opts ...ErrorOption) *DomainError {
	err := &DomainError{
		Category:   category,
		Severity:   SeverityError,
		Message:    message,
		Retryable:  defaultRetryable(category),
		UserFacing: defaultUserFacing(category),
		Timestamp:  time.Now(),
		Cause:      cause,
	}

	if pc, file, line, ok := runtime.Caller(2); ok {
		err.Context.File = file
		err.Context.Line = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			err.Context.Function = fn.Name()
		}
	}

	err.Code = inferCode(category, message)

	for _, opt := range opts {
		opt(err)
	}

	return err
}

func defaultRetryable(category ErrorCategory) bool {
	switch category {
	case CategoryStorage, CategoryTimeout:
		return true
	default:
		return false
	}
}

func defaultUserFacing(category ErrorCategory) bool {
	switch category {
	case CategoryValidation, CategorySchema, CategoryGraph, CategoryConfiguration, CategoryRegistry:
		return true
	default:
		return false
	}
}

func inferCode(category ErrorCategory, message string) string {
	prefix := strings.ToUpper(category.String())
	lower := strings.ToLower(message)

	switch category {
	case CategoryValidation:
		switch {
		case strings.Contains(lower, "input"):
			return prefix + "_INPUT"
		case strings.Contains(lower, "output"):
			return prefix + "_OUTPUT"
		case strings.Contains(lower, "required") || strings.Contains(lower, "missing"):
			return prefix + "_REQUIRED"
		default:
			return prefix + "_INVALID"
		}
	case CategorySchema:
		switch {
		case strings.Contains(lower, "unsupported"):
			return prefix + "_UNSUPPORTED_TYPE"
		case strings.Contains(lower, "dict"):
			return prefix + "_INVALID_DICT"
		case strings.Contains(lower, "depth") || strings.Contains(lower, "nest"):
			return prefix + "_DEPTH"
		default:
			return prefix + "_INVALID"
		}
	case CategoryGraph:
		switch {
		case strings.Contains(lower, "duplicate"):
			return prefix + "_DUPLICATE_ID"
		case strings.Contains(lower, "input node"):
			return prefix + "_INPUT_NODE"
		case strings.Contains(lower, "output node"):
			return prefix + "_OUTPUT_NODE"
		default:
			return prefix + "_INVALID"
		}
	case CategoryRegistry:
		switch {
		case strings.Contains(lower, "unknown") || strings.Contains(lower, "not found"):
			return prefix + "_UNKNOWN_TYPE"
		case strings.Contains(lower, "already"):
			return prefix + "_DUPLICATE"
		default:
			return prefix + "_INVALID"
		}
	case CategoryStorage:
		switch {
		case strings.Contains(lower, "not found"):
			return prefix + "_NOT_FOUND"
		case strings.Contains(lower, "conflict") || strings.Contains(lower, "version"):
			return prefix + "_CONFLICT"
		case strings.Contains(lower, "closed"):
			return prefix + "_CLOSED"
		default:
			return prefix + "_FAILED"
		}
	case CategoryWorkflow:
		switch {
		case strings.Contains(lower, "timeout"):
			return prefix + "_TIMEOUT"
		case strings.Contains(lower, "cancel"):
			return prefix + "_CANCELLED"
		case strings.Contains(lower, "state") || strings.Contains(lower, "skip"):
			return prefix + "_STATE"
		default:
			return prefix + "_FAILED"
		}
	case CategoryNode:
		return prefix + "_RUN"
	default:
		return prefix + "_ERROR"
	}
}

func NewDomainErrorWithCategory(category ErrorCategory, message string, cause error, opts ...ErrorOption) *DomainError {
	return newDomainError(category, message, cause, opts...)
}

func NewValidationError(message string, cause error, opts ...ErrorOption) *DomainError {
	return newDomainError(CategoryValidation, message, cause, opts...)
}

func NewSchemaError(message string, cause error, opts ...ErrorOption) *DomainError {
	return newDomainError(CategorySchema, message, cause, opts...)
}

func NewGraphError(message string, cause error, opts ...ErrorOption) *DomainError {
	return newDomainError(CategoryGraph, message, cause, opts...)
}

func NewRegistryError(message string, cause error, opts ...ErrorOption) *DomainError {
	return newDomainError(CategoryRegistry, message, cause, opts...)
}

func NewStorageError(message string, cause error, opts ...ErrorOption) *DomainError {
	return newDomainError(CategoryStorage, message, cause, opts...)
}

func NewWorkflowError(message string, cause error, opts ...ErrorOption) *DomainError {
	return newDomainError(CategoryWorkflow, message, cause, opts...)
}

func NewConfigurationError(message string, cause error, opts ...ErrorOption) *DomainError {
	return newDomainError(CategoryConfiguration, message, cause, opts...)
}

func NewTimeoutError(message string, cause error, opts ...ErrorOption) *DomainError {
	return newDomainError(CategoryTimeout, message, cause, opts...)
}

func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

func AsDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	ok := errors.As(err, &domainErr)
	return domainErr, ok
}

func GetErrorCategory(err error) ErrorCategory {
	if domainErr, ok := AsDomainError(err); ok {
		return domainErr.Category
	}
	return CategoryWorkflow
}

func GetErrorSeverity(err error) ErrorSeverity {
	if domainErr, ok := AsDomainError(err); ok {
		return domainErr.Severity
	}
	return SeverityError
}

func GetErrorContext(err error) *ErrorContext {
	if domainErr, ok := AsDomainError(err); ok {
		return &domainErr.Context
	}
	return nil
}

func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if domainErr, ok := AsDomainError(err); ok {
		return domainErr.Retryable
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "temporary") ||
		strings.Contains(lower, "unavailable")
}

func IsUserFacingError(err error) bool {
	if domainErr, ok := AsDomainError(err); ok {
		return domainErr.UserFacing
	}
	return false
}

func ErrorLogAttrs(err error) []any {
	if err == nil {
		return nil
	}

	attrs := []any{
		"error", err,
		"error_category", GetErrorCategory(err).String(),
		"error_retryable", IsRetryableError(err),
		"error_user_facing", IsUserFacingError(err),
	}

	if ctx := GetErrorContext(err); ctx != nil {
		if ctx.Component != "" {
			attrs = append(attrs, "error_component", ctx.Component)
		}
		if ctx.Operation != "" {
			attrs = append(attrs, "error_operation", ctx.Operation)
		}
		if ctx.WorkflowID != "" {
			attrs = append(attrs, "workflow_id", ctx.WorkflowID)
		}
		if ctx.NodeID != "" {
			attrs = append(attrs, "node_id", ctx.NodeID)
		}
	}

	return attrs
}
