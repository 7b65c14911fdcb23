package error

// GenericError is implemented by errors that know how they should be rendered to API clients.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
