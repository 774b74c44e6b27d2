package retry

import "errors"

// PostgresTransient lists the error codes that indicate a dropped or
// exhausted connection rather than a problem with the statement:
//
//	26000  invalid SQL statement name (prepared statement lost with its connection)
//	42P05  duplicate prepared statement (pooler reused a connection)
//	P1010  connection pool denied access
//	P1017  server closed the connection
var PostgresTransient = []string{"26000", "42P05", "P1010", "P1017"}

type coder interface {
	Code() string
}

type sqlStater interface {
	SQLState() string
}

// Codes returns a classifier that matches errors carrying one of the given
// codes. An error carries a code if anything in its chain has a
// Code() string or SQLState() string method.
func Codes(codes ...string) func(error) bool {
	allowed := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		allowed[c] = struct{}{}
	}
	return func(err error) bool {
		code, ok := CodeOf(err)
		if !ok {
			return false
		}
		_, found := allowed[code]
		return found
	}
}

// CodeOf extracts the error code from err's chain.
func CodeOf(err error) (string, bool) {
	var c coder
	if errors.As(err, &c) {
		return c.Code(), true
	}
	var s sqlStater
	if errors.As(err, &s) {
		return s.SQLState(), true
	}
	return "", false
}
