package client

import "fmt"

// TransportError means no response arrived: the backend is unreachable or the
// connection failed mid-flight.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError means the service answered but refused the request. Message is
// the service's own wording; Available carries option lists the service
// offers alongside some rejections (e.g. valid target ids).
type ServiceError struct {
	Op        string
	Status    int
	Message   string
	Available []string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: service returned status %d", e.Op, e.Status)
}
