package authsvc

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrInvalidRequest indicates a request the service rejected as malformed.
var ErrInvalidRequest = errors.New("invalid request")

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if st.Code() == codes.InvalidArgument {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, st.Message())
	}
	return err
}
