package prometheus

import (
	"context"

	goGuard "github.com/MrEthical07/goGuard"
)

type stubDecoder struct{}

func (stubDecoder) DecodeToken(context.Context, string, string) (goGuard.Claims, error) {
	return nil, goGuard.NewError(goGuard.ErrInvalidToken, "invalid")
}

func (stubDecoder) UnverifiedHeader(string) (goGuard.Header, error) {
	return goGuard.Header{}, nil
}
