package inproc

import (
	"context"
	"reflect"

	"github.com/Meulengracht/gracht"
	"github.com/Meulengracht/gracht/link"
)

// pollOnce fans in over a dynamic set of per-client channels plus
// ctx.Done, returning the handle and message of whichever channel fires
// first. Used by RecvPacket, where the set of connected clients is not
// known at compile time.
func pollOnce(ctx context.Context, cases []selectCase) (link.Handle, []byte, error) {
	if len(cases) == 0 {
		<-ctx.Done()
		return 0, nil, ctx.Err()
	}

	selCases := make([]reflect.SelectCase, 0, len(cases)+1)
	for _, c := range cases {
		selCases = append(selCases, reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(c.ch),
		})
	}
	selCases = append(selCases, reflect.SelectCase{
		Dir:  reflect.SelectRecv,
		Chan: reflect.ValueOf(ctx.Done()),
	})

	chosen, value, ok := reflect.Select(selCases)
	if chosen == len(cases) {
		return 0, nil, ctx.Err()
	}
	if !ok {
		return 0, nil, gracht.NewError(gracht.KindNotFound, "client connection closed", nil)
	}
	return cases[chosen].handle, value.Bytes(), nil
}
