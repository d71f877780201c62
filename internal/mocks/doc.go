// Package mocks provides hand-written test doubles shared across packages.
//
// Each mock has a function field per method for custom behavior and records
// its calls for later assertions:
//
//	sender := &mocks.MockSender{
//	    SendFn: func(ctx context.Context, to, subject, body string) error {
//	        return errors.New("relay down")
//	    },
//	}
package mocks
