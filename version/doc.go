// Package version reports build information for the running binary.
//
//	go build -ldflags "-X github.com/kbukum/voicescribe/version.Version=1.2.0 \
//	  -X github.com/kbukum/voicescribe/version.Commit=$(git rev-parse HEAD)" ./cmd/voicescribe
package version
