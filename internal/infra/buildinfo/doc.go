// Package buildinfo exposes version information injected at link time:
//
//	go build -ldflags "-X github.com/yndnr/tokguard-go/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo
