//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package main

import "errors"

func disableEcho(int) error {
	return errors.New("echo control unsupported on this platform")
}
