//go:build tools

// go generate ile çalışan araçları (mockgen) go.mod'da takip eder.
// Runtime'da kullanılmaz.
package main

import (
	_ "go.uber.org/mock/mockgen"
)
